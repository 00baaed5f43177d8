// Package redisstore keeps wizard sessions in Redis so several instances can
// serve the same users and abandoned sessions expire.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jobadwizard/backend/internal/model/wizard"
)

const keyPrefix = "wizard:session:"

var _ wizard.Store = (*Store)(nil)

// Store implements wizard.Store on top of a Redis client.
type Store struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// New wraps an existing client. ttl is refreshed on every write.
func New(rdb redis.Cmdable, ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Dial parses redisURL, connects and pings the server.
func Dial(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

// Key returns the Redis key holding userID's session.
func Key(userID string) string {
	return keyPrefix + userID
}

// GetOrCreate implements wizard.Store.
func (s *Store) GetOrCreate(ctx context.Context, userID string) (wizard.Session, bool, error) {
	if userID == "" {
		return wizard.Session{}, false, wizard.ErrUserIDRequired
	}

	data, err := s.rdb.Get(ctx, Key(userID)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		session := wizard.NewSession(userID, s.now())
		if err := s.write(ctx, session); err != nil {
			return wizard.Session{}, false, err
		}
		return session, true, nil
	case err != nil:
		return wizard.Session{}, false, fmt.Errorf("load session %s: %w", userID, err)
	}

	session, err := Decode(data)
	if err != nil {
		// A corrupt entry is replaced rather than locking the user out.
		s.logger.Warn("discarding undecodable session", zap.String("user_id", userID), zap.Error(err))
		session = wizard.NewSession(userID, s.now())
		if err := s.write(ctx, session); err != nil {
			return wizard.Session{}, false, err
		}
		return session, true, nil
	}
	return session, false, nil
}

// Save implements wizard.Store.
func (s *Store) Save(ctx context.Context, session wizard.Session) error {
	if session.UserID == "" {
		return wizard.ErrUserIDRequired
	}
	session.UpdatedAt = s.now()
	return s.write(ctx, session)
}

// Delete implements wizard.Store.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, Key(userID)).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", userID, err)
	}
	return nil
}

func (s *Store) write(ctx context.Context, session wizard.Session) error {
	data, err := Encode(session)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, Key(session.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", session.UserID, err)
	}
	return nil
}

// Encode serializes a session for storage.
func Encode(session wizard.Session) ([]byte, error) {
	if session.Answers == nil {
		session.Answers = []string{}
	}
	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return data, nil
}

// Decode parses a stored session.
func Decode(data []byte) (wizard.Session, error) {
	var session wizard.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return wizard.Session{}, fmt.Errorf("decode session: %w", err)
	}
	if session.UserID == "" {
		return wizard.Session{}, fmt.Errorf("decode session: missing user id")
	}
	if session.Answers == nil {
		session.Answers = []string{}
	}
	return session, nil
}
