package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobadwizard/backend/internal/metrics"
	"github.com/jobadwizard/backend/internal/model/locale"
	"github.com/jobadwizard/backend/internal/model/wizard"
	"github.com/jobadwizard/backend/internal/service/ai"
)

var (
	ErrUserIDRequired  = wizard.ErrUserIDRequired
	ErrMessageRequired = errors.New("message is required")
	ErrUnknownLocale   = errors.New("unknown locale")
	ErrGeneration      = errors.New("document generation failed")
)

// TurnResult is what one call to Advance hands back to the transport.
// Reply holds the next question and is empty once Done; the generated HTML
// is always carried in Document.
type TurnResult struct {
	Reply    string `json:"reply"`
	Done     bool   `json:"done"`
	Document string `json:"document,omitempty"`
	Step     int    `json:"step"`
	Total    int    `json:"total"`
	Locale   string `json:"locale"`
}

// Options carries the optional collaborators of Service.
type Options struct {
	// Timeout bounds the generation call. Zero means no extra bound.
	Timeout time.Duration
	Metrics *metrics.Collector
	Logger  *zap.Logger
}

// Service drives the question sequence for every user.
type Service struct {
	store     wizard.Store
	locales   *locale.Registry
	generator ai.Generator
	timeout   time.Duration
	metrics   *metrics.Collector
	logger    *zap.Logger
}

// NewService wires the wizard controller.
func NewService(store wizard.Store, locales *locale.Registry, generator ai.Generator, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		locales:   locales,
		generator: generator,
		timeout:   opts.Timeout,
		metrics:   opts.Metrics,
		logger:    logger.Named("wizard"),
	}
}

// Advance records message as the answer to the previously asked question and
// returns the next question, or the generated document once every question
// has been answered. The message of a user's first call is ignored.
// localeCode only matters when the session is new.
func (s *Service) Advance(ctx context.Context, userID, message, localeCode string) (TurnResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return TurnResult{}, ErrUserIDRequired
	}

	if localeCode != "" {
		if _, ok := s.locales.Get(localeCode); !ok {
			return TurnResult{}, fmt.Errorf("%w: %q", ErrUnknownLocale, localeCode)
		}
	}

	session, created, err := s.store.GetOrCreate(ctx, userID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("load session: %w", err)
	}
	if created {
		s.metrics.ObserveSessionStarted()
		s.logger.Debug("session started", zap.String("user_id", userID))
	}

	loc := s.sessionLocale(&session, localeCode)
	total := len(loc.Questions)

	if session.AwaitingAnswer() {
		if strings.TrimSpace(message) == "" {
			s.metrics.ObserveTurn(loc.Code, metrics.OutcomeRejected)
			return TurnResult{}, ErrMessageRequired
		}
		session.Answers = append(session.Answers, message)
	}

	if question, ok := loc.Question(session.Cursor); ok {
		session.Cursor++
		if err := s.store.Save(ctx, session); err != nil {
			return TurnResult{}, fmt.Errorf("save session: %w", err)
		}

		s.metrics.ObserveTurn(loc.Code, metrics.OutcomeQuestion)
		return TurnResult{
			Reply:  question,
			Step:   session.Cursor,
			Total:  total,
			Locale: loc.Code,
		}, nil
	}

	// Keep the answers before calling out so a failed generation can be
	// retried without answering again.
	if err := s.store.Save(ctx, session); err != nil {
		return TurnResult{}, fmt.Errorf("save session: %w", err)
	}

	document, err := s.generate(ctx, loc, session)
	if err != nil {
		s.metrics.ObserveTurn(loc.Code, metrics.OutcomeFailed)
		s.logger.Warn("generation failed, answers kept for retry",
			zap.String("user_id", userID),
			zap.String("locale", loc.Code),
			zap.Error(err),
		)
		return TurnResult{}, err
	}

	if err := s.store.Delete(ctx, userID); err != nil {
		s.logger.Error("failed to delete completed session", zap.String("user_id", userID), zap.Error(err))
	}

	s.metrics.ObserveTurn(loc.Code, metrics.OutcomeCompleted)
	s.logger.Info("job ad generated",
		zap.String("user_id", userID),
		zap.String("locale", loc.Code),
		zap.Int("length", len(document)),
	)

	return TurnResult{
		Done:     true,
		Document: document,
		Step:     total,
		Total:    total,
		Locale:   loc.Code,
	}, nil
}

// Reset drops whatever progress userID has made.
func (s *Service) Reset(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}
	if err := s.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Locales returns the registry the service runs on.
func (s *Service) Locales() *locale.Registry {
	return s.locales
}

// sessionLocale pins the locale on a fresh session and resolves it on later
// turns. A locale that disappeared since the session started falls back to
// the default.
func (s *Service) sessionLocale(session *wizard.Session, requested string) *locale.Locale {
	if session.Locale == "" {
		loc, ok := s.locales.Get(requested)
		if !ok {
			loc = s.locales.Default()
		}
		session.Locale = loc.Code
		return loc
	}

	if loc, ok := s.locales.Get(session.Locale); ok {
		return loc
	}
	loc := s.locales.Default()
	session.Locale = loc.Code
	return loc
}

func (s *Service) generate(ctx context.Context, loc *locale.Locale, session wizard.Session) (string, error) {
	answers, err := locale.AnswersFrom(session.Answers)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	prompt, err := loc.Render(answers)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	document, err := s.generator.Generate(ctx, prompt)
	s.metrics.ObserveGeneration(time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	document = strings.TrimSpace(document)
	if document == "" {
		return "", fmt.Errorf("%w: %w", ErrGeneration, ai.ErrEmptyResponse)
	}
	return document, nil
}
