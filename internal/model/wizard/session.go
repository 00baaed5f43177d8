package wizard

import "time"

// Session tracks one user's progress through the question sequence.
type Session struct {
	UserID    string    `json:"userId"`
	Locale    string    `json:"locale"`
	Answers   []string  `json:"answers"`
	Cursor    int       `json:"cursor"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSession returns the initial state for userID.
func NewSession(userID string, now time.Time) Session {
	return Session{
		UserID:    userID,
		Answers:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AwaitingAnswer reports whether the last asked question has no answer yet.
func (s Session) AwaitingAnswer() bool {
	return len(s.Answers) < s.Cursor
}

// Clone returns a copy that shares no memory with s.
func (s Session) Clone() Session {
	out := s
	out.Answers = append([]string{}, s.Answers...)
	return out
}
