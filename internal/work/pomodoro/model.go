package pomodoro

import "time"

// SessionKind separates focus work from breaks.
type SessionKind string

const (
	KindFocus SessionKind = "focus"
	KindBreak SessionKind = "break"
)

// Valid reports whether the kind is supported.
func (k SessionKind) Valid() bool {
	return k == KindFocus || k == KindBreak
}

// Session is one Pomodoro interval. EndedAt and DurationSeconds are nil while
// the session runs.
type Session struct {
	ID              int64       `json:"id"`
	OwnerID         int64       `json:"owner_id"`
	TaskID          *int64      `json:"task_id,omitempty"`
	Kind            SessionKind `json:"kind"`
	PlannedMinutes  int         `json:"planned_minutes"`
	StartedAt       time.Time   `json:"started_at"`
	EndedAt         *time.Time  `json:"ended_at,omitempty"`
	DurationSeconds *int64      `json:"duration_seconds,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// Running reports whether the session is still open.
func (s *Session) Running() bool {
	return s.EndedAt == nil
}
