package session

import (
	"context"
	"errors"
	"time"

	"github.com/campusdesk/student-portal/internal/domain"
)

// ErrNotFound is returned when no page state exists for a user.
var ErrNotFound = errors.New("page state not found")

// State is the per-user profile page state. Confirmed is the last record
// acknowledged by the profile service; Buffer holds the unsaved edits.
type State struct {
	UserID     string         `json:"user_id"`
	Confirmed  domain.Profile `json:"confirmed"`
	Buffer     domain.Profile `json:"buffer"`
	Loading    bool           `json:"loading"`
	Editing    bool           `json:"editing"`
	Submitting bool           `json:"submitting"`
	// SubmitStartedAt lets an abandoned submit expire.
	SubmitStartedAt time.Time             `json:"submit_started_at,omitempty"`
	Generation      uint64                `json:"generation"`
	Notifications   []domain.Notification `json:"notifications,omitempty"`
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Notifications != nil {
		cp.Notifications = append([]domain.Notification(nil), s.Notifications...)
	}
	return &cp
}

// Notify queues a notification for the next render.
func (s *State) Notify(kind domain.NotificationKind, text string) {
	s.Notifications = append(s.Notifications, domain.Notification{Kind: kind, Text: text})
}

// Store persists page state between requests.
type Store interface {
	Get(ctx context.Context, userID string) (*State, error)
	Save(ctx context.Context, state *State) error
	Delete(ctx context.Context, userID string) error
}

// Backend is a Store with a connection lifecycle.
type Backend interface {
	Store
	Ping(ctx context.Context) error
	Close() error
}
