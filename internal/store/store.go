package store

import (
	"context"
	"errors"

	"github.com/counterpointai/counterpoint/models"
)

// ErrSessionNotFound is returned when a session id has no stored record.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists debate sessions keyed by id. Update writes the
// history and all counters in one atomic operation, so a failed turn append
// never leaves partial state visible.
type SessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Update(ctx context.Context, s *models.Session) error
}
