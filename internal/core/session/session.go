package session

import (
	"context"
	"errors"
	"time"
)

// ErrNoSession is returned by Load when nobody is logged in.
var ErrNoSession = errors.New("no active session")

// Session is what login leaves behind for later requests.
type Session struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Valid reports whether the session carries a token.
func (s Session) Valid() bool {
	return s.Token != ""
}

// Store persists the current session. Implementations must be safe for concurrent use.
type Store interface {
	// Load returns ErrNoSession when nothing is stored.
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	// Clear removes the session. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
