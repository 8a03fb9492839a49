package scenario

import (
	"context"
	"errors"
)

// ErrNotFound indicates a Store has no profile under the requested ID.
var ErrNotFound = errors.New("scenario: profile not found")

// Store persists scenario profiles for programmatic lookup by ID, as an
// alternative to reading a scenario pack directory at startup via LoadDir.
type Store interface {
	// Put inserts or replaces the profile under its own ID.
	Put(ctx context.Context, p Profile) error
	// Get loads a profile by ID. Returns ErrNotFound when absent.
	Get(ctx context.Context, id string) (Profile, error)
	// List returns every stored profile, in unspecified order.
	List(ctx context.Context) ([]Profile, error)
}
