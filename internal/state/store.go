// Package state persists the set of posting IDs already notified.
package state

import (
	"context"
	"errors"
	"fmt"

	"go-careerwatch/internal/config"
	"go-careerwatch/internal/dedup"
)

// ErrCorrupt marks persisted state that exists but cannot be read back.
// It is never treated as an empty set.
var ErrCorrupt = errors.New("state is corrupt or unreadable")

// Store is read once at the start of a run and written at most once at the end.
type Store interface {
	// Load returns an empty set when nothing has been persisted yet.
	Load(ctx context.Context) (dedup.SeenSet, error)
	// Save replaces the persisted set atomically.
	Save(ctx context.Context, seen dedup.SeenSet) error
	Close() error
}

// Error is a storage failure on one backend operation.
type Error struct {
	Backend string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state %s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func corrupt(backend string, err error) error {
	return &Error{Backend: backend, Op: "load", Err: fmt.Errorf("%w: %v", ErrCorrupt, err)}
}

// Open returns the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StateConfig) (Store, error) {
	switch cfg.Backend {
	case "", "json":
		return NewJSONFile(cfg.Path), nil
	case "sqlite":
		st, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "postgres":
		st, err := ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, &Error{Backend: cfg.Backend, Op: "open", Err: errors.New("unknown backend")}
	}
}
