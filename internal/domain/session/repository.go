package session

import (
	"context"
	"time"
)

// KeyValue is the persistence contract every backend implements.
// Get returns ErrNotFound for missing or expired keys.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Store is the single read/write point for session state.
// Load of an unknown session returns the zero State.
type Store interface {
	Load(ctx context.Context, sessionID string) (State, error)
	Save(ctx context.Context, sessionID string, s State) error
}

// TokenStore persists the bearer token as plain text, one entry per session.
type TokenStore interface {
	Token(ctx context.Context, sessionID string) (string, error)
	SaveToken(ctx context.Context, sessionID, token string) error
	DeleteToken(ctx context.Context, sessionID string) error
}
