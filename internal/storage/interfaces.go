package storage

import (
	"context"

	"token-pulse/internal/domain"
)

// TokenStore holds the live token set of one session.
// Implementations return copies; callers never alias stored records.
type TokenStore interface {
	// ReplaceAll swaps the whole set, keeping the given order.
	// Returns ErrInvalidInput for nil tokens or empty ids, ErrDuplicateKey for repeated ids.
	ReplaceAll(ctx context.Context, tokens []*domain.Token) error

	// Get retrieves a token by id. Returns ErrNotFound if not exists.
	Get(ctx context.Context, id string) (*domain.Token, error)

	// Snapshot returns a copy of every token in insertion order.
	Snapshot(ctx context.Context) ([]*domain.Token, error)

	// Apply merges the non-nil fields of update into the token with id.
	// Returns ErrNotFound if not exists.
	Apply(ctx context.Context, id string, update *domain.TokenUpdate) error

	// Len returns the number of stored tokens.
	Len(ctx context.Context) int
}
