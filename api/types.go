package api

import (
	"context"

	"kanban/board"
)

// Sessions hands out the command dispatcher of a user's board.
type Sessions interface {
	Get(ctx context.Context, userID string) (*board.Dispatcher, error)
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper prevents processing of duplicate commands.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key so the command may be retried.
	Remove(ctx context.Context, userID, key string) error
}

// Subscriber opens a live feed of serialized boards for a user.
type Subscriber interface {
	Subscribe(userID string) (<-chan []byte, func())
}
