// Package storage persists serialized boards in key-value backends and
// forwards board events to queues.
package storage

import (
	"context"

	"kanban/domain"
)

type backend interface {
	Load(ctx context.Context, key string) (domain.Board, bool, error)
	Save(ctx context.Context, key string, b domain.Board) error
}
