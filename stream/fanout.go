package stream

import (
	"context"
	"errors"

	"kanban/domain"
)

// Publisher receives board events.
type Publisher interface {
	Publish(ctx context.Context, ev domain.BoardEvent) error
}

// Fanout publishes every event to all of its publishers and joins their
// errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev domain.BoardEvent) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
