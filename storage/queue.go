package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"

	"kanban/domain"
)

// EventQueue forwards board events to an Azure Storage queue as an audit
// trail.
type EventQueue struct {
	queue *azqueue.QueueClient
}

// NewEventQueue creates a queue publisher from a storage connection string.
func NewEventQueue(connStr, queueName string) (*EventQueue, error) {
	opts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: time.Minute,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, &opts)
	if err != nil {
		return nil, err
	}
	return &EventQueue{queue: q}, nil
}

// Publish enqueues ev without its board payload.
func (q *EventQueue) Publish(ctx context.Context, ev domain.BoardEvent) error {
	msg, err := encodeQueueEvent(ev)
	if err != nil {
		return err
	}
	if _, err := q.queue.EnqueueMessage(ctx, msg, nil); err != nil {
		return fmt.Errorf("enqueue board event: %w", err)
	}
	return nil
}

func encodeQueueEvent(ev domain.BoardEvent) (string, error) {
	ev.Board = nil
	data, err := sonic.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("encode board event: %w", err)
	}
	return string(data), nil
}
