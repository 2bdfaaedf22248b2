package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"kanban/domain"
)

// DefaultChannel is the pub/sub channel board events are published on.
const DefaultChannel = "kanban:board-updates"

// RedisPublisher publishes board events on a Redis channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev domain.BoardEvent) error {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode board event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish board event: %w", err)
	}
	return nil
}

// SubscribeUpdates listens for board events on channel and hands each one to
// deliver until ctx is done. A closed subscription is reopened.
func SubscribeUpdates(
	ctx context.Context,
	logger *log.Logger,
	rc *redis.Client,
	channel string,
	deliver func(ctx context.Context, ev domain.BoardEvent) error,
) {
	if channel == "" {
		channel = DefaultChannel
	}
	for {
		sub := rc.Subscribe(ctx, channel)
		ch := sub.Channel()
	recv:
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break recv
				}
				var ev domain.BoardEvent
				if err := sonic.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					logger.WithError(err).Warn("stream.update.invalid")
					continue
				}
				if err := deliver(ctx, ev); err != nil {
					logger.WithError(err).WithField("user_id", ev.UserID).Warn("stream.update.deliver_failed")
				}
			}
		}
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		logger.Error("pubsub channel closed, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}
