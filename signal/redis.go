package signal

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
)

// stream is the Redis stream all instances of a profile share.
const stream = "orgv.session.signals"

// RedisSignal is the cross-machine transport, backed by a Redis stream. Every
// subscriber reads the whole stream (no consumer group) so an announcement
// fans out to every listening instance, the announcer included.
type RedisSignal struct {
	publisher  message.Publisher
	subscriber message.Subscriber
}

// NewRedisSignal builds a transport over client.
func NewRedisSignal(client *redis.Client, logger watermill.LoggerAdapter) (*RedisSignal, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: client},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("signal: redis publisher: %w", err)
	}
	subscriber, err := redisstream.NewSubscriber(
		redisstream.SubscriberConfig{Client: client},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("signal: redis subscriber: %w", err)
	}
	return &RedisSignal{publisher: publisher, subscriber: subscriber}, nil
}

func (r *RedisSignal) Announce(_ context.Context, ev Event) error {
	encoded, err := ev.encode()
	if err != nil {
		return fmt.Errorf("signal: encode event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), []byte(encoded))
	if err := r.publisher.Publish(stream, msg); err != nil {
		return fmt.Errorf("signal: publish to %s: %w", stream, err)
	}
	return nil
}

func (r *RedisSignal) Listen(ctx context.Context) (<-chan Event, error) {
	messages, err := r.subscriber.Subscribe(ctx, stream)
	if err != nil {
		return nil, fmt.Errorf("signal: subscribe to %s: %w", stream, err)
	}
	out := make(chan Event, 1)
	go func() {
		defer close(out)
		for msg := range messages {
			ev, err := decodeEvent(msg.Payload)
			msg.Ack()
			if err != nil {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (r *RedisSignal) Close() error {
	pubErr := r.publisher.Close()
	subErr := r.subscriber.Close()
	if pubErr != nil {
		return pubErr
	}
	return subErr
}
