package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/harsh17045/IssueTracker-sub000/internal/observability"
)

// envelope is what travels over the shared Redis channel.
type envelope struct {
	Channels []string `json:"channels"`
	Message  Message  `json:"message"`
}

// RedisFanout shares live messages between replicas through one Redis
// pub/sub channel. Each replica relays what it receives into its local Hub.
type RedisFanout struct {
	client  *redis.Client
	topic   string
	local   *Hub
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewRedisFanout builds the bridge. Call Start before serving subscribers.
func NewRedisFanout(client *redis.Client, topic string, local *Hub, logger *zap.Logger, metrics *observability.Metrics) *RedisFanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisFanout{client: client, topic: topic, local: local, logger: logger, metrics: metrics}
}

var _ Fanout = (*RedisFanout)(nil)

// Publish sends msg to every replica. When Redis is unreachable the
// message is still delivered to this replica's subscribers and the
// transport error is returned.
func (f *RedisFanout) Publish(ctx context.Context, msg Message, channels ...string) error {
	raw, err := json.Marshal(envelope{Channels: channels, Message: msg})
	if err != nil {
		return fmt.Errorf("encode fanout envelope: %w", err)
	}
	if err := f.client.Publish(ctx, f.topic, raw).Err(); err != nil {
		f.metrics.RecordPublishFailure()
		f.local.Deliver(msg, channels...)
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe joins channels on the local hub.
func (f *RedisFanout) Subscribe(channels ...string) *Subscription {
	return f.local.Subscribe(channels...)
}

// Start subscribes to the Redis topic, waits for the confirmation and
// relays messages until ctx is cancelled.
func (f *RedisFanout) Start(ctx context.Context) error {
	pubsub := f.client.Subscribe(ctx, f.topic)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", f.topic, err)
	}

	go func() {
		defer pubsub.Close()
		stream := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-stream:
				if !ok {
					return
				}
				f.relay(msg.Payload)
			}
		}
	}()
	f.logger.Info("fanout relay started", zap.String("topic", f.topic))
	return nil
}

func (f *RedisFanout) relay(raw string) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		f.logger.Warn("discarding malformed fanout envelope", zap.Error(err))
		return
	}
	f.local.Deliver(env.Message, env.Channels...)
}
