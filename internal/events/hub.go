package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/harsh17045/IssueTracker-sub000/internal/observability"
)

// Fanout delivers live messages to whoever is currently subscribed.
type Fanout interface {
	// Publish delivers msg at most once to every subscription joined to
	// any of channels.
	Publish(ctx context.Context, msg Message, channels ...string) error
	Subscribe(channels ...string) *Subscription
}

const defaultSubscriberBuffer = 64

// Subscription is one connected listener. Events stops yielding once
// Close is called.
type Subscription struct {
	hub      *Hub
	channels []string
	events   chan Delivery
	once     sync.Once
}

// Events returns the delivery stream.
func (s *Subscription) Events() <-chan Delivery {
	return s.events
}

// Channels lists the channels the subscription joined.
func (s *Subscription) Channels() []string {
	return append([]string(nil), s.channels...)
}

// Close leaves every channel and closes the stream.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.events)
	})
}

// Hub is the in-process fan-out. Sends never block: when a subscriber's
// buffer is full the message is dropped for that subscriber only.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Subscription]struct{}
	buffer   int
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewHub builds a hub whose subscriptions buffer up to buffer messages.
func NewHub(buffer int, logger *zap.Logger, metrics *observability.Metrics) *Hub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		channels: make(map[string]map[*Subscription]struct{}),
		buffer:   buffer,
		logger:   logger,
		metrics:  metrics,
	}
}

var _ Fanout = (*Hub)(nil)

// Subscribe joins the given channels; duplicates are ignored.
func (h *Hub) Subscribe(channels ...string) *Subscription {
	sub := &Subscription{hub: h, events: make(chan Delivery, h.buffer)}
	seen := make(map[string]struct{}, len(channels))

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, channel := range channels {
		if _, dup := seen[channel]; dup || channel == "" {
			continue
		}
		seen[channel] = struct{}{}
		sub.channels = append(sub.channels, channel)
		members, ok := h.channels[channel]
		if !ok {
			members = make(map[*Subscription]struct{})
			h.channels[channel] = members
		}
		members[sub] = struct{}{}
	}
	return sub
}

// Publish delivers locally. It never fails.
func (h *Hub) Publish(ctx context.Context, msg Message, channels ...string) error {
	h.Deliver(msg, channels...)
	return nil
}

// Deliver hands msg to each subscription joined to any of channels,
// once per subscription, and returns how many received it.
func (h *Hub) Deliver(msg Message, channels ...string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	visited := make(map[*Subscription]struct{})
	delivered := 0
	for _, channel := range channels {
		for sub := range h.channels[channel] {
			if _, done := visited[sub]; done {
				continue
			}
			visited[sub] = struct{}{}
			select {
			case sub.events <- Delivery{Channel: channel, Message: msg}:
				delivered++
				h.metrics.RecordDelivery(string(msg.Type))
			default:
				h.metrics.RecordDrop(string(msg.Type))
				h.logger.Warn("subscriber buffer full; dropping event",
					zap.String("channel", channel),
					zap.String("type", string(msg.Type)),
					zap.String("ticket_id", msg.Payload.TicketID))
			}
		}
	}
	return delivered
}

// SubscriberCount reports how many subscriptions joined channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, channel := range sub.channels {
		members := h.channels[channel]
		delete(members, sub)
		if len(members) == 0 {
			delete(h.channels, channel)
		}
	}
}
