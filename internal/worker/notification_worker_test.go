package worker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
	"github.com/harsh17045/IssueTracker-sub000/internal/events"
	"github.com/harsh17045/IssueTracker-sub000/internal/service"
)

func raisedEvent() events.Event {
	return events.Event{
		ID:        "ev-1",
		Type:      events.EventTicketRaised,
		TicketID:  "t-1",
		Timestamp: time.Now().UTC(),
		Ticket: domain.Ticket{
			ID:              "t-1",
			HumanReadableID: "TK-1",
			Title:           "Projector flickers",
			Status:          domain.TicketStatusPending,
			RaisedByID:      "E",
			RoutedChannel:   events.LocationChannel("B1", 2),
		},
	}
}

func TestWorkerWithoutRelayUsesLocalHub(t *testing.T) {
	logger := zap.NewNop()
	hub := events.NewHub(4, logger, nil)
	dispatcher := events.NewInMemoryDispatcher(logger)
	notifications := service.NewNotificationService(dispatcher, service.NewRouter(nil, nil, nil), hub, logger)

	require.NoError(t, StartNotificationWorker(context.Background(), notifications, nil, logger))

	sub := hub.Subscribe(events.LocationChannel("B1", 2))
	defer sub.Close()
	require.NoError(t, dispatcher.Publish(context.Background(), raisedEvent()))

	select {
	case got := <-sub.Events():
		assert.Equal(t, events.MessageNewTicket, got.Type)
		assert.Equal(t, "TK-1", got.Payload.HumanReadableID)
	case <-time.After(time.Second):
		t.Fatal("no delivery")
	}
}

func TestWorkerRelaysAcrossReplicas(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := zap.NewNop()

	publisher := events.NewRedisFanout(client, "issuetracker:events", events.NewHub(4, logger, nil), logger, nil)
	dispatcher := events.NewInMemoryDispatcher(logger)
	notifications := service.NewNotificationService(dispatcher, service.NewRouter(nil, nil, nil), publisher, logger)
	require.NoError(t, StartNotificationWorker(ctx, notifications, publisher, logger))

	remote := events.NewRedisFanout(client, "issuetracker:events", events.NewHub(4, logger, nil), logger, nil)
	require.NoError(t, StartNotificationWorker(ctx, nil, remote, logger))
	sub := remote.Subscribe(events.LocationChannel("B1", 2))
	defer sub.Close()

	require.NoError(t, dispatcher.Publish(ctx, raisedEvent()))

	select {
	case got := <-sub.Events():
		assert.Equal(t, "loc:B1:2", got.Channel)
		assert.Equal(t, "t-1", got.Payload.TicketID)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not deliver")
	}
}

func TestWorkerFailsWhenRedisIsUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	relay := events.NewRedisFanout(client, "issuetracker:events", events.NewHub(4, nil, nil), nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.Error(t, StartNotificationWorker(ctx, nil, relay, zap.NewNop()))
}
