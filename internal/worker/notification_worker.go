package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/harsh17045/IssueTracker-sub000/internal/events"
	"github.com/harsh17045/IssueTracker-sub000/internal/service"
)

// StartNotificationWorker registers notification handlers and, when a Redis
// fanout is configured, starts relaying messages published by other replicas.
// The relay stops when ctx is cancelled.
func StartNotificationWorker(ctx context.Context, notifications *service.NotificationService, relay *events.RedisFanout, logger *zap.Logger) error {
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	if relay == nil {
		logger.Info("live events served from the in-process hub")
		return nil
	}
	return relay.Start(ctx)
}
