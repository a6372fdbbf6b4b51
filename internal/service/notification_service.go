package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
	"github.com/harsh17045/IssueTracker-sub000/internal/events"
)

// NotificationService turns committed domain events into live messages
// and publishes them on the routed channels.
type NotificationService struct {
	dispatcher events.Dispatcher
	router     *Router
	fanout     events.Fanout
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, router *Router, fanout events.Fanout, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		router:     router,
		fanout:     fanout,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketRaised, n.handleTicketRaised)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketCommented, n.handleTicketCommented)
}

func (n *NotificationService) handleTicketRaised(ctx context.Context, event events.Event) error {
	msg := messageFor(events.MessageNewTicket, event)
	return n.publish(ctx, msg, n.router.NewTicketChannels(&event.Ticket))
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	msg := messageFor(events.MessageStatusUpdate, event)
	return n.publish(ctx, msg, n.router.EventChannels(&event.Ticket))
}

func (n *NotificationService) handleTicketCommented(ctx context.Context, event events.Event) error {
	msg := messageFor(events.MessageNewComment, event)
	return n.publish(ctx, msg, n.router.EventChannels(&event.Ticket))
}

func (n *NotificationService) publish(ctx context.Context, msg events.Message, channels []string) error {
	if err := n.fanout.Publish(ctx, msg, channels...); err != nil {
		return fmt.Errorf("fanout %s for %s: %w", msg.Type, msg.Payload.TicketID, err)
	}
	n.logger.Debug("live event published",
		zap.String("type", string(msg.Type)),
		zap.String("ticket_id", msg.Payload.TicketID),
		zap.Strings("channels", channels))
	return nil
}

func messageFor(kind events.MessageType, event events.Event) events.Message {
	ticket := event.Ticket
	msg := events.Message{
		Type: kind,
		Payload: events.MessagePayload{
			TicketID:        ticket.ID,
			HumanReadableID: ticket.HumanReadableID,
			DepartmentID:    ticket.DestinationDepartmentID,
			Title:           ticket.Title,
			Status:          string(ticket.Status),
			Timestamp:       event.Timestamp,
		},
	}
	if event.Comment != nil {
		msg.Payload.Comment = commentPayload(event.Comment)
	}
	return msg
}

func commentPayload(c *domain.Comment) *events.CommentPayload {
	return &events.CommentPayload{
		Text:          c.Text,
		AuthorRole:    string(c.AuthorRole),
		AttachmentRef: c.AttachmentRef,
		Timestamp:     c.CreatedAt,
	}
}
