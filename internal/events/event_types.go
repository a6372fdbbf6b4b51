package events

import (
	"time"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
)

// EventType enumerates domain events emitted by services.
type EventType string

const (
	EventTicketRaised        EventType = "ticket_raised"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketCommented     EventType = "ticket_commented"
)

// Event represents a domain event emitted after a committed write.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	TicketID  string          `json:"ticket_id"`
	ActorID   string          `json:"actor_id"`
	Timestamp time.Time       `json:"timestamp"`
	Ticket    domain.Ticket   `json:"ticket"`
	Comment   *domain.Comment `json:"comment,omitempty"`
}

// MessageType is the live event kind seen by subscribers.
type MessageType string

const (
	MessageNewTicket    MessageType = "new-ticket"
	MessageStatusUpdate MessageType = "status-update"
	MessageNewComment   MessageType = "new-comment"
)

// Message is the fan-out payload.
type Message struct {
	Type    MessageType    `json:"type"`
	Payload MessagePayload `json:"payload"`
}

// MessagePayload carries enough of the ticket for a client to render it.
type MessagePayload struct {
	TicketID        string          `json:"ticketId"`
	HumanReadableID string          `json:"humanReadableId"`
	DepartmentID    string          `json:"departmentId"`
	Title           string          `json:"title"`
	Status          string          `json:"status,omitempty"`
	Comment         *CommentPayload `json:"comment,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}

// CommentPayload is the comment part of a new-comment message.
type CommentPayload struct {
	Text          string    `json:"text"`
	AuthorRole    string    `json:"authorRole"`
	AttachmentRef *string   `json:"attachmentRef,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Delivery is one message as received on a subscription, tagged with
// the channel it matched.
type Delivery struct {
	Channel string `json:"channel"`
	Message
}
