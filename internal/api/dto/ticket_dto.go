package dto

import (
	"time"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
)

// RaiseTicketRequest payload.
type RaiseTicketRequest struct {
	Title                   string                `json:"title"`
	Description             string                `json:"description"`
	DestinationDepartmentID string                `json:"destinationDepartmentId"`
	Priority                domain.TicketPriority `json:"priority"`
	AttachmentRef           *string               `json:"attachmentRef"`
}

// EditTicketRequest payload. Omitted fields stay unchanged.
type EditTicketRequest struct {
	Title                   *string                `json:"title"`
	Description             *string                `json:"description"`
	DestinationDepartmentID *string                `json:"destinationDepartmentId"`
	Priority                *domain.TicketPriority `json:"priority"`
	AttachmentRef           *string                `json:"attachmentRef"`
}

// TransitionRequest payload.
type TransitionRequest struct {
	Status  domain.TicketStatus `json:"status"`
	Comment string              `json:"comment"`
}

// CommentRequest payload.
type CommentRequest struct {
	Text          string  `json:"text"`
	AttachmentRef *string `json:"attachmentRef"`
}

// RevokeRequest payload.
type RevokeRequest struct {
	Reason string `json:"reason"`
}

// LocationResponse is a building/floor/lab reference.
type LocationResponse struct {
	BuildingID  string `json:"buildingId"`
	FloorNumber int    `json:"floorNumber"`
	Lab         string `json:"lab,omitempty"`
}

// CommentResponse represents one thread entry.
type CommentResponse struct {
	ID            string                   `json:"id"`
	AuthorID      string                   `json:"authorId"`
	AuthorRole    domain.CommentAuthorRole `json:"authorRole"`
	Text          string                   `json:"text"`
	AttachmentRef *string                  `json:"attachmentRef,omitempty"`
	Timestamp     time.Time                `json:"timestamp"`
}

// TicketResponse provides full ticket info.
type TicketResponse struct {
	ID                      string                `json:"id"`
	HumanReadableID         string                `json:"humanReadableId"`
	Title                   string                `json:"title"`
	Description             string                `json:"description"`
	OriginDepartment        string                `json:"originDepartment,omitempty"`
	OriginLocation          *LocationResponse     `json:"originLocation,omitempty"`
	DestinationDepartmentID string                `json:"destinationDepartmentId"`
	RoutedChannel           string                `json:"routedChannel"`
	RaisedByID              string                `json:"raisedById"`
	AssignedToID            *string               `json:"assignedToId"`
	Status                  domain.TicketStatus   `json:"status"`
	Priority                domain.TicketPriority `json:"priority"`
	AttachmentRef           *string               `json:"attachmentRef,omitempty"`
	Comments                []CommentResponse     `json:"comments"`
	LastActivityAt          time.Time             `json:"lastActivityAt"`
	CreatedAt               time.Time             `json:"createdAt"`
	UpdatedAt               time.Time             `json:"updatedAt"`
}

// WarningResponse reports a secondary step that did not complete.
type WarningResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Comment string `json:"comment,omitempty"`
}

// TransitionResponse is a status change result.
type TransitionResponse struct {
	Ticket   TicketResponse    `json:"ticket"`
	Warnings []WarningResponse `json:"warnings,omitempty"`
}

// UnreadResponse is one viewer's unread state for a ticket.
type UnreadResponse struct {
	TicketID          string              `json:"ticketId"`
	HumanReadableID   string              `json:"humanReadableId"`
	Title             string              `json:"title"`
	Status            domain.TicketStatus `json:"status"`
	UnreadCount       int                 `json:"unreadCount"`
	HasUnreadActivity bool                `json:"hasUnreadActivity"`
	Updated           bool                `json:"updated"`
	LastActivityAt    time.Time           `json:"lastActivityAt"`
	LastSeenAt        *time.Time          `json:"lastSeenAt"`
}

// ViewedResponse confirms a mark-viewed call.
type ViewedResponse struct {
	TicketID string    `json:"ticketId"`
	SeenAt   time.Time `json:"seenAt"`
}
