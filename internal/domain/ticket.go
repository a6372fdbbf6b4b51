package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusRevoked    TicketStatus = "revoked"
)

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityNormal TicketPriority = "normal"
	TicketPriorityHigh   TicketPriority = "high"
)

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusPending:    {TicketStatusInProgress, TicketStatusRevoked},
	TicketStatusInProgress: {TicketStatusResolved, TicketStatusRevoked},
	TicketStatusResolved:   {},
	TicketStatusRevoked:    {},
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved || s == TicketStatusRevoked
}

// CanTransition reports whether the edge current -> next is legal.
func CanTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityNormal, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is the aggregate for raised issues.
type Ticket struct {
	ID                      string
	Sequence                int64
	HumanReadableID         string
	Title                   string
	Description             string
	OriginDepartment        string
	OriginLocation          *Location
	DestinationDepartmentID string
	RoutedChannel           string
	RaisedByID              string
	AssignedToID            *string
	Status                  TicketStatus
	Priority                TicketPriority
	AttachmentRef           *string
	Comments                []Comment
	ViewerLastSeen          map[string]time.Time
	LastActivityAt          time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// IsAssignedTo reports whether staffID holds the ticket.
func (t *Ticket) IsAssignedTo(staffID string) bool {
	return t.AssignedToID != nil && *t.AssignedToID == staffID
}

// HumanReadableID formats a sequence number with the configured prefix.
func HumanReadableID(prefix string, sequence int64) string {
	return fmt.Sprintf("%s%d", prefix, sequence)
}
