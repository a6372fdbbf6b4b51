package service

import (
	"context"
	"time"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
	"github.com/harsh17045/IssueTracker-sub000/internal/repository"
	apperrors "github.com/harsh17045/IssueTracker-sub000/pkg/util/errorutil"
)

const summaryPageSize = 200

// ActivityService tracks what each viewer has seen.
type ActivityService struct {
	tickets repository.TicketRepository
	router  *Router
	clock   Clock
	grace   time.Duration
}

// NewActivityService builds the tracker. grace absorbs skew between a
// write and the viewer's next read.
func NewActivityService(tickets repository.TicketRepository, router *Router, clock Clock, grace time.Duration) *ActivityService {
	if grace < 0 {
		grace = 0
	}
	return &ActivityService{tickets: tickets, router: router, clock: orSystemClock(clock), grace: grace}
}

// UnreadEntry is the per-ticket unread state of one viewer.
type UnreadEntry struct {
	TicketID          string
	HumanReadableID   string
	Title             string
	Status            domain.TicketStatus
	UnreadCount       int
	HasUnreadActivity bool
	Updated           bool
	LastActivityAt    time.Time
	LastSeenAt        *time.Time
}

// MarkViewed records that actor has seen the ticket now. Activity
// timestamps are left as they are.
func (s *ActivityService) MarkViewed(ctx context.Context, actor *domain.Principal, ticketID string) (time.Time, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return time.Time{}, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	ok, err := s.router.CanView(ctx, actor, ticket)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, apperrors.NewForbidden("ticket not visible to caller")
	}
	at := s.clock()
	if err := s.tickets.MarkViewed(ctx, ticketID, actor.ID, at); err != nil {
		return time.Time{}, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	return at, nil
}

// UnreadSummary computes unread state for every ticket actor can see.
func (s *ActivityService) UnreadSummary(ctx context.Context, actor *domain.Principal) ([]UnreadEntry, error) {
	filter, err := s.router.VisibilityFilter(ctx, actor)
	if err != nil {
		return nil, err
	}
	role := domain.AuthorRoleStaff
	if actor.IsEmployee() {
		role = domain.AuthorRoleEmployee
	}

	var entries []UnreadEntry
	filter.Limit = summaryPageSize
	for offset := 0; ; offset += summaryPageSize {
		filter.Offset = offset
		page, err := s.tickets.List(ctx, filter)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		for i := range page {
			entries = append(entries, Summarize(&page[i], actor.ID, role, s.grace))
		}
		if len(page) < summaryPageSize {
			break
		}
	}
	return entries, nil
}

// Summarize derives one viewer's unread state for a ticket. Only comments
// by the other side count as unread.
func Summarize(ticket *domain.Ticket, viewerID string, viewerRole domain.CommentAuthorRole, grace time.Duration) UnreadEntry {
	entry := UnreadEntry{
		TicketID:        ticket.ID,
		HumanReadableID: ticket.HumanReadableID,
		Title:           ticket.Title,
		Status:          ticket.Status,
		LastActivityAt:  ticket.LastActivityAt,
	}
	counterpart := viewerRole.Counterpart()
	seen, viewed := ticket.ViewerLastSeen[viewerID]
	if viewed {
		lastSeen := seen
		entry.LastSeenAt = &lastSeen
	}

	for _, comment := range ticket.Comments {
		if comment.AuthorRole != counterpart {
			continue
		}
		if !viewed || comment.CreatedAt.After(seen) {
			entry.UnreadCount++
		}
	}
	entry.HasUnreadActivity = !viewed || ticket.LastActivityAt.After(seen.Add(grace))
	entry.Updated = !viewed || entry.UnreadCount > 0 || entry.HasUnreadActivity
	return entry
}
