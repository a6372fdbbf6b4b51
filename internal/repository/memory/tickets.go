// Package memory implements the repository interfaces in process memory.
// It backs tests and single-instance deployments without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
	"github.com/harsh17045/IssueTracker-sub000/internal/repository"
)

// TicketRepository keeps tickets in a map guarded by one mutex.
type TicketRepository struct {
	mu       sync.Mutex
	sequence int64
	tickets  map[string]*domain.Ticket
}

// NewTicketRepository builds an empty store.
func NewTicketRepository() *TicketRepository {
	return &TicketRepository{tickets: make(map[string]*domain.Ticket)}
}

var _ repository.TicketRepository = (*TicketRepository)(nil)

func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket, idPrefix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tickets[ticket.ID]; exists {
		return repository.ErrConflict
	}
	r.sequence++
	ticket.Sequence = r.sequence
	ticket.HumanReadableID = domain.HumanReadableID(idPrefix, r.sequence)
	r.tickets[ticket.ID] = cloneTicket(ticket)
	return nil
}

func (r *TicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneTicket(ticket), nil
}

func (r *TicketRepository) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	matched := make([]domain.Ticket, 0)
	for _, ticket := range r.tickets {
		if matches(ticket, filter) {
			matched = append(matched, *cloneTicket(ticket))
		}
	}
	r.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].LastActivityAt.Equal(matched[j].LastActivityAt) {
			return matched[i].LastActivityAt.After(matched[j].LastActivityAt)
		}
		return matched[i].Sequence > matched[j].Sequence
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []domain.Ticket{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *TicketRepository) UpdateStatus(ctx context.Context, change repository.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[change.TicketID]
	if !ok {
		return repository.ErrNotFound
	}
	if ticket.Status != change.From {
		return repository.ErrConflict
	}
	if change.ClaimFor != "" && ticket.AssignedToID != nil {
		return repository.ErrConflict
	}
	if change.AssigneeMustBe != "" && !ticket.IsAssignedTo(change.AssigneeMustBe) {
		return repository.ErrConflict
	}

	ticket.Status = change.To
	if change.ClaimFor != "" {
		assignee := change.ClaimFor
		ticket.AssignedToID = &assignee
	}
	ticket.LastActivityAt = change.At
	ticket.UpdatedAt = change.At
	if change.Comment != nil {
		ticket.Comments = append(ticket.Comments, cloneComment(*change.Comment))
	}
	return nil
}

func (r *TicketRepository) AppendComment(ctx context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[comment.TicketID]
	if !ok {
		return repository.ErrNotFound
	}
	if ticket.Status == domain.TicketStatusRevoked {
		return repository.ErrConflict
	}
	ticket.Comments = append(ticket.Comments, cloneComment(*comment))
	ticket.LastActivityAt = comment.CreatedAt
	ticket.UpdatedAt = comment.CreatedAt
	return nil
}

func (r *TicketRepository) UpdateContent(ctx context.Context, updated *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[updated.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if ticket.Status != domain.TicketStatusPending {
		return repository.ErrConflict
	}
	ticket.Title = updated.Title
	ticket.Description = updated.Description
	ticket.DestinationDepartmentID = updated.DestinationDepartmentID
	ticket.RoutedChannel = updated.RoutedChannel
	ticket.Priority = updated.Priority
	ticket.AttachmentRef = cloneString(updated.AttachmentRef)
	ticket.LastActivityAt = updated.UpdatedAt
	ticket.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r *TicketRepository) MarkViewed(ctx context.Context, ticketID, viewerID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[ticketID]
	if !ok {
		return repository.ErrNotFound
	}
	if ticket.ViewerLastSeen == nil {
		ticket.ViewerLastSeen = make(map[string]time.Time)
	}
	ticket.ViewerLastSeen[viewerID] = at
	return nil
}

func matches(ticket *domain.Ticket, filter repository.TicketFilter) bool {
	if filter.RaisedByID != nil && ticket.RaisedByID != *filter.RaisedByID {
		return false
	}
	if filter.DepartmentID != nil && ticket.DestinationDepartmentID != *filter.DepartmentID {
		return false
	}
	if len(filter.Channels) > 0 || filter.AssignedToID != nil {
		hit := false
		for _, channel := range filter.Channels {
			if ticket.RoutedChannel == channel {
				hit = true
				break
			}
		}
		if !hit && filter.AssignedToID != nil && ticket.IsAssignedTo(*filter.AssignedToID) {
			hit = true
		}
		if !hit {
			return false
		}
	}
	if len(filter.Statuses) > 0 {
		hit := false
		for _, status := range filter.Statuses {
			if ticket.Status == status {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func cloneTicket(t *domain.Ticket) *domain.Ticket {
	out := *t
	out.AssignedToID = cloneString(t.AssignedToID)
	out.AttachmentRef = cloneString(t.AttachmentRef)
	if t.OriginLocation != nil {
		loc := *t.OriginLocation
		out.OriginLocation = &loc
	}
	out.Comments = make([]domain.Comment, len(t.Comments))
	for i, c := range t.Comments {
		out.Comments[i] = cloneComment(c)
	}
	out.ViewerLastSeen = make(map[string]time.Time, len(t.ViewerLastSeen))
	for viewer, seen := range t.ViewerLastSeen {
		out.ViewerLastSeen[viewer] = seen
	}
	return &out
}

func cloneComment(c domain.Comment) domain.Comment {
	c.AttachmentRef = cloneString(c.AttachmentRef)
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
