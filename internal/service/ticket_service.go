package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
	"github.com/harsh17045/IssueTracker-sub000/internal/events"
	"github.com/harsh17045/IssueTracker-sub000/internal/repository"
	apperrors "github.com/harsh17045/IssueTracker-sub000/pkg/util/errorutil"
)

// maxWriteAttempts bounds reload-and-retry after a guarded write lost a race.
const maxWriteAttempts = 3

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	router     *Router
	dispatcher events.Dispatcher
	clock      Clock
	idPrefix   string
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Router     *Router
	Dispatcher events.Dispatcher
	Clock      Clock
	IDPrefix   string
	Logger     *zap.Logger
}

// RaiseInput describes a new ticket.
type RaiseInput struct {
	Title                   string
	Description             string
	DestinationDepartmentID string
	Priority                domain.TicketPriority
	AttachmentRef           *string
}

// EditInput lists the fields a raiser may change while the ticket is pending.
// Nil fields are left unchanged.
type EditInput struct {
	Title                   *string
	Description             *string
	DestinationDepartmentID *string
	Priority                *domain.TicketPriority
	AttachmentRef           *string
}

// ListFilter narrows ListVisible.
type ListFilter struct {
	Statuses []domain.TicketStatus
	Limit    int
	Offset   int
}

// Warning reports a secondary step that failed after the primary write committed.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Comment string `json:"comment,omitempty"`
}

// TransitionResult is the outcome of a status change.
type TransitionResult struct {
	Ticket   *domain.Ticket
	Warnings []Warning
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := deps.IDPrefix
	if prefix == "" {
		prefix = "TK-"
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		router:     deps.Router,
		dispatcher: deps.Dispatcher,
		clock:      orSystemClock(deps.Clock),
		idPrefix:   prefix,
		logger:     logger,
	}
}

// Raise creates a ticket for an employee and routes it.
func (s *TicketService) Raise(ctx context.Context, actor *domain.Principal, input RaiseInput) (*domain.Ticket, error) {
	if !actor.IsEmployee() {
		return nil, apperrors.NewForbidden("only employees raise tickets")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityNormal
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	var origin *domain.Location
	if actor.Location != nil {
		loc := *actor.Location
		origin = &loc
	}
	route, err := s.router.ResolveForNewTicket(ctx, input.DestinationDepartmentID, origin)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	ticket := &domain.Ticket{
		ID:                      uuid.NewString(),
		Title:                   title,
		Description:             strings.TrimSpace(input.Description),
		OriginDepartment:        actor.DepartmentName,
		OriginLocation:          origin,
		DestinationDepartmentID: route.Department.ID,
		RoutedChannel:           route.Channel,
		RaisedByID:              actor.ID,
		Status:                  domain.TicketStatusPending,
		Priority:                priority,
		AttachmentRef:           input.AttachmentRef,
		ViewerLastSeen:          map[string]time.Time{},
		LastActivityAt:          now,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if err := s.tickets.Create(ctx, ticket, s.idPrefix); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("ticket raised",
		zap.String("ticket_id", ticket.ID),
		zap.String("human_readable_id", ticket.HumanReadableID),
		zap.String("channel", ticket.RoutedChannel))
	s.publishEvent(ctx, events.EventTicketRaised, actor.ID, ticket, nil)
	return ticket, nil
}

// Get returns a ticket the actor may read.
func (s *TicketService) Get(ctx context.Context, actor *domain.Principal, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ok, err := s.router.CanView(ctx, actor, ticket)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewForbidden("ticket not visible to caller")
	}
	return ticket, nil
}

// ListVisible returns the tickets the actor may read, most recently active first.
func (s *TicketService) ListVisible(ctx context.Context, actor *domain.Principal, filter ListFilter) ([]domain.Ticket, error) {
	repoFilter, err := s.router.VisibilityFilter(ctx, actor)
	if err != nil {
		return nil, err
	}
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": status})
		}
	}
	repoFilter.Statuses = filter.Statuses
	repoFilter.Limit = filter.Limit
	repoFilter.Offset = filter.Offset
	tickets, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// Transition moves a ticket along the status graph on behalf of staff.
// The first move to in_progress claims the ticket for the actor. A
// non-empty comment is appended after the status change commits; if
// that fails the transition still stands and a warning is returned.
// A comment on a move to revoked is written together with the status.
func (s *TicketService) Transition(ctx context.Context, actor *domain.Principal, ticketID string, next domain.TicketStatus, comment string) (*TransitionResult, error) {
	if !next.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": next})
	}

	var lastErr error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		ticket, err := s.load(ctx, ticketID)
		if err != nil {
			return nil, err
		}
		change, err := transitionGuard(actor, ticket, next)
		if err != nil {
			return nil, err
		}
		change.At = s.clock()
		text := strings.TrimSpace(comment)
		if text != "" && next == domain.TicketStatusRevoked {
			change.Comment = &domain.Comment{
				ID:         uuid.NewString(),
				TicketID:   ticket.ID,
				AuthorID:   actor.ID,
				AuthorRole: domain.AuthorRoleStaff,
				Text:       text,
				CreatedAt:  change.At,
			}
		}

		err = s.tickets.UpdateStatus(ctx, *change)
		switch {
		case err == nil:
		case errors.Is(err, repository.ErrConflict):
			lastErr = err
			continue
		default:
			return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticketID})
		}

		previous := ticket.Status
		ticket.Status = next
		if change.ClaimFor != "" {
			claimed := change.ClaimFor
			ticket.AssignedToID = &claimed
		}
		ticket.LastActivityAt = change.At
		ticket.UpdatedAt = change.At

		s.logger.Info("ticket status changed",
			zap.String("ticket_id", ticket.ID),
			zap.String("from", string(previous)),
			zap.String("to", string(next)),
			zap.String("actor_id", actor.ID))
		if change.Comment != nil {
			ticket.Comments = append(ticket.Comments, *change.Comment)
		}
		s.publishEvent(ctx, events.EventTicketStatusChanged, actor.ID, ticket, change.Comment)

		result := &TransitionResult{Ticket: ticket}
		if text != "" && change.Comment == nil {
			if _, err := s.Comment(ctx, actor, ticketID, text, nil); err != nil {
				s.logger.Warn("comment after transition not saved", zap.String("ticket_id", ticketID), zap.Error(err))
				result.Warnings = append(result.Warnings, Warning{
					Code:    apperrors.ToDomainError(err).Code,
					Message: "status updated but the comment could not be saved",
					Comment: text,
				})
			} else if updated, err := s.load(ctx, ticketID); err == nil {
				result.Ticket = updated
			}
		}
		return result, nil
	}
	return nil, apperrors.NewInternalError(fmt.Errorf("ticket %s kept changing during transition: %w", ticketID, lastErr))
}

// transitionGuard decides whether actor may apply next to ticket and
// returns the guarded write expressing that decision.
func transitionGuard(actor *domain.Principal, ticket *domain.Ticket, next domain.TicketStatus) (*repository.StatusChange, error) {
	if !actor.IsStaffOf(ticket.DestinationDepartmentID) {
		return nil, apperrors.NewForbidden("only staff of the destination department may change status")
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(next))
	}
	if ticket.AssignedToID != nil && *ticket.AssignedToID != actor.ID {
		return nil, apperrors.NewForbidden("ticket is assigned to another staff member")
	}
	if !domain.CanTransition(ticket.Status, next) {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(next))
	}

	change := &repository.StatusChange{TicketID: ticket.ID, From: ticket.Status, To: next}
	if ticket.AssignedToID == nil {
		if next != domain.TicketStatusInProgress {
			return nil, apperrors.NewForbidden("ticket must be claimed before this change")
		}
		change.ClaimFor = actor.ID
	} else {
		change.AssigneeMustBe = actor.ID
	}
	return change, nil
}

// Comment appends to a ticket's thread. Staff must hold the ticket;
// employees must have raised it.
func (s *TicketService) Comment(ctx context.Context, actor *domain.Principal, ticketID, text string, attachmentRef *string) (*domain.Comment, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusRevoked {
		return nil, apperrors.NewTicketClosed(ticket.ID)
	}

	var role domain.CommentAuthorRole
	switch {
	case actor.IsEmployee():
		if ticket.RaisedByID != actor.ID {
			return nil, apperrors.NewForbidden("only the raiser may comment as employee")
		}
		role = domain.AuthorRoleEmployee
	case actor.IsStaffOf(ticket.DestinationDepartmentID):
		if !ticket.IsAssignedTo(actor.ID) {
			return nil, apperrors.NewForbidden("only the assignee may comment as staff")
		}
		role = domain.AuthorRoleStaff
	default:
		return nil, apperrors.NewForbidden("not a participant of this ticket")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("comment text is required", nil)
	}

	comment := &domain.Comment{
		ID:            uuid.NewString(),
		TicketID:      ticket.ID,
		AuthorID:      actor.ID,
		AuthorRole:    role,
		Text:          text,
		AttachmentRef: attachmentRef,
		CreatedAt:     s.clock(),
	}
	if err := s.tickets.AppendComment(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewTicketClosed(ticket.ID)
		}
		return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticketID})
	}

	ticket.Comments = append(ticket.Comments, *comment)
	ticket.LastActivityAt = comment.CreatedAt
	ticket.UpdatedAt = comment.CreatedAt
	s.publishEvent(ctx, events.EventTicketCommented, actor.ID, ticket, comment)
	return comment, nil
}

// EditContent lets the raiser change a pending ticket. Changing the
// destination re-runs routing against the ticket's origin location.
func (s *TicketService) EditContent(ctx context.Context, actor *domain.Principal, ticketID string, input EditInput) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !actor.IsEmployee() || ticket.RaisedByID != actor.ID {
		return nil, apperrors.NewForbidden("only the raiser may edit a ticket")
	}
	if err := editable(ticket); err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title is required", nil)
		}
		ticket.Title = title
	}
	if input.Description != nil {
		ticket.Description = strings.TrimSpace(*input.Description)
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
		}
		ticket.Priority = *input.Priority
	}
	if input.AttachmentRef != nil {
		ref := strings.TrimSpace(*input.AttachmentRef)
		if ref == "" {
			ticket.AttachmentRef = nil
		} else {
			ticket.AttachmentRef = &ref
		}
	}
	if input.DestinationDepartmentID != nil && *input.DestinationDepartmentID != ticket.DestinationDepartmentID {
		route, err := s.router.ResolveForNewTicket(ctx, *input.DestinationDepartmentID, ticket.OriginLocation)
		if err != nil {
			return nil, err
		}
		ticket.DestinationDepartmentID = route.Department.ID
		ticket.RoutedChannel = route.Channel
	}

	now := s.clock()
	ticket.UpdatedAt = now
	if err := s.tickets.UpdateContent(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			current, loadErr := s.load(ctx, ticketID)
			if loadErr != nil {
				return nil, loadErr
			}
			if err := editable(current); err != nil {
				return nil, err
			}
		}
		return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	ticket.LastActivityAt = now
	return ticket, nil
}

func editable(ticket *domain.Ticket) error {
	switch ticket.Status {
	case domain.TicketStatusPending:
		return nil
	case domain.TicketStatusRevoked:
		return apperrors.NewTicketClosed(ticket.ID)
	default:
		return apperrors.NewForbidden("ticket can only be edited while pending")
	}
}

// Revoke withdraws a ticket on behalf of its raiser. The reason is
// stored as a comment in the same write as the status change.
func (s *TicketService) Revoke(ctx context.Context, actor *domain.Principal, ticketID, reason string) (*domain.Ticket, error) {
	var lastErr error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		ticket, err := s.load(ctx, ticketID)
		if err != nil {
			return nil, err
		}
		if !actor.IsEmployee() || ticket.RaisedByID != actor.ID {
			return nil, apperrors.NewForbidden("only the raiser may revoke a ticket")
		}
		switch ticket.Status {
		case domain.TicketStatusRevoked:
			return nil, apperrors.NewTicketClosed(ticket.ID)
		case domain.TicketStatusResolved:
			return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(domain.TicketStatusRevoked))
		}
		text := strings.TrimSpace(reason)
		if text == "" {
			return nil, apperrors.NewValidationError("a reason is required to revoke", nil)
		}

		now := s.clock()
		comment := &domain.Comment{
			ID:         uuid.NewString(),
			TicketID:   ticket.ID,
			AuthorID:   actor.ID,
			AuthorRole: domain.AuthorRoleEmployee,
			Text:       text,
			CreatedAt:  now,
		}
		err = s.tickets.UpdateStatus(ctx, repository.StatusChange{
			TicketID: ticket.ID,
			From:     ticket.Status,
			To:       domain.TicketStatusRevoked,
			Comment:  comment,
			At:       now,
		})
		switch {
		case err == nil:
		case errors.Is(err, repository.ErrConflict):
			lastErr = err
			continue
		default:
			return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticketID})
		}

		ticket.Status = domain.TicketStatusRevoked
		ticket.Comments = append(ticket.Comments, *comment)
		ticket.LastActivityAt = now
		ticket.UpdatedAt = now
		s.logger.Info("ticket revoked", zap.String("ticket_id", ticket.ID), zap.String("actor_id", actor.ID))
		s.publishEvent(ctx, events.EventTicketStatusChanged, actor.ID, ticket, comment)
		return ticket, nil
	}
	return nil, apperrors.NewInternalError(fmt.Errorf("ticket %s kept changing during revoke: %w", ticketID, lastErr))
}

func (s *TicketService) load(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

// publishEvent runs after the write has committed. Failures are logged only.
func (s *TicketService) publishEvent(ctx context.Context, eventType events.EventType, actorID string, ticket *domain.Ticket, comment *domain.Comment) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticket.ID,
		ActorID:   actorID,
		Timestamp: s.clock(),
		Ticket:    *ticket,
		Comment:   comment,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}
