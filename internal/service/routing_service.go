package service

import (
	"context"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
	"github.com/harsh17045/IssueTracker-sub000/internal/events"
	"github.com/harsh17045/IssueTracker-sub000/internal/repository"
	apperrors "github.com/harsh17045/IssueTracker-sub000/pkg/util/errorutil"
)

// Router decides where tickets and their events go, and which channels
// and tickets a principal may see.
type Router struct {
	departments repository.DepartmentRepository
	assignments repository.AssignmentRepository
	registry    *LocationRegistry
}

// NewRouter constructs the router.
func NewRouter(departments repository.DepartmentRepository, assignments repository.AssignmentRepository, registry *LocationRegistry) *Router {
	return &Router{departments: departments, assignments: assignments, registry: registry}
}

// Route is the resolved destination of a new ticket.
type Route struct {
	Department domain.Department
	Channel    string
}

// ResolveForNewTicket picks the channel a ticket raised from origin to
// departmentID is routed to. Location-scoped departments need at least
// one staff member assigned to the origin building floor.
func (r *Router) ResolveForNewTicket(ctx context.Context, departmentID string, origin *domain.Location) (*Route, error) {
	dept, err := r.departments.GetByID(ctx, departmentID)
	if err != nil {
		return nil, mapRepoError(err, "department", map[string]any{"department_id": departmentID})
	}
	if !dept.IsActive {
		return nil, apperrors.NewValidationError("department is not accepting tickets", map[string]any{"department_id": departmentID})
	}
	if !dept.LocationScoped {
		return &Route{Department: *dept, Channel: events.DepartmentChannel(dept.ID)}, nil
	}

	if origin == nil {
		return nil, apperrors.NewNoEligibleHandler(dept.ID, "", 0)
	}
	if err := r.registry.ValidateLocation(ctx, *origin); err != nil {
		return nil, err
	}
	owners, err := r.assignments.ListByFloor(ctx, domain.FloorKey{
		DepartmentID: dept.ID,
		BuildingID:   origin.BuildingID,
		FloorNumber:  origin.FloorNumber,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(owners) == 0 {
		return nil, apperrors.NewNoEligibleHandler(dept.ID, origin.BuildingID, origin.FloorNumber)
	}
	return &Route{Department: *dept, Channel: events.LocationChannel(origin.BuildingID, origin.FloorNumber)}, nil
}

// NewTicketChannels lists where a new-ticket message goes.
func (r *Router) NewTicketChannels(ticket *domain.Ticket) []string {
	return []string{ticket.RoutedChannel}
}

// EventChannels lists where status and comment messages of a ticket go.
// The routed channel is the one stored at raise time.
func (r *Router) EventChannels(ticket *domain.Ticket) []string {
	return []string{ticket.RoutedChannel, events.EmployeeChannel(ticket.RaisedByID)}
}

// SubscriptionsFor lists the channels a principal joins on connect.
func (r *Router) SubscriptionsFor(ctx context.Context, principal *domain.Principal) ([]string, error) {
	scope, err := r.scopeOf(ctx, principal)
	if err != nil {
		return nil, err
	}
	return scope.subscriptions, nil
}

// LiveScope is what one principal receives over the live transports.
type LiveScope struct {
	Channels   []string
	department string
}

// Accepts reports whether msg may be delivered within the scope. Location
// channels are shared by every scoped department owning the floor, so staff
// only receive messages about tickets of their own department.
func (s *LiveScope) Accepts(msg events.Message) bool {
	return s.department == "" || msg.Payload.DepartmentID == s.department
}

// LiveScopeFor resolves the channels principal joins and the filter applied
// to what arrives on them.
func (r *Router) LiveScopeFor(ctx context.Context, principal *domain.Principal) (*LiveScope, error) {
	channels, err := r.SubscriptionsFor(ctx, principal)
	if err != nil {
		return nil, err
	}
	scope := &LiveScope{Channels: channels}
	if principal.Role == domain.RoleStaff || principal.Role == domain.RoleDepartmentAdmin {
		scope.department = principal.DepartmentID
	}
	return scope, nil
}

// CanView reports whether principal may read ticket.
func (r *Router) CanView(ctx context.Context, principal *domain.Principal, ticket *domain.Ticket) (bool, error) {
	scope, err := r.scopeOf(ctx, principal)
	if err != nil {
		return false, err
	}
	return scope.matches(ticket), nil
}

// VisibilityFilter returns the repository filter selecting the tickets principal may read.
func (r *Router) VisibilityFilter(ctx context.Context, principal *domain.Principal) (repository.TicketFilter, error) {
	scope, err := r.scopeOf(ctx, principal)
	if err != nil {
		return repository.TicketFilter{}, err
	}
	return scope.filter(), nil
}

// visibility is what one principal can see and listen to.
type visibility struct {
	all           bool
	raisedBy      string
	department    string
	channels      map[string]struct{}
	assignee      string
	subscriptions []string
}

func (r *Router) scopeOf(ctx context.Context, principal *domain.Principal) (*visibility, error) {
	if principal == nil {
		return nil, apperrors.NewUnauthorized("principal required")
	}
	switch principal.Role {
	case domain.RoleAdmin:
		return &visibility{all: true}, nil
	case domain.RoleEmployee:
		channel := events.EmployeeChannel(principal.ID)
		return &visibility{raisedBy: principal.ID, subscriptions: []string{channel}}, nil
	case domain.RoleStaff, domain.RoleDepartmentAdmin:
	default:
		return nil, apperrors.NewForbidden("unknown role")
	}

	dept, err := r.departments.GetByID(ctx, principal.DepartmentID)
	if err != nil {
		return nil, mapRepoError(err, "department", map[string]any{"department_id": principal.DepartmentID})
	}
	deptChannel := events.DepartmentChannel(dept.ID)
	scope := &visibility{department: dept.ID, subscriptions: []string{deptChannel}}
	if !dept.LocationScoped {
		return scope, nil
	}

	owned, err := r.assignments.ListByStaff(ctx, principal.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	scope.assignee = principal.ID
	scope.channels = map[string]struct{}{deptChannel: {}}
	for _, a := range owned {
		if a.DepartmentID != dept.ID {
			continue
		}
		channel := events.LocationChannel(a.BuildingID, a.FloorNumber)
		if _, dup := scope.channels[channel]; dup {
			continue
		}
		scope.channels[channel] = struct{}{}
		scope.subscriptions = append(scope.subscriptions, channel)
	}
	return scope, nil
}

func (v *visibility) matches(ticket *domain.Ticket) bool {
	switch {
	case v.all:
		return true
	case v.raisedBy != "":
		return ticket.RaisedByID == v.raisedBy
	}
	if ticket.DestinationDepartmentID != v.department {
		return false
	}
	if v.channels == nil {
		return true
	}
	if _, ok := v.channels[ticket.RoutedChannel]; ok {
		return true
	}
	return ticket.IsAssignedTo(v.assignee)
}

func (v *visibility) filter() repository.TicketFilter {
	var filter repository.TicketFilter
	switch {
	case v.all:
		return filter
	case v.raisedBy != "":
		raisedBy := v.raisedBy
		filter.RaisedByID = &raisedBy
		return filter
	}
	department := v.department
	filter.DepartmentID = &department
	if v.channels != nil {
		for channel := range v.channels {
			filter.Channels = append(filter.Channels, channel)
		}
		assignee := v.assignee
		filter.AssignedToID = &assignee
	}
	return filter
}
