package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
	"github.com/harsh17045/IssueTracker-sub000/internal/events"
	"github.com/harsh17045/IssueTracker-sub000/internal/repository"
	"github.com/harsh17045/IssueTracker-sub000/internal/repository/memory"
	apperrors "github.com/harsh17045/IssueTracker-sub000/pkg/util/errorutil"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	ctx         context.Context
	clock       *testClock
	tickets     repository.TicketRepository
	assignRepo  *memory.AssignmentRepository
	staffRepo   *memory.StaffRepository
	deptRepo    *memory.DepartmentRepository
	registry    *LocationRegistry
	router      *Router
	assignments *AssignmentService
	directory   *DirectoryService
	ticketSvc   *TicketService
	activity    *ActivityService
	hub         *events.Hub
}

var (
	admin    = &domain.Principal{ID: "admin", Role: domain.RoleAdmin}
	employee = &domain.Principal{
		ID:             "E",
		Role:           domain.RoleEmployee,
		DepartmentName: "Accounts",
		Location:       &domain.Location{BuildingID: "B1", FloorNumber: 2, Lab: "L5"},
	}
	otherEmployee = &domain.Principal{
		ID:       "E2",
		Role:     domain.RoleEmployee,
		Location: &domain.Location{BuildingID: "B1", FloorNumber: 1, Lab: "L1"},
	}
	facS1   = &domain.Principal{ID: "S1", Role: domain.RoleStaff, DepartmentID: "fac"}
	facS2   = &domain.Principal{ID: "S2", Role: domain.RoleStaff, DepartmentID: "fac"}
	facLead = &domain.Principal{ID: "FL", Role: domain.RoleDepartmentAdmin, DepartmentID: "fac"}
	itT1    = &domain.Principal{ID: "T1", Role: domain.RoleStaff, DepartmentID: "it"}
	itT2    = &domain.Principal{ID: "T2", Role: domain.RoleStaff, DepartmentID: "it"}
	itLead  = &domain.Principal{ID: "IL", Role: domain.RoleDepartmentAdmin, DepartmentID: "it"}
)

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, memory.NewTicketRepository())
}

func newFixtureWith(t *testing.T, tickets repository.TicketRepository) *fixture {
	t.Helper()
	f := &fixture{
		ctx:        context.Background(),
		clock:      &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
		tickets:    tickets,
		assignRepo: memory.NewAssignmentRepository(),
		hub:        events.NewHub(16, nil, nil),
	}
	departments := memory.NewDepartmentRepository()
	staff := memory.NewStaffRepository()
	f.staffRepo, f.deptRepo = staff, departments

	f.registry = NewLocationRegistry(memory.NewBuildingRepository(), f.assignRepo, time.Minute)
	f.router = NewRouter(departments, f.assignRepo, f.registry)
	f.assignments = NewAssignmentService(AssignmentDependencies{
		AssignmentRepo: f.assignRepo,
		StaffRepo:      staff,
		DepartmentRepo: departments,
		Registry:       f.registry,
	})
	f.directory = NewDirectoryService(DirectoryDependencies{
		DepartmentRepo: departments,
		StaffRepo:      staff,
		Assignments:    f.assignments,
	})

	dispatcher := events.NewInMemoryDispatcher(nil)
	NewNotificationService(dispatcher, f.router, f.hub, nil).RegisterHandlers()
	f.ticketSvc = NewTicketService(TicketDependencies{
		TicketRepo: tickets,
		Router:     f.router,
		Dispatcher: dispatcher,
		Clock:      f.clock.Now,
	})
	f.activity = NewActivityService(tickets, f.router, f.clock.Now, 2*time.Second)

	_, err := f.directory.CreateDepartment(f.ctx, admin, DepartmentInput{ID: "fac", Name: "Facility Engineering", LocationScoped: true})
	require.NoError(t, err)
	_, err = f.directory.CreateDepartment(f.ctx, admin, DepartmentInput{ID: "it", Name: "IT Support"})
	require.NoError(t, err)
	for _, s := range []StaffInput{
		{ID: "S1", Name: "Sam", Email: "s1@example.com", DepartmentID: "fac"},
		{ID: "S2", Name: "Sasha", Email: "s2@example.com", DepartmentID: "fac"},
		{ID: "S3", Name: "Sol", Email: "s3@example.com", DepartmentID: "fac"},
		{ID: "S4", Name: "Sky", Email: "s4@example.com", DepartmentID: "fac"},
		{ID: "T1", Name: "Tao", Email: "t1@example.com", DepartmentID: "it"},
		{ID: "T2", Name: "Tess", Email: "t2@example.com", DepartmentID: "it"},
	} {
		_, err := f.directory.CreateStaff(f.ctx, admin, s)
		require.NoError(t, err)
	}
	_, err = f.registry.SaveBuilding(f.ctx, admin, &domain.Building{
		ID:   "B1",
		Name: "Main Block",
		Floors: []domain.Floor{
			{Number: 1, Labs: []string{"L1", "L2"}},
			{Number: 2, Labs: []string{"L5", "L6", "L7"}},
		},
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) assign(t *testing.T, staffID, building string, floor int, labs ...string) {
	t.Helper()
	_, err := f.assignments.Assign(f.ctx, admin, staffID, AssignmentInput{BuildingID: building, FloorNumber: floor, Labs: labs})
	require.NoError(t, err)
}

func (f *fixture) raise(t *testing.T, raiser *domain.Principal, departmentID string) *domain.Ticket {
	t.Helper()
	ticket, err := f.ticketSvc.Raise(f.ctx, raiser, RaiseInput{
		Title:                   "Air conditioning not working",
		Description:             "Room is very warm",
		DestinationDepartmentID: departmentID,
	})
	require.NoError(t, err)
	return ticket
}

func (f *fixture) subscribe(t *testing.T, principal *domain.Principal) *events.Subscription {
	t.Helper()
	channels, err := f.router.SubscriptionsFor(f.ctx, principal)
	require.NoError(t, err)
	sub := f.hub.Subscribe(channels...)
	t.Cleanup(sub.Close)
	return sub
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, apperrors.Is(err, code), "expected %s, got %v", code, err)
}

func nextDelivery(t *testing.T, sub *events.Subscription) events.Delivery {
	t.Helper()
	select {
	case d := <-sub.Events():
		return d
	case <-time.After(time.Second):
		t.Fatal("expected a live event")
	}
	return events.Delivery{}
}

func noDelivery(t *testing.T, sub *events.Subscription) {
	t.Helper()
	select {
	case d := <-sub.Events():
		t.Fatalf("unexpected %s on %s", d.Type, d.Channel)
	default:
	}
}
