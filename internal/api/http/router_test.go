package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harsh17045/IssueTracker-sub000/internal/api/http/handlers"
	"github.com/harsh17045/IssueTracker-sub000/internal/auth"
	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
	"github.com/harsh17045/IssueTracker-sub000/internal/events"
	"github.com/harsh17045/IssueTracker-sub000/internal/observability"
	"github.com/harsh17045/IssueTracker-sub000/internal/persistence"
	"github.com/harsh17045/IssueTracker-sub000/internal/repository/memory"
	"github.com/harsh17045/IssueTracker-sub000/internal/service"
)

type testServer struct {
	app     *fiber.App
	tokens  *auth.TokenManager
	hub     *events.Hub
	metrics *observability.Metrics
}

var (
	adminPrincipal = &domain.Principal{ID: "admin", Role: domain.RoleAdmin}
	employeeE      = &domain.Principal{
		ID:       "E",
		Role:     domain.RoleEmployee,
		Location: &domain.Location{BuildingID: "B1", FloorNumber: 2, Lab: "L5"},
	}
	staffS1 = &domain.Principal{ID: "S1", Role: domain.RoleStaff, DepartmentID: "fac"}
	staffT1 = &domain.Principal{ID: "T1", Role: domain.RoleStaff, DepartmentID: "it"}
	staffX1 = &domain.Principal{ID: "X1", Role: domain.RoleStaff, DepartmentID: "elec"}
)

const referenceYAML = `
departments:
  - id: fac
    name: Facility Engineering
    location_scoped: true
  - id: it
    name: IT Support
  - id: elec
    name: Electrical
    location_scoped: true
staff:
  - {id: S1, name: Sam, email: s1@example.com, department_id: fac}
  - {id: S2, name: Sasha, email: s2@example.com, department_id: fac}
  - {id: T1, name: Tao, email: t1@example.com, department_id: it}
  - {id: X1, name: Xan, email: x1@example.com, department_id: elec}
buildings:
  - id: B1
    name: Main Block
    floors:
      - floor_number: 2
        labs: [L5, L6]
assignments:
  - {staff_id: S1, building_id: B1, floor_number: 2, labs: [L5]}
  - {staff_id: X1, building_id: B1, floor_number: 2, labs: [L5]}
`

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	hub := events.NewHub(16, logger, metrics)

	tickets := memory.NewTicketRepository()
	assignmentRepo := memory.NewAssignmentRepository()
	departments := memory.NewDepartmentRepository()
	staff := memory.NewStaffRepository()
	registry := service.NewLocationRegistry(memory.NewBuildingRepository(), assignmentRepo, time.Minute)
	router := service.NewRouter(departments, assignmentRepo, registry)
	assignments := service.NewAssignmentService(service.AssignmentDependencies{
		AssignmentRepo: assignmentRepo, StaffRepo: staff, DepartmentRepo: departments, Registry: registry,
	})
	directory := service.NewDirectoryService(service.DirectoryDependencies{
		DepartmentRepo: departments, StaffRepo: staff, Assignments: assignments,
	})
	dispatcher := events.NewInMemoryDispatcher(logger)
	service.NewNotificationService(dispatcher, router, hub, logger).RegisterHandlers()
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: tickets, Router: router, Dispatcher: dispatcher,
	})
	activity := service.NewActivityService(tickets, router, nil, 2*time.Second)

	data, err := persistence.ParseReferenceData([]byte(referenceYAML))
	require.NoError(t, err)
	require.NoError(t, service.NewSeeder(directory, registry, assignments, logger).Apply(context.Background(), data))

	tokens := auth.NewTokenManager("test-secret", 5)
	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("issuetracker", "test", nil, nil, metrics),
		Tickets:        handlers.NewTicketsHandler(ticketService, activity),
		Staff:          handlers.NewStaffHandler(directory, assignments),
		Departments:    handlers.NewDepartmentsHandler(directory, assignments),
		Buildings:      handlers.NewBuildingsHandler(registry),
		Events:         handlers.NewEventsHandler(router, hub, time.Second, logger),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		RateLimiter:    auth.NewRateLimiter(1000, 1000, time.Minute),
	})
	return &testServer{app: app, tokens: tokens, hub: hub, metrics: metrics}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path string, principal *domain.Principal, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if principal != nil {
		token, _, err := s.tokens.GenerateToken(principal)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, nethttp.MethodPost, "/api/tickets", employeeE, fiber.Map{
		"title": "AC broken", "description": "warm", "destinationDepartmentId": "fac",
	})
	require.Equal(t, nethttp.StatusCreated, status)
	var ticket struct {
		ID              string `json:"id"`
		HumanReadableID string `json:"humanReadableId"`
		RoutedChannel   string `json:"routedChannel"`
		Status          string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ticket))
	assert.Equal(t, "TK-1", ticket.HumanReadableID)
	assert.Equal(t, "loc:B1:2", ticket.RoutedChannel)

	status, env = s.do(t, nethttp.MethodPost, "/api/tickets/"+ticket.ID+"/status", staffT1, fiber.Map{"status": "in_progress"})
	assert.Equal(t, nethttp.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, env = s.do(t, nethttp.MethodPost, "/api/tickets/"+ticket.ID+"/status", staffS1, fiber.Map{"status": "in_progress", "comment": "coming"})
	require.Equal(t, nethttp.StatusOK, status)
	var transition struct {
		Ticket struct {
			AssignedToID *string `json:"assignedToId"`
			Comments     []any   `json:"comments"`
		} `json:"ticket"`
		Warnings []any `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &transition))
	require.NotNil(t, transition.Ticket.AssignedToID)
	assert.Equal(t, "S1", *transition.Ticket.AssignedToID)
	assert.Len(t, transition.Ticket.Comments, 1)
	assert.Empty(t, transition.Warnings)

	status, env = s.do(t, nethttp.MethodGet, "/api/tickets/unread", employeeE, nil)
	require.Equal(t, nethttp.StatusOK, status)
	var unread []struct {
		UnreadCount int  `json:"unreadCount"`
		Updated     bool `json:"updated"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &unread))
	require.Len(t, unread, 1)
	assert.Equal(t, 1, unread[0].UnreadCount)

	status, _ = s.do(t, nethttp.MethodPost, "/api/tickets/"+ticket.ID+"/view", employeeE, nil)
	assert.Equal(t, nethttp.StatusOK, status)

	status, env = s.do(t, nethttp.MethodPost, "/api/tickets/"+ticket.ID+"/status", staffS1, fiber.Map{"status": "pending"})
	assert.Equal(t, nethttp.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)
	assert.Equal(t, "in_progress", env.Error.Details["from"])
}

func TestRaiseWithoutCoverageOverHTTP(t *testing.T) {
	s := newTestServer(t)
	elsewhere := &domain.Principal{ID: "E2", Role: domain.RoleEmployee, Location: &domain.Location{BuildingID: "B1", FloorNumber: 2, Lab: "L6"}}

	status, _ := s.do(t, nethttp.MethodDelete, "/api/staff/S1/locations", adminPrincipal, nil)
	require.Equal(t, nethttp.StatusNoContent, status)

	status, env := s.do(t, nethttp.MethodPost, "/api/tickets", elsewhere, fiber.Map{"title": "Leak", "destinationDepartmentId": "fac"})
	assert.Equal(t, nethttp.StatusUnprocessableEntity, status)
	assert.Equal(t, "NO_ELIGIBLE_HANDLER", env.Error.Code)
}

func TestLabConflictOverHTTP(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, nethttp.MethodPost, "/api/staff/S2/locations", adminPrincipal, fiber.Map{
		"buildingId": "B1", "floorNumber": 2, "labs": []string{"L5"},
	})
	assert.Equal(t, nethttp.StatusConflict, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "LAB_CONFLICT", env.Error.Code)
	assert.Equal(t, []any{"L5"}, env.Error.Details["labs"])
	assert.Equal(t, "S1", env.Error.Details["staff_id"])

	status, env = s.do(t, nethttp.MethodGet, "/api/departments/fac/available-slots", adminPrincipal, nil)
	require.Equal(t, nethttp.StatusOK, status)
	var slots []struct {
		AvailableLabs []string `json:"availableLabs"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &slots))
	require.Len(t, slots, 1)
	assert.Equal(t, []string{"L6"}, slots[0].AvailableLabs)
}

func TestAuthAndRoutingErrors(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, nethttp.MethodGet, "/api/tickets", nil, nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, env = s.do(t, nethttp.MethodPost, "/api/departments", staffS1, fiber.Map{"name": "Legal"})
	assert.Equal(t, nethttp.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, env = s.do(t, nethttp.MethodGet, "/nowhere", nil, nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, env = s.do(t, nethttp.MethodGet, "/api/buildings/B1/floors/two", adminPrincipal, nil)
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	status, _ = s.do(t, nethttp.MethodGet, "/ws", employeeE, nil)
	assert.Equal(t, nethttp.StatusUpgradeRequired, status)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(nethttp.MethodGet, "/health/ready", nil)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	var ready struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ready))
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, "disabled", ready.Dependencies["postgres"])

	s.do(t, nethttp.MethodGet, "/api/buildings", adminPrincipal, nil)
	var counted int64
	for key, n := range s.metrics.Snapshot().Requests {
		if strings.HasPrefix(key, "/api/buildings") && strings.HasSuffix(key, "|GET|200") {
			counted += n
		}
	}
	assert.Equal(t, int64(1), counted)
}

func TestPollReceivesLiveEvent(t *testing.T) {
	s := newTestServer(t)

	token, _, err := s.tokens.GenerateToken(staffT1)
	require.NoError(t, err)
	type result struct {
		resp *nethttp.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		req := httptest.NewRequest(nethttp.MethodGet, "/api/events/poll?timeout=3", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := s.app.Test(req, 5000)
		done <- result{resp, err}
	}()
	require.Eventually(t, func() bool { return s.hub.SubscriberCount("dept:it") == 1 }, 2*time.Second, 10*time.Millisecond)

	status, _ := s.do(t, nethttp.MethodPost, "/api/tickets", employeeE, fiber.Map{"title": "VPN down", "destinationDepartmentId": "it"})
	require.Equal(t, nethttp.StatusCreated, status)

	got := <-done
	require.NoError(t, got.err)
	defer got.resp.Body.Close()
	require.Equal(t, nethttp.StatusOK, got.resp.StatusCode)
	var env envelope
	require.NoError(t, json.NewDecoder(got.resp.Body).Decode(&env))
	var deliveries []struct {
		Channel string `json:"channel"`
		Type    string `json:"type"`
		Payload struct {
			HumanReadableID string `json:"humanReadableId"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &deliveries))
	require.Len(t, deliveries, 1)
	assert.Equal(t, "dept:it", deliveries[0].Channel)
	assert.Equal(t, "new-ticket", deliveries[0].Type)
	assert.Equal(t, "TK-1", deliveries[0].Payload.HumanReadableID)
}

func TestPollSkipsOtherDepartmentsOnSharedFloor(t *testing.T) {
	s := newTestServer(t)

	token, _, err := s.tokens.GenerateToken(staffX1)
	require.NoError(t, err)
	type result struct {
		resp *nethttp.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		req := httptest.NewRequest(nethttp.MethodGet, "/api/events/poll?timeout=3", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := s.app.Test(req, 5000)
		done <- result{resp, err}
	}()
	require.Eventually(t, func() bool { return s.hub.SubscriberCount("dept:elec") == 1 }, 2*time.Second, 10*time.Millisecond)

	status, _ := s.do(t, nethttp.MethodPost, "/api/tickets", employeeE, fiber.Map{"title": "Air conditioning not working", "destinationDepartmentId": "fac"})
	require.Equal(t, nethttp.StatusCreated, status)
	status, _ = s.do(t, nethttp.MethodPost, "/api/tickets", employeeE, fiber.Map{"title": "Socket sparks", "destinationDepartmentId": "elec"})
	require.Equal(t, nethttp.StatusCreated, status)

	got := <-done
	require.NoError(t, got.err)
	defer got.resp.Body.Close()
	require.Equal(t, nethttp.StatusOK, got.resp.StatusCode)
	var env envelope
	require.NoError(t, json.NewDecoder(got.resp.Body).Decode(&env))
	var deliveries []struct {
		Channel string `json:"channel"`
		Payload struct {
			Title        string `json:"title"`
			DepartmentID string `json:"departmentId"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &deliveries))
	require.Len(t, deliveries, 1)
	assert.Equal(t, "loc:B1:2", deliveries[0].Channel)
	assert.Equal(t, "Socket sparks", deliveries[0].Payload.Title)
	assert.Equal(t, "elec", deliveries[0].Payload.DepartmentID)
}
