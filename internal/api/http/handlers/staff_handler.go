package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/harsh17045/IssueTracker-sub000/internal/api/dto"
	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
	"github.com/harsh17045/IssueTracker-sub000/internal/service"
)

// StaffHandler exposes staff records and their location assignments.
type StaffHandler struct {
	directory   *service.DirectoryService
	assignments *service.AssignmentService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(directory *service.DirectoryService, assignments *service.AssignmentService) *StaffHandler {
	return &StaffHandler{directory: directory, assignments: assignments}
}

// Create handles POST /api/staff.
func (h *StaffHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateStaffRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	member, err := h.directory.CreateStaff(c.UserContext(), principal, service.StaffInput{
		ID:           req.ID,
		Name:         req.Name,
		Email:        req.Email,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": staffResponse(member)})
}

// Deactivate handles POST /api/staff/:id/deactivate.
func (h *StaffHandler) Deactivate(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	member, err := h.directory.DeactivateStaff(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(member)})
}

// Assign handles POST /api/staff/:id/locations.
func (h *StaffHandler) Assign(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignmentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	assignment, err := h.assignments.Assign(c.UserContext(), principal, c.Params("id"), assignmentInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": assignmentResponse(assignment)})
}

// Replace handles PUT /api/staff/:id/locations.
func (h *StaffHandler) Replace(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ReplaceAssignmentsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	inputs := make([]service.AssignmentInput, 0, len(req.Assignments))
	for _, a := range req.Assignments {
		inputs = append(inputs, assignmentInput(a))
	}
	assignments, err := h.assignments.ReplaceAssignments(c.UserContext(), principal, c.Params("id"), inputs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": assignmentResponses(assignments)})
}

// ListLocations handles GET /api/staff/:id/locations.
func (h *StaffHandler) ListLocations(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	assignments, err := h.assignments.ListAssignments(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": assignmentResponses(assignments)})
}

// Release handles DELETE /api/staff/:id/locations.
func (h *StaffHandler) Release(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.assignments.ReleaseStaff(c.UserContext(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func assignmentInput(req dto.AssignmentRequest) service.AssignmentInput {
	return service.AssignmentInput{BuildingID: req.BuildingID, FloorNumber: req.FloorNumber, Labs: req.Labs}
}

func assignmentResponse(a *domain.LocationAssignment) dto.AssignmentResponse {
	return dto.AssignmentResponse{
		ID:           a.ID,
		StaffID:      a.StaffID,
		DepartmentID: a.DepartmentID,
		BuildingID:   a.BuildingID,
		FloorNumber:  a.FloorNumber,
		Labs:         a.Labs,
		UpdatedAt:    a.UpdatedAt,
	}
}

func assignmentResponses(in []domain.LocationAssignment) []dto.AssignmentResponse {
	out := make([]dto.AssignmentResponse, 0, len(in))
	for i := range in {
		out = append(out, assignmentResponse(&in[i]))
	}
	return out
}

func staffResponse(member *domain.StaffMember) dto.StaffResponse {
	return dto.StaffResponse{
		ID:           member.ID,
		Name:         member.Name,
		Email:        member.Email,
		DepartmentID: member.DepartmentID,
		Active:       member.Active,
		CreatedAt:    member.CreatedAt,
	}
}
