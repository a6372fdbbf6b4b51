package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/harsh17045/IssueTracker-sub000/internal/api/dto"
	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
	"github.com/harsh17045/IssueTracker-sub000/internal/service"
)

// DepartmentsHandler exposes department administration and coverage.
type DepartmentsHandler struct {
	directory   *service.DirectoryService
	assignments *service.AssignmentService
}

// NewDepartmentsHandler constructs handler.
func NewDepartmentsHandler(directory *service.DirectoryService, assignments *service.AssignmentService) *DepartmentsHandler {
	return &DepartmentsHandler{directory: directory, assignments: assignments}
}

// List handles GET /api/departments.
func (h *DepartmentsHandler) List(c *fiber.Ctx) error {
	depts, err := h.directory.ListDepartments(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		items = append(items, departmentResponse(&depts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create handles POST /api/departments.
func (h *DepartmentsHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.DepartmentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	dept, err := h.directory.CreateDepartment(c.UserContext(), principal, service.DepartmentInput{
		ID:             req.ID,
		Name:           req.Name,
		Description:    req.Description,
		LocationScoped: req.LocationScoped,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": departmentResponse(dept)})
}

// Update handles PATCH /api/departments/:id.
func (h *DepartmentsHandler) Update(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.DepartmentPatchRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	dept, err := h.directory.UpdateDepartment(c.UserContext(), principal, c.Params("id"), service.DepartmentPatch{
		Name:           req.Name,
		Description:    req.Description,
		LocationScoped: req.LocationScoped,
		IsActive:       req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": departmentResponse(dept)})
}

// AvailableSlots handles GET /api/departments/:id/available-slots.
func (h *DepartmentsHandler) AvailableSlots(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	slots, err := h.assignments.AvailableSlots(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.SlotResponse, 0, len(slots))
	for _, slot := range slots {
		items = append(items, dto.SlotResponse{
			BuildingID:    slot.BuildingID,
			BuildingName:  slot.BuildingName,
			FloorNumber:   slot.FloorNumber,
			AvailableLabs: slot.AvailableLabs,
			Covered:       slot.Covered,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func departmentResponse(dept *domain.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:             dept.ID,
		Name:           dept.Name,
		Description:    dept.Description,
		LocationScoped: dept.LocationScoped,
		IsActive:       dept.IsActive,
	}
}
