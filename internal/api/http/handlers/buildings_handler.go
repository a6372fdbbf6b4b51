package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/harsh17045/IssueTracker-sub000/internal/api/dto"
	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
	"github.com/harsh17045/IssueTracker-sub000/internal/service"
	apperrors "github.com/harsh17045/IssueTracker-sub000/pkg/util/errorutil"
)

// BuildingsHandler exposes the location registry.
type BuildingsHandler struct {
	registry *service.LocationRegistry
}

// NewBuildingsHandler constructs handler.
func NewBuildingsHandler(registry *service.LocationRegistry) *BuildingsHandler {
	return &BuildingsHandler{registry: registry}
}

// List handles GET /api/buildings.
func (h *BuildingsHandler) List(c *fiber.Ctx) error {
	buildings, err := h.registry.ListBuildings(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.BuildingResponse, 0, len(buildings))
	for i := range buildings {
		items = append(items, buildingResponse(&buildings[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetFloor handles GET /api/buildings/:id/floors/:floor.
func (h *BuildingsHandler) GetFloor(c *fiber.Ctx) error {
	floor, err := strconv.Atoi(c.Params("floor"))
	if err != nil {
		return apperrors.NewValidationError("floor must be a number", map[string]any{"floor": c.Params("floor")})
	}
	labs, err := h.registry.GetFloor(c.UserContext(), c.Params("id"), floor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FloorResponse{BuildingID: c.Params("id"), FloorNumber: floor, Labs: labs}})
}

// Save handles PUT /api/buildings/:id.
func (h *BuildingsHandler) Save(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.BuildingRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	building := &domain.Building{ID: c.Params("id"), Name: req.Name}
	for _, f := range req.Floors {
		building.Floors = append(building.Floors, domain.Floor{Number: f.Number, Labs: f.Labs})
	}
	saved, err := h.registry.SaveBuilding(c.UserContext(), principal, building)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": buildingResponse(saved)})
}

func buildingResponse(b *domain.Building) dto.BuildingResponse {
	floors := make([]dto.FloorPayload, 0, len(b.Floors))
	for _, f := range b.Floors {
		floors = append(floors, dto.FloorPayload{Number: f.Number, Labs: f.Labs})
	}
	return dto.BuildingResponse{ID: b.ID, Name: b.Name, Floors: floors}
}
