package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
	"github.com/harsh17045/IssueTracker-sub000/internal/repository"
	apperrors "github.com/harsh17045/IssueTracker-sub000/pkg/util/errorutil"
)

const allBuildingsKey = "buildings:all"

// LocationRegistry answers lookups against building reference data.
// Reads are served from a TTL cache that every save invalidates.
type LocationRegistry struct {
	buildings   repository.BuildingRepository
	assignments repository.AssignmentRepository
	cache       *cache.Cache
}

// NewLocationRegistry builds the registry. ttl <= 0 keeps entries until the
// next save. With a nil assignments repository saves skip the ownership check.
func NewLocationRegistry(buildings repository.BuildingRepository, assignments repository.AssignmentRepository, ttl time.Duration) *LocationRegistry {
	expiration := ttl
	cleanup := 2 * ttl
	if ttl <= 0 {
		expiration = cache.NoExpiration
		cleanup = 0
	}
	return &LocationRegistry{buildings: buildings, assignments: assignments, cache: cache.New(expiration, cleanup)}
}

// Building returns a copy of the building.
func (r *LocationRegistry) Building(ctx context.Context, buildingID string) (*domain.Building, error) {
	key := "building:" + buildingID
	if cached, ok := r.cache.Get(key); ok {
		b := cloneBuilding(cached.(domain.Building))
		return &b, nil
	}
	building, err := r.buildings.GetByID(ctx, buildingID)
	if err != nil {
		return nil, mapRepoError(err, "building", map[string]any{"building_id": buildingID})
	}
	r.cache.SetDefault(key, cloneBuilding(*building))
	return building, nil
}

// ListBuildings returns every building ordered by name.
func (r *LocationRegistry) ListBuildings(ctx context.Context) ([]domain.Building, error) {
	if cached, ok := r.cache.Get(allBuildingsKey); ok {
		return cloneBuildings(cached.([]domain.Building)), nil
	}
	buildings, err := r.buildings.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	r.cache.SetDefault(allBuildingsKey, cloneBuildings(buildings))
	return buildings, nil
}

// GetFloor returns the labs on one floor.
func (r *LocationRegistry) GetFloor(ctx context.Context, buildingID string, floorNumber int) ([]string, error) {
	building, err := r.Building(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	floor, ok := building.Floor(floorNumber)
	if !ok {
		return nil, apperrors.NewNotFound("floor", map[string]any{"building_id": buildingID, "floor_number": floorNumber})
	}
	return append([]string(nil), floor.Labs...), nil
}

// BuildingExists reports whether buildingID is registered.
func (r *LocationRegistry) BuildingExists(ctx context.Context, buildingID string) (bool, error) {
	_, err := r.Building(ctx, buildingID)
	return found(err)
}

// FloorExists reports whether the building has the numbered floor. A
// missing building reports false.
func (r *LocationRegistry) FloorExists(ctx context.Context, buildingID string, floorNumber int) (bool, error) {
	_, err := r.GetFloor(ctx, buildingID, floorNumber)
	return found(err)
}

// LabExistsOnFloor reports whether lab is listed on the floor.
func (r *LocationRegistry) LabExistsOnFloor(ctx context.Context, buildingID string, floorNumber int, lab string) (bool, error) {
	labs, err := r.GetFloor(ctx, buildingID, floorNumber)
	if ok, err := found(err); !ok {
		return false, err
	}
	for _, existing := range labs {
		if existing == lab {
			return true, nil
		}
	}
	return false, nil
}

// ValidateLocation checks that a location reference points at real reference data.
func (r *LocationRegistry) ValidateLocation(ctx context.Context, loc domain.Location) error {
	labs, err := r.GetFloor(ctx, loc.BuildingID, loc.FloorNumber)
	if err != nil {
		return err
	}
	if loc.Lab == "" {
		return nil
	}
	for _, existing := range labs {
		if existing == loc.Lab {
			return nil
		}
	}
	return apperrors.NewNotFound("lab", map[string]any{
		"building_id": loc.BuildingID, "floor_number": loc.FloorNumber, "lab": loc.Lab,
	})
}

// SaveBuilding validates and stores a building. Admin only. A save that
// would drop a floor or lab still owned by a staff member is rejected.
func (r *LocationRegistry) SaveBuilding(ctx context.Context, actor *domain.Principal, building *domain.Building) (*domain.Building, error) {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if err := ValidateBuilding(building); err != nil {
		return nil, err
	}
	if err := r.checkOwnedLabsKept(ctx, building); err != nil {
		return nil, err
	}
	if err := r.buildings.Save(ctx, building); err != nil {
		return nil, apperrors.MapError(err)
	}
	r.cache.Delete("building:" + building.ID)
	r.cache.Delete(allBuildingsKey)
	return building, nil
}

func (r *LocationRegistry) checkOwnedLabsKept(ctx context.Context, building *domain.Building) error {
	if r.assignments == nil {
		return nil
	}
	owned, err := r.assignments.ListByBuilding(ctx, building.ID)
	if err != nil {
		return apperrors.MapError(err)
	}

	var orphaned []map[string]any
	for _, a := range owned {
		var kept []string
		if floor, ok := building.Floor(a.FloorNumber); ok {
			kept = floor.Labs
		}
		if dropped := domain.Difference(a.Labs, kept); len(dropped) > 0 {
			orphaned = append(orphaned, map[string]any{
				"staff_id":      a.StaffID,
				"department_id": a.DepartmentID,
				"floor_number":  a.FloorNumber,
				"labs":          dropped,
			})
		}
	}
	if len(orphaned) > 0 {
		return apperrors.NewValidationError("building change removes labs that are still assigned", map[string]any{
			"building_id": building.ID, "assignments": orphaned,
		})
	}
	return nil
}

// ValidateBuilding enforces the shape rules of reference data.
func ValidateBuilding(building *domain.Building) error {
	building.ID = strings.TrimSpace(building.ID)
	building.Name = strings.TrimSpace(building.Name)
	if building.ID == "" || building.Name == "" {
		return apperrors.NewValidationError("building id and name are required", nil)
	}
	if len(building.Floors) == 0 {
		return apperrors.NewValidationError("building must have at least one floor", map[string]any{"building_id": building.ID})
	}
	floors := make(map[int]struct{}, len(building.Floors))
	for i := range building.Floors {
		floor := &building.Floors[i]
		if _, dup := floors[floor.Number]; dup {
			return apperrors.NewValidationError("duplicate floor number", map[string]any{"floor_number": floor.Number})
		}
		floors[floor.Number] = struct{}{}
		if len(floor.Labs) == 0 {
			return apperrors.NewValidationError("floor must list at least one lab", map[string]any{"floor_number": floor.Number})
		}
		labs := make(map[string]struct{}, len(floor.Labs))
		for j, lab := range floor.Labs {
			lab = strings.TrimSpace(lab)
			if lab == "" {
				return apperrors.NewValidationError("lab identifier is empty", map[string]any{"floor_number": floor.Number})
			}
			if _, dup := labs[lab]; dup {
				return apperrors.NewValidationError(fmt.Sprintf("duplicate lab %s", lab),
					map[string]any{"floor_number": floor.Number, "lab": lab})
			}
			labs[lab] = struct{}{}
			floor.Labs[j] = lab
		}
	}
	return nil
}

func found(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if apperrors.Is(err, apperrors.CodeNotFound) {
		return false, nil
	}
	return false, err
}

func cloneBuilding(b domain.Building) domain.Building {
	floors := make([]domain.Floor, len(b.Floors))
	for i, f := range b.Floors {
		floors[i] = domain.Floor{Number: f.Number, Labs: append([]string(nil), f.Labs...)}
	}
	b.Floors = floors
	return b
}

func cloneBuildings(in []domain.Building) []domain.Building {
	out := make([]domain.Building, len(in))
	for i, b := range in {
		out[i] = cloneBuilding(b)
	}
	return out
}
