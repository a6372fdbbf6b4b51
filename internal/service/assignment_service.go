package service

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
	"github.com/harsh17045/IssueTracker-sub000/internal/repository"
	apperrors "github.com/harsh17045/IssueTracker-sub000/pkg/util/errorutil"
)

// AssignmentService maintains which staff member owns which labs of
// location-scoped departments. Labs on one floor are never owned twice
// within a department.
type AssignmentService struct {
	assignments repository.AssignmentRepository
	staff       repository.StaffRepository
	departments repository.DepartmentRepository
	registry    *LocationRegistry
	logger      *zap.Logger
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	AssignmentRepo repository.AssignmentRepository
	StaffRepo      repository.StaffRepository
	DepartmentRepo repository.DepartmentRepository
	Registry       *LocationRegistry
	Logger         *zap.Logger
}

// AssignmentInput is one requested (building, floor, labs) ownership.
type AssignmentInput struct {
	BuildingID  string
	FloorNumber int
	Labs        []string
}

// Slot lists the unowned labs of one floor for a department.
type Slot struct {
	BuildingID    string
	BuildingName  string
	FloorNumber   int
	AvailableLabs []string
	Covered       bool
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		assignments: deps.AssignmentRepo,
		staff:       deps.StaffRepo,
		departments: deps.DepartmentRepo,
		registry:    deps.Registry,
		logger:      logger,
	}
}

// Assign sets staffID's labs on one building floor, leaving their other floors untouched.
func (s *AssignmentService) Assign(ctx context.Context, actor *domain.Principal, staffID string, input AssignmentInput) (*domain.LocationAssignment, error) {
	member, err := s.assignableStaff(ctx, actor, staffID)
	if err != nil {
		return nil, err
	}
	assignment, err := s.prepare(ctx, member, input)
	if err != nil {
		return nil, err
	}

	key := assignment.Key()
	err = s.assignments.WithFloorLocks(ctx, []domain.FloorKey{key}, func(tx repository.AssignmentTx) error {
		if err := s.lockActive(ctx, tx, staffID); err != nil {
			return err
		}
		if err := checkDisjoint(ctx, tx, assignment); err != nil {
			return err
		}
		if err := tx.DeleteByStaffFloor(ctx, staffID, key); err != nil {
			return err
		}
		return tx.Insert(ctx, assignment)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("location assigned",
		zap.String("staff_id", staffID),
		zap.String("building_id", assignment.BuildingID),
		zap.Int("floor_number", assignment.FloorNumber),
		zap.Strings("labs", assignment.Labs))
	return assignment, nil
}

// ReplaceAssignments swaps staffID's whole assignment set. Every entry is
// validated against the other owners before anything is written.
func (s *AssignmentService) ReplaceAssignments(ctx context.Context, actor *domain.Principal, staffID string, inputs []AssignmentInput) ([]domain.LocationAssignment, error) {
	member, err := s.assignableStaff(ctx, actor, staffID)
	if err != nil {
		return nil, err
	}

	prepared := make([]*domain.LocationAssignment, 0, len(inputs))
	keys := make([]domain.FloorKey, 0, len(inputs))
	seen := make(map[domain.FloorKey]struct{}, len(inputs))
	for _, input := range inputs {
		assignment, err := s.prepare(ctx, member, input)
		if err != nil {
			return nil, err
		}
		key := assignment.Key()
		if _, dup := seen[key]; dup {
			return nil, apperrors.NewValidationError("building floor listed twice", map[string]any{
				"building_id": key.BuildingID, "floor_number": key.FloorNumber,
			})
		}
		seen[key] = struct{}{}
		prepared = append(prepared, assignment)
		keys = append(keys, key)
	}

	err = s.assignments.WithFloorLocks(ctx, keys, func(tx repository.AssignmentTx) error {
		if err := s.lockActive(ctx, tx, staffID); err != nil {
			return err
		}
		for _, assignment := range prepared {
			if err := checkDisjoint(ctx, tx, assignment); err != nil {
				return err
			}
		}
		if err := tx.DeleteByStaff(ctx, staffID); err != nil {
			return err
		}
		for _, assignment := range prepared {
			if err := tx.Insert(ctx, assignment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	out := make([]domain.LocationAssignment, len(prepared))
	for i, assignment := range prepared {
		out[i] = *assignment
	}
	s.logger.Info("location assignments replaced", zap.String("staff_id", staffID), zap.Int("count", len(out)))
	return out, nil
}

// ListAssignments returns staffID's assignments. The staff member may
// read their own.
func (s *AssignmentService) ListAssignments(ctx context.Context, actor *domain.Principal, staffID string) ([]domain.LocationAssignment, error) {
	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, mapRepoError(err, "staff", map[string]any{"staff_id": staffID})
	}
	if actor == nil || (actor.ID != staffID && !canManageDepartment(actor, member.DepartmentID)) {
		return nil, apperrors.NewForbidden("not allowed to view these assignments")
	}
	assignments, err := s.assignments.ListByStaff(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return assignments, nil
}

// ReleaseStaff removes every assignment of staffID.
func (s *AssignmentService) ReleaseStaff(ctx context.Context, actor *domain.Principal, staffID string) error {
	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return mapRepoError(err, "staff", map[string]any{"staff_id": staffID})
	}
	if !canManageDepartment(actor, member.DepartmentID) {
		return apperrors.NewForbidden("not allowed to manage this department")
	}
	return s.release(ctx, staffID)
}

// release drops staffID's assignments under the locks of every floor they
// own, so it serializes with Assign and ReplaceAssignments on those floors.
func (s *AssignmentService) release(ctx context.Context, staffID string) error {
	owned, err := s.assignments.ListByStaff(ctx, staffID)
	if err != nil {
		return apperrors.MapError(err)
	}
	keys := make([]domain.FloorKey, 0, len(owned))
	for _, a := range owned {
		keys = append(keys, a.Key())
	}
	err = s.assignments.WithFloorLocks(ctx, keys, func(tx repository.AssignmentTx) error {
		if err := tx.LockStaff(ctx, staffID); err != nil {
			return err
		}
		return tx.DeleteByStaff(ctx, staffID)
	})
	if err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("location assignments released", zap.String("staff_id", staffID))
	return nil
}

// AvailableSlots lists, per building floor, the labs no staff member of
// departmentID owns yet.
func (s *AssignmentService) AvailableSlots(ctx context.Context, actor *domain.Principal, departmentID string) ([]Slot, error) {
	if actor == nil || (actor.Role != domain.RoleAdmin && !actor.IsStaffOf(departmentID)) {
		return nil, apperrors.NewForbidden("not allowed to view this department")
	}
	if _, err := s.departments.GetByID(ctx, departmentID); err != nil {
		return nil, mapRepoError(err, "department", map[string]any{"department_id": departmentID})
	}

	buildings, err := s.registry.ListBuildings(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.assignments.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	owned := make(map[domain.FloorKey]map[string]struct{})
	for _, a := range existing {
		labs, ok := owned[a.Key()]
		if !ok {
			labs = make(map[string]struct{})
			owned[a.Key()] = labs
		}
		for _, lab := range a.Labs {
			labs[lab] = struct{}{}
		}
	}

	var slots []Slot
	for _, building := range buildings {
		floors := append([]domain.Floor(nil), building.Floors...)
		sort.Slice(floors, func(i, j int) bool { return floors[i].Number < floors[j].Number })
		for _, floor := range floors {
			key := domain.FloorKey{DepartmentID: departmentID, BuildingID: building.ID, FloorNumber: floor.Number}
			taken, covered := owned[key]
			available := make([]string, 0, len(floor.Labs))
			for _, lab := range floor.Labs {
				if _, ok := taken[lab]; !ok {
					available = append(available, lab)
				}
			}
			sort.Strings(available)
			slots = append(slots, Slot{
				BuildingID:    building.ID,
				BuildingName:  building.Name,
				FloorNumber:   floor.Number,
				AvailableLabs: available,
				Covered:       covered,
			})
		}
	}
	return slots, nil
}

func (s *AssignmentService) assignableStaff(ctx context.Context, actor *domain.Principal, staffID string) (*domain.StaffMember, error) {
	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, mapRepoError(err, "staff", map[string]any{"staff_id": staffID})
	}
	if !canManageDepartment(actor, member.DepartmentID) {
		return nil, apperrors.NewForbidden("not allowed to manage this department")
	}
	if !member.Active {
		return nil, apperrors.NewValidationError("staff member is inactive", map[string]any{"staff_id": staffID})
	}
	dept, err := s.departments.GetByID(ctx, member.DepartmentID)
	if err != nil {
		return nil, mapRepoError(err, "department", map[string]any{"department_id": member.DepartmentID})
	}
	if !dept.LocationScoped {
		return nil, apperrors.NewValidationError("department does not route by location", map[string]any{"department_id": dept.ID})
	}
	return member, nil
}

// lockActive takes the staff lock and re-reads the member, failing when a
// deactivation committed after assignableStaff ran.
func (s *AssignmentService) lockActive(ctx context.Context, tx repository.AssignmentTx, staffID string) error {
	if err := tx.LockStaff(ctx, staffID); err != nil {
		return err
	}
	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return mapRepoError(err, "staff", map[string]any{"staff_id": staffID})
	}
	if !member.Active {
		return apperrors.NewValidationError("staff member is inactive", map[string]any{"staff_id": staffID})
	}
	return nil
}

// prepare validates one input against the registry and normalises its labs.
func (s *AssignmentService) prepare(ctx context.Context, member *domain.StaffMember, input AssignmentInput) (*domain.LocationAssignment, error) {
	floorLabs, err := s.registry.GetFloor(ctx, input.BuildingID, input.FloorNumber)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(floorLabs))
	for _, lab := range floorLabs {
		known[lab] = struct{}{}
	}

	labs := make([]string, 0, len(input.Labs))
	seen := make(map[string]struct{}, len(input.Labs))
	var unknown []string
	for _, lab := range input.Labs {
		lab = strings.TrimSpace(lab)
		if lab == "" {
			continue
		}
		if _, dup := seen[lab]; dup {
			continue
		}
		seen[lab] = struct{}{}
		if _, ok := known[lab]; !ok {
			unknown = append(unknown, lab)
			continue
		}
		labs = append(labs, lab)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, apperrors.NewValidationError("labs do not exist on this floor", map[string]any{
			"building_id": input.BuildingID, "floor_number": input.FloorNumber, "labs": unknown,
		})
	}
	if len(labs) == 0 {
		return nil, apperrors.NewValidationError("at least one lab is required", map[string]any{
			"building_id": input.BuildingID, "floor_number": input.FloorNumber,
		})
	}
	sort.Strings(labs)

	return &domain.LocationAssignment{
		ID:           uuid.NewString(),
		StaffID:      member.ID,
		DepartmentID: member.DepartmentID,
		BuildingID:   input.BuildingID,
		FloorNumber:  input.FloorNumber,
		Labs:         labs,
	}, nil
}

// checkDisjoint fails with LabConflict when another owner on the same
// floor already holds one of the requested labs.
func checkDisjoint(ctx context.Context, tx repository.AssignmentTx, assignment *domain.LocationAssignment) error {
	existing, err := tx.ListByFloor(ctx, assignment.Key())
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.StaffID == assignment.StaffID {
			continue
		}
		if overlap := domain.Overlap(other.Labs, assignment.Labs); len(overlap) > 0 {
			return apperrors.NewLabConflict(overlap, other.StaffID, assignment.BuildingID, assignment.FloorNumber)
		}
	}
	return nil
}

func canManageDepartment(actor *domain.Principal, departmentID string) bool {
	if actor == nil {
		return false
	}
	if actor.Role == domain.RoleAdmin {
		return true
	}
	return actor.Role == domain.RoleDepartmentAdmin && actor.DepartmentID == departmentID
}
