package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
	"github.com/harsh17045/IssueTracker-sub000/internal/persistence"
	apperrors "github.com/harsh17045/IssueTracker-sub000/pkg/util/errorutil"
)

var systemPrincipal = &domain.Principal{ID: "system", Role: domain.RoleAdmin}

// Seeder loads reference data through the regular services so that
// seeded records pass the same validation as API writes.
type Seeder struct {
	directory   *DirectoryService
	registry    *LocationRegistry
	assignments *AssignmentService
	logger      *zap.Logger
}

// NewSeeder constructs a seeder.
func NewSeeder(directory *DirectoryService, registry *LocationRegistry, assignments *AssignmentService, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{directory: directory, registry: registry, assignments: assignments, logger: logger}
}

// Apply writes data. Records that already exist are updated.
func (s *Seeder) Apply(ctx context.Context, data *persistence.ReferenceData) error {
	for _, d := range data.Departments {
		_, err := s.directory.CreateDepartment(ctx, systemPrincipal, DepartmentInput{
			ID: d.ID, Name: d.Name, Description: d.Description, LocationScoped: d.LocationScoped,
		})
		if apperrors.Is(err, apperrors.CodeValidation) {
			name, description, scoped := d.Name, d.Description, d.LocationScoped
			_, err = s.directory.UpdateDepartment(ctx, systemPrincipal, d.ID, DepartmentPatch{
				Name: &name, Description: &description, LocationScoped: &scoped,
			})
		}
		if err != nil {
			return fmt.Errorf("seed department %s: %w", d.ID, err)
		}
	}
	for _, st := range data.Staff {
		_, err := s.directory.CreateStaff(ctx, systemPrincipal, StaffInput{
			ID: st.ID, Name: st.Name, Email: st.Email, DepartmentID: st.DepartmentID,
		})
		if err != nil && !apperrors.Is(err, apperrors.CodeValidation) {
			return fmt.Errorf("seed staff %s: %w", st.ID, err)
		}
	}
	for _, b := range data.Buildings {
		building := &domain.Building{ID: b.ID, Name: b.Name, Floors: b.Floors}
		if _, err := s.registry.SaveBuilding(ctx, systemPrincipal, building); err != nil {
			return fmt.Errorf("seed building %s: %w", b.ID, err)
		}
	}

	byStaff := make(map[string][]AssignmentInput)
	var order []string
	for _, a := range data.Assignments {
		if _, ok := byStaff[a.StaffID]; !ok {
			order = append(order, a.StaffID)
		}
		byStaff[a.StaffID] = append(byStaff[a.StaffID], AssignmentInput{
			BuildingID: a.BuildingID, FloorNumber: a.FloorNumber, Labs: a.Labs,
		})
	}
	for _, staffID := range order {
		if _, err := s.assignments.ReplaceAssignments(ctx, systemPrincipal, staffID, byStaff[staffID]); err != nil {
			return fmt.Errorf("seed assignments of %s: %w", staffID, err)
		}
	}

	s.logger.Info("reference data applied",
		zap.Int("departments", len(data.Departments)),
		zap.Int("staff", len(data.Staff)),
		zap.Int("buildings", len(data.Buildings)),
		zap.Int("assignments", len(data.Assignments)))
	return nil
}
