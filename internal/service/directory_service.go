package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
	"github.com/harsh17045/IssueTracker-sub000/internal/repository"
	apperrors "github.com/harsh17045/IssueTracker-sub000/pkg/util/errorutil"
)

// DirectoryService manages departments and staff members.
type DirectoryService struct {
	departments repository.DepartmentRepository
	staff       repository.StaffRepository
	assignments *AssignmentService
	logger      *zap.Logger
}

// DirectoryDependencies bundles repositories required for org management.
type DirectoryDependencies struct {
	DepartmentRepo repository.DepartmentRepository
	StaffRepo      repository.StaffRepository
	Assignments    *AssignmentService
	Logger         *zap.Logger
}

// DepartmentInput describes a department to create. An empty ID is generated.
type DepartmentInput struct {
	ID             string
	Name           string
	Description    string
	LocationScoped bool
}

// DepartmentPatch lists changeable department fields; nil means unchanged.
type DepartmentPatch struct {
	Name           *string
	Description    *string
	LocationScoped *bool
	IsActive       *bool
}

// StaffInput describes a staff member to create. An empty ID is generated.
type StaffInput struct {
	ID           string
	Name         string
	Email        string
	DepartmentID string
}

// NewDirectoryService constructs the service.
func NewDirectoryService(deps DirectoryDependencies) *DirectoryService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{
		departments: deps.DepartmentRepo,
		staff:       deps.StaffRepo,
		assignments: deps.Assignments,
		logger:      logger,
	}
}

func requireAdmin(actor *domain.Principal) error {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// CreateDepartment creates a new department.
func (s *DirectoryService) CreateDepartment(ctx context.Context, actor *domain.Principal, input DepartmentInput) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("department name is required", nil)
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()
	}
	dept := &domain.Department{
		ID:             id,
		Name:           name,
		Description:    strings.TrimSpace(input.Description),
		LocationScoped: input.LocationScoped,
		IsActive:       true,
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewValidationError("department already exists", map[string]any{"department_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("department created", zap.String("department_id", dept.ID), zap.Bool("location_scoped", dept.LocationScoped))
	return dept, nil
}

// UpdateDepartment modifies department metadata. Switching LocationScoped
// affects only tickets raised afterwards.
func (s *DirectoryService) UpdateDepartment(ctx context.Context, actor *domain.Principal, id string, patch DepartmentPatch) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "department", map[string]any{"department_id": id})
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("department name is required", nil)
		}
		dept.Name = name
	}
	if patch.Description != nil {
		dept.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.LocationScoped != nil {
		dept.LocationScoped = *patch.LocationScoped
	}
	if patch.IsActive != nil {
		dept.IsActive = *patch.IsActive
	}
	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, mapRepoError(err, "department", map[string]any{"department_id": id})
	}
	return dept, nil
}

// ListDepartments returns every department.
func (s *DirectoryService) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	depts, err := s.departments.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return depts, nil
}

// CreateStaff adds a staff member to a department.
func (s *DirectoryService) CreateStaff(ctx context.Context, actor *domain.Principal, input StaffInput) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("staff name and email are required", nil)
	}
	if _, err := s.departments.GetByID(ctx, input.DepartmentID); err != nil {
		return nil, mapRepoError(err, "department", map[string]any{"department_id": input.DepartmentID})
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()
	}
	member := &domain.StaffMember{
		ID:           id,
		Name:         name,
		Email:        email,
		DepartmentID: input.DepartmentID,
		Active:       true,
	}
	if err := s.staff.Create(ctx, member); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewValidationError("staff member already exists", map[string]any{"staff_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return member, nil
}

// DeactivateStaff marks a staff member inactive and releases the labs they owned.
func (s *DirectoryService) DeactivateStaff(ctx context.Context, actor *domain.Principal, staffID string) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, mapRepoError(err, "staff", map[string]any{"staff_id": staffID})
	}
	member.Active = false
	if err := s.staff.Update(ctx, member); err != nil {
		return nil, mapRepoError(err, "staff", map[string]any{"staff_id": staffID})
	}
	if err := s.assignments.release(ctx, staffID); err != nil {
		return nil, err
	}
	s.logger.Info("staff deactivated", zap.String("staff_id", staffID))
	return member, nil
}
