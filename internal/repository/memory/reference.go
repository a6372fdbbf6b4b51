package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
	"github.com/harsh17045/IssueTracker-sub000/internal/repository"
)

// BuildingRepository stores buildings by id.
type BuildingRepository struct {
	mu        sync.RWMutex
	buildings map[string]domain.Building
}

// NewBuildingRepository builds an empty store.
func NewBuildingRepository() *BuildingRepository {
	return &BuildingRepository{buildings: make(map[string]domain.Building)}
}

var _ repository.BuildingRepository = (*BuildingRepository)(nil)

func (r *BuildingRepository) Save(ctx context.Context, building *domain.Building) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := r.buildings[building.ID]; ok {
		building.CreatedAt = existing.CreatedAt
	} else {
		building.CreatedAt = now
	}
	building.UpdatedAt = now
	r.buildings[building.ID] = cloneBuilding(*building)
	return nil
}

func (r *BuildingRepository) GetByID(ctx context.Context, id string) (*domain.Building, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	building, ok := r.buildings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneBuilding(building)
	return &out, nil
}

func (r *BuildingRepository) List(ctx context.Context) ([]domain.Building, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Building, 0, len(r.buildings))
	for _, building := range r.buildings {
		out = append(out, cloneBuilding(building))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func cloneBuilding(b domain.Building) domain.Building {
	floors := make([]domain.Floor, len(b.Floors))
	for i, f := range b.Floors {
		floors[i] = domain.Floor{Number: f.Number, Labs: append([]string(nil), f.Labs...)}
	}
	b.Floors = floors
	return b
}

// DepartmentRepository stores departments by id.
type DepartmentRepository struct {
	mu          sync.RWMutex
	departments map[string]domain.Department
}

// NewDepartmentRepository builds an empty store.
func NewDepartmentRepository() *DepartmentRepository {
	return &DepartmentRepository{departments: make(map[string]domain.Department)}
}

var _ repository.DepartmentRepository = (*DepartmentRepository)(nil)

func (r *DepartmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.departments[dept.ID]; ok {
		return repository.ErrConflict
	}
	now := time.Now().UTC()
	dept.CreatedAt, dept.UpdatedAt = now, now
	r.departments[dept.ID] = *dept
	return nil
}

func (r *DepartmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.departments[dept.ID]
	if !ok {
		return repository.ErrNotFound
	}
	dept.CreatedAt = existing.CreatedAt
	dept.UpdatedAt = time.Now().UTC()
	r.departments[dept.ID] = *dept
	return nil
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dept, ok := r.departments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &dept, nil
}

func (r *DepartmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Department, 0, len(r.departments))
	for _, dept := range r.departments {
		out = append(out, dept)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// StaffRepository stores staff members by id.
type StaffRepository struct {
	mu    sync.RWMutex
	staff map[string]domain.StaffMember
}

// NewStaffRepository builds an empty store.
func NewStaffRepository() *StaffRepository {
	return &StaffRepository{staff: make(map[string]domain.StaffMember)}
}

var _ repository.StaffRepository = (*StaffRepository)(nil)

func (r *StaffRepository) Create(ctx context.Context, staff *domain.StaffMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.staff[staff.ID]; ok {
		return repository.ErrConflict
	}
	now := time.Now().UTC()
	staff.CreatedAt, staff.UpdatedAt = now, now
	r.staff[staff.ID] = *staff
	return nil
}

func (r *StaffRepository) Update(ctx context.Context, staff *domain.StaffMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.staff[staff.ID]
	if !ok {
		return repository.ErrNotFound
	}
	staff.CreatedAt = existing.CreatedAt
	staff.UpdatedAt = time.Now().UTC()
	r.staff[staff.ID] = *staff
	return nil
}

func (r *StaffRepository) GetByID(ctx context.Context, id string) (*domain.StaffMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	staff, ok := r.staff[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &staff, nil
}

func (r *StaffRepository) ListByDepartment(ctx context.Context, departmentID string) ([]domain.StaffMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.StaffMember, 0)
	for _, staff := range r.staff {
		if staff.DepartmentID == departmentID {
			out = append(out, staff)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
