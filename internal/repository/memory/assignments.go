package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
	"github.com/harsh17045/IssueTracker-sub000/internal/repository"
)

// AssignmentRepository stores location assignments. WithFloorLocks
// serializes all writers on one mutex and applies a callback's writes
// only when it succeeds.
type AssignmentRepository struct {
	mu      sync.Mutex
	records map[string]domain.LocationAssignment
}

// NewAssignmentRepository builds an empty store.
func NewAssignmentRepository() *AssignmentRepository {
	return &AssignmentRepository{records: make(map[string]domain.LocationAssignment)}
}

var _ repository.AssignmentRepository = (*AssignmentRepository)(nil)

func (r *AssignmentRepository) ListByStaff(ctx context.Context, staffID string) ([]domain.LocationAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return selectAssignments(r.records, func(a domain.LocationAssignment) bool { return a.StaffID == staffID }), nil
}

func (r *AssignmentRepository) ListByDepartment(ctx context.Context, departmentID string) ([]domain.LocationAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return selectAssignments(r.records, func(a domain.LocationAssignment) bool { return a.DepartmentID == departmentID }), nil
}

func (r *AssignmentRepository) ListByFloor(ctx context.Context, key domain.FloorKey) ([]domain.LocationAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return selectAssignments(r.records, func(a domain.LocationAssignment) bool { return a.Key() == key }), nil
}

func (r *AssignmentRepository) ListByBuilding(ctx context.Context, buildingID string) ([]domain.LocationAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return selectAssignments(r.records, func(a domain.LocationAssignment) bool { return a.BuildingID == buildingID }), nil
}

func (r *AssignmentRepository) WithFloorLocks(ctx context.Context, keys []domain.FloorKey, fn func(tx repository.AssignmentTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := make(map[string]domain.LocationAssignment, len(r.records))
	for id, a := range r.records {
		staged[id] = a
	}
	if err := fn(&assignmentTx{records: staged}); err != nil {
		return err
	}
	r.records = staged
	return nil
}

type assignmentTx struct {
	records map[string]domain.LocationAssignment
}

// LockStaff is a no-op: the repository mutex already covers the callback.
func (t *assignmentTx) LockStaff(ctx context.Context, staffID string) error {
	return nil
}

func (t *assignmentTx) ListByFloor(ctx context.Context, key domain.FloorKey) ([]domain.LocationAssignment, error) {
	return selectAssignments(t.records, func(a domain.LocationAssignment) bool { return a.Key() == key }), nil
}

func (t *assignmentTx) DeleteByStaff(ctx context.Context, staffID string) error {
	for id, a := range t.records {
		if a.StaffID == staffID {
			delete(t.records, id)
		}
	}
	return nil
}

func (t *assignmentTx) DeleteByStaffFloor(ctx context.Context, staffID string, key domain.FloorKey) error {
	for id, a := range t.records {
		if a.StaffID == staffID && a.BuildingID == key.BuildingID && a.FloorNumber == key.FloorNumber {
			delete(t.records, id)
		}
	}
	return nil
}

func (t *assignmentTx) Insert(ctx context.Context, a *domain.LocationAssignment) error {
	for _, existing := range t.records {
		if existing.StaffID == a.StaffID && existing.BuildingID == a.BuildingID && existing.FloorNumber == a.FloorNumber {
			return repository.ErrConflict
		}
	}
	stored := *a
	stored.Labs = append([]string(nil), a.Labs...)
	t.records[a.ID] = stored
	return nil
}

func selectAssignments(records map[string]domain.LocationAssignment, keep func(domain.LocationAssignment) bool) []domain.LocationAssignment {
	out := make([]domain.LocationAssignment, 0)
	for _, a := range records {
		if keep(a) {
			a.Labs = append([]string(nil), a.Labs...)
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BuildingID != out[j].BuildingID {
			return out[i].BuildingID < out[j].BuildingID
		}
		if out[i].FloorNumber != out[j].FloorNumber {
			return out[i].FloorNumber < out[j].FloorNumber
		}
		return out[i].StaffID < out[j].StaffID
	})
	return out
}
