package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
)

// AssignmentRepository persists location ownership of staff members.
type AssignmentRepository interface {
	ListByStaff(ctx context.Context, staffID string) ([]domain.LocationAssignment, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]domain.LocationAssignment, error)
	ListByFloor(ctx context.Context, key domain.FloorKey) ([]domain.LocationAssignment, error)
	ListByBuilding(ctx context.Context, buildingID string) ([]domain.LocationAssignment, error)
	// WithFloorLocks runs fn with exclusive write access to the given floors.
	// Writes made through the AssignmentTx become visible only if fn returns nil.
	WithFloorLocks(ctx context.Context, keys []domain.FloorKey, fn func(tx AssignmentTx) error) error
}

// AssignmentTx is the write view handed to WithFloorLocks callbacks.
type AssignmentTx interface {
	// LockStaff serializes writers of one staff member's assignment set.
	// Call it after WithFloorLocks has taken the floor locks.
	LockStaff(ctx context.Context, staffID string) error
	ListByFloor(ctx context.Context, key domain.FloorKey) ([]domain.LocationAssignment, error)
	DeleteByStaff(ctx context.Context, staffID string) error
	DeleteByStaffFloor(ctx context.Context, staffID string, key domain.FloorKey) error
	Insert(ctx context.Context, assignment *domain.LocationAssignment) error
}

// SortFloorKeys orders keys so concurrent lockers always acquire them in the same order.
func SortFloorKeys(keys []domain.FloorKey) []domain.FloorKey {
	seen := make(map[domain.FloorKey]struct{}, len(keys))
	out := make([]domain.FloorKey, 0, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DepartmentID != out[j].DepartmentID {
			return out[i].DepartmentID < out[j].DepartmentID
		}
		if out[i].BuildingID != out[j].BuildingID {
			return out[i].BuildingID < out[j].BuildingID
		}
		return out[i].FloorNumber < out[j].FloorNumber
	})
	return out
}

// StaffLockName renders the advisory lock identity of a staff member's assignment set.
func StaffLockName(staffID string) string {
	return "assignment-staff:" + staffID
}

// LockName renders the advisory lock identity of a floor scope.
func LockName(key domain.FloorKey) string {
	return fmt.Sprintf("assignment:%s:%s:%d", key.DepartmentID, key.BuildingID, key.FloorNumber)
}

const assignmentColumns = `id, staff_id, department_id, building_id, floor_number, labs, created_at, updated_at`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type assignmentRepository struct {
	db DB
}

// NewAssignmentRepository builds the repository.
func NewAssignmentRepository(db DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) ListByStaff(ctx context.Context, staffID string) ([]domain.LocationAssignment, error) {
	return queryAssignments(ctx, r.db,
		`SELECT `+assignmentColumns+` FROM location_assignments WHERE staff_id=$1 ORDER BY building_id, floor_number`, staffID)
}

func (r *assignmentRepository) ListByDepartment(ctx context.Context, departmentID string) ([]domain.LocationAssignment, error) {
	return queryAssignments(ctx, r.db,
		`SELECT `+assignmentColumns+` FROM location_assignments WHERE department_id=$1 ORDER BY building_id, floor_number, staff_id`, departmentID)
}

func (r *assignmentRepository) ListByFloor(ctx context.Context, key domain.FloorKey) ([]domain.LocationAssignment, error) {
	return listByFloor(ctx, r.db, key)
}

func (r *assignmentRepository) ListByBuilding(ctx context.Context, buildingID string) ([]domain.LocationAssignment, error) {
	return queryAssignments(ctx, r.db,
		`SELECT `+assignmentColumns+` FROM location_assignments WHERE building_id=$1 ORDER BY floor_number, staff_id`, buildingID)
}

func (r *assignmentRepository) WithFloorLocks(ctx context.Context, keys []domain.FloorKey, fn func(tx AssignmentTx) error) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		for _, key := range SortFloorKeys(keys) {
			if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, LockName(key)); err != nil {
				return fmt.Errorf("lock %s: %w", LockName(key), err)
			}
		}
		return fn(&assignmentTx{tx: tx})
	})
}

type assignmentTx struct {
	tx pgx.Tx
}

func (t *assignmentTx) LockStaff(ctx context.Context, staffID string) error {
	if _, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, StaffLockName(staffID)); err != nil {
		return fmt.Errorf("lock %s: %w", StaffLockName(staffID), err)
	}
	return nil
}

func (t *assignmentTx) ListByFloor(ctx context.Context, key domain.FloorKey) ([]domain.LocationAssignment, error) {
	return listByFloor(ctx, t.tx, key)
}

func (t *assignmentTx) DeleteByStaff(ctx context.Context, staffID string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM location_assignments WHERE staff_id=$1`, staffID)
	return err
}

func (t *assignmentTx) DeleteByStaffFloor(ctx context.Context, staffID string, key domain.FloorKey) error {
	_, err := t.tx.Exec(ctx,
		`DELETE FROM location_assignments WHERE staff_id=$1 AND building_id=$2 AND floor_number=$3`,
		staffID, key.BuildingID, key.FloorNumber)
	return err
}

func (t *assignmentTx) Insert(ctx context.Context, a *domain.LocationAssignment) error {
	const query = `
        INSERT INTO location_assignments (id, staff_id, department_id, building_id, floor_number, labs)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING created_at, updated_at`
	err := t.tx.QueryRow(ctx, query,
		a.ID,
		a.StaffID,
		a.DepartmentID,
		a.BuildingID,
		a.FloorNumber,
		a.Labs,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return uniqueViolation(err)
}

func listByFloor(ctx context.Context, q querier, key domain.FloorKey) ([]domain.LocationAssignment, error) {
	return queryAssignments(ctx, q,
		`SELECT `+assignmentColumns+` FROM location_assignments
         WHERE department_id=$1 AND building_id=$2 AND floor_number=$3 ORDER BY staff_id`,
		key.DepartmentID, key.BuildingID, key.FloorNumber)
}

func queryAssignments(ctx context.Context, q querier, query string, args ...any) ([]domain.LocationAssignment, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.LocationAssignment
	for rows.Next() {
		var a domain.LocationAssignment
		if err := rows.Scan(
			&a.ID,
			&a.StaffID,
			&a.DepartmentID,
			&a.BuildingID,
			&a.FloorNumber,
			&a.Labs,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
