package domain

import (
	"sort"
	"time"
)

// LocationAssignment records which labs of one floor a staff member owns.
type LocationAssignment struct {
	ID           string
	StaffID      string
	DepartmentID string
	BuildingID   string
	FloorNumber  int
	Labs         []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FloorKey identifies one (department, building, floor) ownership scope.
type FloorKey struct {
	DepartmentID string
	BuildingID   string
	FloorNumber  int
}

// Key returns the ownership scope of the assignment.
func (a LocationAssignment) Key() FloorKey {
	return FloorKey{DepartmentID: a.DepartmentID, BuildingID: a.BuildingID, FloorNumber: a.FloorNumber}
}

// Overlap returns the labs present in both sets, sorted.
func Overlap(a, b []string) []string {
	set := make(map[string]struct{}, len(a))
	for _, lab := range a {
		set[lab] = struct{}{}
	}
	var out []string
	seen := make(map[string]struct{})
	for _, lab := range b {
		if _, ok := set[lab]; !ok {
			continue
		}
		if _, dup := seen[lab]; dup {
			continue
		}
		seen[lab] = struct{}{}
		out = append(out, lab)
	}
	sort.Strings(out)
	return out
}

// Difference returns the labs of a missing from b, sorted.
func Difference(a, b []string) []string {
	keep := make(map[string]struct{}, len(b))
	for _, lab := range b {
		keep[lab] = struct{}{}
	}
	var out []string
	seen := make(map[string]struct{})
	for _, lab := range a {
		if _, ok := keep[lab]; ok {
			continue
		}
		if _, dup := seen[lab]; dup {
			continue
		}
		seen[lab] = struct{}{}
		out = append(out, lab)
	}
	sort.Strings(out)
	return out
}
