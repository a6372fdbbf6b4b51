package domain

import "time"

// StaffMember models a member of a resolving department.
type StaffMember struct {
	ID           string
	Name         string
	Email        string
	DepartmentID string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
