package dto

import "time"

// CreateStaffRequest payload.
type CreateStaffRequest struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	DepartmentID string `json:"departmentId"`
}

// StaffResponse describes a staff member.
type StaffResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	DepartmentID string    `json:"departmentId"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AssignmentRequest asks for ownership of labs on one building floor.
type AssignmentRequest struct {
	BuildingID  string   `json:"buildingId"`
	FloorNumber int      `json:"floorNumber"`
	Labs        []string `json:"labs"`
}

// ReplaceAssignmentsRequest is the full assignment set of a staff member.
type ReplaceAssignmentsRequest struct {
	Assignments []AssignmentRequest `json:"assignments"`
}

// AssignmentResponse describes one ownership record.
type AssignmentResponse struct {
	ID           string    `json:"id"`
	StaffID      string    `json:"staffId"`
	DepartmentID string    `json:"departmentId"`
	BuildingID   string    `json:"buildingId"`
	FloorNumber  int       `json:"floorNumber"`
	Labs         []string  `json:"labs"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SlotResponse lists unowned labs on a floor.
type SlotResponse struct {
	BuildingID    string   `json:"buildingId"`
	BuildingName  string   `json:"buildingName"`
	FloorNumber   int      `json:"floorNumber"`
	AvailableLabs []string `json:"availableLabs"`
	Covered       bool     `json:"covered"`
}

// DepartmentRequest payload for creation.
type DepartmentRequest struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	LocationScoped bool   `json:"locationScoped"`
}

// DepartmentPatchRequest payload. Omitted fields stay unchanged.
type DepartmentPatchRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	LocationScoped *bool   `json:"locationScoped"`
	IsActive       *bool   `json:"isActive"`
}

// DepartmentResponse describes a department.
type DepartmentResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	LocationScoped bool   `json:"locationScoped"`
	IsActive       bool   `json:"isActive"`
}
