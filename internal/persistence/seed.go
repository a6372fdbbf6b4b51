package persistence

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
)

// ReferenceData is the startup seed of organisation and location records.
type ReferenceData struct {
	Departments []SeedDepartment `yaml:"departments"`
	Staff       []SeedStaff      `yaml:"staff"`
	Buildings   []SeedBuilding   `yaml:"buildings"`
	Assignments []SeedAssignment `yaml:"assignments"`
}

type SeedDepartment struct {
	ID             string `yaml:"id"`
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	LocationScoped bool   `yaml:"location_scoped"`
}

type SeedStaff struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Email        string `yaml:"email"`
	DepartmentID string `yaml:"department_id"`
}

type SeedBuilding struct {
	ID     string         `yaml:"id"`
	Name   string         `yaml:"name"`
	Floors []domain.Floor `yaml:"floors"`
}

type SeedAssignment struct {
	StaffID     string   `yaml:"staff_id"`
	BuildingID  string   `yaml:"building_id"`
	FloorNumber int      `yaml:"floor_number"`
	Labs        []string `yaml:"labs"`
}

// LoadReferenceData reads and decodes a YAML seed file.
func LoadReferenceData(path string) (*ReferenceData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference data: %w", err)
	}
	return ParseReferenceData(raw)
}

// ParseReferenceData decodes a YAML document and checks required ids.
func ParseReferenceData(raw []byte) (*ReferenceData, error) {
	var data ReferenceData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode reference data: %w", err)
	}
	for i, d := range data.Departments {
		if d.ID == "" || d.Name == "" {
			return nil, fmt.Errorf("department #%d: id and name are required", i+1)
		}
	}
	for i, s := range data.Staff {
		if s.ID == "" || s.DepartmentID == "" {
			return nil, fmt.Errorf("staff #%d: id and department_id are required", i+1)
		}
	}
	for i, b := range data.Buildings {
		if b.ID == "" {
			return nil, fmt.Errorf("building #%d: id is required", i+1)
		}
	}
	return &data, nil
}
