package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harsh17045/IssueTracker-sub000/internal/persistence"
)

const referenceYAML = `
departments:
  - id: fac
    name: Facilities
    location_scoped: true
  - id: hr
    name: Human Resources
staff:
  - id: S1
    name: Sam
    email: s1@example.com
    department_id: fac
  - id: H1
    name: Hana
    email: h1@example.com
    department_id: hr
buildings:
  - id: B2
    name: Annex
    floors:
      - floor_number: 1
        labs: [A1, A2]
      - floor_number: 2
        labs: [A3]
assignments:
  - staff_id: S1
    building_id: B2
    floor_number: 1
    labs: [A1]
  - staff_id: S1
    building_id: B2
    floor_number: 2
    labs: [A3]
`

func TestSeederApplyIsRepeatable(t *testing.T) {
	f := newFixture(t)
	data, err := persistence.ParseReferenceData([]byte(referenceYAML))
	require.NoError(t, err)
	seeder := NewSeeder(f.directory, f.registry, f.assignments, nil)

	require.NoError(t, seeder.Apply(f.ctx, data))
	require.NoError(t, seeder.Apply(f.ctx, data))

	depts, err := f.directory.ListDepartments(f.ctx)
	require.NoError(t, err)
	names := map[string]string{}
	for _, d := range depts {
		names[d.ID] = d.Name
	}
	assert.Equal(t, "Facilities", names["fac"])
	assert.Equal(t, "Human Resources", names["hr"])

	labs, err := f.registry.GetFloor(f.ctx, "B2", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, labs)

	owned, err := f.assignments.ListAssignments(f.ctx, admin, "S1")
	require.NoError(t, err)
	assert.Len(t, owned, 2)
}

func TestSeederRejectsInvalidAssignments(t *testing.T) {
	f := newFixture(t)
	data, err := persistence.ParseReferenceData([]byte(referenceYAML))
	require.NoError(t, err)
	data.Assignments[0].Labs = []string{"Z9"}

	err = NewSeeder(f.directory, f.registry, f.assignments, nil).Apply(f.ctx, data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed assignments of S1")
}
