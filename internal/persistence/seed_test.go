package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSeed = `
departments:
  - id: it
    name: IT Support
    location_scoped: true
  - id: hr
    name: Human Resources
staff:
  - id: s-1
    name: Asha
    email: asha@example.com
    department_id: it
buildings:
  - id: b1
    name: Main Block
    floors:
      - floor_number: 1
        labs: [L101, L102]
      - floor_number: 2
        labs: []
assignments:
  - staff_id: s-1
    building_id: b1
    floor_number: 1
    labs: [L101]
`

func TestParseReferenceData(t *testing.T) {
	data, err := ParseReferenceData([]byte(sampleSeed))
	require.NoError(t, err)

	require.Len(t, data.Departments, 2)
	assert.True(t, data.Departments[0].LocationScoped)
	assert.False(t, data.Departments[1].LocationScoped)
	require.Len(t, data.Buildings, 1)
	require.Len(t, data.Buildings[0].Floors, 2)
	assert.Equal(t, 1, data.Buildings[0].Floors[0].Number)
	assert.Equal(t, []string{"L101", "L102"}, data.Buildings[0].Floors[0].Labs)
	require.Len(t, data.Assignments, 1)
	assert.Equal(t, []string{"L101"}, data.Assignments[0].Labs)
}

func TestParseReferenceDataRequiresIDs(t *testing.T) {
	_, err := ParseReferenceData([]byte("departments:\n  - name: Nameless\n"))
	assert.Error(t, err)

	_, err = ParseReferenceData([]byte("staff:\n  - id: s-1\n"))
	assert.Error(t, err)
}

func TestParseReferenceDataRejectsBadYAML(t *testing.T) {
	_, err := ParseReferenceData([]byte("departments: ["))
	assert.Error(t, err)
}
