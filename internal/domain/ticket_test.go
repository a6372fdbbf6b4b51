package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	statuses := []TicketStatus{TicketStatusPending, TicketStatusInProgress, TicketStatusResolved, TicketStatusRevoked}
	allowed := map[[2]TicketStatus]bool{
		{TicketStatusPending, TicketStatusInProgress}:  true,
		{TicketStatusPending, TicketStatusRevoked}:     true,
		{TicketStatusInProgress, TicketStatusResolved}: true,
		{TicketStatusInProgress, TicketStatusRevoked}:  true,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			assert.Equal(t, allowed[[2]TicketStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, CanTransition("bogus", TicketStatusPending))
}

func TestTerminalStatuses(t *testing.T) {
	assert.False(t, TicketStatusPending.Terminal())
	assert.False(t, TicketStatusInProgress.Terminal())
	assert.True(t, TicketStatusResolved.Terminal())
	assert.True(t, TicketStatusRevoked.Terminal())
	assert.False(t, TicketStatus("closed").Valid())
}

func TestHumanReadableID(t *testing.T) {
	assert.Equal(t, "TK-42", HumanReadableID("TK-", 42))
}

func TestOverlap(t *testing.T) {
	assert.Equal(t, []string{"L5"}, Overlap([]string{"L5", "L6"}, []string{"L7", "L5", "L5"}))
	assert.Empty(t, Overlap([]string{"L1"}, []string{"L2"}))
}

func TestDifference(t *testing.T) {
	assert.Equal(t, []string{"L6", "L7"}, Difference([]string{"L7", "L5", "L6", "L7"}, []string{"L5"}))
	assert.Empty(t, Difference([]string{"L1"}, []string{"L1", "L2"}))
}

func TestPrincipalIsStaffOf(t *testing.T) {
	staff := &Principal{ID: "s1", Role: RoleStaff, DepartmentID: "fac"}
	admin := &Principal{ID: "a1", Role: RoleDepartmentAdmin, DepartmentID: "fac"}
	employee := &Principal{ID: "e1", Role: RoleEmployee, DepartmentID: "fac"}

	assert.True(t, staff.IsStaffOf("fac"))
	assert.False(t, staff.IsStaffOf("it"))
	assert.True(t, admin.IsStaffOf("fac"))
	assert.False(t, employee.IsStaffOf("fac"))
	assert.False(t, (*Principal)(nil).IsStaffOf("fac"))
}

func TestCommentCounterpart(t *testing.T) {
	assert.Equal(t, AuthorRoleEmployee, AuthorRoleStaff.Counterpart())
	assert.Equal(t, AuthorRoleStaff, AuthorRoleEmployee.Counterpart())
}
