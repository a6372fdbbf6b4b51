package domain

// Role identifies what a verified caller is allowed to do.
type Role string

const (
	RoleEmployee        Role = "employee"
	RoleStaff           Role = "staff"
	RoleDepartmentAdmin Role = "dept_admin"
	RoleAdmin           Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleStaff, RoleDepartmentAdmin, RoleAdmin:
		return true
	}
	return false
}

// Principal is the verified caller handed over by the authentication layer.
type Principal struct {
	ID             string
	Role           Role
	DepartmentID   string
	DepartmentName string
	Location       *Location
}

// IsEmployee reports whether the principal raises tickets.
func (p *Principal) IsEmployee() bool {
	return p != nil && p.Role == RoleEmployee
}

// IsStaffOf reports whether the principal handles tickets for the department.
// Department admins count as staff of their own department.
func (p *Principal) IsStaffOf(departmentID string) bool {
	if p == nil || departmentID == "" {
		return false
	}
	if p.Role != RoleStaff && p.Role != RoleDepartmentAdmin {
		return false
	}
	return p.DepartmentID == departmentID
}
