package events

import "fmt"

// DepartmentChannel is where a global department's staff listen.
func DepartmentChannel(departmentID string) string {
	return "dept:" + departmentID
}

// LocationChannel is where the owners of one building floor listen.
func LocationChannel(buildingID string, floor int) string {
	return fmt.Sprintf("loc:%s:%d", buildingID, floor)
}

// EmployeeChannel carries updates on one employee's own tickets.
func EmployeeChannel(employeeID string) string {
	return "employee:" + employeeID
}
