package domain

import "time"

// Department represents a resolving organizational unit.
type Department struct {
	ID             string
	Name           string
	Description    string
	LocationScoped bool
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
