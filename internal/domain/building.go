package domain

import "time"

// Building is reference data: a named building made of floors.
type Building struct {
	ID        string
	Name      string
	Floors    []Floor
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Floor lists the lab identifiers present on one level of a building.
type Floor struct {
	Number int      `json:"floor_number" yaml:"floor_number"`
	Labs   []string `json:"labs" yaml:"labs"`
}

// Floor returns the floor with the given number.
func (b *Building) Floor(number int) (*Floor, bool) {
	for i := range b.Floors {
		if b.Floors[i].Number == number {
			return &b.Floors[i], true
		}
	}
	return nil, false
}

// HasLab reports whether lab exists on the floor.
func (f *Floor) HasLab(lab string) bool {
	for _, existing := range f.Labs {
		if existing == lab {
			return true
		}
	}
	return false
}

// Location is where an employee sits.
type Location struct {
	BuildingID  string `json:"building_id"`
	FloorNumber int    `json:"floor_number"`
	Lab         string `json:"lab,omitempty"`
}
