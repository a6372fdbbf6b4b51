package dto

// FloorPayload lists the labs of one floor.
type FloorPayload struct {
	Number int      `json:"floorNumber"`
	Labs   []string `json:"labs"`
}

// BuildingRequest payload for PUT /api/buildings/:id.
type BuildingRequest struct {
	Name   string         `json:"name"`
	Floors []FloorPayload `json:"floors"`
}

// BuildingResponse describes a building.
type BuildingResponse struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Floors []FloorPayload `json:"floors"`
}

// FloorResponse answers a floor lookup.
type FloorResponse struct {
	BuildingID  string   `json:"buildingId"`
	FloorNumber int      `json:"floorNumber"`
	Labs        []string `json:"labs"`
}
