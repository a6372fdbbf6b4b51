package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
)

// BuildingRepository persists the location reference data.
type BuildingRepository interface {
	Save(ctx context.Context, building *domain.Building) error
	GetByID(ctx context.Context, id string) (*domain.Building, error)
	List(ctx context.Context) ([]domain.Building, error)
}

type buildingRepository struct {
	db DB
}

// NewBuildingRepository builds the repository.
func NewBuildingRepository(db DB) BuildingRepository {
	return &buildingRepository{db: db}
}

// Save inserts the building or replaces its name and floors.
func (r *buildingRepository) Save(ctx context.Context, building *domain.Building) error {
	floors, err := json.Marshal(building.Floors)
	if err != nil {
		return fmt.Errorf("encode floors: %w", err)
	}
	const query = `
        INSERT INTO buildings (id, name, floors)
        VALUES ($1,$2,$3)
        ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, floors=EXCLUDED.floors, updated_at=NOW()
        RETURNING created_at, updated_at`
	return r.db.QueryRow(ctx, query, building.ID, building.Name, floors).
		Scan(&building.CreatedAt, &building.UpdatedAt)
}

func (r *buildingRepository) GetByID(ctx context.Context, id string) (*domain.Building, error) {
	const query = `
        SELECT id, name, floors, created_at, updated_at
        FROM buildings WHERE id=$1`
	var (
		building domain.Building
		floors   []byte
	)
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&building.ID,
		&building.Name,
		&floors,
		&building.CreatedAt,
		&building.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(floors, &building.Floors); err != nil {
		return nil, fmt.Errorf("decode floors of %s: %w", id, err)
	}
	return &building, nil
}

func (r *buildingRepository) List(ctx context.Context) ([]domain.Building, error) {
	const query = `
        SELECT id, name, floors, created_at, updated_at
        FROM buildings ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Building
	for rows.Next() {
		var (
			building domain.Building
			floors   []byte
		)
		if err := rows.Scan(&building.ID, &building.Name, &floors, &building.CreatedAt, &building.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(floors, &building.Floors); err != nil {
			return nil, fmt.Errorf("decode floors of %s: %w", building.ID, err)
		}
		result = append(result, building)
	}
	return result, rows.Err()
}
