package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/debate-draw/models"
	"github.com/lib/pq"
)

type SideAllocationRepository interface {
	ListByRounds(ctx context.Context, roundIDs []int) ([]*models.TeamPositionAllocation, error)
}

type postgresSideAllocationRepository struct {
	db *sql.DB
}

func NewPostgresSideAllocationRepository(db *sql.DB) SideAllocationRepository {
	return &postgresSideAllocationRepository{db: db}
}

func (r *postgresSideAllocationRepository) ListByRounds(ctx context.Context, roundIDs []int) ([]*models.TeamPositionAllocation, error) {
	allocations := make([]*models.TeamPositionAllocation, 0)
	if len(roundIDs) == 0 {
		return allocations, nil
	}
	query := `
		SELECT id, team_id, round_id, position
		FROM team_position_allocations
		WHERE round_id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(roundIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query team position allocations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.TeamPositionAllocation
		if scanErr := rows.Scan(&a.ID, &a.TeamID, &a.RoundID, &a.Position); scanErr != nil {
			return nil, fmt.Errorf("failed to scan team position allocation row: %w", scanErr)
		}
		allocations = append(allocations, &a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during team position allocation rows iteration: %w", err)
	}
	return allocations, nil
}
