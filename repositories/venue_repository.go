package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/debate-draw/models"
)

type VenueRepository interface {
	// ListByPriority возвращает площадки турнира, лучшие первыми.
	ListByPriority(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Venue, error)
	AdjudicatorConstraintsExist(ctx context.Context, exec SQLExecutor) (bool, error)
}

type postgresVenueRepository struct {
	db *sql.DB
}

func NewPostgresVenueRepository(db *sql.DB) VenueRepository {
	return &postgresVenueRepository{db: db}
}

func (r *postgresVenueRepository) ListByPriority(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Venue, error) {
	query := `
		SELECT id, tournament_id, name, priority, venue_group_id
		FROM venues
		WHERE tournament_id = $1
		ORDER BY priority DESC, id ASC`

	rows, err := executorOr(exec, r.db).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query venues for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	venues := make([]*models.Venue, 0)
	for rows.Next() {
		var v models.Venue
		if scanErr := rows.Scan(&v.ID, &v.TournamentID, &v.Name, &v.Priority, &v.VenueGroupID); scanErr != nil {
			return nil, fmt.Errorf("failed to scan venue row: %w", scanErr)
		}
		venues = append(venues, &v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during venue rows iteration: %w", err)
	}
	return venues, nil
}

// AdjudicatorConstraintsExist проверяет наличие ограничений судей по площадкам во всей базе,
// не только в текущем турнире.
func (r *postgresVenueRepository) AdjudicatorConstraintsExist(ctx context.Context, exec SQLExecutor) (bool, error) {
	var exists bool
	err := executorOr(exec, r.db).QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM adjudicator_venue_constraints)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check adjudicator venue constraints: %w", err)
	}
	return exists, nil
}
