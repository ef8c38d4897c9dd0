package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/debate-draw/models"
)

type ActionLogRepository interface {
	Create(ctx context.Context, exec SQLExecutor, entry *models.ActionLogEntry) error
	ListByRound(ctx context.Context, roundID int, limit int) ([]*models.ActionLogEntry, error)
}

type postgresActionLogRepository struct {
	db *sql.DB
}

func NewPostgresActionLogRepository(db *sql.DB) ActionLogRepository {
	return &postgresActionLogRepository{db: db}
}

func (r *postgresActionLogRepository) Create(ctx context.Context, exec SQLExecutor, e *models.ActionLogEntry) error {
	query := `
		INSERT INTO action_log_entries (id, type, tournament_id, round_id, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING timestamp`

	err := executorOr(exec, r.db).QueryRowContext(ctx, query,
		e.ID, e.Type, e.TournamentID, e.RoundID, e.UserID,
	).Scan(&e.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to create action log entry %s: %w", e.Type, err)
	}
	return nil
}

func (r *postgresActionLogRepository) ListByRound(ctx context.Context, roundID int, limit int) ([]*models.ActionLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, type, tournament_id, round_id, user_id, timestamp
		FROM action_log_entries
		WHERE round_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, roundID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query action log for round %d: %w", roundID, err)
	}
	defer rows.Close()

	entries := make([]*models.ActionLogEntry, 0)
	for rows.Next() {
		var e models.ActionLogEntry
		if scanErr := rows.Scan(&e.ID, &e.Type, &e.TournamentID, &e.RoundID, &e.UserID, &e.Timestamp); scanErr != nil {
			return nil, fmt.Errorf("failed to scan action log row: %w", scanErr)
		}
		entries = append(entries, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during action log rows iteration: %w", err)
	}
	return entries, nil
}
