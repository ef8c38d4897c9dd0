package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/debate-draw/models"
)

var ErrRoundNotFound = errors.New("round not found")

type RoundRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Round, error)
	// GetForUpdate блокирует строку раунда до конца транзакции.
	GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Round, error)
	ListByTournament(ctx context.Context, tournamentID int, status *models.DrawStatus) ([]*models.Round, error)
	ListPrelims(ctx context.Context, tournamentID int) ([]*models.Round, error)
	UpdateDrawStatus(ctx context.Context, exec SQLExecutor, id int, status models.DrawStatus) error
	UpdateStartsAt(ctx context.Context, exec SQLExecutor, id int, startsAt *models.TimeOfDay) error
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

const roundColumns = `id, tournament_id, seq, name, abbreviation, draw_status, starts_at, is_break_round, prev_round_id, created_at`

func scanRound(row interface{ Scan(...any) error }) (*models.Round, error) {
	var r models.Round
	if err := row.Scan(
		&r.ID, &r.TournamentID, &r.Seq, &r.Name, &r.Abbreviation, &r.DrawStatus,
		&r.StartsAt, &r.IsBreakRound, &r.PrevRoundID, &r.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *postgresRoundRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE id = $1`
	return r.getOne(ctx, executorOr(exec, r.db), query, id)
}

func (r *postgresRoundRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Round, error) {
	if exec == nil {
		return nil, errors.New("GetForUpdate requires a transaction")
	}
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, exec, query, id)
}

func (r *postgresRoundRepository) getOne(ctx context.Context, exec SQLExecutor, query string, id int) (*models.Round, error) {
	round, err := scanRound(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to scan round by id %d: %w", id, err)
	}
	return round, nil
}

func (r *postgresRoundRepository) ListByTournament(ctx context.Context, tournamentID int, status *models.DrawStatus) ([]*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE tournament_id = $1`
	args := []interface{}{tournamentID}
	if status != nil {
		query += ` AND draw_status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY seq ASC`
	return r.list(ctx, query, args...)
}

func (r *postgresRoundRepository) ListPrelims(ctx context.Context, tournamentID int) ([]*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE tournament_id = $1 AND is_break_round = FALSE ORDER BY seq ASC`
	return r.list(ctx, query, tournamentID)
}

func (r *postgresRoundRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Round, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer rows.Close()

	rounds := make([]*models.Round, 0)
	for rows.Next() {
		round, scanErr := scanRound(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan round row: %w", scanErr)
		}
		rounds = append(rounds, round)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during round rows iteration: %w", err)
	}
	return rounds, nil
}

func (r *postgresRoundRepository) UpdateDrawStatus(ctx context.Context, exec SQLExecutor, id int, status models.DrawStatus) error {
	query := `UPDATE rounds SET draw_status = $1 WHERE id = $2`
	result, err := executorOr(exec, r.db).ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update draw status of round %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

func (r *postgresRoundRepository) UpdateStartsAt(ctx context.Context, exec SQLExecutor, id int, startsAt *models.TimeOfDay) error {
	query := `UPDATE rounds SET starts_at = $1 WHERE id = $2`
	result, err := executorOr(exec, r.db).ExecContext(ctx, query, startsAt, id)
	if err != nil {
		return fmt.Errorf("failed to update start time of round %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}
