package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/debate-draw/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound        = errors.New("team not found")
	ErrTeamInvalidDivision = errors.New("invalid division reference")
)

type TeamRepository interface {
	GetByID(ctx context.Context, id int) (*models.Team, error)
	// GetByIDs возвращает найденные команды по id; отсутствующие просто не попадают в карту.
	GetByIDs(ctx context.Context, exec SQLExecutor, ids []int) (map[int]*models.Team, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error)
	// ListUnusedInRound - команды турнира, не участвующие ни в одних дебатах раунда.
	ListUnusedInRound(ctx context.Context, tournamentID, roundID int) ([]*models.Team, error)
	UpdateDivision(ctx context.Context, id int, divisionID *int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const teamColumns = `t.id, t.tournament_id, t.reference, t.short_name, t.division_id, t.created_at`

func scanTeam(row interface{ Scan(...any) error }) (*models.Team, error) {
	var t models.Team
	if err := row.Scan(&t.ID, &t.TournamentID, &t.Reference, &t.ShortName, &t.DivisionID, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams t WHERE t.id = $1`
	team, err := scanTeam(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team by id %d: %w", id, err)
	}
	return team, nil
}

func (r *postgresTeamRepository) GetByIDs(ctx context.Context, exec SQLExecutor, ids []int) (map[int]*models.Team, error) {
	result := make(map[int]*models.Team, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query := `SELECT ` + teamColumns + ` FROM teams t WHERE t.id = ANY($1)`
	rows, err := executorOr(exec, r.db).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query teams by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		team, scanErr := scanTeam(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", scanErr)
		}
		result[team.ID] = team
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during team rows iteration: %w", err)
	}
	return result, nil
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams t WHERE t.tournament_id = $1 ORDER BY t.short_name ASC, t.id ASC`
	return r.list(ctx, query, tournamentID)
}

func (r *postgresTeamRepository) ListUnusedInRound(ctx context.Context, tournamentID, roundID int) ([]*models.Team, error) {
	query := `
		SELECT ` + teamColumns + `
		FROM teams t
		WHERE t.tournament_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM debate_teams dt
			JOIN debates d ON d.id = dt.debate_id
			WHERE dt.team_id = t.id AND d.round_id = $2
		  )
		ORDER BY t.short_name ASC, t.id ASC`
	return r.list(ctx, query, tournamentID, roundID)
}

func (r *postgresTeamRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Team, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team, scanErr := scanTeam(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", scanErr)
		}
		teams = append(teams, team)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during team rows iteration: %w", err)
	}
	return teams, nil
}

func (r *postgresTeamRepository) UpdateDivision(ctx context.Context, id int, divisionID *int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE teams SET division_id = $1 WHERE id = $2`, divisionID, id)
	if err != nil {
		if pqErr, ok := asPQError(err); ok && pqErr.Code == pqForeignKeyViolation {
			return ErrTeamInvalidDivision
		}
		return fmt.Errorf("failed to update division of team %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}
