package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/debate-draw/models"
	"github.com/lib/pq"
)

var (
	ErrDebateNotFound          = errors.New("debate not found")
	ErrDebateRoundInvalid      = errors.New("debate round conflict or invalid")
	ErrDebateVenueInvalid      = errors.New("debate venue conflict or invalid")
	ErrDebateTeamInvalid       = errors.New("debate team references a missing team")
	ErrDebateTeamPositionTaken = errors.New("debate already has a team in this position")
)

// DebateRepository хранит дебаты раунда и их стороны (debate_teams).
type DebateRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Debate, error)
	// ListByRound возвращает дебаты вместе с командами, по room_rank.
	ListByRound(ctx context.Context, exec SQLExecutor, roundID int) ([]*models.Debate, error)
	Create(ctx context.Context, exec SQLExecutor, debate *models.Debate) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	DeleteByRound(ctx context.Context, exec SQLExecutor, roundID int) (int64, error)
	CreateTeam(ctx context.Context, exec SQLExecutor, dt *models.DebateTeam) error
	DeleteTeams(ctx context.Context, exec SQLExecutor, debateID int) error
	UpdateScheduledAt(ctx context.Context, exec SQLExecutor, debateID int, at *time.Time) error
	UpdateVenue(ctx context.Context, exec SQLExecutor, debateID int, venueID *int) error
}

type postgresDebateRepository struct {
	db *sql.DB
}

func NewPostgresDebateRepository(db *sql.DB) DebateRepository {
	return &postgresDebateRepository{db: db}
}

func (r *postgresDebateRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Debate, error) {
	executor := executorOr(exec, r.db)
	query := `
		SELECT id, round_id, venue_id, scheduled_at, room_rank, bracket, created_at
		FROM debates
		WHERE id = $1`

	d := &models.Debate{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.RoundID, &d.VenueID, &d.ScheduledAt, &d.RoomRank, &d.Bracket, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDebateNotFound
		}
		return nil, fmt.Errorf("failed to scan debate by id %d: %w", id, err)
	}

	teams, err := r.listTeams(ctx, executor, []int{d.ID})
	if err != nil {
		return nil, err
	}
	d.Teams = teams[d.ID]
	return d, nil
}

func (r *postgresDebateRepository) ListByRound(ctx context.Context, exec SQLExecutor, roundID int) ([]*models.Debate, error) {
	executor := executorOr(exec, r.db)
	query := `
		SELECT d.id, d.round_id, d.venue_id, d.scheduled_at, d.room_rank, d.bracket, d.created_at,
		       v.id, v.tournament_id, v.name, v.priority, v.venue_group_id
		FROM debates d
		LEFT JOIN venues v ON v.id = d.venue_id
		WHERE d.round_id = $1
		ORDER BY d.room_rank ASC, d.id ASC`

	rows, err := executor.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query debates for round %d: %w", roundID, err)
	}
	defer rows.Close()

	debates := make([]*models.Debate, 0)
	ids := make([]int, 0)
	for rows.Next() {
		var (
			d          models.Debate
			venueID    sql.NullInt64
			venueTourn sql.NullInt64
			venueName  sql.NullString
			venuePrio  sql.NullInt64
			venueGroup sql.NullInt64
		)
		if scanErr := rows.Scan(
			&d.ID, &d.RoundID, &d.VenueID, &d.ScheduledAt, &d.RoomRank, &d.Bracket, &d.CreatedAt,
			&venueID, &venueTourn, &venueName, &venuePrio, &venueGroup,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan debate row: %w", scanErr)
		}
		if venueID.Valid {
			d.Venue = &models.Venue{
				ID:           int(venueID.Int64),
				TournamentID: int(venueTourn.Int64),
				Name:         venueName.String,
				Priority:     int(venuePrio.Int64),
			}
			if venueGroup.Valid {
				g := int(venueGroup.Int64)
				d.Venue.VenueGroupID = &g
			}
		}
		debates = append(debates, &d)
		ids = append(ids, d.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during debate rows iteration: %w", err)
	}
	if len(ids) == 0 {
		return debates, nil
	}

	teams, err := r.listTeams(ctx, executor, ids)
	if err != nil {
		return nil, err
	}
	for _, d := range debates {
		d.Teams = teams[d.ID]
	}
	return debates, nil
}

// listTeams загружает стороны дебатов вместе с командами; AFF всегда первой.
func (r *postgresDebateRepository) listTeams(ctx context.Context, exec SQLExecutor, debateIDs []int) (map[int][]models.DebateTeam, error) {
	query := `
		SELECT dt.id, dt.debate_id, dt.team_id, dt.position,
		       t.id, t.tournament_id, t.reference, t.short_name, t.division_id, t.created_at
		FROM debate_teams dt
		JOIN teams t ON t.id = dt.team_id
		WHERE dt.debate_id = ANY($1)
		ORDER BY dt.debate_id ASC, CASE dt.position WHEN 'aff' THEN 0 ELSE 1 END`

	rows, err := exec.QueryContext(ctx, query, pq.Array(debateIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query debate teams: %w", err)
	}
	defer rows.Close()

	result := make(map[int][]models.DebateTeam, len(debateIDs))
	for rows.Next() {
		var (
			dt   models.DebateTeam
			team models.Team
		)
		if scanErr := rows.Scan(
			&dt.ID, &dt.DebateID, &dt.TeamID, &dt.Position,
			&team.ID, &team.TournamentID, &team.Reference, &team.ShortName, &team.DivisionID, &team.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan debate team row: %w", scanErr)
		}
		dt.Team = &team
		result[dt.DebateID] = append(result[dt.DebateID], dt)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during debate team rows iteration: %w", err)
	}
	return result, nil
}

func (r *postgresDebateRepository) Create(ctx context.Context, exec SQLExecutor, d *models.Debate) error {
	query := `
		INSERT INTO debates (round_id, venue_id, scheduled_at, room_rank, bracket)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executorOr(exec, r.db).QueryRowContext(ctx, query,
		d.RoundID, d.VenueID, d.ScheduledAt, d.RoomRank, d.Bracket,
	).Scan(&d.ID, &d.CreatedAt)

	return r.handleDebateError(err)
}

func (r *postgresDebateRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := executorOr(exec, r.db)
	// debate_teams удаляются каскадно, но удаляем явно, чтобы не зависеть от схемы
	if _, err := executor.ExecContext(ctx, `DELETE FROM debate_teams WHERE debate_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete teams of debate %d: %w", id, err)
	}
	result, err := executor.ExecContext(ctx, `DELETE FROM debates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete debate %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrDebateNotFound)
}

func (r *postgresDebateRepository) DeleteByRound(ctx context.Context, exec SQLExecutor, roundID int) (int64, error) {
	executor := executorOr(exec, r.db)
	teamsQuery := `DELETE FROM debate_teams WHERE debate_id IN (SELECT id FROM debates WHERE round_id = $1)`
	if _, err := executor.ExecContext(ctx, teamsQuery, roundID); err != nil {
		return 0, fmt.Errorf("failed to delete debate teams of round %d: %w", roundID, err)
	}
	result, err := executor.ExecContext(ctx, `DELETE FROM debates WHERE round_id = $1`, roundID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete debates of round %d: %w", roundID, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return deleted, nil
}

func (r *postgresDebateRepository) CreateTeam(ctx context.Context, exec SQLExecutor, dt *models.DebateTeam) error {
	query := `
		INSERT INTO debate_teams (debate_id, team_id, position)
		VALUES ($1, $2, $3)
		RETURNING id`

	err := executorOr(exec, r.db).QueryRowContext(ctx, query, dt.DebateID, dt.TeamID, dt.Position).Scan(&dt.ID)
	return r.handleDebateError(err)
}

func (r *postgresDebateRepository) DeleteTeams(ctx context.Context, exec SQLExecutor, debateID int) error {
	_, err := executorOr(exec, r.db).ExecContext(ctx, `DELETE FROM debate_teams WHERE debate_id = $1`, debateID)
	if err != nil {
		return fmt.Errorf("failed to delete teams of debate %d: %w", debateID, err)
	}
	return nil
}

func (r *postgresDebateRepository) UpdateScheduledAt(ctx context.Context, exec SQLExecutor, debateID int, at *time.Time) error {
	result, err := executorOr(exec, r.db).ExecContext(ctx, `UPDATE debates SET scheduled_at = $1 WHERE id = $2`, at, debateID)
	if err != nil {
		return fmt.Errorf("failed to update scheduled time of debate %d: %w", debateID, err)
	}
	return checkAffectedRows(result, ErrDebateNotFound)
}

func (r *postgresDebateRepository) UpdateVenue(ctx context.Context, exec SQLExecutor, debateID int, venueID *int) error {
	result, err := executorOr(exec, r.db).ExecContext(ctx, `UPDATE debates SET venue_id = $1 WHERE id = $2`, venueID, debateID)
	if err != nil {
		return r.handleDebateError(err)
	}
	return checkAffectedRows(result, ErrDebateNotFound)
}

func (r *postgresDebateRepository) handleDebateError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		switch pqErr.Code {
		case pqUniqueViolation:
			if pqErr.Constraint == "debate_teams_debate_id_position_key" {
				return ErrDebateTeamPositionTaken
			}
		case pqForeignKeyViolation:
			switch pqErr.Constraint {
			case "debates_round_id_fkey":
				return ErrDebateRoundInvalid
			case "debates_venue_id_fkey":
				return ErrDebateVenueInvalid
			case "debate_teams_team_id_fkey":
				return ErrDebateTeamInvalid
			case "debate_teams_debate_id_fkey":
				return ErrDebateNotFound
			}
		}
	}
	return err
}
