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
	ErrDivisionNotFound          = errors.New("division not found")
	ErrDivisionInvalidVenueGroup = errors.New("invalid venue group reference")
)

type DivisionRepository interface {
	GetByID(ctx context.Context, id int) (*models.Division, error)
	GetByIDs(ctx context.Context, exec SQLExecutor, ids []int) (map[int]*models.Division, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Division, error)
	UpdateTimeSlot(ctx context.Context, id int, slot *models.TimeOfDay) error
	UpdateVenueGroup(ctx context.Context, id int, venueGroupID *int) error
}

type postgresDivisionRepository struct {
	db *sql.DB
}

func NewPostgresDivisionRepository(db *sql.DB) DivisionRepository {
	return &postgresDivisionRepository{db: db}
}

const divisionColumns = `id, tournament_id, name, venue_group_id, time_slot`

func scanDivision(row interface{ Scan(...any) error }) (*models.Division, error) {
	var d models.Division
	if err := row.Scan(&d.ID, &d.TournamentID, &d.Name, &d.VenueGroupID, &d.TimeSlot); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *postgresDivisionRepository) GetByID(ctx context.Context, id int) (*models.Division, error) {
	query := `SELECT ` + divisionColumns + ` FROM divisions WHERE id = $1`
	d, err := scanDivision(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDivisionNotFound
		}
		return nil, fmt.Errorf("failed to scan division by id %d: %w", id, err)
	}
	return d, nil
}

func (r *postgresDivisionRepository) GetByIDs(ctx context.Context, exec SQLExecutor, ids []int) (map[int]*models.Division, error) {
	result := make(map[int]*models.Division, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query := `SELECT ` + divisionColumns + ` FROM divisions WHERE id = ANY($1)`
	rows, err := executorOr(exec, r.db).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query divisions by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		d, scanErr := scanDivision(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan division row: %w", scanErr)
		}
		result[d.ID] = d
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during division rows iteration: %w", err)
	}
	return result, nil
}

func (r *postgresDivisionRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Division, error) {
	query := `SELECT ` + divisionColumns + ` FROM divisions WHERE tournament_id = $1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query divisions for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	divisions := make([]*models.Division, 0)
	for rows.Next() {
		d, scanErr := scanDivision(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan division row: %w", scanErr)
		}
		divisions = append(divisions, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during division rows iteration: %w", err)
	}
	return divisions, nil
}

func (r *postgresDivisionRepository) UpdateTimeSlot(ctx context.Context, id int, slot *models.TimeOfDay) error {
	result, err := r.db.ExecContext(ctx, `UPDATE divisions SET time_slot = $1 WHERE id = $2`, slot, id)
	if err != nil {
		return fmt.Errorf("failed to update time slot of division %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrDivisionNotFound)
}

func (r *postgresDivisionRepository) UpdateVenueGroup(ctx context.Context, id int, venueGroupID *int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE divisions SET venue_group_id = $1 WHERE id = $2`, venueGroupID, id)
	if err != nil {
		if pqErr, ok := asPQError(err); ok && pqErr.Code == pqForeignKeyViolation {
			return ErrDivisionInvalidVenueGroup
		}
		return fmt.Errorf("failed to update venue group of division %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrDivisionNotFound)
}
