package models

import "time"

type Team struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Reference    string    `json:"reference" db:"reference"`
	ShortName    string    `json:"short_name" db:"short_name"`
	DivisionID   *int      `json:"division_id,omitempty" db:"division_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	Division *Division `json:"division,omitempty" db:"-"`
}
