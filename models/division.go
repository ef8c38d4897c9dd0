package models

type VenueGroup struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Venue struct {
	ID           int    `json:"id" db:"id"`
	TournamentID int    `json:"tournament_id" db:"tournament_id"`
	Name         string `json:"name" db:"name"`
	Priority     int    `json:"priority" db:"priority"`
	VenueGroupID *int   `json:"venue_group_id,omitempty" db:"venue_group_id"`
}

// Division группирует команды; задаёт группу площадок и время начала дебатов.
type Division struct {
	ID           int        `json:"id" db:"id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	Name         string     `json:"name" db:"name"`
	VenueGroupID *int       `json:"venue_group_id,omitempty" db:"venue_group_id"`
	TimeSlot     *TimeOfDay `json:"time_slot,omitempty" db:"time_slot"`
}
