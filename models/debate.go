package models

import "time"

type Position string

const (
	PositionAffirmative Position = "aff"
	PositionNegative    Position = "neg"
)

// Debate - одна пара команд внутри раунда.
type Debate struct {
	ID          int        `json:"id" db:"id"`
	RoundID     int        `json:"round_id" db:"round_id"`
	VenueID     *int       `json:"venue_id,omitempty" db:"venue_id"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty" db:"scheduled_at"`
	RoomRank    int        `json:"room_rank" db:"room_rank"`
	Bracket     float64    `json:"bracket" db:"bracket"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`

	Venue *Venue       `json:"venue,omitempty" db:"-"`
	Teams []DebateTeam `json:"teams,omitempty" db:"-"`
}

// DebateTeam закрепляет команду за стороной дебатов.
type DebateTeam struct {
	ID       int      `json:"id" db:"id"`
	DebateID int      `json:"debate_id" db:"debate_id"`
	TeamID   int      `json:"team_id" db:"team_id"`
	Position Position `json:"position" db:"position"`

	Team *Team `json:"team,omitempty" db:"-"`
}

// TeamAt возвращает запись стороны или nil, если сторона не заполнена.
func (d *Debate) TeamAt(position Position) *DebateTeam {
	for i := range d.Teams {
		if d.Teams[i].Position == position {
			return &d.Teams[i]
		}
	}
	return nil
}

func (d *Debate) AffTeamID() *int {
	if dt := d.TeamAt(PositionAffirmative); dt != nil {
		id := dt.TeamID
		return &id
	}
	return nil
}

func (d *Debate) NegTeamID() *int {
	if dt := d.TeamAt(PositionNegative); dt != nil {
		id := dt.TeamID
		return &id
	}
	return nil
}

// TeamPositionAllocation - заранее назначенная сторона команды на раунд.
type TeamPositionAllocation struct {
	ID       int       `json:"id" db:"id"`
	TeamID   int       `json:"team_id" db:"team_id"`
	RoundID  int       `json:"round_id" db:"round_id"`
	Position *Position `json:"position,omitempty" db:"position"`
}
