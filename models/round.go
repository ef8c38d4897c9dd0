package models

import "time"

// DrawStatus представляет статус жеребьёвки раунда, соответствует колонке rounds.draw_status.
type DrawStatus string

const (
	DrawStatusNone      DrawStatus = "none"
	DrawStatusDraft     DrawStatus = "draft"
	DrawStatusConfirmed DrawStatus = "confirmed"
	DrawStatusReleased  DrawStatus = "released"
)

func (s DrawStatus) IsValid() bool {
	switch s {
	case DrawStatusNone, DrawStatusDraft, DrawStatusConfirmed, DrawStatusReleased:
		return true
	default:
		return false
	}
}

// Round представляет раунд турнира.
type Round struct {
	ID           int        `json:"id" db:"id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	Seq          int        `json:"seq" db:"seq"`
	Name         string     `json:"name" db:"name"`
	Abbreviation string     `json:"abbreviation" db:"abbreviation"`
	DrawStatus   DrawStatus `json:"draw_status" db:"draw_status"`
	StartsAt     *TimeOfDay `json:"starts_at,omitempty" db:"starts_at"`
	IsBreakRound bool       `json:"is_break_round" db:"is_break_round"`
	PrevRoundID  *int       `json:"prev_round_id,omitempty" db:"prev_round_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`

	Debates []Debate `json:"debates,omitempty" db:"-"`
}
