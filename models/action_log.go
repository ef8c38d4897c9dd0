package models

import (
	"time"

	"github.com/google/uuid"
)

type ActionType string

const (
	ActionDrawCreate      ActionType = "draw.create"
	ActionDrawConfirm     ActionType = "draw.confirm"
	ActionDrawRelease     ActionType = "draw.release"
	ActionDrawUnrelease   ActionType = "draw.unrelease"
	ActionDrawRegenerate  ActionType = "draw.regenerate"
	ActionRoundStartTime  ActionType = "round.start_time_set"
	ActionDebateSchedule  ActionType = "draw.schedule_applied"
	ActionMatchupsEdit    ActionType = "draw.matchups_saved"
	ActionDivisionTimeSet ActionType = "division.time_set"
)

// ActionLogEntry - запись журнала действий администратора.
type ActionLogEntry struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Type         ActionType `json:"type" db:"type"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	RoundID      *int       `json:"round_id,omitempty" db:"round_id"`
	UserID       *int       `json:"user_id,omitempty" db:"user_id"`
	Timestamp    time.Time  `json:"timestamp" db:"timestamp"`
}
