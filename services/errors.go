package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ошибки валидации
	ErrValidationFailed        = errors.New("validation failed")
	ErrInvalidStartTime        = errors.New("invalid round start time")
	ErrInvalidTimeSlot         = errors.New("invalid division time slot")
	ErrMalformedScheduleDate   = errors.New("malformed schedule date")
	ErrDuplicateTeamAssignment = errors.New("team is assigned to more than one side or debate")
	ErrTeamWrongTournament     = errors.New("team does not belong to the round's tournament")
	ErrDebateWrongRound        = errors.New("debate does not belong to the round")
	ErrInvalidVenueGroup       = errors.New("venue group not found")
	ErrInvalidDivision         = errors.New("division not found or belongs to another tournament")

	// Ошибки жизненного цикла жеребьёвки
	ErrDrawAlreadyExists     = errors.New("draw already exists for this round")
	ErrInvalidDrawTransition = errors.New("invalid draw status transition")
	ErrDrawGeneration        = errors.New("draw generation failed")
	ErrDrawNotReleased       = errors.New("draw for this round has not been released")

	// Ошибки, специфичные для сущностей
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrRoundNotFound      = errors.New("round not found")
	ErrDebateNotFound     = errors.New("debate not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrDivisionNotFound   = errors.New("division not found")
)
