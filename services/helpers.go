package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Dosada05/debate-draw/models"
	"github.com/Dosada05/debate-draw/repositories"
	"github.com/google/uuid"
)

// handleRepositoryError переводит ошибки репозиториев в ошибки сервисного слоя.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrRoundNotFound):
		return ErrRoundNotFound
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrDebateNotFound):
		return ErrDebateNotFound
	case errors.Is(err, repositories.ErrDebateTeamInvalid), errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrDivisionNotFound):
		return ErrDivisionNotFound
	case errors.Is(err, repositories.ErrDivisionInvalidVenueGroup):
		return ErrInvalidVenueGroup
	case errors.Is(err, repositories.ErrTeamInvalidDivision):
		return ErrInvalidDivision
	case errors.Is(err, repositories.ErrDebateTeamPositionTaken):
		return ErrDuplicateTeamAssignment
	default:
		return err
	}
}

func newActionLogEntry(t models.ActionType, tournamentID int, roundID, actorID *int) *models.ActionLogEntry {
	return &models.ActionLogEntry{
		ID:           uuid.New(),
		Type:         t,
		TournamentID: tournamentID,
		RoundID:      roundID,
		UserID:       actorID,
	}
}

func intPtr(v int) *int {
	return &v
}

func ensureLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// detachedContext нужен для публикации после коммита: отмена запроса не должна её обрывать.
func detachedContext(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
