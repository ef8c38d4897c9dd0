package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/debate-draw/models"
	"github.com/Dosada05/debate-draw/repositories"
)

type DivisionService interface {
	// SetDivisionTimeSlot принимает ЧЧ:ММ или ЧЧ:ММ:СС; пустая строка сбрасывает время.
	SetDivisionTimeSlot(ctx context.Context, actorID *int, divisionID int, text string) (*models.Division, error)
	SetDivisionVenueGroup(ctx context.Context, divisionID int, venueGroupID *int) (*models.Division, error)
	// SetTeamDivision: nil убирает команду из дивизиона.
	SetTeamDivision(ctx context.Context, teamID int, divisionID *int) (*models.Team, error)
}

type divisionService struct {
	divisionRepo  repositories.DivisionRepository
	teamRepo      repositories.TeamRepository
	actionLogRepo repositories.ActionLogRepository
	logger        *slog.Logger
}

func NewDivisionService(
	divisionRepo repositories.DivisionRepository,
	teamRepo repositories.TeamRepository,
	actionLogRepo repositories.ActionLogRepository,
	logger *slog.Logger,
) DivisionService {
	return &divisionService{
		divisionRepo:  divisionRepo,
		teamRepo:      teamRepo,
		actionLogRepo: actionLogRepo,
		logger:        ensureLogger(logger),
	}
}

func (s *divisionService) SetDivisionTimeSlot(ctx context.Context, actorID *int, divisionID int, text string) (*models.Division, error) {
	var slot *models.TimeOfDay
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		parsed, err := models.ParseTimeOfDay(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: %q must be HH:MM or HH:MM:SS", ErrInvalidTimeSlot, text)
		}
		slot = &parsed
	}

	division, err := s.divisionRepo.GetByID(ctx, divisionID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if err := s.divisionRepo.UpdateTimeSlot(ctx, divisionID, slot); err != nil {
		return nil, handleRepositoryError(err)
	}
	division.TimeSlot = slot

	entry := newActionLogEntry(models.ActionDivisionTimeSet, division.TournamentID, nil, actorID)
	if err := s.actionLogRepo.Create(ctx, nil, entry); err != nil {
		s.logger.WarnContext(ctx, "failed to write action log", slog.Int("division_id", divisionID), slog.Any("error", err))
	}
	return division, nil
}

func (s *divisionService) SetDivisionVenueGroup(ctx context.Context, divisionID int, venueGroupID *int) (*models.Division, error) {
	division, err := s.divisionRepo.GetByID(ctx, divisionID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if err := s.divisionRepo.UpdateVenueGroup(ctx, divisionID, venueGroupID); err != nil {
		return nil, handleRepositoryError(err)
	}
	division.VenueGroupID = venueGroupID
	return division, nil
}

func (s *divisionService) SetTeamDivision(ctx context.Context, teamID int, divisionID *int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	if divisionID != nil {
		division, err := s.divisionRepo.GetByID(ctx, *divisionID)
		if err != nil {
			return nil, handleRepositoryError(err)
		}
		if division.TournamentID != team.TournamentID {
			return nil, fmt.Errorf("%w: division %d, team %d", ErrInvalidDivision, *divisionID, teamID)
		}
	}

	if err := s.teamRepo.UpdateDivision(ctx, teamID, divisionID); err != nil {
		return nil, handleRepositoryError(err)
	}
	team.DivisionID = divisionID
	return team, nil
}
