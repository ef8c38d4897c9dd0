package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Dosada05/debate-draw/models"
	"github.com/Dosada05/debate-draw/repositories"
)

// VenueAllocator назначает площадки уже созданным дебатам раунда.
type VenueAllocator interface {
	Allocate(ctx context.Context, exec repositories.SQLExecutor, round *models.Round, debates []*models.Debate) (int, error)
}

type priorityVenueAllocator struct {
	venueRepo    repositories.VenueRepository
	debateRepo   repositories.DebateRepository
	divisionRepo repositories.DivisionRepository
	logger       *slog.Logger
}

// NewPriorityVenueAllocator: лучшие площадки достаются дебатам с меньшим room_rank.
// Если у дивизиона AFF-команды задана группа площадок, сначала ищется площадка из неё.
func NewPriorityVenueAllocator(
	venueRepo repositories.VenueRepository,
	debateRepo repositories.DebateRepository,
	divisionRepo repositories.DivisionRepository,
	logger *slog.Logger,
) VenueAllocator {
	return &priorityVenueAllocator{
		venueRepo:    venueRepo,
		debateRepo:   debateRepo,
		divisionRepo: divisionRepo,
		logger:       ensureLogger(logger),
	}
}

func (a *priorityVenueAllocator) Allocate(ctx context.Context, exec repositories.SQLExecutor, round *models.Round, debates []*models.Debate) (int, error) {
	venues, err := a.venueRepo.ListByPriority(ctx, exec, round.TournamentID)
	if err != nil {
		return 0, err
	}
	if len(venues) == 0 {
		return 0, nil
	}

	divisionIDs := make([]int, 0)
	for _, d := range debates {
		if len(d.Teams) > 0 && d.Teams[0].Team != nil && d.Teams[0].Team.DivisionID != nil {
			divisionIDs = append(divisionIDs, *d.Teams[0].Team.DivisionID)
		}
	}
	divisions, err := a.divisionRepo.GetByIDs(ctx, exec, divisionIDs)
	if err != nil {
		return 0, err
	}

	used := make([]bool, len(venues))
	pick := func(groupID *int) int {
		for i, v := range venues {
			if used[i] {
				continue
			}
			if groupID == nil || (v.VenueGroupID != nil && *v.VenueGroupID == *groupID) {
				return i
			}
		}
		return -1
	}

	allocated := 0
	for _, d := range orderByRoomRank(debates) {
		var groupID *int
		if len(d.Teams) > 0 && d.Teams[0].Team != nil && d.Teams[0].Team.DivisionID != nil {
			if div, ok := divisions[*d.Teams[0].Team.DivisionID]; ok {
				groupID = div.VenueGroupID
			}
		}

		idx := pick(groupID)
		if idx < 0 && groupID != nil {
			idx = pick(nil)
		}
		if idx < 0 {
			a.logger.WarnContext(ctx, "not enough venues for round", slog.Int("round_id", round.ID), slog.Int("debates", len(debates)), slog.Int("venues", len(venues)))
			break
		}

		used[idx] = true
		venueID := venues[idx].ID
		if err := a.debateRepo.UpdateVenue(ctx, exec, d.ID, &venueID); err != nil {
			return allocated, fmt.Errorf("failed to assign venue %d to debate %d: %w", venueID, d.ID, err)
		}
		d.VenueID = &venueID
		d.Venue = venues[idx]
		allocated++
	}

	return allocated, nil
}

func orderByRoomRank(debates []*models.Debate) []*models.Debate {
	ordered := make([]*models.Debate, len(debates))
	copy(ordered, debates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].RoomRank < ordered[j].RoomRank
	})
	return ordered
}
