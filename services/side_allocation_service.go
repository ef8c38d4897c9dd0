package services

import (
	"context"

	"github.com/Dosada05/debate-draw/models"
	"github.com/Dosada05/debate-draw/repositories"
)

const (
	SideAff  = "Aff"
	SideNeg  = "Neg"
	SideNone = "—"
)

type SideAllocationRound struct {
	ID           int    `json:"id"`
	Abbreviation string `json:"abbreviation"`
}

type SideAllocationRow struct {
	Team  *models.Team `json:"team"`
	Sides []string     `json:"sides"`
}

// SideAllocationGrid: Rows[i].Sides[j] - сторона команды i в раунде Rounds[j].
type SideAllocationGrid struct {
	Rounds []SideAllocationRound `json:"rounds"`
	Rows   []SideAllocationRow   `json:"rows"`
}

type SideAllocationService interface {
	GetSideAllocations(ctx context.Context, tournamentID int) (*SideAllocationGrid, error)
}

type sideAllocationService struct {
	tournamentRepo repositories.TournamentRepository
	roundRepo      repositories.RoundRepository
	teamRepo       repositories.TeamRepository
	sideAllocRepo  repositories.SideAllocationRepository
}

func NewSideAllocationService(
	tournamentRepo repositories.TournamentRepository,
	roundRepo repositories.RoundRepository,
	teamRepo repositories.TeamRepository,
	sideAllocRepo repositories.SideAllocationRepository,
) SideAllocationService {
	return &sideAllocationService{
		tournamentRepo: tournamentRepo,
		roundRepo:      roundRepo,
		teamRepo:       teamRepo,
		sideAllocRepo:  sideAllocRepo,
	}
}

func (s *sideAllocationService) GetSideAllocations(ctx context.Context, tournamentID int) (*SideAllocationGrid, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, handleRepositoryError(err)
	}

	rounds, err := s.roundRepo.ListPrelims(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	roundIDs := make([]int, len(rounds))
	grid := &SideAllocationGrid{
		Rounds: make([]SideAllocationRound, len(rounds)),
		Rows:   make([]SideAllocationRow, 0, len(teams)),
	}
	for i, r := range rounds {
		roundIDs[i] = r.ID
		grid.Rounds[i] = SideAllocationRound{ID: r.ID, Abbreviation: r.Abbreviation}
	}

	allocations, err := s.sideAllocRepo.ListByRounds(ctx, roundIDs)
	if err != nil {
		return nil, err
	}
	type key struct{ team, round int }
	sides := make(map[key]models.Position, len(allocations))
	for _, a := range allocations {
		if a.Position != nil {
			sides[key{a.TeamID, a.RoundID}] = *a.Position
		}
	}

	for _, t := range teams {
		row := SideAllocationRow{Team: t, Sides: make([]string, len(rounds))}
		for j, r := range rounds {
			switch sides[key{t.ID, r.ID}] {
			case models.PositionAffirmative:
				row.Sides[j] = SideAff
			case models.PositionNegative:
				row.Sides[j] = SideNeg
			default:
				row.Sides[j] = SideNone
			}
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid, nil
}
