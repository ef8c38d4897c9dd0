package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/debate-draw/metrics"
	"github.com/Dosada05/debate-draw/models"
	"github.com/Dosada05/debate-draw/repositories"
)

// MatchupEntry - одна строка редактора пар.
// Для новых дебатов DebateID - временный идентификатор с клиента.
type MatchupEntry struct {
	DebateID int
	IsNew    bool
	Aff      *int
	Neg      *int
}

func (e MatchupEntry) Complete() bool {
	return e.Aff != nil && e.Neg != nil
}

type MatchupSubmission struct {
	Entries []MatchupEntry
}

type MatchupService interface {
	// SaveMatchups применяет правку целиком или не применяет ничего.
	SaveMatchups(ctx context.Context, actorID *int, roundID int, submission MatchupSubmission) error
}

type matchupService struct {
	tx            repositories.Transactor
	roundRepo     repositories.RoundRepository
	debateRepo    repositories.DebateRepository
	teamRepo      repositories.TeamRepository
	actionLogRepo repositories.ActionLogRepository
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

func NewMatchupService(
	tx repositories.Transactor,
	roundRepo repositories.RoundRepository,
	debateRepo repositories.DebateRepository,
	teamRepo repositories.TeamRepository,
	actionLogRepo repositories.ActionLogRepository,
	m *metrics.Metrics,
	logger *slog.Logger,
) MatchupService {
	return &matchupService{
		tx:            tx,
		roundRepo:     roundRepo,
		debateRepo:    debateRepo,
		teamRepo:      teamRepo,
		actionLogRepo: actionLogRepo,
		metrics:       m,
		logger:        ensureLogger(logger),
	}
}

type matchupPlan struct {
	existing []MatchupEntry
	created  []MatchupEntry
	// missing - пустые записи по уже удалённым дебатам, ничего не делают
	missing  map[int]bool
	nextRank int
}

func (s *matchupService) SaveMatchups(ctx context.Context, actorID *int, roundID int, submission MatchupSubmission) error {
	effects := make(map[string]int)

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		round, err := s.roundRepo.GetForUpdate(ctx, exec, roundID)
		if err != nil {
			return handleRepositoryError(err)
		}

		plan, err := s.validate(ctx, exec, round, submission)
		if err != nil {
			return err
		}

		for _, e := range plan.existing {
			if plan.missing[e.DebateID] {
				effects["ignored"]++
				continue
			}
			if !e.Complete() {
				if err := s.debateRepo.Delete(ctx, exec, e.DebateID); err != nil {
					return fmt.Errorf("failed to delete debate %d: %w", e.DebateID, handleRepositoryError(err))
				}
				effects["deleted"]++
				continue
			}
			if err := s.debateRepo.DeleteTeams(ctx, exec, e.DebateID); err != nil {
				return err
			}
			if err := s.createSides(ctx, exec, e.DebateID, *e.Aff, *e.Neg); err != nil {
				return err
			}
			effects["paired"]++
		}

		for _, e := range plan.created {
			if !e.Complete() {
				effects["ignored"]++
				continue
			}
			debate := &models.Debate{RoundID: round.ID, RoomRank: plan.nextRank}
			if err := s.debateRepo.Create(ctx, exec, debate); err != nil {
				return handleRepositoryError(err)
			}
			plan.nextRank++
			if err := s.createSides(ctx, exec, debate.ID, *e.Aff, *e.Neg); err != nil {
				return err
			}
			effects["created"]++
		}

		entry := newActionLogEntry(models.ActionMatchupsEdit, round.TournamentID, intPtr(round.ID), actorID)
		return s.actionLogRepo.Create(ctx, exec, entry)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "matchup edit rejected", slog.Int("round_id", roundID), slog.Any("error", err))
		return err
	}

	for effect, n := range effects {
		s.metrics.MatchupEntries(effect, n)
	}
	s.logger.InfoContext(ctx, "matchups saved",
		slog.Int("round_id", roundID),
		slog.Int("paired", effects["paired"]),
		slog.Int("deleted", effects["deleted"]),
		slog.Int("created", effects["created"]),
	)
	return nil
}

func (s *matchupService) createSides(ctx context.Context, exec repositories.SQLExecutor, debateID, affID, negID int) error {
	sides := []models.DebateTeam{
		{DebateID: debateID, TeamID: affID, Position: models.PositionAffirmative},
		{DebateID: debateID, TeamID: negID, Position: models.PositionNegative},
	}
	for i := range sides {
		if err := s.debateRepo.CreateTeam(ctx, exec, &sides[i]); err != nil {
			return fmt.Errorf("debate %d team %d: %w", debateID, sides[i].TeamID, handleRepositoryError(err))
		}
	}
	return nil
}

// validate проверяет всю правку до первой записи в БД.
func (s *matchupService) validate(ctx context.Context, exec repositories.SQLExecutor, round *models.Round, submission MatchupSubmission) (*matchupPlan, error) {
	current, err := s.debateRepo.ListByRound(ctx, exec, round.ID)
	if err != nil {
		return nil, err
	}
	inRound := make(map[int]*models.Debate, len(current))
	plan := &matchupPlan{missing: make(map[int]bool), nextRank: 1}
	for _, d := range current {
		inRound[d.ID] = d
		if d.RoomRank >= plan.nextRank {
			plan.nextRank = d.RoomRank + 1
		}
	}

	seenExisting := make(map[int]bool)
	seenNew := make(map[int]bool)
	teamIDs := make([]int, 0)
	for _, e := range submission.Entries {
		if e.IsNew {
			if seenNew[e.DebateID] {
				return nil, fmt.Errorf("%w: new debate %d listed twice", ErrValidationFailed, e.DebateID)
			}
			seenNew[e.DebateID] = true
			plan.created = append(plan.created, e)
		} else {
			if seenExisting[e.DebateID] {
				return nil, fmt.Errorf("%w: debate %d listed twice", ErrValidationFailed, e.DebateID)
			}
			seenExisting[e.DebateID] = true
			if err := s.checkDebate(ctx, exec, round, inRound, e, plan); err != nil {
				return nil, err
			}
			plan.existing = append(plan.existing, e)
		}
		if e.Complete() {
			teamIDs = append(teamIDs, *e.Aff, *e.Neg)
		}
	}

	teams, err := s.teamRepo.GetByIDs(ctx, exec, teamIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range teamIDs {
		t, ok := teams[id]
		if !ok {
			return nil, fmt.Errorf("%w: team %d", ErrTeamNotFound, id)
		}
		if t.TournamentID != round.TournamentID {
			return nil, fmt.Errorf("%w: team %d, round %d", ErrTeamWrongTournament, id, round.ID)
		}
	}

	// команды, занятые дебатами, которых правка не касается
	held := make(map[int]int)
	for _, d := range current {
		if seenExisting[d.ID] {
			continue
		}
		for _, dt := range d.Teams {
			held[dt.TeamID] = d.ID
		}
	}

	assigned := make(map[int]bool)
	check := func(teamID int) error {
		if debateID, ok := held[teamID]; ok {
			return fmt.Errorf("%w: team %d already debates in debate %d", ErrDuplicateTeamAssignment, teamID, debateID)
		}
		if assigned[teamID] {
			return fmt.Errorf("%w: team %d is used twice", ErrDuplicateTeamAssignment, teamID)
		}
		assigned[teamID] = true
		return nil
	}
	for _, group := range [][]MatchupEntry{plan.existing, plan.created} {
		for _, e := range group {
			if !e.Complete() {
				continue
			}
			if *e.Aff == *e.Neg {
				return nil, fmt.Errorf("%w: team %d cannot debate itself", ErrDuplicateTeamAssignment, *e.Aff)
			}
			if err := check(*e.Aff); err != nil {
				return nil, err
			}
			if err := check(*e.Neg); err != nil {
				return nil, err
			}
		}
	}

	return plan, nil
}

// checkDebate: существующий дебат должен принадлежать раунду. Пустая запись по уже удалённому
// дебату допустима, чтобы повторная отправка той же формы ничего не ломала.
func (s *matchupService) checkDebate(ctx context.Context, exec repositories.SQLExecutor, round *models.Round, inRound map[int]*models.Debate, e MatchupEntry, plan *matchupPlan) error {
	if _, ok := inRound[e.DebateID]; ok {
		return nil
	}
	other, err := s.debateRepo.GetByID(ctx, exec, e.DebateID)
	switch {
	case err == nil:
		return fmt.Errorf("%w: debate %d belongs to round %d, not %d", ErrDebateWrongRound, e.DebateID, other.RoundID, round.ID)
	case !errors.Is(err, repositories.ErrDebateNotFound):
		return err
	case e.Complete():
		return fmt.Errorf("%w: debate %d", ErrDebateNotFound, e.DebateID)
	default:
		plan.missing[e.DebateID] = true
		return nil
	}
}
