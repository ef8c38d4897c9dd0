package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Dosada05/debate-draw/brackets"
	"github.com/Dosada05/debate-draw/metrics"
	"github.com/Dosada05/debate-draw/models"
	"github.com/Dosada05/debate-draw/repositories"
	"golang.org/x/sync/errgroup"
)

const startTimeLayout = "15:4"

// ManualVenueWarning возвращается вместе с созданной жеребьёвкой, если автоматическое
// распределение площадок отключено ограничениями судей.
const ManualVenueWarning = "Venues were not auto-allocated because there are venue constraints for adjudicators. " +
	"Allocate venues manually once adjudicators have been allocated."

// InvalidStartTimeError - введённое время начала раунда не в формате ЧЧ:ММ.
type InvalidStartTimeError struct {
	Input string
}

func (e *InvalidStartTimeError) Error() string {
	return fmt.Sprintf(`Sorry, "%s" isn't a valid time. It must be in 24-hour format, with a colon, for example: "13:57".`, e.Input)
}

func (e *InvalidStartTimeError) Unwrap() error {
	return ErrInvalidStartTime
}

type DrawView struct {
	Round   *models.Round    `json:"round"`
	Debates []*models.Debate `json:"debates"`
}

type CreateDrawResult struct {
	Round           *models.Round    `json:"round"`
	Debates         []*models.Debate `json:"debates"`
	VenuesAllocated int              `json:"venues_allocated"`
	Warning         string           `json:"warning,omitempty"`
}

type MatchupEditorView struct {
	Round       *models.Round    `json:"round"`
	Debates     []*models.Debate `json:"debates"`
	UnusedTeams []*models.Team   `json:"unused_teams"`
	// EmptySlots - сколько пустых строк для новых дебатов показать в редакторе.
	EmptySlots int `json:"empty_slots"`
}

type DrawService interface {
	CreateDraw(ctx context.Context, actorID *int, roundID int) (*CreateDrawResult, error)
	ConfirmDraw(ctx context.Context, actorID *int, roundID int) (*models.Round, error)
	ReleaseDraw(ctx context.Context, actorID *int, roundID int) (*models.Round, error)
	UnreleaseDraw(ctx context.Context, actorID *int, roundID int) (*models.Round, error)
	RegenerateDraw(ctx context.Context, actorID *int, roundID int) (*models.Round, error)
	SetRoundStartTime(ctx context.Context, actorID *int, roundID int, text string) (*models.Round, error)

	GetDraw(ctx context.Context, roundID int) (*DrawView, error)
	GetPublicDraw(ctx context.Context, roundID int) (*DrawView, error)
	ListReleasedDraws(ctx context.Context, tournamentID int) ([]*DrawView, error)
	GetMatchupEditor(ctx context.Context, roundID int) (*MatchupEditorView, error)
}

type drawService struct {
	tx             repositories.Transactor
	roundRepo      repositories.RoundRepository
	debateRepo     repositories.DebateRepository
	teamRepo       repositories.TeamRepository
	venueRepo      repositories.VenueRepository
	sideAllocRepo  repositories.SideAllocationRepository
	actionLogRepo  repositories.ActionLogRepository
	tournamentRepo repositories.TournamentRepository
	generator      brackets.PairingGenerator
	allocator      VenueAllocator
	publisher      DrawPublisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

func NewDrawService(
	tx repositories.Transactor,
	roundRepo repositories.RoundRepository,
	debateRepo repositories.DebateRepository,
	teamRepo repositories.TeamRepository,
	venueRepo repositories.VenueRepository,
	sideAllocRepo repositories.SideAllocationRepository,
	actionLogRepo repositories.ActionLogRepository,
	tournamentRepo repositories.TournamentRepository,
	generator brackets.PairingGenerator,
	allocator VenueAllocator,
	publisher DrawPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) DrawService {
	return &drawService{
		tx:             tx,
		roundRepo:      roundRepo,
		debateRepo:     debateRepo,
		teamRepo:       teamRepo,
		venueRepo:      venueRepo,
		sideAllocRepo:  sideAllocRepo,
		actionLogRepo:  actionLogRepo,
		tournamentRepo: tournamentRepo,
		generator:      generator,
		allocator:      allocator,
		publisher:      publisher,
		metrics:        m,
		logger:         ensureLogger(logger),
	}
}

type drawEffect func(ctx context.Context, exec repositories.SQLExecutor, round *models.Round) error

// transition выполняет команду в одной транзакции: блокирует раунд, проверяет переход,
// выполняет effect, пишет новый статус и запись журнала. Возвращает раунд и прежний статус.
func (s *drawService) transition(ctx context.Context, actorID *int, roundID int, cmd DrawCommand, effect drawEffect) (*models.Round, models.DrawStatus, error) {
	var (
		round    *models.Round
		previous models.DrawStatus
	)

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		r, err := s.roundRepo.GetForUpdate(ctx, exec, roundID)
		if err != nil {
			return handleRepositoryError(err)
		}

		next, err := NextDrawStatus(cmd, r.DrawStatus)
		if err != nil {
			return fmt.Errorf("round %d: %w", roundID, err)
		}

		if effect != nil {
			if err := effect(ctx, exec, r); err != nil {
				return err
			}
		}

		if err := s.roundRepo.UpdateDrawStatus(ctx, exec, r.ID, next); err != nil {
			return handleRepositoryError(err)
		}
		entry := newActionLogEntry(actionForCommand(cmd), r.TournamentID, intPtr(r.ID), actorID)
		if err := s.actionLogRepo.Create(ctx, exec, entry); err != nil {
			return err
		}

		previous = r.DrawStatus
		r.DrawStatus = next
		round = r
		return nil
	})

	s.metrics.DrawCommand(string(cmd), err)
	if err != nil {
		s.logger.WarnContext(ctx, "draw command rejected",
			slog.String("command", string(cmd)), slog.Int("round_id", roundID), slog.Any("error", err))
		return nil, "", err
	}

	s.logger.InfoContext(ctx, "draw status changed",
		slog.String("command", string(cmd)),
		slog.Int("round_id", roundID),
		slog.String("from", string(previous)),
		slog.String("to", string(round.DrawStatus)),
	)
	return round, previous, nil
}

func (s *drawService) CreateDraw(ctx context.Context, actorID *int, roundID int) (*CreateDrawResult, error) {
	result := &CreateDrawResult{}

	round, _, err := s.transition(ctx, actorID, roundID, CommandCreate, func(ctx context.Context, exec repositories.SQLExecutor, r *models.Round) error {
		debates, err := s.generateDebates(ctx, exec, r)
		if err != nil {
			return err
		}
		result.Debates = debates

		constrained, err := s.venueRepo.AdjudicatorConstraintsExist(ctx, exec)
		if err != nil {
			return err
		}
		if constrained {
			result.Warning = ManualVenueWarning
			return nil
		}

		allocated, err := s.allocator.Allocate(ctx, exec, r, debates)
		if err != nil {
			return fmt.Errorf("failed to allocate venues for round %d: %w", r.ID, err)
		}
		result.VenuesAllocated = allocated
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Round = round
	return result, nil
}

// generateDebates запускает генератор пар и сохраняет дебаты вместе со сторонами.
func (s *drawService) generateDebates(ctx context.Context, exec repositories.SQLExecutor, round *models.Round) ([]*models.Debate, error) {
	teams, err := s.teamRepo.ListByTournament(ctx, round.TournamentID)
	if err != nil {
		return nil, err
	}
	allocations, err := s.sideAllocRepo.ListByRounds(ctx, []int{round.ID})
	if err != nil {
		return nil, err
	}
	preAllocated := make(map[int]models.Position, len(allocations))
	for _, a := range allocations {
		if a.Position != nil {
			preAllocated[a.TeamID] = *a.Position
		}
	}

	pairings, err := s.generator.Generate(ctx, brackets.GenerateDrawParams{
		Round:        round,
		Teams:        teams,
		PreAllocated: preAllocated,
	})
	if err != nil {
		var drawErr *brackets.DrawError
		if errors.As(err, &drawErr) {
			return nil, fmt.Errorf("%w: %s", ErrDrawGeneration, drawErr.Message)
		}
		return nil, fmt.Errorf("pairing generator %s failed: %w", s.generator.GetName(), err)
	}

	teamsByID := make(map[int]*models.Team, len(teams))
	for _, t := range teams {
		teamsByID[t.ID] = t
	}

	debates := make([]*models.Debate, 0, len(pairings))
	for _, p := range pairings {
		debate := &models.Debate{RoundID: round.ID, RoomRank: p.RoomRank, Bracket: p.Bracket}
		if err := s.debateRepo.Create(ctx, exec, debate); err != nil {
			return nil, handleRepositoryError(err)
		}
		sides := []models.DebateTeam{
			{DebateID: debate.ID, TeamID: p.AffTeamID, Position: models.PositionAffirmative},
			{DebateID: debate.ID, TeamID: p.NegTeamID, Position: models.PositionNegative},
		}
		for i := range sides {
			if err := s.debateRepo.CreateTeam(ctx, exec, &sides[i]); err != nil {
				return nil, fmt.Errorf("debate %d team %d: %w", debate.ID, sides[i].TeamID, handleRepositoryError(err))
			}
			sides[i].Team = teamsByID[sides[i].TeamID]
		}
		debate.Teams = sides
		debates = append(debates, debate)
	}
	return debates, nil
}

func (s *drawService) ConfirmDraw(ctx context.Context, actorID *int, roundID int) (*models.Round, error) {
	round, _, err := s.transition(ctx, actorID, roundID, CommandConfirm, nil)
	return round, err
}

func (s *drawService) ReleaseDraw(ctx context.Context, actorID *int, roundID int) (*models.Round, error) {
	round, _, err := s.transition(ctx, actorID, roundID, CommandRelease, nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, round)
	return round, nil
}

func (s *drawService) UnreleaseDraw(ctx context.Context, actorID *int, roundID int) (*models.Round, error) {
	round, _, err := s.transition(ctx, actorID, roundID, CommandUnrelease, nil)
	if err != nil {
		return nil, err
	}
	s.withdraw(ctx, round)
	return round, nil
}

func (s *drawService) RegenerateDraw(ctx context.Context, actorID *int, roundID int) (*models.Round, error) {
	round, previous, err := s.transition(ctx, actorID, roundID, CommandRegenerate, func(ctx context.Context, exec repositories.SQLExecutor, r *models.Round) error {
		deleted, err := s.debateRepo.DeleteByRound(ctx, exec, r.ID)
		if err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "draw deleted", slog.Int("round_id", r.ID), slog.Int64("debates", deleted))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if previous == models.DrawStatusReleased {
		s.withdraw(ctx, round)
	}
	return round, nil
}

// publish и withdraw выполняются после коммита; ошибки только логируются.
func (s *drawService) publish(ctx context.Context, round *models.Round) {
	if s.publisher == nil {
		return
	}
	ctx = detachedContext(ctx)
	debates, err := s.debateRepo.ListByRound(ctx, nil, round.ID)
	if err == nil {
		err = s.publisher.Publish(ctx, round, debates)
	}
	s.metrics.Publication("release", err)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish released draw", slog.Int("round_id", round.ID), slog.Any("error", err))
	}
}

func (s *drawService) withdraw(ctx context.Context, round *models.Round) {
	if s.publisher == nil {
		return
	}
	ctx = detachedContext(ctx)
	err := s.publisher.Withdraw(ctx, round)
	s.metrics.Publication("withdraw", err)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to withdraw draw", slog.Int("round_id", round.ID), slog.Any("error", err))
	}
}

func (s *drawService) SetRoundStartTime(ctx context.Context, actorID *int, roundID int, text string) (*models.Round, error) {
	parsed, err := time.Parse(startTimeLayout, text)
	if err != nil {
		return nil, &InvalidStartTimeError{Input: text}
	}
	startsAt := models.FromTime(parsed)

	var round *models.Round
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		r, err := s.roundRepo.GetForUpdate(ctx, exec, roundID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if err := s.roundRepo.UpdateStartsAt(ctx, exec, r.ID, &startsAt); err != nil {
			return handleRepositoryError(err)
		}
		entry := newActionLogEntry(models.ActionRoundStartTime, r.TournamentID, intPtr(r.ID), actorID)
		if err := s.actionLogRepo.Create(ctx, exec, entry); err != nil {
			return err
		}
		r.StartsAt = &startsAt
		round = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "round start time set", slog.Int("round_id", roundID), slog.String("starts_at", startsAt.Short()))
	return round, nil
}

func (s *drawService) GetDraw(ctx context.Context, roundID int) (*DrawView, error) {
	round, err := s.roundRepo.GetByID(ctx, nil, roundID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return s.loadDraw(ctx, round)
}

func (s *drawService) GetPublicDraw(ctx context.Context, roundID int) (*DrawView, error) {
	round, err := s.roundRepo.GetByID(ctx, nil, roundID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if round.DrawStatus != models.DrawStatusReleased {
		return nil, fmt.Errorf("%w: round %d", ErrDrawNotReleased, roundID)
	}
	return s.loadDraw(ctx, round)
}

func (s *drawService) loadDraw(ctx context.Context, round *models.Round) (*DrawView, error) {
	view := &DrawView{Round: round, Debates: []*models.Debate{}}
	if round.DrawStatus == models.DrawStatusNone {
		return view, nil
	}
	debates, err := s.debateRepo.ListByRound(ctx, nil, round.ID)
	if err != nil {
		return nil, err
	}
	view.Debates = debates
	return view, nil
}

func (s *drawService) ListReleasedDraws(ctx context.Context, tournamentID int) ([]*DrawView, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, handleRepositoryError(err)
	}

	released := models.DrawStatusReleased
	rounds, err := s.roundRepo.ListByTournament(ctx, tournamentID, &released)
	if err != nil {
		return nil, err
	}

	views := make([]*DrawView, len(rounds))
	g, gCtx := errgroup.WithContext(ctx)
	for i, r := range rounds {
		g.Go(func() error {
			debates, err := s.debateRepo.ListByRound(gCtx, nil, r.ID)
			if err != nil {
				return fmt.Errorf("failed to load draw of round %d: %w", r.ID, err)
			}
			views[i] = &DrawView{Round: r, Debates: debates}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(views, func(i, j int) bool { return views[i].Round.Seq < views[j].Round.Seq })
	return views, nil
}

func (s *drawService) GetMatchupEditor(ctx context.Context, roundID int) (*MatchupEditorView, error) {
	round, err := s.roundRepo.GetByID(ctx, nil, roundID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	view := &MatchupEditorView{Round: round}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		debates, err := s.debateRepo.ListByRound(gCtx, nil, round.ID)
		if err != nil {
			return err
		}
		view.Debates = debates
		return nil
	})

	g.Go(func() error {
		unused, err := s.teamRepo.ListUnusedInRound(gCtx, round.TournamentID, round.ID)
		if err != nil {
			return err
		}
		view.UnusedTeams = unused
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load matchup editor for round %d: %w", roundID, err)
	}

	view.EmptySlots = len(view.UnusedTeams)/2 + 1
	return view, nil
}
