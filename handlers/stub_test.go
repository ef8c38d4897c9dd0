package handlers

import (
	"context"

	"github.com/Dosada05/debate-draw/models"
	"github.com/Dosada05/debate-draw/services"
)

// stubDrawService возвращает заранее заданные значения и запоминает аргументы.
type stubDrawService struct {
	round      *models.Round
	draw       *services.DrawView
	created    *services.CreateDrawResult
	editor     *services.MatchupEditorView
	err        error
	gotRoundID int
	gotActor   *int
	gotText    string
}

func (s *stubDrawService) CreateDraw(ctx context.Context, actorID *int, roundID int) (*services.CreateDrawResult, error) {
	s.gotActor, s.gotRoundID = actorID, roundID
	return s.created, s.err
}

func (s *stubDrawService) ConfirmDraw(ctx context.Context, actorID *int, roundID int) (*models.Round, error) {
	s.gotActor, s.gotRoundID = actorID, roundID
	return s.round, s.err
}

func (s *stubDrawService) ReleaseDraw(ctx context.Context, actorID *int, roundID int) (*models.Round, error) {
	s.gotActor, s.gotRoundID = actorID, roundID
	return s.round, s.err
}

func (s *stubDrawService) UnreleaseDraw(ctx context.Context, actorID *int, roundID int) (*models.Round, error) {
	s.gotActor, s.gotRoundID = actorID, roundID
	return s.round, s.err
}

func (s *stubDrawService) RegenerateDraw(ctx context.Context, actorID *int, roundID int) (*models.Round, error) {
	s.gotActor, s.gotRoundID = actorID, roundID
	return s.round, s.err
}

func (s *stubDrawService) SetRoundStartTime(ctx context.Context, actorID *int, roundID int, text string) (*models.Round, error) {
	s.gotActor, s.gotRoundID, s.gotText = actorID, roundID, text
	return s.round, s.err
}

func (s *stubDrawService) GetDraw(ctx context.Context, roundID int) (*services.DrawView, error) {
	s.gotRoundID = roundID
	return s.draw, s.err
}

func (s *stubDrawService) GetPublicDraw(ctx context.Context, roundID int) (*services.DrawView, error) {
	s.gotRoundID = roundID
	return s.draw, s.err
}

func (s *stubDrawService) ListReleasedDraws(ctx context.Context, tournamentID int) ([]*services.DrawView, error) {
	if s.draw == nil {
		return nil, s.err
	}
	return []*services.DrawView{s.draw}, s.err
}

func (s *stubDrawService) GetMatchupEditor(ctx context.Context, roundID int) (*services.MatchupEditorView, error) {
	s.gotRoundID = roundID
	return s.editor, s.err
}

type stubMatchupService struct {
	got services.MatchupSubmission
	err error
}

func (s *stubMatchupService) SaveMatchups(ctx context.Context, actorID *int, roundID int, submission services.MatchupSubmission) error {
	s.got = submission
	return s.err
}

type stubScheduleService struct {
	gotDates map[int]string
	result   *services.ScheduleResult
	err      error
}

func (s *stubScheduleService) ApplySchedule(ctx context.Context, actorID *int, roundID int, dates map[int]string) (*services.ScheduleResult, error) {
	s.gotDates = dates
	return s.result, s.err
}

type stubDivisionService struct {
	division *models.Division
	team     *models.Team
	err      error
	gotText  string
}

func (s *stubDivisionService) SetDivisionTimeSlot(ctx context.Context, actorID *int, divisionID int, text string) (*models.Division, error) {
	s.gotText = text
	return s.division, s.err
}

func (s *stubDivisionService) SetDivisionVenueGroup(ctx context.Context, divisionID int, venueGroupID *int) (*models.Division, error) {
	return s.division, s.err
}

func (s *stubDivisionService) SetTeamDivision(ctx context.Context, teamID int, divisionID *int) (*models.Team, error) {
	return s.team, s.err
}

type stubSideService struct {
	grid *services.SideAllocationGrid
	err  error
}

func (s *stubSideService) GetSideAllocations(ctx context.Context, tournamentID int) (*services.SideAllocationGrid, error) {
	return s.grid, s.err
}
