package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/debate-draw/metrics"
	"github.com/Dosada05/debate-draw/models"
	"github.com/Dosada05/debate-draw/repositories"
)

// Форматы даты, которые присылают разные браузеры из date picker. Порядок важен.
// День и месяц допускаются без ведущего нуля.
var scheduleLayouts = []string{
	"2006-1-2 15:04:05",
	"2/1/2006 15:04:05",
}

// ParseScheduleDateTime соединяет дату из формы со временем дивизиона.
func ParseScheduleDateTime(date string, slot models.TimeOfDay, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	value := strings.TrimSpace(date) + " " + slot.String()
	for _, layout := range scheduleLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q matches neither YYYY-MM-DD nor DD/MM/YYYY", ErrMalformedScheduleDate, date)
}

type ScheduleFailure struct {
	DebateID     int    `json:"debate_id"`
	VenueGroupID int    `json:"venue_group_id"`
	Date         string `json:"date"`
	Reason       string `json:"reason"`
}

type ScheduleResult struct {
	Scheduled []int             `json:"scheduled"`
	Skipped   []int             `json:"skipped"`
	Failures  []ScheduleFailure `json:"failures"`
}

// ScheduleError возвращается вместе с ScheduleResult, если часть дат не разобрана.
type ScheduleError struct {
	RoundID  int
	Failures []ScheduleFailure
}

func (e *ScheduleError) Error() string {
	ids := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		ids[i] = fmt.Sprintf("%d", f.DebateID)
	}
	return fmt.Sprintf("round %d: malformed schedule date for debates %s", e.RoundID, strings.Join(ids, ", "))
}

func (e *ScheduleError) Unwrap() error {
	return ErrMalformedScheduleDate
}

type ScheduleService interface {
	// ApplySchedule: dates - дата по id группы площадок.
	ApplySchedule(ctx context.Context, actorID *int, roundID int, dates map[int]string) (*ScheduleResult, error)
}

type scheduleService struct {
	tx            repositories.Transactor
	roundRepo     repositories.RoundRepository
	debateRepo    repositories.DebateRepository
	divisionRepo  repositories.DivisionRepository
	actionLogRepo repositories.ActionLogRepository
	location      *time.Location
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

func NewScheduleService(
	tx repositories.Transactor,
	roundRepo repositories.RoundRepository,
	debateRepo repositories.DebateRepository,
	divisionRepo repositories.DivisionRepository,
	actionLogRepo repositories.ActionLogRepository,
	location *time.Location,
	m *metrics.Metrics,
	logger *slog.Logger,
) ScheduleService {
	if location == nil {
		location = time.UTC
	}
	return &scheduleService{
		tx:            tx,
		roundRepo:     roundRepo,
		debateRepo:    debateRepo,
		divisionRepo:  divisionRepo,
		actionLogRepo: actionLogRepo,
		location:      location,
		metrics:       m,
		logger:        ensureLogger(logger),
	}
}

// Ошибка разбора даты не мешает остальным дебатам: удачные записываются, неудачные
// перечисляются в *ScheduleError.
func (s *scheduleService) ApplySchedule(ctx context.Context, actorID *int, roundID int, dates map[int]string) (*ScheduleResult, error) {
	result := &ScheduleResult{Scheduled: []int{}, Skipped: []int{}, Failures: []ScheduleFailure{}}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		round, err := s.roundRepo.GetForUpdate(ctx, exec, roundID)
		if err != nil {
			return handleRepositoryError(err)
		}
		debates, err := s.debateRepo.ListByRound(ctx, exec, round.ID)
		if err != nil {
			return err
		}

		divisionIDs := make([]int, 0, len(debates))
		for _, d := range debates {
			if id := debateDivisionID(d); id != nil {
				divisionIDs = append(divisionIDs, *id)
			}
		}
		divisions, err := s.divisionRepo.GetByIDs(ctx, exec, divisionIDs)
		if err != nil {
			return err
		}

		for _, d := range debates {
			divisionID := debateDivisionID(d)
			if divisionID == nil {
				result.Skipped = append(result.Skipped, d.ID)
				continue
			}
			div, ok := divisions[*divisionID]
			if !ok || div.TimeSlot == nil || div.VenueGroupID == nil {
				result.Skipped = append(result.Skipped, d.ID)
				continue
			}
			date := strings.TrimSpace(dates[*div.VenueGroupID])
			if date == "" {
				result.Skipped = append(result.Skipped, d.ID)
				continue
			}

			at, err := ParseScheduleDateTime(date, *div.TimeSlot, s.location)
			if err != nil {
				result.Failures = append(result.Failures, ScheduleFailure{
					DebateID:     d.ID,
					VenueGroupID: *div.VenueGroupID,
					Date:         date,
					Reason:       err.Error(),
				})
				continue
			}
			if err := s.debateRepo.UpdateScheduledAt(ctx, exec, d.ID, &at); err != nil {
				return handleRepositoryError(err)
			}
			result.Scheduled = append(result.Scheduled, d.ID)
		}

		if len(result.Scheduled) == 0 {
			return nil
		}
		entry := newActionLogEntry(models.ActionDebateSchedule, round.TournamentID, intPtr(round.ID), actorID)
		return s.actionLogRepo.Create(ctx, exec, entry)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ScheduledDebates("scheduled", len(result.Scheduled))
	s.metrics.ScheduledDebates("skipped", len(result.Skipped))
	s.metrics.ScheduledDebates("malformed", len(result.Failures))
	s.logger.InfoContext(ctx, "schedule applied",
		slog.Int("round_id", roundID),
		slog.Int("scheduled", len(result.Scheduled)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("malformed", len(result.Failures)),
	)

	if len(result.Failures) > 0 {
		return result, &ScheduleError{RoundID: roundID, Failures: result.Failures}
	}
	return result, nil
}

// debateDivisionID - дивизион первой команды дебатов (AFF идёт первой).
func debateDivisionID(d *models.Debate) *int {
	if len(d.Teams) == 0 || d.Teams[0].Team == nil {
		return nil
	}
	return d.Teams[0].Team.DivisionID
}
