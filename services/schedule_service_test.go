package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/debate-draw/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScheduleDateTime(t *testing.T) {
	slot := models.TimeOfDay{Hour: 14, Minute: 30}
	want := time.Date(2024, time.March, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		date string
	}{
		{name: "iso layout", date: "2024-03-15"},
		{name: "day first layout", date: "15/03/2024"},
		{name: "surrounding spaces", date: " 2024-03-15 "},
		{name: "iso without padding", date: "2024-3-15"},
		{name: "day first without padding", date: "15/3/2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScheduleDateTime(tt.date, slot, time.UTC)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

func TestParseScheduleDateTime_SingleDigitDayAndMonth(t *testing.T) {
	slot := models.TimeOfDay{Hour: 14, Minute: 30}
	want := time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC)

	for _, date := range []string{"5/3/2024", "2024-3-5", "05/03/2024", "2024-03-05"} {
		t.Run(date, func(t *testing.T) {
			got, err := ParseScheduleDateTime(date, slot, time.UTC)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

func TestParseScheduleDateTime_Malformed(t *testing.T) {
	for _, date := range []string{"not-a-date", "03/15/2024", "2024-13-01", "15.03.2024", "5/3/24"} {
		t.Run(date, func(t *testing.T) {
			got, err := ParseScheduleDateTime(date, models.TimeOfDay{Hour: 14, Minute: 30}, nil)
			require.ErrorIs(t, err, ErrMalformedScheduleDate)
			assert.True(t, got.IsZero(), "must not default to some date")
		})
	}
}

func TestParseScheduleDateTime_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	got, err := ParseScheduleDateTime("2024-03-15", models.TimeOfDay{Hour: 9}, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 15, 6, 0, 0, 0, time.UTC), got.UTC())
}

// seedSchedule: дивизионы 1 (группа 100, 14:30), 2 (группа 200, 10:00), 3 (без времени).
func seedSchedule(f *fixture) {
	seedTournament(f, models.DrawStatusConfirmed)
	g100, g200 := 100, 200
	f.store.divisions[1] = models.Division{ID: 1, TournamentID: testTournament, VenueGroupID: &g100, TimeSlot: &models.TimeOfDay{Hour: 14, Minute: 30}}
	f.store.divisions[2] = models.Division{ID: 2, TournamentID: testTournament, VenueGroupID: &g200, TimeSlot: &models.TimeOfDay{Hour: 10}}
	f.store.divisions[3] = models.Division{ID: 3, TournamentID: testTournament, VenueGroupID: &g100}

	setDivision := func(teamID, divisionID int) {
		team := f.store.teams[teamID]
		team.DivisionID = intPtr(divisionID)
		f.store.teams[teamID] = team
	}
	setDivision(1, 1)
	setDivision(3, 2)
	f.store.addTeam(5, testTournament, "E", intPtr(3))
	f.store.addTeam(6, testTournament, "F", nil)
	f.store.addTeam(7, testTournament, "G", nil)

	f.store.addDebate(500, testRound, 1, 1, 2) // дивизион 1
	f.store.addDebate(501, testRound, 2, 3, 4) // дивизион 2
	f.store.addDebate(502, testRound, 3, 5, 6) // дивизион без времени
	f.store.addDebate(503, testRound, 4, 7, 1) // AFF без дивизиона
}

func TestApplySchedule(t *testing.T) {
	f := newFixture(nil)
	seedSchedule(f)

	result, err := f.schedule.ApplySchedule(context.Background(), testActor, testRound, map[int]string{
		100: "2024-03-15",
		200: "16/03/2024",
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []int{500, 501}, result.Scheduled)
	assert.ElementsMatch(t, []int{502, 503}, result.Skipped)
	assert.Empty(t, result.Failures)

	at := f.store.debates[500].ScheduledAt
	require.NotNil(t, at)
	assert.True(t, time.Date(2024, time.March, 15, 14, 30, 0, 0, time.UTC).Equal(*at))
	at = f.store.debates[501].ScheduledAt
	require.NotNil(t, at)
	assert.True(t, time.Date(2024, time.March, 16, 10, 0, 0, 0, time.UTC).Equal(*at))
	assert.Nil(t, f.store.debates[502].ScheduledAt)
	assert.Nil(t, f.store.debates[503].ScheduledAt)

	require.Len(t, f.store.actionLog, 1)
	assert.Equal(t, models.ActionDebateSchedule, f.store.actionLog[0].Type)
}

func TestApplySchedule_MalformedDateReportedPerDebate(t *testing.T) {
	f := newFixture(nil)
	seedSchedule(f)

	result, err := f.schedule.ApplySchedule(context.Background(), nil, testRound, map[int]string{
		100: "not-a-date",
		200: "2024-03-16",
	})
	require.ErrorIs(t, err, ErrMalformedScheduleDate)

	var scheduleErr *ScheduleError
	require.True(t, errors.As(err, &scheduleErr))
	require.Len(t, scheduleErr.Failures, 1)
	assert.Equal(t, 500, scheduleErr.Failures[0].DebateID)
	assert.Equal(t, "not-a-date", scheduleErr.Failures[0].Date)

	require.NotNil(t, result)
	assert.Equal(t, []int{501}, result.Scheduled)
	assert.Nil(t, f.store.debates[500].ScheduledAt, "malformed date is not defaulted")
	assert.NotNil(t, f.store.debates[501].ScheduledAt, "other debates are still scheduled")
}

func TestApplySchedule_BlankOrMissingDateSkips(t *testing.T) {
	f := newFixture(nil)
	seedSchedule(f)

	result, err := f.schedule.ApplySchedule(context.Background(), nil, testRound, map[int]string{100: "  "})
	require.NoError(t, err)
	assert.Empty(t, result.Scheduled)
	assert.Len(t, result.Skipped, 4)
	assert.Empty(t, f.store.actionLog)
}

func TestApplySchedule_RoundNotFound(t *testing.T) {
	f := newFixture(nil)
	_, err := f.schedule.ApplySchedule(context.Background(), nil, 999, nil)
	assert.ErrorIs(t, err, ErrRoundNotFound)
}
