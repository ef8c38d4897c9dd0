package services

import (
	"context"
	"testing"

	"github.com/Dosada05/debate-draw/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func existing(debateID int, aff, neg *int) MatchupEntry {
	return MatchupEntry{DebateID: debateID, Aff: aff, Neg: neg}
}

func fresh(tmpID int, aff, neg *int) MatchupEntry {
	return MatchupEntry{DebateID: tmpID, IsNew: true, Aff: aff, Neg: neg}
}

func TestSaveMatchups_BlankSideDeletesDebate(t *testing.T) {
	f := newFixture(nil)
	seedTournament(f, models.DrawStatusDraft)
	f.store.addDebate(1, testRound, 1, 1, 2) // A vs B

	err := f.matchups.SaveMatchups(context.Background(), testActor, testRound, MatchupSubmission{
		Entries: []MatchupEntry{existing(1, intPtr(3), nil)},
	})
	require.NoError(t, err)

	assert.NotContains(t, f.store.debates, 1)
	assert.Empty(t, f.store.debateTeams)
	require.Len(t, f.store.actionLog, 1)
	assert.Equal(t, models.ActionMatchupsEdit, f.store.actionLog[0].Type)
}

func TestSaveMatchups_RepairReplacesBothSides(t *testing.T) {
	f := newFixture(nil)
	seedTournament(f, models.DrawStatusDraft)
	f.store.addDebate(500, testRound, 1, 1, 2)
	f.store.addDebate(501, testRound, 2, 3, 4)

	err := f.matchups.SaveMatchups(context.Background(), nil, testRound, MatchupSubmission{
		Entries: []MatchupEntry{existing(500, intPtr(2), intPtr(1))},
	})
	require.NoError(t, err)

	want := map[int][2]int{500: {2, 1}, 501: {3, 4}}
	if diff := cmp.Diff(want, f.store.pairings(testRound)); diff != "" {
		t.Errorf("pairings mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, f.store.teamsOf(500), 2, "no stale side survives a swap")
}

func TestSaveMatchups_SwapAcrossTouchedDebates(t *testing.T) {
	f := newFixture(nil)
	seedTournament(f, models.DrawStatusDraft)
	f.store.addDebate(500, testRound, 1, 1, 2)
	f.store.addDebate(501, testRound, 2, 3, 4)

	err := f.matchups.SaveMatchups(context.Background(), nil, testRound, MatchupSubmission{
		Entries: []MatchupEntry{
			existing(500, intPtr(1), intPtr(3)),
			existing(501, intPtr(2), intPtr(4)),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, map[int][2]int{500: {1, 3}, 501: {2, 4}}, f.store.pairings(testRound))
}

func TestSaveMatchups_NewDebates(t *testing.T) {
	f := newFixture(nil)
	seedTournament(f, models.DrawStatusDraft)
	f.store.addTeam(5, testTournament, "E", nil)
	f.store.addDebate(500, testRound, 3, 1, 2)

	err := f.matchups.SaveMatchups(context.Background(), nil, testRound, MatchupSubmission{
		Entries: []MatchupEntry{
			fresh(0, intPtr(3), intPtr(4)),
			fresh(1, intPtr(5), nil),
			fresh(2, nil, nil),
		},
	})
	require.NoError(t, err)

	pairs := f.store.pairings(testRound)
	require.Len(t, pairs, 2)
	var created models.Debate
	for id, pair := range pairs {
		if id != 500 {
			assert.Equal(t, [2]int{3, 4}, pair)
			created = f.store.debates[id]
		}
	}
	assert.Nil(t, created.VenueID)
	assert.Equal(t, 4, created.RoomRank, "new debates go after existing ones")
}

func TestSaveMatchups_Idempotent(t *testing.T) {
	f := newFixture(nil)
	seedTournament(f, models.DrawStatusDraft)
	f.store.addDebate(500, testRound, 1, 1, 2)
	f.store.addDebate(501, testRound, 2, 3, 4)

	submission := MatchupSubmission{Entries: []MatchupEntry{
		existing(500, intPtr(2), intPtr(1)),
		existing(501, nil, intPtr(4)),
	}}

	require.NoError(t, f.matchups.SaveMatchups(context.Background(), nil, testRound, submission))
	first := f.store.pairings(testRound)

	require.NoError(t, f.matchups.SaveMatchups(context.Background(), nil, testRound, submission))
	assert.Equal(t, first, f.store.pairings(testRound))
	assert.Equal(t, map[int][2]int{500: {2, 1}}, first)
}

func TestSaveMatchups_ValidationFailuresApplyNothing(t *testing.T) {
	tests := []struct {
		name    string
		entries []MatchupEntry
		wantErr error
	}{
		{
			name:    "unknown team",
			entries: []MatchupEntry{existing(500, intPtr(2), intPtr(1)), existing(501, intPtr(3), intPtr(99))},
			wantErr: ErrTeamNotFound,
		},
		{
			name:    "team from another tournament",
			entries: []MatchupEntry{fresh(0, intPtr(3), intPtr(8))},
			wantErr: ErrTeamWrongTournament,
		},
		{
			name:    "team on both sides",
			entries: []MatchupEntry{existing(500, intPtr(1), intPtr(1))},
			wantErr: ErrDuplicateTeamAssignment,
		},
		{
			name:    "team in two entries",
			entries: []MatchupEntry{existing(500, intPtr(1), intPtr(2)), existing(501, intPtr(1), intPtr(4))},
			wantErr: ErrDuplicateTeamAssignment,
		},
		{
			name:    "team held by untouched debate",
			entries: []MatchupEntry{existing(500, intPtr(1), intPtr(3))},
			wantErr: ErrDuplicateTeamAssignment,
		},
		{
			name:    "debate from another round",
			entries: []MatchupEntry{existing(700, intPtr(1), intPtr(2))},
			wantErr: ErrDebateWrongRound,
		},
		{
			name:    "missing debate with both teams",
			entries: []MatchupEntry{existing(404, intPtr(1), intPtr(2))},
			wantErr: ErrDebateNotFound,
		},
		{
			name:    "debate listed twice",
			entries: []MatchupEntry{existing(500, nil, nil), existing(500, intPtr(1), intPtr(2))},
			wantErr: ErrValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(nil)
			seedTournament(f, models.DrawStatusDraft)
			f.store.addTournament(2)
			f.store.addTeam(8, 2, "Other", nil)
			f.store.addRound(20, 2, 1, models.DrawStatusDraft)
			f.store.addDebate(500, testRound, 1, 1, 2)
			f.store.addDebate(501, testRound, 2, 3, 4)
			f.store.addDebate(700, 20, 1, 8, 8)
			before := f.store.pairings(testRound)

			err := f.matchups.SaveMatchups(context.Background(), nil, testRound, MatchupSubmission{Entries: tt.entries})
			require.ErrorIs(t, err, tt.wantErr)

			assert.Equal(t, before, f.store.pairings(testRound))
			assert.Empty(t, f.store.actionLog)
		})
	}
}

func TestSaveMatchups_RoundNotFound(t *testing.T) {
	f := newFixture(nil)
	err := f.matchups.SaveMatchups(context.Background(), nil, 999, MatchupSubmission{})
	assert.ErrorIs(t, err, ErrRoundNotFound)
}
