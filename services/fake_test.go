package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/debate-draw/brackets"
	"github.com/Dosada05/debate-draw/models"
	"github.com/Dosada05/debate-draw/repositories"
)

// memStore - хранилище в памяти для тестов сервисов. fakeTx откатывает его при ошибке.
type memStore struct {
	mu          sync.Mutex
	nextID      int
	tournaments map[int]models.Tournament
	rounds      map[int]models.Round
	teams       map[int]models.Team
	divisions   map[int]models.Division
	venues      map[int]models.Venue
	debates     map[int]models.Debate
	debateTeams map[int]models.DebateTeam
	allocations []models.TeamPositionAllocation
	constraints bool
	actionLog   []models.ActionLogEntry
}

func newMemStore() *memStore {
	return &memStore{
		nextID:      1000,
		tournaments: map[int]models.Tournament{},
		rounds:      map[int]models.Round{},
		teams:       map[int]models.Team{},
		divisions:   map[int]models.Division{},
		venues:      map[int]models.Venue{},
		debates:     map[int]models.Debate{},
		debateTeams: map[int]models.DebateTeam{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() *memStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &memStore{
		nextID:      s.nextID,
		tournaments: cloneMap(s.tournaments),
		rounds:      cloneMap(s.rounds),
		teams:       cloneMap(s.teams),
		divisions:   cloneMap(s.divisions),
		venues:      cloneMap(s.venues),
		debates:     cloneMap(s.debates),
		debateTeams: cloneMap(s.debateTeams),
		allocations: append([]models.TeamPositionAllocation(nil), s.allocations...),
		constraints: s.constraints,
		actionLog:   append([]models.ActionLogEntry(nil), s.actionLog...),
	}
}

func (s *memStore) restore(from *memStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = from.nextID
	s.tournaments = from.tournaments
	s.rounds = from.rounds
	s.teams = from.teams
	s.divisions = from.divisions
	s.venues = from.venues
	s.debates = from.debates
	s.debateTeams = from.debateTeams
	s.allocations = from.allocations
	s.constraints = from.constraints
	s.actionLog = from.actionLog
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

// --- наполнение ---

func (s *memStore) addTournament(id int) {
	s.tournaments[id] = models.Tournament{ID: id, Name: "Open", Slug: "open"}
}

func (s *memStore) addRound(id, tournamentID, seq int, status models.DrawStatus) {
	s.rounds[id] = models.Round{ID: id, TournamentID: tournamentID, Seq: seq, Name: "Round", Abbreviation: "R", DrawStatus: status}
}

func (s *memStore) addTeam(id, tournamentID int, ref string, divisionID *int) {
	s.teams[id] = models.Team{ID: id, TournamentID: tournamentID, Reference: ref, ShortName: ref, DivisionID: divisionID}
}

func (s *memStore) addDebate(id, roundID, rank int, aff, neg int) {
	s.debates[id] = models.Debate{ID: id, RoundID: roundID, RoomRank: rank}
	affID, negID := s.id(), s.id()
	s.debateTeams[affID] = models.DebateTeam{ID: affID, DebateID: id, TeamID: aff, Position: models.PositionAffirmative}
	s.debateTeams[negID] = models.DebateTeam{ID: negID, DebateID: id, TeamID: neg, Position: models.PositionNegative}
}

// pairings возвращает (aff, neg) каждого дебата раунда; для проверки результата.
func (s *memStore) pairings(roundID int) map[int][2]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int][2]int)
	for id, d := range s.debates {
		if d.RoundID != roundID {
			continue
		}
		var pair [2]int
		for _, dt := range s.debateTeams {
			if dt.DebateID != id {
				continue
			}
			if dt.Position == models.PositionAffirmative {
				pair[0] = dt.TeamID
			} else {
				pair[1] = dt.TeamID
			}
		}
		out[id] = pair
	}
	return out
}

func (s *memStore) teamsOf(debateID int) []models.DebateTeam {
	out := make([]models.DebateTeam, 0, 2)
	for _, dt := range s.debateTeams {
		if dt.DebateID == debateID {
			out = append(out, dt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// --- транзакции ---

type fakeTx struct {
	store *memStore
	calls int
}

func (t *fakeTx) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	t.calls++
	saved := t.store.snapshot()
	if err := fn(nil); err != nil {
		t.store.restore(saved)
		return err
	}
	return nil
}

// --- репозитории ---

type fakeTournamentRepo struct{ s *memStore }

func (r fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return &t, nil
}

type fakeRoundRepo struct{ s *memStore }

func (r fakeRoundRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Round, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	round, ok := r.s.rounds[id]
	if !ok {
		return nil, repositories.ErrRoundNotFound
	}
	return &round, nil
}

func (r fakeRoundRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Round, error) {
	return r.GetByID(ctx, exec, id)
}

func (r fakeRoundRepo) ListByTournament(ctx context.Context, tournamentID int, status *models.DrawStatus) ([]*models.Round, error) {
	return r.list(func(round models.Round) bool {
		return round.TournamentID == tournamentID && (status == nil || round.DrawStatus == *status)
	}), nil
}

func (r fakeRoundRepo) ListPrelims(ctx context.Context, tournamentID int) ([]*models.Round, error) {
	return r.list(func(round models.Round) bool {
		return round.TournamentID == tournamentID && !round.IsBreakRound
	}), nil
}

func (r fakeRoundRepo) list(keep func(models.Round) bool) []*models.Round {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Round, 0)
	for _, round := range r.s.rounds {
		if keep(round) {
			rc := round
			out = append(out, &rc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (r fakeRoundRepo) UpdateDrawStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.DrawStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	round, ok := r.s.rounds[id]
	if !ok {
		return repositories.ErrRoundNotFound
	}
	round.DrawStatus = status
	r.s.rounds[id] = round
	return nil
}

func (r fakeRoundRepo) UpdateStartsAt(ctx context.Context, exec repositories.SQLExecutor, id int, startsAt *models.TimeOfDay) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	round, ok := r.s.rounds[id]
	if !ok {
		return repositories.ErrRoundNotFound
	}
	round.StartsAt = startsAt
	r.s.rounds[id] = round
	return nil
}

type fakeDebateRepo struct{ s *memStore }

// hydrate вызывается под блокировкой.
func (r fakeDebateRepo) hydrate(d models.Debate) *models.Debate {
	sides := r.s.teamsOf(d.ID)
	for i := range sides {
		if t, ok := r.s.teams[sides[i].TeamID]; ok {
			tc := t
			sides[i].Team = &tc
		}
	}
	d.Teams = sides
	if d.VenueID != nil {
		if v, ok := r.s.venues[*d.VenueID]; ok {
			d.Venue = &v
		}
	}
	return &d
}

func (r fakeDebateRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Debate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.debates[id]
	if !ok {
		return nil, repositories.ErrDebateNotFound
	}
	return r.hydrate(d), nil
}

func (r fakeDebateRepo) ListByRound(ctx context.Context, exec repositories.SQLExecutor, roundID int) ([]*models.Debate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Debate, 0)
	for _, d := range r.s.debates {
		if d.RoundID == roundID {
			out = append(out, r.hydrate(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoomRank != out[j].RoomRank {
			return out[i].RoomRank < out[j].RoomRank
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r fakeDebateRepo) Create(ctx context.Context, exec repositories.SQLExecutor, d *models.Debate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rounds[d.RoundID]; !ok {
		return repositories.ErrDebateRoundInvalid
	}
	d.ID = r.s.id()
	stored := *d
	stored.Teams, stored.Venue = nil, nil
	r.s.debates[d.ID] = stored
	return nil
}

func (r fakeDebateRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.debates[id]; !ok {
		return repositories.ErrDebateNotFound
	}
	for tid, dt := range r.s.debateTeams {
		if dt.DebateID == id {
			delete(r.s.debateTeams, tid)
		}
	}
	delete(r.s.debates, id)
	return nil
}

func (r fakeDebateRepo) DeleteByRound(ctx context.Context, exec repositories.SQLExecutor, roundID int) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var deleted int64
	for id, d := range r.s.debates {
		if d.RoundID != roundID {
			continue
		}
		for tid, dt := range r.s.debateTeams {
			if dt.DebateID == id {
				delete(r.s.debateTeams, tid)
			}
		}
		delete(r.s.debates, id)
		deleted++
	}
	return deleted, nil
}

func (r fakeDebateRepo) CreateTeam(ctx context.Context, exec repositories.SQLExecutor, dt *models.DebateTeam) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.debates[dt.DebateID]; !ok {
		return repositories.ErrDebateNotFound
	}
	if _, ok := r.s.teams[dt.TeamID]; !ok {
		return repositories.ErrDebateTeamInvalid
	}
	for _, existing := range r.s.debateTeams {
		if existing.DebateID == dt.DebateID && existing.Position == dt.Position {
			return repositories.ErrDebateTeamPositionTaken
		}
	}
	dt.ID = r.s.id()
	stored := *dt
	stored.Team = nil
	r.s.debateTeams[dt.ID] = stored
	return nil
}

func (r fakeDebateRepo) DeleteTeams(ctx context.Context, exec repositories.SQLExecutor, debateID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for tid, dt := range r.s.debateTeams {
		if dt.DebateID == debateID {
			delete(r.s.debateTeams, tid)
		}
	}
	return nil
}

func (r fakeDebateRepo) UpdateScheduledAt(ctx context.Context, exec repositories.SQLExecutor, debateID int, at *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.debates[debateID]
	if !ok {
		return repositories.ErrDebateNotFound
	}
	d.ScheduledAt = at
	r.s.debates[debateID] = d
	return nil
}

func (r fakeDebateRepo) UpdateVenue(ctx context.Context, exec repositories.SQLExecutor, debateID int, venueID *int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.debates[debateID]
	if !ok {
		return repositories.ErrDebateNotFound
	}
	d.VenueID = venueID
	r.s.debates[debateID] = d
	return nil
}

type fakeTeamRepo struct{ s *memStore }

func (r fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return &t, nil
}

func (r fakeTeamRepo) GetByIDs(ctx context.Context, exec repositories.SQLExecutor, ids []int) (map[int]*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[int]*models.Team)
	for _, id := range ids {
		if t, ok := r.s.teams[id]; ok {
			tc := t
			out[id] = &tc
		}
	}
	return out, nil
}

func (r fakeTeamRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error) {
	return r.list(func(t models.Team) bool { return t.TournamentID == tournamentID }), nil
}

func (r fakeTeamRepo) ListUnusedInRound(ctx context.Context, tournamentID, roundID int) ([]*models.Team, error) {
	r.s.mu.Lock()
	used := make(map[int]bool)
	for _, dt := range r.s.debateTeams {
		if d, ok := r.s.debates[dt.DebateID]; ok && d.RoundID == roundID {
			used[dt.TeamID] = true
		}
	}
	r.s.mu.Unlock()
	return r.list(func(t models.Team) bool { return t.TournamentID == tournamentID && !used[t.ID] }), nil
}

func (r fakeTeamRepo) list(keep func(models.Team) bool) []*models.Team {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Team, 0)
	for _, t := range r.s.teams {
		if keep(t) {
			tc := t
			out = append(out, &tc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ShortName != out[j].ShortName {
			return out[i].ShortName < out[j].ShortName
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r fakeTeamRepo) UpdateDivision(ctx context.Context, id int, divisionID *int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	if divisionID != nil {
		if _, ok := r.s.divisions[*divisionID]; !ok {
			return repositories.ErrTeamInvalidDivision
		}
	}
	t.DivisionID = divisionID
	r.s.teams[id] = t
	return nil
}

type fakeDivisionRepo struct{ s *memStore }

func (r fakeDivisionRepo) GetByID(ctx context.Context, id int) (*models.Division, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.divisions[id]
	if !ok {
		return nil, repositories.ErrDivisionNotFound
	}
	return &d, nil
}

func (r fakeDivisionRepo) GetByIDs(ctx context.Context, exec repositories.SQLExecutor, ids []int) (map[int]*models.Division, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[int]*models.Division)
	for _, id := range ids {
		if d, ok := r.s.divisions[id]; ok {
			dc := d
			out[id] = &dc
		}
	}
	return out, nil
}

func (r fakeDivisionRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Division, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Division, 0)
	for _, d := range r.s.divisions {
		if d.TournamentID == tournamentID {
			dc := d
			out = append(out, &dc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeDivisionRepo) UpdateTimeSlot(ctx context.Context, id int, slot *models.TimeOfDay) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.divisions[id]
	if !ok {
		return repositories.ErrDivisionNotFound
	}
	d.TimeSlot = slot
	r.s.divisions[id] = d
	return nil
}

func (r fakeDivisionRepo) UpdateVenueGroup(ctx context.Context, id int, venueGroupID *int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.divisions[id]
	if !ok {
		return repositories.ErrDivisionNotFound
	}
	d.VenueGroupID = venueGroupID
	r.s.divisions[id] = d
	return nil
}

type fakeVenueRepo struct{ s *memStore }

func (r fakeVenueRepo) ListByPriority(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.Venue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Venue, 0)
	for _, v := range r.s.venues {
		if v.TournamentID == tournamentID {
			vc := v
			out = append(out, &vc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r fakeVenueRepo) AdjudicatorConstraintsExist(ctx context.Context, exec repositories.SQLExecutor) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.constraints, nil
}

type fakeSideAllocRepo struct{ s *memStore }

func (r fakeSideAllocRepo) ListByRounds(ctx context.Context, roundIDs []int) ([]*models.TeamPositionAllocation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[int]bool, len(roundIDs))
	for _, id := range roundIDs {
		want[id] = true
	}
	out := make([]*models.TeamPositionAllocation, 0)
	for _, a := range r.s.allocations {
		if want[a.RoundID] {
			ac := a
			out = append(out, &ac)
		}
	}
	return out, nil
}

type fakeActionLogRepo struct{ s *memStore }

func (r fakeActionLogRepo) Create(ctx context.Context, exec repositories.SQLExecutor, e *models.ActionLogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.actionLog = append(r.s.actionLog, *e)
	return nil
}

func (r fakeActionLogRepo) ListByRound(ctx context.Context, roundID int, limit int) ([]*models.ActionLogEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.ActionLogEntry, 0)
	for _, e := range r.s.actionLog {
		if e.RoundID != nil && *e.RoundID == roundID {
			ec := e
			out = append(out, &ec)
		}
	}
	return out, nil
}

// --- прочие зависимости ---

type failingGenerator struct{ message string }

func (g failingGenerator) Generate(ctx context.Context, params brackets.GenerateDrawParams) ([]*brackets.DrawPairing, error) {
	return nil, &brackets.DrawError{Message: g.message}
}

func (g failingGenerator) GetName() string { return "Failing" }

type fakePublisher struct {
	mu        sync.Mutex
	published []int
	withdrawn []int
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, round *models.Round, debates []*models.Debate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, round.ID)
	return p.err
}

func (p *fakePublisher) Withdraw(ctx context.Context, round *models.Round) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.withdrawn = append(p.withdrawn, round.ID)
	return p.err
}

// --- сборка сервисов ---

type fixture struct {
	store     *memStore
	tx        *fakeTx
	publisher *fakePublisher
	draws     DrawService
	matchups  MatchupService
	schedule  ScheduleService
	divisions DivisionService
	sides     SideAllocationService
}

func newFixture(generator brackets.PairingGenerator) *fixture {
	store := newMemStore()
	tx := &fakeTx{store: store}
	publisher := &fakePublisher{}
	if generator == nil {
		generator = brackets.NewFoldGenerator()
	}

	rounds := fakeRoundRepo{store}
	debates := fakeDebateRepo{store}
	teams := fakeTeamRepo{store}
	divisions := fakeDivisionRepo{store}
	venues := fakeVenueRepo{store}
	sideAllocs := fakeSideAllocRepo{store}
	actionLog := fakeActionLogRepo{store}
	tournaments := fakeTournamentRepo{store}

	allocator := NewPriorityVenueAllocator(venues, debates, divisions, nil)
	draws := NewDrawService(tx, rounds, debates, teams, venues, sideAllocs, actionLog, tournaments,
		generator, allocator, publisher, nil, nil)

	return &fixture{
		store:     store,
		tx:        tx,
		publisher: publisher,
		draws:     draws,
		matchups:  NewMatchupService(tx, rounds, debates, teams, actionLog, nil, nil),
		schedule:  NewScheduleService(tx, rounds, debates, divisions, actionLog, time.UTC, nil, nil),
		divisions: NewDivisionService(divisions, teams, actionLog, nil),
		sides:     NewSideAllocationService(tournaments, rounds, teams, sideAllocs),
	}
}
