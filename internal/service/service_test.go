package service

import (
	"context"
	"errors"
	"testing"

	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/repository"
	"alcyxob/team-points/internal/repository/memory"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// countingCache records invalidations so tests can assert on them.
type countingCache struct {
	standings     []domain.Standing
	invalidations int
}

func (c *countingCache) Get(context.Context) ([]domain.Standing, bool) {
	return c.standings, c.standings != nil
}
func (c *countingCache) Set(_ context.Context, s []domain.Standing) { c.standings = s }
func (c *countingCache) Invalidate(context.Context) {
	c.standings = nil
	c.invalidations++
}

type testEnv struct {
	ctx        context.Context
	store      repository.Store
	cache      *countingCache
	ledger     LedgerService
	awards     AwardService
	attendance AttendanceService
	roster     RosterService
}

type envOptions struct {
	allowRepeats     bool
	narrateReversals bool
	pageSize         int
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	store := memory.NewStore().Repositories()
	cache := &countingCache{}
	log := zap.NewNop()
	ledger := NewLedgerService(store, cache, opts.pageSize, log)
	return &testEnv{
		ctx:    context.Background(),
		store:  store,
		cache:  cache,
		ledger: ledger,
		awards: NewAwardService(store, ledger, cache, opts.allowRepeats, log),
		attendance: NewAttendanceService(store, ledger, cache,
			AttendancePolicy{TrainingPoints: 10, NarrateReversals: opts.narrateReversals}, log),
		roster: NewRosterService(store, cache, "https://team.example.com/", log),
	}
}

func (e *testEnv) addMember(t *testing.T, name string) primitive.ObjectID {
	t.Helper()
	m, err := e.roster.AddPlaceholder(e.ctx, name, "")
	if err != nil {
		t.Fatalf("AddPlaceholder(%q): %v", name, err)
	}
	return m.ID
}

func (e *testEnv) member(t *testing.T, id primitive.ObjectID) *domain.Member {
	t.Helper()
	m, err := e.store.Members.GetByID(e.ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	return m
}

func (e *testEnv) history(t *testing.T, id primitive.ObjectID) []domain.LedgerEntry {
	t.Helper()
	entries, err := collect(e.ledger.History(e.ctx, id, 0))
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	return entries
}

func (e *testEnv) addExercise(t *testing.T, title string, points int) domain.ItemRef {
	t.Helper()
	id, err := e.store.Items.Create(e.ctx, &domain.AwardableItem{Kind: domain.KindExercise, Title: title, Points: points})
	if err != nil {
		t.Fatalf("Create exercise: %v", err)
	}
	return domain.ItemRef{Kind: domain.KindExercise, ID: id}
}

func wantErr(t *testing.T, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Fatalf("error = %v, want %v", got, want)
	}
}

func intPtr(v int) *int { return &v }
