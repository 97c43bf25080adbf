package service

import (
	"context"
	"testing"
	"time"

	"alcyxob/team-points/internal/apperr"
	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/repository"
	"alcyxob/team-points/internal/repository/memory"

	"go.uber.org/zap"
)

func newChallengeService(items repository.ItemRepository, now *time.Time) *challengeService {
	svc := NewChallengeService(items, time.UTC, zap.NewNop()).(*challengeService)
	svc.now = func() time.Time { return *now }
	return svc
}

func TestWeeklyChallengeIsKeyedByPeriod(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore().Repositories()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) // Friday, ISO week 9
	svc := newChallengeService(store.Items, &now)

	first, err := svc.CreateChallenge(ctx, domain.KindWeeklyChallenge, "Run 10k", "", 30)
	if err != nil {
		t.Fatalf("CreateChallenge: %v", err)
	}
	if first.ID != "2024-9" {
		t.Errorf("weekly id = %q, want %q", first.ID, "2024-9")
	}
	wantEnd := time.Date(2024, 3, 3, 23, 59, 59, 999_000_000, time.UTC)
	if !first.EndDate.Equal(wantEnd) {
		t.Errorf("EndDate = %v, want %v", first.EndDate, wantEnd)
	}

	// Later the same week: same key, overwritten rather than duplicated.
	now = time.Date(2024, 3, 3, 20, 0, 0, 0, time.UTC)
	if _, err := svc.CreateChallenge(ctx, domain.KindWeeklyChallenge, "Swim 1k", "", 40); err != nil {
		t.Fatalf("second CreateChallenge: %v", err)
	}
	weekly, err := store.Items.ListByKind(ctx, domain.KindWeeklyChallenge)
	if err != nil {
		t.Fatal(err)
	}
	if len(weekly) != 1 || weekly[0].Title != "Swim 1k" {
		t.Errorf("weekly challenges = %+v, want the single overwritten one", weekly)
	}

	// Next Monday starts a new period.
	now = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	active, err := svc.ActiveChallenges(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if active.Weekly != nil {
		t.Errorf("weekly challenge still active in the next week: %+v", active.Weekly)
	}
}

func TestActiveChallenges(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore().Repositories()
	now := time.Date(2024, 3, 14, 7, 0, 0, 0, time.UTC)
	svc := newChallengeService(store.Items, &now)

	// Yesterday's daily challenge is no longer active.
	now = now.Add(-24 * time.Hour)
	if _, err := svc.CreateChallenge(ctx, domain.KindDailyChallenge, "Yesterday", "", 5); err != nil {
		t.Fatal(err)
	}
	now = now.Add(24 * time.Hour)
	for _, kind := range []domain.ItemKind{domain.KindDailyChallenge, domain.KindMonthlyChallenge} {
		if _, err := svc.CreateChallenge(ctx, kind, "Today "+string(kind), "", 10); err != nil {
			t.Fatal(err)
		}
	}

	active, err := svc.ActiveChallenges(ctx)
	if err != nil {
		t.Fatalf("ActiveChallenges: %v", err)
	}
	if active.Daily == nil || active.Daily.Title != "Today daily" {
		t.Errorf("Daily = %+v, want today's", active.Daily)
	}
	if active.Monthly == nil || active.Monthly.ID != "2024-3" {
		t.Errorf("Monthly = %+v, want id 2024-3", active.Monthly)
	}
	if active.Weekly != nil {
		t.Errorf("Weekly = %+v, want nil", active.Weekly)
	}

	if _, err := store.Items.Create(ctx, &domain.AwardableItem{Kind: domain.KindExercise, Title: "Plank", Points: 20}); err != nil {
		t.Fatal(err)
	}
	items, err := svc.AwardableItems(ctx)
	if err != nil {
		t.Fatalf("AwardableItems: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("awardable items = %d, want daily + monthly + exercise", len(items))
	}
}

func TestCreateChallengeValidation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 14, 7, 0, 0, 0, time.UTC)
	svc := newChallengeService(memory.NewStore().Repositories().Items, &now)

	_, err := svc.CreateChallenge(ctx, domain.KindDailyChallenge, "x", "", 0)
	wantErr(t, err, apperr.InvalidAmount)
	_, err = svc.CreateChallenge(ctx, domain.KindExercise, "x", "", 10)
	wantErr(t, err, apperr.InvalidInput)
	_, err = svc.CreateChallenge(ctx, domain.KindWeeklyChallenge, "", "only a description", 10)
	wantErr(t, err, apperr.InvalidInput)
}
