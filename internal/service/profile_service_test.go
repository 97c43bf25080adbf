package service

import (
	"fmt"
	"testing"

	"alcyxob/team-points/internal/apperr"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestProfile(t *testing.T) {
	env := newTestEnv(t, envOptions{allowRepeats: true})
	profiles := NewProfileService(env.store, env.ledger, 3, []string{" Tournament "}, zap.NewNop())
	m := env.addMember(t, "Anna")
	other := env.addMember(t, "Ben")

	for day := 1; day <= 5; day++ {
		date := fmt.Sprintf("2024-03-%02d", day)
		if _, err := env.attendance.Reconcile(env.ctx, date, []primitive.ObjectID{m, other}, primitive.NilObjectID); err != nil {
			t.Fatal(err)
		}
	}
	// Ben misses one day, breaking the run.
	if _, err := env.attendance.Reconcile(env.ctx, "2024-03-03", []primitive.ObjectID{m}, primitive.NilObjectID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.awards.Award(env.ctx, AwardRequest{MemberID: m, Reason: "Winter tournament win", Amount: intPtr(60)}); err != nil {
		t.Fatal(err)
	}
	ref := env.addExercise(t, "Plank", 5)
	if _, err := env.awards.Award(env.ctx, AwardRequest{MemberID: m, Item: &ref}); err != nil {
		t.Fatal(err)
	}

	p, err := profiles.Profile(env.ctx, m)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.LongestStreak != 5 {
		t.Errorf("LongestStreak = %d, want 5", p.LongestStreak)
	}
	if len(p.History) != 3 || p.History[0].Reason != "Plank" {
		t.Errorf("History = %+v, want the 3 newest entries starting with Plank", p.History)
	}
	if len(p.Completed) != 1 || p.Completed[0].Title != "Plank" {
		t.Errorf("Completed = %+v, want Plank", p.Completed)
	}
	if p.Member.PasswordHash != "" {
		t.Error("password hash exposed in profile")
	}

	earned := map[string]bool{}
	for _, a := range p.Achievements {
		earned[a.ID] = a.Earned
	}
	want := map[string]bool{
		"streak_5": true, "streak_10": false, "streak_15": false,
		"points_100": true, "points_500": false, "tourney_win_1": true,
	}
	for id, w := range want {
		if earned[id] != w {
			t.Errorf("achievement %s earned = %v, want %v", id, earned[id], w)
		}
	}

	po, err := profiles.Profile(env.ctx, other)
	if err != nil {
		t.Fatal(err)
	}
	if po.LongestStreak != 2 {
		t.Errorf("Ben LongestStreak = %d, want 2", po.LongestStreak)
	}
	if len(po.Completed) != 0 || po.Completed == nil {
		t.Errorf("Ben Completed = %v, want empty non-nil", po.Completed)
	}
}

func TestProfileUnknownMember(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	profiles := NewProfileService(env.store, env.ledger, 0, nil, zap.NewNop())
	_, err := profiles.Profile(env.ctx, primitive.NewObjectID())
	wantErr(t, err, apperr.MemberNotFound)
}

func TestAchievementThresholds(t *testing.T) {
	tests := []struct {
		facts achievementFacts
		want  int
	}{
		{achievementFacts{}, 0},
		{achievementFacts{streak: 4, points: 99}, 0},
		{achievementFacts{streak: 10, points: 100}, 3},
		{achievementFacts{streak: 15, points: 500, tournament: true}, 6},
	}
	for _, tt := range tests {
		got := achievements(tt.facts)
		n := 0
		for _, a := range got {
			if a.Earned {
				n++
			}
		}
		if len(got) != len(achievementRules) || n != tt.want {
			t.Errorf("achievements(%+v) earned %d of %d, want %d", tt.facts, n, len(got), tt.want)
		}
	}
}
