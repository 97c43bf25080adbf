package service

import (
	"testing"

	"alcyxob/team-points/internal/apperr"
	"alcyxob/team-points/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAwardItemRepeatsByDefault(t *testing.T) {
	env := newTestEnv(t, envOptions{allowRepeats: true})
	m := env.addMember(t, "Anna")
	coach := primitive.NewObjectID()
	if _, err := env.ledger.ApplyDelta(env.ctx, m, 50, "Opening balance", primitive.NilObjectID); err != nil {
		t.Fatal(err)
	}
	ref := env.addExercise(t, "Plank 2 min", 20)

	res, err := env.awards.Award(env.ctx, AwardRequest{MemberID: m, Item: &ref, ActorID: coach})
	if err != nil {
		t.Fatalf("first Award: %v", err)
	}
	if res.Repeat {
		t.Error("first award reported as repeat")
	}
	if got := env.member(t, m).Points; got != 70 {
		t.Errorf("points after first award = %d, want 70", got)
	}
	item, _ := env.store.Items.Get(env.ctx, ref)
	if !item.CompletedByMember(m) {
		t.Error("member not in completion set after award")
	}

	res, err = env.awards.Award(env.ctx, AwardRequest{MemberID: m, Item: &ref, ActorID: coach})
	if err != nil {
		t.Fatalf("second Award: %v", err)
	}
	if !res.Repeat {
		t.Error("second award not reported as repeat")
	}
	if got := env.member(t, m).Points; got != 90 {
		t.Errorf("points after repeat award = %d, want 90", got)
	}

	entries := env.history(t, m)
	if len(entries) != 3 {
		t.Fatalf("ledger entries = %d, want 3 (opening + two awards)", len(entries))
	}
	for _, e := range entries[:2] {
		if e.Reason != "Plank 2 min" || e.Points != 20 || e.ActorID != coach {
			t.Errorf("award entry = %+v, want reason %q, 20 points, coach actor", e, "Plank 2 min")
		}
	}
	item, _ = env.store.Items.Get(env.ctx, ref)
	if len(item.CompletedBy) != 1 {
		t.Errorf("completion set = %v, want exactly one member", item.CompletedBy)
	}
}

func TestAwardItemOnceWhenRepeatsDisabled(t *testing.T) {
	env := newTestEnv(t, envOptions{allowRepeats: false})
	m := env.addMember(t, "Ben")
	ref := env.addExercise(t, "Burpees", 20)

	if _, err := env.awards.Award(env.ctx, AwardRequest{MemberID: m, Item: &ref}); err != nil {
		t.Fatalf("first Award: %v", err)
	}
	_, err := env.awards.Award(env.ctx, AwardRequest{MemberID: m, Item: &ref})
	wantErr(t, err, apperr.AlreadyCompleted)

	if got := env.member(t, m).Points; got != 20 {
		t.Errorf("points = %d, want 20", got)
	}
	if got := len(env.history(t, m)); got != 1 {
		t.Errorf("ledger entries = %d, want 1", got)
	}
}

func TestAwardItemAmountOverrideAndDescriptionReason(t *testing.T) {
	env := newTestEnv(t, envOptions{allowRepeats: true})
	m := env.addMember(t, "Cleo")
	id, err := env.store.Items.Create(env.ctx, &domain.AwardableItem{Kind: domain.KindExercise, Description: "Wall sit", Points: 15})
	if err != nil {
		t.Fatal(err)
	}
	ref := domain.ItemRef{Kind: domain.KindExercise, ID: id}

	res, err := env.awards.Award(env.ctx, AwardRequest{MemberID: m, Item: &ref, Amount: intPtr(40)})
	if err != nil {
		t.Fatalf("Award: %v", err)
	}
	if res.Entry.Points != 40 || res.Entry.Reason != "Wall sit" {
		t.Errorf("entry = %+v, want 40 points with reason %q", res.Entry, "Wall sit")
	}
}

func TestAwardFailuresLeaveNoTrace(t *testing.T) {
	env := newTestEnv(t, envOptions{allowRepeats: true})
	m := env.addMember(t, "Dana")
	ref := env.addExercise(t, "Sprint", 10)
	missing := domain.ItemRef{Kind: domain.KindExercise, ID: primitive.NewObjectID().Hex()}

	tests := []struct {
		name string
		req  AwardRequest
		want error
	}{
		{"manual without reason", AwardRequest{MemberID: m, Amount: intPtr(5)}, apperr.InvalidInput},
		{"manual without amount", AwardRequest{MemberID: m, Reason: "bonus"}, apperr.InvalidAmount},
		{"manual zero amount", AwardRequest{MemberID: m, Reason: "bonus", Amount: intPtr(0)}, apperr.InvalidAmount},
		{"manual unknown member", AwardRequest{MemberID: primitive.NewObjectID(), Reason: "bonus", Amount: intPtr(5)}, apperr.MemberNotFound},
		{"unknown item", AwardRequest{MemberID: m, Item: &missing}, apperr.ItemNotFound},
		{"item unknown member", AwardRequest{MemberID: primitive.NewObjectID(), Item: &ref}, apperr.MemberNotFound},
		{"item zero override", AwardRequest{MemberID: m, Item: &ref, Amount: intPtr(0)}, apperr.InvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.awards.Award(env.ctx, tt.req)
			wantErr(t, err, tt.want)
		})
	}

	if got := env.member(t, m).Points; got != 0 {
		t.Errorf("points = %d, want 0", got)
	}
	item, _ := env.store.Items.Get(env.ctx, ref)
	if len(item.CompletedBy) != 0 {
		t.Errorf("completion set = %v, want empty after failed awards", item.CompletedBy)
	}
}

func TestAwardManual(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	m := env.addMember(t, "Eli")

	res, err := env.awards.Award(env.ctx, AwardRequest{MemberID: m, Reason: "Tournament win", Amount: intPtr(30)})
	if err != nil {
		t.Fatalf("Award: %v", err)
	}
	if res.Entry.Reason != "Tournament win" || res.Entry.Points != 30 {
		t.Errorf("entry = %+v", res.Entry)
	}

	// Negative manual awards are corrections and may not overdraw.
	_, err = env.awards.Award(env.ctx, AwardRequest{MemberID: m, Reason: "correction", Amount: intPtr(-31)})
	wantErr(t, err, apperr.InsufficientPoints)
	if _, err := env.awards.Award(env.ctx, AwardRequest{MemberID: m, Reason: "correction", Amount: intPtr(-30)}); err != nil {
		t.Fatalf("correction: %v", err)
	}
	if got := env.member(t, m).Points; got != 0 {
		t.Errorf("points = %d, want 0", got)
	}
}
