package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newMember(t *testing.T, repos repository.Store, name string) primitive.ObjectID {
	t.Helper()
	id, err := repos.Members.Create(context.Background(), &domain.Member{Name: name, Role: domain.RoleMember, IsOffline: true})
	if err != nil {
		t.Fatalf("Create(%q): %v", name, err)
	}
	return id
}

func TestWithinTransactionRollsBack(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	id := newMember(t, repos, "Anna")

	boom := errors.New("boom")
	err := repos.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := repos.Members.Increment(ctx, id, 20, 1); err != nil {
			return err
		}
		entry := &domain.LedgerEntry{MemberID: id, Points: 20, Reason: "Training", Timestamp: time.Now()}
		if _, err := repos.Ledger.Append(ctx, entry); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTransaction error = %v, want %v", err, boom)
	}

	m, err := repos.Members.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if m.Points != 0 || m.TrainingSessions != 0 {
		t.Errorf("after rollback points=%d sessions=%d, want 0 and 0", m.Points, m.TrainingSessions)
	}
	total, count, _ := repos.Ledger.SumByMember(ctx, id)
	if total != 0 || count != 0 {
		t.Errorf("ledger after rollback total=%d count=%d, want 0 and 0", total, count)
	}
}

func TestWithinTransactionNests(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	id := newMember(t, repos, "Ben")

	err := repos.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return repos.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := repos.Members.Increment(ctx, id, 5, 0)
			return err
		})
	})
	if err != nil {
		t.Fatalf("nested transaction: %v", err)
	}
	m, _ := repos.Members.GetByID(ctx, id)
	if m.Points != 5 {
		t.Errorf("points = %d, want 5", m.Points)
	}
}

func TestIncrementRejectsNegativeBalance(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	id := newMember(t, repos, "Cleo")

	if _, err := repos.Members.Increment(ctx, id, -1, 0); !errors.Is(err, repository.ErrNegativeBalance) {
		t.Errorf("Increment(-1) error = %v, want %v", err, repository.ErrNegativeBalance)
	}
	if _, err := repos.Members.Increment(ctx, primitive.NewObjectID(), 1, 0); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Increment(unknown) error = %v, want %v", err, repository.ErrNotFound)
	}
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	first := &domain.Member{Name: "Dana", Email: "dana@example.com", PasswordHash: "x", Role: domain.RoleMember}
	if _, err := repos.Members.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}
	dup := &domain.Member{Name: "Other", Email: "DANA@example.com", PasswordHash: "x", Role: domain.RoleMember}
	if _, err := repos.Members.Create(ctx, dup); !errors.Is(err, repository.ErrConflict) {
		t.Errorf("Create duplicate error = %v, want %v", err, repository.ErrConflict)
	}
}

func TestListByMemberPagesNewestFirst(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	id := newMember(t, repos, "Eli")

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		e := &domain.LedgerEntry{MemberID: id, Points: i + 1, Reason: "r", Timestamp: base.Add(time.Duration(i) * time.Minute)}
		if _, err := repos.Ledger.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	// Same timestamp as the newest entry, tie broken by id.
	tie := &domain.LedgerEntry{MemberID: id, Points: 6, Reason: "r", Timestamp: base.Add(4 * time.Minute)}
	if _, err := repos.Ledger.Append(ctx, tie); err != nil {
		t.Fatalf("Append: %v", err)
	}

	var got []int
	cursor := domain.LedgerCursor{}
	for {
		page, err := repos.Ledger.ListByMember(ctx, id, cursor, 4)
		if err != nil {
			t.Fatalf("ListByMember: %v", err)
		}
		if len(page) == 0 {
			break
		}
		for _, e := range page {
			got = append(got, e.Points)
		}
		cursor = domain.CursorAfter(page[len(page)-1])
	}

	want := []int{6, 5, 4, 3, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("paged %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestReplaceAttendeeDeduplicates(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	for _, s := range []domain.TrainingSession{
		{Date: "2024-03-01", Attendees: []primitive.ObjectID{a, b}},
		{Date: "2024-03-02", Attendees: []primitive.ObjectID{a, c}},
	} {
		s := s
		if err := repos.Sessions.Put(ctx, &s); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	if err := repos.Sessions.ReplaceAttendee(ctx, a, b); err != nil {
		t.Fatalf("ReplaceAttendee: %v", err)
	}

	s1, _ := repos.Sessions.Get(ctx, "2024-03-01")
	if len(s1.Attendees) != 1 || s1.Attendees[0] != b {
		t.Errorf("2024-03-01 attendees = %v, want [%v]", s1.Attendees, b)
	}
	s2, _ := repos.Sessions.Get(ctx, "2024-03-02")
	if !s2.Attends(b) || !s2.Attends(c) || s2.Attends(a) {
		t.Errorf("2024-03-02 attendees = %v, want b and c", s2.Attendees)
	}
}

func TestAddCompletionIsSetInsert(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	item := &domain.AwardableItem{Kind: domain.KindExercise, Description: "Plank 2 min", Points: 20}
	id, err := repos.Items.Create(ctx, item)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ref := domain.ItemRef{Kind: domain.KindExercise, ID: id}
	member := primitive.NewObjectID()

	added, err := repos.Items.AddCompletion(ctx, ref, member)
	if err != nil || !added {
		t.Fatalf("first AddCompletion = %v, %v; want true, nil", added, err)
	}
	added, err = repos.Items.AddCompletion(ctx, ref, member)
	if err != nil || added {
		t.Fatalf("second AddCompletion = %v, %v; want false, nil", added, err)
	}
	got, _ := repos.Items.Get(ctx, ref)
	if len(got.CompletedBy) != 1 {
		t.Errorf("CompletedBy = %v, want one member", got.CompletedBy)
	}
}
