package memory

import (
	"context"
	"sort"

	"alcyxob/team-points/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ledgerRepo struct {
	s *Store
}

func (r *ledgerRepo) Append(ctx context.Context, entry *domain.LedgerEntry) (primitive.ObjectID, error) {
	if err := entry.Validate(); err != nil {
		return primitive.NilObjectID, err
	}
	defer r.s.lock(ctx)()

	entry.ID = primitive.NewObjectID()
	r.s.data.ledger = append(r.s.data.ledger, *entry)
	return entry.ID, nil
}

// newerFirst orders entries by timestamp, then id, both descending.
func newerFirst(a, b domain.LedgerEntry) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return compareIDs(a.ID, b.ID) > 0
}

func (r *ledgerRepo) ListByMember(ctx context.Context, memberID primitive.ObjectID, cursor domain.LedgerCursor, limit int) ([]domain.LedgerEntry, error) {
	defer r.s.lock(ctx)()

	var entries []domain.LedgerEntry
	for _, e := range r.s.data.ledger {
		if e.MemberID != memberID {
			continue
		}
		if !cursor.IsZero() && !newerFirst(domain.LedgerEntry{Timestamp: cursor.Timestamp, ID: cursor.ID}, e) {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return newerFirst(entries[i], entries[j]) })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *ledgerRepo) SumByMember(ctx context.Context, memberID primitive.ObjectID) (int, int, error) {
	defer r.s.lock(ctx)()
	total, count := 0, 0
	for _, e := range r.s.data.ledger {
		if e.MemberID == memberID {
			total += e.Points
			count++
		}
	}
	return total, count, nil
}

func (r *ledgerRepo) ReassignMember(ctx context.Context, from, to primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	for i := range r.s.data.ledger {
		if r.s.data.ledger[i].MemberID == from {
			r.s.data.ledger[i].MemberID = to
		}
	}
	return nil
}
