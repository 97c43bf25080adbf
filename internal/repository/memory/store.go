// Package memory implements the repository contracts in process memory.
//
// It backs the "memory" database driver used for local development and the
// service and API tests. One mutex serializes every operation; a transaction
// holds it for its whole duration and restores a snapshot when fn fails, so
// readers never see half of a batch.
package memory

import (
	"bytes"
	"context"
	"sync"

	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type state struct {
	members  map[primitive.ObjectID]domain.Member
	ledger   []domain.LedgerEntry
	sessions map[string]domain.TrainingSession
	items    map[domain.ItemKind]map[string]domain.AwardableItem
}

func newState() *state {
	return &state{
		members:  make(map[primitive.ObjectID]domain.Member),
		sessions: make(map[string]domain.TrainingSession),
		items:    make(map[domain.ItemKind]map[string]domain.AwardableItem),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, m := range s.members {
		c.members[id] = copyMember(m)
	}
	c.ledger = append([]domain.LedgerEntry(nil), s.ledger...)
	for date, sess := range s.sessions {
		c.sessions[date] = copySession(sess)
	}
	for kind, byID := range s.items {
		c.items[kind] = make(map[string]domain.AwardableItem, len(byID))
		for id, it := range byID {
			c.items[kind][id] = copyItem(it)
		}
	}
	return c
}

// Store holds all collections of the in-memory backend.
type Store struct {
	mu   sync.Mutex
	data *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: newState()}
}

// Repositories returns the repository bundle backed by this store.
func (s *Store) Repositories() repository.Store {
	return repository.Store{
		Members:  &memberRepo{s: s},
		Ledger:   &ledgerRepo{s: s},
		Sessions: &sessionRepo{s: s},
		Items:    &itemRepo{s: s},
		Tx:       s,
	}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock acquires the store unless ctx already belongs to one of its transactions.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTransaction implements repository.Transactor.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func copyMember(m domain.Member) domain.Member {
	m.Badges = append([]string(nil), m.Badges...)
	return m
}

func copySession(sess domain.TrainingSession) domain.TrainingSession {
	sess.Attendees = append([]primitive.ObjectID(nil), sess.Attendees...)
	return sess
}

func copyItem(it domain.AwardableItem) domain.AwardableItem {
	it.CompletedBy = append([]primitive.ObjectID(nil), it.CompletedBy...)
	if it.EndDate != nil {
		end := *it.EndDate
		it.EndDate = &end
	}
	return it
}

func compareIDs(a, b primitive.ObjectID) int {
	return bytes.Compare(a[:], b[:])
}
