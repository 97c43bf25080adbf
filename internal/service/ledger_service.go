package service

import (
	"context"
	"iter"
	"strings"
	"time"

	"alcyxob/team-points/internal/apperr"
	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const defaultHistoryPageSize = 50

// Change is one mutation of a member's counters. Unrecorded changes move the
// counters without writing a ledger entry.
type Change struct {
	MemberID   primitive.ObjectID
	Points     int
	Sessions   int
	Reason     string
	ActorID    primitive.ObjectID
	Unrecorded bool
}

type LedgerService interface {
	// ApplyDelta adds delta to the member's balance and appends one ledger entry.
	ApplyDelta(ctx context.Context, memberID primitive.ObjectID, delta int, reason string, actorID primitive.ObjectID) (*domain.LedgerEntry, error)
	// Apply performs a Change. The returned entry is nil for unrecorded changes.
	Apply(ctx context.Context, change Change) (*domain.LedgerEntry, error)
	// History yields the member's entries newest first; limit <= 0 means all of them.
	History(ctx context.Context, memberID primitive.ObjectID, limit int) iter.Seq2[domain.LedgerEntry, error]
	Audit(ctx context.Context, memberID primitive.ObjectID) (*domain.Audit, error)
}

type ledgerService struct {
	store    repository.Store
	cache    StandingsCache
	pageSize int
	now      func() time.Time
	logger   *zap.Logger
}

// NewLedgerService creates the ledger over store.
func NewLedgerService(store repository.Store, cache StandingsCache, pageSize int, logger *zap.Logger) LedgerService {
	if pageSize <= 0 {
		pageSize = defaultHistoryPageSize
	}
	if cache == nil {
		cache = NoopCache()
	}
	return &ledgerService{
		store:    store,
		cache:    cache,
		pageSize: pageSize,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

func (s *ledgerService) ApplyDelta(ctx context.Context, memberID primitive.ObjectID, delta int, reason string, actorID primitive.ObjectID) (*domain.LedgerEntry, error) {
	return s.Apply(ctx, Change{MemberID: memberID, Points: delta, Reason: reason, ActorID: actorID})
}

func (s *ledgerService) Apply(ctx context.Context, change Change) (*domain.LedgerEntry, error) {
	change.Reason = strings.TrimSpace(change.Reason)
	if !change.Unrecorded && change.Reason == "" {
		return nil, apperr.Invalid("a reason is required")
	}

	var entry *domain.LedgerEntry
	err := s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.store.Members.Increment(ctx, change.MemberID, change.Points, change.Sessions); err != nil {
			return memberErr(err)
		}
		if change.Unrecorded {
			return nil
		}

		entry = &domain.LedgerEntry{
			MemberID:  change.MemberID,
			Points:    change.Points,
			Reason:    change.Reason,
			ActorID:   change.ActorID,
			Timestamp: s.now(),
		}
		if _, err := s.store.Ledger.Append(ctx, entry); err != nil {
			return apperr.Storage(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	s.logger.Debug("ledger change applied",
		zap.String("member", change.MemberID.Hex()),
		zap.Int("points", change.Points),
		zap.Int("sessions", change.Sessions),
		zap.Bool("recorded", !change.Unrecorded),
	)
	return entry, nil
}

// History pages through storage lazily. Each iteration starts again from the
// newest entry, so the sequence can be ranged over more than once.
func (s *ledgerService) History(ctx context.Context, memberID primitive.ObjectID, limit int) iter.Seq2[domain.LedgerEntry, error] {
	return func(yield func(domain.LedgerEntry, error) bool) {
		var cursor domain.LedgerCursor
		remaining := limit
		for {
			size := s.pageSize
			if limit > 0 && remaining < size {
				size = remaining
			}

			page, err := s.store.Ledger.ListByMember(ctx, memberID, cursor, size)
			if err != nil {
				yield(domain.LedgerEntry{}, apperr.Storage(err))
				return
			}
			for _, e := range page {
				if !yield(e, nil) {
					return
				}
			}

			if limit > 0 {
				remaining -= len(page)
				if remaining <= 0 {
					return
				}
			}
			if len(page) < size {
				return
			}
			cursor = domain.CursorAfter(page[len(page)-1])
		}
	}
}

// Audit compares the stored balance with the sum of the member's ledger.
func (s *ledgerService) Audit(ctx context.Context, memberID primitive.ObjectID) (*domain.Audit, error) {
	member, err := s.store.Members.GetByID(ctx, memberID)
	if err != nil {
		return nil, memberErr(err)
	}
	total, count, err := s.store.Ledger.SumByMember(ctx, memberID)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	audit := &domain.Audit{
		MemberID:    memberID,
		Balance:     member.Points,
		LedgerTotal: total,
		Discrepancy: member.Points - total,
		EntryCount:  count,
	}
	audit.Consistent = audit.Discrepancy == 0
	if !audit.Consistent {
		s.logger.Warn("ledger discrepancy",
			zap.String("member", memberID.Hex()),
			zap.Int("balance", member.Points),
			zap.Int("ledgerTotal", total),
		)
	}
	return audit, nil
}

// collect drains a history sequence into a slice.
func collect(seq iter.Seq2[domain.LedgerEntry, error]) ([]domain.LedgerEntry, error) {
	entries := []domain.LedgerEntry{}
	for e, err := range seq {
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
