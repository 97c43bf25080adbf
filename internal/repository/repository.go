package repository

import (
	"alcyxob/team-points/internal/domain" // Import our defined domain models
	"context"                              // Standard for request-scoped deadlines, cancellation signals, etc.
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive" // For using ObjectIDs
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrConflict     = RepositoryError("conflict")
	ErrUpdateFailed = RepositoryError("update failed")
	// ErrNegativeBalance is returned when an increment would drive a counter below zero.
	ErrNegativeBalance = RepositoryError("negative balance")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Transactor runs fn so that every repository write made with the context it
// receives is committed together or not at all. Calls nest: an inner
// WithinTransaction joins the outer one.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// MemberRepository defines the interface for interacting with roster data.
type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Member, error)
	GetByEmail(ctx context.Context, email string) (*domain.Member, error)
	// List returns the full roster ordered by name.
	List(ctx context.Context) ([]domain.Member, error)
	// ListByPoints returns the roster ordered by points descending, then name.
	ListByPoints(ctx context.Context) ([]domain.Member, error)
	// Increment atomically adds the deltas to points and trainingSessions and returns the
	// updated record. ErrNegativeBalance if either counter would drop below zero.
	Increment(ctx context.Context, id primitive.ObjectID, pointsDelta, sessionsDelta int) (*domain.Member, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role domain.Role) error
	// Activate turns an offline placeholder into an account in place.
	// ErrNotFound if id is not an offline placeholder.
	Activate(ctx context.Context, id primitive.ObjectID, email, passwordHash string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// LedgerRepository defines the interface for the append-only point log.
type LedgerRepository interface {
	Append(ctx context.Context, entry *domain.LedgerEntry) (primitive.ObjectID, error)
	// ListByMember returns up to limit entries strictly after cursor, newest first.
	ListByMember(ctx context.Context, memberID primitive.ObjectID, cursor domain.LedgerCursor, limit int) ([]domain.LedgerEntry, error)
	// SumByMember returns the sum of deltas and the entry count for a member.
	SumByMember(ctx context.Context, memberID primitive.ObjectID) (total int, count int, err error)
	// ReassignMember moves every entry of from onto to. Used only when merging a placeholder.
	ReassignMember(ctx context.Context, from, to primitive.ObjectID) error
}

// SessionRepository defines the interface for training session records keyed by date.
type SessionRepository interface {
	Get(ctx context.Context, date string) (*domain.TrainingSession, error)
	// Put creates or overwrites the session for session.Date.
	Put(ctx context.Context, session *domain.TrainingSession) error
	// ListAll returns every session ordered by date ascending.
	ListAll(ctx context.Context) ([]domain.TrainingSession, error)
	ReplaceAttendee(ctx context.Context, from, to primitive.ObjectID) error
}

// ItemRepository defines the interface for exercises and challenges.
type ItemRepository interface {
	// Create inserts an exercise or daily challenge under a new generated id.
	Create(ctx context.Context, item *domain.AwardableItem) (string, error)
	// Upsert writes a weekly or monthly challenge under its period key, replacing any existing one.
	Upsert(ctx context.Context, item *domain.AwardableItem) error
	Get(ctx context.Context, ref domain.ItemRef) (*domain.AwardableItem, error)
	// ListByKind returns items of a kind, newest first.
	ListByKind(ctx context.Context, kind domain.ItemKind) ([]domain.AwardableItem, error)
	// ListCreatedSince returns items of a kind created at or after since, newest first.
	ListCreatedSince(ctx context.Context, kind domain.ItemKind, since time.Time) ([]domain.AwardableItem, error)
	// ListEndingAfter returns periodic items whose end date is at or after t, soonest first.
	ListEndingAfter(ctx context.Context, kind domain.ItemKind, t time.Time) ([]domain.AwardableItem, error)
	ListCompletedBy(ctx context.Context, memberID primitive.ObjectID) ([]domain.AwardableItem, error)
	// AddCompletion adds memberID to the completion set; added is false if it was already present.
	AddCompletion(ctx context.Context, ref domain.ItemRef, memberID primitive.ObjectID) (added bool, err error)
	ReplaceCompletion(ctx context.Context, from, to primitive.ObjectID) error
	Delete(ctx context.Context, ref domain.ItemRef) error
}

// Store bundles the repositories of one backend together with its transactor.
type Store struct {
	Members  MemberRepository
	Ledger   LedgerRepository
	Sessions SessionRepository
	Items    ItemRepository
	Tx       Transactor
}
