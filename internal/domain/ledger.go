package domain

import (
	"strings"
	"time"

	"alcyxob/team-points/internal/apperr"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LedgerEntry is one immutable audit record of a point change.
// ActorID is primitive.NilObjectID when the change was made by the system.
type LedgerEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MemberID  primitive.ObjectID `bson:"memberId" json:"memberId"`
	Points    int                `bson:"points" json:"points"` // Signed delta
	Reason    string             `bson:"reason" json:"reason"`
	ActorID   primitive.ObjectID `bson:"actorId" json:"actorId"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// Validate enforces the storage-boundary schema for ledger entries.
func (e *LedgerEntry) Validate() error {
	if e.MemberID.IsZero() {
		return apperr.Invalid("ledger entry needs a member")
	}
	if strings.TrimSpace(e.Reason) == "" {
		return apperr.Invalid("ledger entry needs a reason")
	}
	if e.Timestamp.IsZero() {
		return apperr.Invalid("ledger entry needs a timestamp")
	}
	return nil
}

// LedgerCursor positions keyset pagination over a member's entries, newest first.
// The zero value starts at the newest entry.
type LedgerCursor struct {
	Timestamp time.Time
	ID        primitive.ObjectID
}

// IsZero reports whether the cursor points at the beginning of the history.
func (c LedgerCursor) IsZero() bool {
	return c.Timestamp.IsZero() && c.ID.IsZero()
}

// CursorAfter returns the cursor positioned just past e.
func CursorAfter(e LedgerEntry) LedgerCursor {
	return LedgerCursor{Timestamp: e.Timestamp, ID: e.ID}
}

// Audit compares a member's stored balance with the sum of their ledger.
type Audit struct {
	MemberID    primitive.ObjectID `json:"memberId"`
	Balance     int                `json:"balance"`
	LedgerTotal int                `json:"ledgerTotal"`
	Discrepancy int                `json:"discrepancy"` // Balance - LedgerTotal
	EntryCount  int                `json:"entryCount"`
	Consistent  bool               `json:"consistent"`
}
