package domain

import (
	"strings"
	"time"

	"alcyxob/team-points/internal/apperr"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ItemKind distinguishes the kinds of awardable items.
type ItemKind string

const (
	KindExercise         ItemKind = "exercise"
	KindDailyChallenge   ItemKind = "daily"
	KindWeeklyChallenge  ItemKind = "weekly"
	KindMonthlyChallenge ItemKind = "monthly"
)

// Valid reports whether k is a known item kind.
func (k ItemKind) Valid() bool {
	switch k {
	case KindExercise, KindDailyChallenge, KindWeeklyChallenge, KindMonthlyChallenge:
		return true
	}
	return false
}

// Periodic reports whether items of this kind are keyed by a period key.
func (k ItemKind) Periodic() bool {
	return k == KindWeeklyChallenge || k == KindMonthlyChallenge
}

// ItemRef addresses one awardable item.
type ItemRef struct {
	Kind ItemKind `json:"kind"`
	ID   string   `json:"id"`
}

// AwardableItem is an exercise or a daily/weekly/monthly challenge.
// Weekly and monthly challenges use their period key as ID; the others use a generated hex id.
type AwardableItem struct {
	ID          string               `bson:"_id" json:"id"`
	Kind        ItemKind             `bson:"kind" json:"kind"`
	Title       string               `bson:"title,omitempty" json:"title,omitempty"`
	Description string               `bson:"description" json:"description"`
	Points      int                  `bson:"points" json:"points"`
	ImageKey    string               `bson:"imageKey,omitempty" json:"-"`               // Object key in the media bucket (exercises)
	ImageURL    string               `bson:"-" json:"imageUrl,omitempty"`               // Presigned, filled on read
	EndDate     *time.Time           `bson:"endDate,omitempty" json:"endDate,omitempty"` // Weekly/monthly only
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	CompletedBy []primitive.ObjectID `bson:"completedBy" json:"completedBy"`
}

// Ref returns the reference addressing this item.
func (i *AwardableItem) Ref() ItemRef {
	return ItemRef{Kind: i.Kind, ID: i.ID}
}

// AwardReason is the ledger reason used when the item is awarded.
func (i *AwardableItem) AwardReason() string {
	if t := strings.TrimSpace(i.Title); t != "" {
		return t
	}
	return strings.TrimSpace(i.Description)
}

// CompletedByMember reports whether memberID is already in the completion set.
func (i *AwardableItem) CompletedByMember(memberID primitive.ObjectID) bool {
	for _, id := range i.CompletedBy {
		if id == memberID {
			return true
		}
	}
	return false
}

// Validate enforces the storage-boundary schema for awardable items.
func (i *AwardableItem) Validate() error {
	if !i.Kind.Valid() {
		return apperr.Invalid("unknown item kind")
	}
	if i.ID == "" {
		return apperr.Invalid("item id is required")
	}
	if i.AwardReason() == "" {
		return apperr.Invalid("item needs a title or description")
	}
	if i.Kind != KindExercise && strings.TrimSpace(i.Title) == "" {
		return apperr.Invalid("challenge title is required")
	}
	if i.Kind.Periodic() && i.EndDate == nil {
		return apperr.Invalid("weekly and monthly challenges need an end date")
	}
	if i.CreatedAt.IsZero() {
		return apperr.Invalid("item needs a creation time")
	}
	seen := make(map[primitive.ObjectID]struct{}, len(i.CompletedBy))
	for _, id := range i.CompletedBy {
		if _, dup := seen[id]; dup {
			return apperr.Invalid("member listed twice in completion set")
		}
		seen[id] = struct{}{}
	}
	return nil
}
