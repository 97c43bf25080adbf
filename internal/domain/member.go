package domain

import (
	"strings"
	"time"

	"alcyxob/team-points/internal/apperr"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between member roles
type Role string

const (
	RoleMember Role = "member"
	RoleCoach  Role = "coach"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleCoach
}

// Member represents one person on the team roster.
// Points and TrainingSessions only change through ledger-mediated increments.
type Member struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name             string             `bson:"name" json:"name"`
	FirstName        string             `bson:"firstName,omitempty" json:"firstName,omitempty"`
	LastName         string             `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Email            string             `bson:"email,omitempty" json:"email,omitempty"` // Unique when present
	PasswordHash     string             `bson:"passwordHash,omitempty" json:"-"`         // Never expose this via JSON
	Points           int                `bson:"points" json:"points"`
	TrainingSessions int                `bson:"trainingSessions" json:"trainingSessions"`
	Role             Role               `bson:"role" json:"role"`
	Badges           []string           `bson:"badges" json:"badges"`
	// IsOffline marks a roster placeholder created by a coach before the person has an account.
	IsOffline bool      `bson:"isOffline" json:"isOffline"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (m *Member) IsCoach() bool {
	return m.Role == RoleCoach
}

// DisplayName falls back to first/last name for records created without a combined name.
func (m *Member) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// Validate enforces the storage-boundary schema for member records.
func (m *Member) Validate() error {
	if strings.TrimSpace(m.DisplayName()) == "" {
		return apperr.Invalid("member name is required")
	}
	if !m.Role.Valid() {
		return apperr.Invalid("member role must be member or coach")
	}
	if m.Points < 0 {
		return apperr.InsufficientPoints
	}
	if m.TrainingSessions < 0 {
		return apperr.Invalid("training session count cannot be negative")
	}
	if !m.IsOffline && (m.Email == "" || m.PasswordHash == "") {
		return apperr.Invalid("online members need an email and password")
	}
	return nil
}
