package domain

import (
	"time"

	"alcyxob/team-points/internal/apperr"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DateLayout is the key format of training sessions.
const DateLayout = "2006-01-02"

// TrainingSession records who attended training on one calendar date.
// The date string is the record key, so there is at most one session per date.
type TrainingSession struct {
	Date      string               `bson:"_id" json:"date"`
	Attendees []primitive.ObjectID `bson:"attendees" json:"attendees"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// ParseSessionDate validates a YYYY-MM-DD key and returns it as a UTC midnight.
func ParseSessionDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, apperr.InvalidDate.Wrap(err)
	}
	return t, nil
}

// Attends reports whether memberID is in the attendee set.
func (s *TrainingSession) Attends(memberID primitive.ObjectID) bool {
	for _, id := range s.Attendees {
		if id == memberID {
			return true
		}
	}
	return false
}

// AttendeeSet returns the attendees as a set.
func (s *TrainingSession) AttendeeSet() map[primitive.ObjectID]struct{} {
	set := make(map[primitive.ObjectID]struct{}, len(s.Attendees))
	for _, id := range s.Attendees {
		set[id] = struct{}{}
	}
	return set
}

// Validate enforces the storage-boundary schema for sessions.
func (s *TrainingSession) Validate() error {
	if _, err := ParseSessionDate(s.Date); err != nil {
		return err
	}
	seen := make(map[primitive.ObjectID]struct{}, len(s.Attendees))
	for _, id := range s.Attendees {
		if id.IsZero() {
			return apperr.Invalid("attendee id cannot be empty")
		}
		if _, dup := seen[id]; dup {
			return apperr.Invalid("attendee listed twice")
		}
		seen[id] = struct{}{}
	}
	return nil
}
