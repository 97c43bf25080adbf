// Package streak computes attendance streaks from training session records.
package streak

import (
	"sort"
	"time"

	"alcyxob/team-points/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type datedSession struct {
	day      time.Time
	attended bool
}

// Longest returns the longest run of consecutive calendar days memberID attended.
//
// Sessions are sorted by date first, so the result does not depend on input order.
// A session the member did not attend breaks the run, and so does a gap of more
// than one day between attended sessions. Sessions with unparseable dates are ignored.
func Longest(sessions []domain.TrainingSession, memberID primitive.ObjectID) int {
	dated := make([]datedSession, 0, len(sessions))
	for i := range sessions {
		day, err := domain.ParseSessionDate(sessions[i].Date)
		if err != nil {
			continue
		}
		dated = append(dated, datedSession{day: day, attended: sessions[i].Attends(memberID)})
	}
	sort.SliceStable(dated, func(i, j int) bool { return dated[i].day.Before(dated[j].day) })

	longest, current := 0, 0
	var last *time.Time

	for i := range dated {
		s := dated[i]
		if !s.attended {
			longest = max(longest, current)
			current = 0
			last = nil
			continue
		}

		if last == nil {
			current = 1
		} else {
			switch gap := daysBetween(*last, s.day); {
			case gap == 1:
				current++
			case gap > 1:
				longest = max(longest, current)
				current = 1
			}
			// gap == 0: same date listed twice, nothing changes.
		}
		last = &dated[i].day
	}
	return max(longest, current)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
