package streak

import (
	"math/rand"
	"testing"

	"alcyxob/team-points/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func session(date string, attendees ...primitive.ObjectID) domain.TrainingSession {
	return domain.TrainingSession{Date: date, Attendees: attendees}
}

func TestLongestEmpty(t *testing.T) {
	if got := Longest(nil, primitive.NewObjectID()); got != 0 {
		t.Errorf("Longest(nil) = %d, want 0", got)
	}
}

func TestLongest(t *testing.T) {
	m := primitive.NewObjectID()
	other := primitive.NewObjectID()

	tests := []struct {
		name     string
		sessions []domain.TrainingSession
		want     int
	}{
		{
			name: "missing day in dataset breaks run",
			sessions: []domain.TrainingSession{
				session("2024-01-01", m), session("2024-01-02", m),
				session("2024-01-04", m), session("2024-01-05", m),
			},
			want: 2,
		},
		{
			name: "explicit absence breaks run",
			sessions: []domain.TrainingSession{
				session("2024-01-01", m), session("2024-01-02", m), session("2024-01-03", other),
				session("2024-01-04", m), session("2024-01-05", m), session("2024-01-06", m),
			},
			want: 3,
		},
		{
			name: "unbroken week",
			sessions: []domain.TrainingSession{
				session("2024-02-26", m), session("2024-02-27", m), session("2024-02-28", m),
				session("2024-02-29", m), session("2024-03-01", m), session("2024-03-02", m), session("2024-03-03", m),
			},
			want: 7,
		},
		{
			name:     "never attended",
			sessions: []domain.TrainingSession{session("2024-01-01", other), session("2024-01-02")},
			want:     0,
		},
		{
			name: "weekly training is never consecutive",
			sessions: []domain.TrainingSession{
				session("2024-01-01", m), session("2024-01-08", m), session("2024-01-15", m),
			},
			want: 1,
		},
		{
			name: "bad dates ignored",
			sessions: []domain.TrainingSession{
				session("2024-01-01", m), session("garbage", m), session("2024-01-02", m),
			},
			want: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Longest(tt.sessions, m); got != tt.want {
				t.Errorf("Longest = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLongestOrderIndependent(t *testing.T) {
	m := primitive.NewObjectID()
	sessions := []domain.TrainingSession{
		session("2024-01-01", m), session("2024-01-02", m), session("2024-01-03", m),
		session("2024-01-04"), session("2024-01-05", m), session("2024-01-06", m),
	}
	want := Longest(sessions, m)
	if want != 3 {
		t.Fatalf("Longest = %d, want 3", want)
	}

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]domain.TrainingSession(nil), sessions...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := Longest(shuffled, m); got != want {
			t.Fatalf("shuffled Longest = %d, want %d", got, want)
		}
	}
}
