package memory

import (
	"context"
	"sort"
	"time"

	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type sessionRepo struct {
	s *Store
}

func (r *sessionRepo) Get(ctx context.Context, date string) (*domain.TrainingSession, error) {
	defer r.s.lock(ctx)()
	sess, ok := r.s.data.sessions[date]
	if !ok {
		return nil, repository.ErrNotFound
	}
	sess = copySession(sess)
	return &sess, nil
}

func (r *sessionRepo) Put(ctx context.Context, session *domain.TrainingSession) error {
	if err := session.Validate(); err != nil {
		return err
	}
	defer r.s.lock(ctx)()
	session.UpdatedAt = time.Now().UTC()
	r.s.data.sessions[session.Date] = copySession(*session)
	return nil
}

func (r *sessionRepo) ListAll(ctx context.Context) ([]domain.TrainingSession, error) {
	defer r.s.lock(ctx)()
	sessions := make([]domain.TrainingSession, 0, len(r.s.data.sessions))
	for _, sess := range r.s.data.sessions {
		sessions = append(sessions, copySession(sess))
	}
	// YYYY-MM-DD keys sort chronologically as strings.
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Date < sessions[j].Date })
	return sessions, nil
}

func (r *sessionRepo) ReplaceAttendee(ctx context.Context, from, to primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	for date, sess := range r.s.data.sessions {
		if !sess.Attends(from) {
			continue
		}
		kept := make([]primitive.ObjectID, 0, len(sess.Attendees))
		hasTo := sess.Attends(to)
		for _, id := range sess.Attendees {
			switch {
			case id == from && !hasTo:
				kept = append(kept, to)
			case id == from:
			default:
				kept = append(kept, id)
			}
		}
		sess.Attendees = kept
		r.s.data.sessions[date] = sess
	}
	return nil
}
