package service

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/team-points/internal/apperr"
	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const defaultTrainingPoints = 10

// AttendancePolicy configures how attendance translates into points.
type AttendancePolicy struct {
	TrainingPoints int
	// NarrateReversals writes a negative ledger entry for members who lose attendance.
	NarrateReversals bool
}

// ReconcileResult lists the members whose attendance flipped.
type ReconcileResult struct {
	Date    string               `json:"date"`
	Joined  []primitive.ObjectID `json:"joined"`
	Left    []primitive.ObjectID `json:"left"`
	Entries int                  `json:"entries"` // Ledger entries written
}

type AttendanceService interface {
	// Reconcile stores attendees as the session for date and applies the point and
	// session deltas of every member whose attendance flipped, all in one transaction.
	Reconcile(ctx context.Context, date string, attendees []primitive.ObjectID, actorID primitive.ObjectID) (*ReconcileResult, error)
	// Session returns the recorded session for date, empty if none was recorded.
	Session(ctx context.Context, date string) (*domain.TrainingSession, error)
}

type attendanceService struct {
	store  repository.Store
	ledger LedgerService
	cache  StandingsCache
	policy AttendancePolicy
	logger *zap.Logger
}

// NewAttendanceService creates the attendance reconciler.
func NewAttendanceService(store repository.Store, ledger LedgerService, cache StandingsCache, policy AttendancePolicy, logger *zap.Logger) AttendanceService {
	if policy.TrainingPoints <= 0 {
		policy.TrainingPoints = defaultTrainingPoints
	}
	if cache == nil {
		cache = NoopCache()
	}
	return &attendanceService{
		store:  store,
		ledger: ledger,
		cache:  cache,
		policy: policy,
		logger: logger,
	}
}

func trainingReason(date string) string {
	return fmt.Sprintf("Training on %s", date)
}

func (s *attendanceService) Reconcile(ctx context.Context, date string, attendees []primitive.ObjectID, actorID primitive.ObjectID) (*ReconcileResult, error) {
	if _, err := domain.ParseSessionDate(date); err != nil {
		return nil, err
	}

	// Collapse duplicates, keeping first-seen order.
	next := make(map[primitive.ObjectID]struct{}, len(attendees))
	unique := make([]primitive.ObjectID, 0, len(attendees))
	for _, id := range attendees {
		if id.IsZero() {
			return nil, apperr.Invalid("attendee id cannot be empty")
		}
		if _, dup := next[id]; dup {
			continue
		}
		next[id] = struct{}{}
		unique = append(unique, id)
	}

	var result *ReconcileResult
	err := s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// The transaction body may run more than once.
		result = &ReconcileResult{Date: date, Joined: []primitive.ObjectID{}, Left: []primitive.ObjectID{}}

		prev, err := s.previous(ctx, date)
		if err != nil {
			return err
		}
		roster, err := s.store.Members.List(ctx)
		if err != nil {
			return apperr.Storage(err)
		}

		onRoster := make(map[primitive.ObjectID]struct{}, len(roster))
		for _, m := range roster {
			onRoster[m.ID] = struct{}{}
		}
		for _, id := range unique {
			if _, ok := onRoster[id]; !ok {
				return apperr.MemberNotFound.WithMessage(fmt.Sprintf("attendee %s is not on the roster", id.Hex()))
			}
		}

		for _, m := range roster {
			_, was := prev[m.ID]
			_, is := next[m.ID]
			if was == is {
				continue
			}

			change := Change{MemberID: m.ID, ActorID: actorID}
			if is {
				change.Points, change.Sessions = s.policy.TrainingPoints, 1
				change.Reason = trainingReason(date)
				result.Joined = append(result.Joined, m.ID)
			} else {
				change.Points, change.Sessions = reversal(m, s.policy.TrainingPoints)
				change.Reason = trainingReason(date) + " revoked"
				change.Unrecorded = !s.policy.NarrateReversals
				result.Left = append(result.Left, m.ID)
				if change.Points > -s.policy.TrainingPoints {
					s.logger.Warn("attendance reversal clamped at zero",
						zap.String("member", m.ID.Hex()),
						zap.String("date", date),
						zap.Int("points", change.Points),
					)
				}
			}

			if _, err := s.ledger.Apply(ctx, change); err != nil {
				return err
			}
			if !change.Unrecorded {
				result.Entries++
			}
		}

		session := &domain.TrainingSession{Date: date, Attendees: unique}
		if err := s.store.Sessions.Put(ctx, session); err != nil {
			return apperr.Storage(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("attendance reconciled",
		zap.String("date", date),
		zap.Int("joined", len(result.Joined)),
		zap.Int("left", len(result.Left)),
		zap.String("actor", actorID.Hex()),
	)
	return result, nil
}

// reversal returns the deltas that undo one attendance, clamped so that neither
// counter drops below zero when points were spent after the session.
func reversal(m domain.Member, trainingPoints int) (points, sessions int) {
	points = -min(trainingPoints, max(m.Points, 0))
	if m.TrainingSessions > 0 {
		sessions = -1
	}
	return points, sessions
}

func (s *attendanceService) previous(ctx context.Context, date string) (map[primitive.ObjectID]struct{}, error) {
	session, err := s.store.Sessions.Get(ctx, date)
	if errors.Is(err, repository.ErrNotFound) {
		return map[primitive.ObjectID]struct{}{}, nil
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return session.AttendeeSet(), nil
}

func (s *attendanceService) Session(ctx context.Context, date string) (*domain.TrainingSession, error) {
	if _, err := domain.ParseSessionDate(date); err != nil {
		return nil, err
	}
	session, err := s.store.Sessions.Get(ctx, date)
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.TrainingSession{Date: date, Attendees: []primitive.ObjectID{}}, nil
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return session, nil
}
