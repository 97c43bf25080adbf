package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"alcyxob/team-points/internal/apperr"
	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/period"
	"alcyxob/team-points/internal/repository"

	"go.uber.org/zap"
)

// ActiveChallenges holds the challenges currently open, nil where none was set.
type ActiveChallenges struct {
	Daily   *domain.AwardableItem `json:"daily"`
	Weekly  *domain.AwardableItem `json:"weekly"`
	Monthly *domain.AwardableItem `json:"monthly"`
}

type ChallengeService interface {
	// CreateChallenge sets today's, this week's or this month's challenge. Weekly and
	// monthly challenges are stored under their period key, so creating one twice
	// in the same period replaces the first.
	CreateChallenge(ctx context.Context, kind domain.ItemKind, title, description string, points int) (*domain.AwardableItem, error)
	ActiveChallenges(ctx context.Context) (*ActiveChallenges, error)
	// AwardableItems lists what a coach may award right now: every exercise and the active challenges.
	AwardableItems(ctx context.Context) ([]domain.AwardableItem, error)
}

type challengeService struct {
	items  repository.ItemRepository
	now    func() time.Time
	logger *zap.Logger
}

// NewChallengeService creates the challenge service. Periods are resolved in loc.
func NewChallengeService(items repository.ItemRepository, loc *time.Location, logger *zap.Logger) ChallengeService {
	return &challengeService{
		items:  items,
		now:    clock(loc),
		logger: logger,
	}
}

func (s *challengeService) CreateChallenge(ctx context.Context, kind domain.ItemKind, title, description string, points int) (*domain.AwardableItem, error) {
	if points <= 0 {
		return nil, apperr.InvalidAmount.WithMessage("challenge points must be positive")
	}
	now := s.now()
	item := &domain.AwardableItem{
		Kind:        kind,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Points:      points,
		CreatedAt:   now,
	}

	var err error
	switch kind {
	case domain.KindDailyChallenge:
		_, err = s.items.Create(ctx, item)
	case domain.KindWeeklyChallenge:
		item.ID = period.WeeklyKey(now)
		end := period.EndOfWeek(now)
		item.EndDate = &end
		err = s.items.Upsert(ctx, item)
	case domain.KindMonthlyChallenge:
		item.ID = period.MonthlyKey(now)
		end := period.EndOfMonth(now)
		item.EndDate = &end
		err = s.items.Upsert(ctx, item)
	default:
		return nil, apperr.Invalid("challenge kind must be daily, weekly or monthly")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}

	s.logger.Info("challenge set", zap.String("kind", string(kind)), zap.String("id", item.ID))
	return item, nil
}

func (s *challengeService) ActiveChallenges(ctx context.Context) (*ActiveChallenges, error) {
	now := s.now()
	active := &ActiveChallenges{}

	daily, err := s.items.ListCreatedSince(ctx, domain.KindDailyChallenge, period.StartOfDay(now))
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if len(daily) > 0 {
		active.Daily = &daily[0]
	}

	if active.Weekly, err = s.current(ctx, domain.ItemRef{Kind: domain.KindWeeklyChallenge, ID: period.WeeklyKey(now)}, now); err != nil {
		return nil, err
	}
	if active.Monthly, err = s.current(ctx, domain.ItemRef{Kind: domain.KindMonthlyChallenge, ID: period.MonthlyKey(now)}, now); err != nil {
		return nil, err
	}
	return active, nil
}

// current loads the periodic challenge at ref if it has not ended yet.
func (s *challengeService) current(ctx context.Context, ref domain.ItemRef, now time.Time) (*domain.AwardableItem, error) {
	item, err := s.items.Get(ctx, ref)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if item.EndDate != nil && item.EndDate.Before(now) {
		return nil, nil
	}
	return item, nil
}

func (s *challengeService) AwardableItems(ctx context.Context) ([]domain.AwardableItem, error) {
	exercises, err := s.items.ListByKind(ctx, domain.KindExercise)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	active, err := s.ActiveChallenges(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]domain.AwardableItem, 0, len(exercises)+3)
	for _, c := range []*domain.AwardableItem{active.Daily, active.Weekly, active.Monthly} {
		if c != nil {
			items = append(items, *c)
		}
	}
	return append(items, exercises...), nil
}
