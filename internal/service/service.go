package service

import (
	"context"
	"errors"
	"time"

	"alcyxob/team-points/internal/apperr"
	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/repository"
)

// StandingsCache stores the computed leaderboard between ledger mutations.
type StandingsCache interface {
	Get(ctx context.Context) ([]domain.Standing, bool)
	Set(ctx context.Context, standings []domain.Standing)
	Invalidate(ctx context.Context)
}

type noopCache struct{}

func (noopCache) Get(context.Context) ([]domain.Standing, bool) { return nil, false }
func (noopCache) Set(context.Context, []domain.Standing)        {}
func (noopCache) Invalidate(context.Context)                    {}

// NoopCache is used when Redis is not configured.
func NoopCache() StandingsCache { return noopCache{} }

// memberErr maps repository errors about a member onto the taxonomy.
func memberErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperr.MemberNotFound
	case errors.Is(err, repository.ErrNegativeBalance):
		return apperr.InsufficientPoints
	case errors.Is(err, repository.ErrConflict):
		return apperr.EmailTaken
	}
	return apperr.Storage(err)
}

// itemErr maps repository errors about an awardable item onto the taxonomy.
func itemErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.ItemNotFound
	}
	return apperr.Storage(err)
}

// clock returns the current time in loc.
func clock(loc *time.Location) func() time.Time {
	if loc == nil {
		loc = time.Local
	}
	return func() time.Time { return time.Now().In(loc) }
}
