package service

import (
	"context"

	"alcyxob/team-points/internal/apperr"
	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/repository"
)

type LeaderboardService interface {
	// Standings ranks the roster by points, highest first.
	Standings(ctx context.Context) ([]domain.Standing, error)
}

type leaderboardService struct {
	members repository.MemberRepository
	cache   StandingsCache
}

func NewLeaderboardService(members repository.MemberRepository, cache StandingsCache) LeaderboardService {
	if cache == nil {
		cache = NoopCache()
	}
	return &leaderboardService{members: members, cache: cache}
}

func (s *leaderboardService) Standings(ctx context.Context) ([]domain.Standing, error) {
	if cached, ok := s.cache.Get(ctx); ok {
		return cached, nil
	}

	members, err := s.members.ListByPoints(ctx)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	standings := make([]domain.Standing, 0, len(members))
	for i, m := range members {
		standings = append(standings, domain.Standing{
			Rank:             i + 1,
			MemberID:         m.ID,
			Name:             m.DisplayName(),
			Points:           m.Points,
			TrainingSessions: m.TrainingSessions,
		})
	}

	s.cache.Set(ctx, standings)
	return standings, nil
}
