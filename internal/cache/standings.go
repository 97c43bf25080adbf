// Package cache keeps derived read models in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"alcyxob/team-points/internal/config"
	"alcyxob/team-points/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StandingsKey is the Redis key holding the serialized leaderboard.
const StandingsKey = "leaderboard:standings"

const defaultTTL = 30 * time.Second

// NewRedisClient connects to Redis and pings it once.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Standings caches the computed leaderboard. Cache failures are logged and
// reported as misses.
type Standings struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewStandings wraps client. A non-positive ttl uses the default.
func NewStandings(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Standings {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Standings{client: client, ttl: ttl, logger: logger}
}

func (s *Standings) Get(ctx context.Context) ([]domain.Standing, bool) {
	b, err := s.client.Get(ctx, StandingsKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("standings cache get failed", zap.Error(err))
		}
		return nil, false
	}

	var standings []domain.Standing
	if err := json.Unmarshal(b, &standings); err != nil {
		s.logger.Warn("standings cache entry is corrupt", zap.Error(err))
		return nil, false
	}
	return standings, true
}

func (s *Standings) Set(ctx context.Context, standings []domain.Standing) {
	b, err := json.Marshal(standings)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, StandingsKey, b, s.ttl).Err(); err != nil {
		s.logger.Warn("standings cache set failed", zap.Error(err))
	}
}

func (s *Standings) Invalidate(ctx context.Context) {
	if err := s.client.Del(ctx, StandingsKey).Err(); err != nil {
		s.logger.Warn("standings cache invalidate failed", zap.Error(err))
	}
}
