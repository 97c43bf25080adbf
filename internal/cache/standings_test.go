package cache

import (
	"context"
	"testing"
	"time"

	"alcyxob/team-points/internal/config"
	"alcyxob/team-points/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestStandings(t *testing.T, ttl time.Duration) (*Standings, *miniredis.Miniredis, *observer.ObservedLogs) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	core, logs := observer.New(zapcore.WarnLevel)
	return NewStandings(client, ttl, zap.New(core)), mr, logs
}

func sampleStandings() []domain.Standing {
	return []domain.Standing{
		{Rank: 1, MemberID: primitive.NewObjectID(), Name: "Anna", Points: 120, TrainingSessions: 9},
		{Rank: 2, MemberID: primitive.NewObjectID(), Name: "Ben", Points: 40, TrainingSessions: 3},
	}
}

func TestNewRedisClientFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisClient(context.Background(), config.RedisConfig{Addr: addr}); err == nil {
		t.Fatal("NewRedisClient succeeded against a stopped server")
	}
}

func TestStandingsMissWhenEmpty(t *testing.T) {
	s, _, logs := newTestStandings(t, time.Minute)

	if got, ok := s.Get(context.Background()); ok || got != nil {
		t.Errorf("Get() = %v, %v, want miss", got, ok)
	}
	if n := logs.Len(); n != 0 {
		t.Errorf("a plain miss logged %d warnings, want 0", n)
	}
}

func TestStandingsSetGetInvalidate(t *testing.T) {
	ctx := context.Background()
	s, mr, _ := newTestStandings(t, time.Minute)
	want := sampleStandings()

	s.Set(ctx, want)
	if ttl := mr.TTL(StandingsKey); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}

	got, ok := s.Get(ctx)
	if !ok {
		t.Fatal("Get() missed after Set")
	}
	if len(got) != len(want) {
		t.Fatalf("Get() returned %d standings, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("standing[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	s.Invalidate(ctx)
	if mr.Exists(StandingsKey) {
		t.Error("key still present after Invalidate")
	}
	if _, ok := s.Get(ctx); ok {
		t.Error("Get() hit after Invalidate")
	}
}

func TestStandingsExpire(t *testing.T) {
	ctx := context.Background()
	s, mr, _ := newTestStandings(t, 0)

	s.Set(ctx, sampleStandings())
	if ttl := mr.TTL(StandingsKey); ttl != defaultTTL {
		t.Errorf("TTL = %v, want default %v", ttl, defaultTTL)
	}
	mr.FastForward(defaultTTL)
	if _, ok := s.Get(ctx); ok {
		t.Error("Get() hit after the entry expired")
	}
}

func TestStandingsCorruptEntryIsAMiss(t *testing.T) {
	s, mr, logs := newTestStandings(t, time.Minute)
	if err := mr.Set(StandingsKey, "{not json"); err != nil {
		t.Fatal(err)
	}

	if _, ok := s.Get(context.Background()); ok {
		t.Error("Get() hit on a corrupt entry")
	}
	if n := logs.FilterMessage("standings cache entry is corrupt").Len(); n != 1 {
		t.Errorf("corrupt entry logged %d times, want 1", n)
	}
}

func TestStandingsToleratesRedisOutage(t *testing.T) {
	ctx := context.Background()
	s, mr, logs := newTestStandings(t, time.Minute)
	mr.Close()

	s.Set(ctx, sampleStandings())
	if _, ok := s.Get(ctx); ok {
		t.Error("Get() hit while Redis is down")
	}
	s.Invalidate(ctx)

	for _, msg := range []string{
		"standings cache set failed",
		"standings cache get failed",
		"standings cache invalidate failed",
	} {
		if logs.FilterMessage(msg).Len() != 1 {
			t.Errorf("want one %q warning, got %v", msg, logs.All())
		}
	}
}

func TestStandingsUsesSharedKey(t *testing.T) {
	ctx := context.Background()
	s, mr, _ := newTestStandings(t, time.Minute)
	s.Set(ctx, sampleStandings())

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	other := NewStandings(client, time.Minute, zap.NewNop())
	if _, ok := other.Get(ctx); !ok {
		t.Error("a second instance missed the entry written by the first")
	}
}
