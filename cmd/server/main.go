package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/team-points/internal/api"
	"alcyxob/team-points/internal/cache"
	"alcyxob/team-points/internal/config"
	"alcyxob/team-points/internal/logger"
	"alcyxob/team-points/internal/repository"
	"alcyxob/team-points/internal/repository/memory"
	"alcyxob/team-points/internal/repository/mongo"
	"alcyxob/team-points/internal/service"
	"alcyxob/team-points/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title Team Points API
// @version 1.0
// @description Points ledger, attendance and challenges for a training team.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	appLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("FATAL: Could not build logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	if err := run(cfg, appLogger); err != nil {
		appLogger.Fatal("server stopped", zap.Error(err))
	}
	appLogger.Info("Server exiting.")
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	// --- Store ---
	store, closeStore, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// --- Object storage (optional) ---
	var fileStorage storage.FileStorage
	if cfg.S3.BucketName != "" {
		if fileStorage, err = storage.NewS3Storage(ctx, cfg.S3, logger); err != nil {
			return fmt.Errorf("init S3 storage: %w", err)
		}
	} else {
		logger.Warn("s3.bucket_name not set, exercise images disabled")
	}

	// --- Leaderboard cache (optional) ---
	var standingsCache service.StandingsCache = service.NoopCache()
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			// The leaderboard works without the cache.
			logger.Warn("redis unavailable, leaderboard cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			defer client.Close()
			standingsCache = cache.NewStandings(client, cfg.Redis.TTL, logger)
			logger.Info("leaderboard cache enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// --- Services ---
	loc, err := cfg.Points.Location()
	if err != nil {
		return err
	}
	authService, err := service.NewAuthService(store.Members, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.Auth.BootstrapCoachEmail, logger)
	if err != nil {
		return err
	}
	ledgerService := service.NewLedgerService(store, standingsCache, cfg.Points.HistoryPageSize, logger)
	services := api.Services{
		Auth:   authService,
		Ledger: ledgerService,
		Awards: service.NewAwardService(store, ledgerService, standingsCache, cfg.Points.AllowRepeatAwards, logger),
		Attendance: service.NewAttendanceService(store, ledgerService, standingsCache, service.AttendancePolicy{
			TrainingPoints:   cfg.Points.TrainingPoints,
			NarrateReversals: cfg.Points.NarrateAttendanceReversals,
		}, logger),
		Roster:      service.NewRosterService(store, standingsCache, cfg.Server.PublicURL, logger),
		Challenges:  service.NewChallengeService(store.Items, loc, logger),
		Exercises:   service.NewExerciseService(store.Items, fileStorage, logger),
		Profiles:    service.NewProfileService(store, ledgerService, cfg.Points.ProfileHistory, cfg.Points.TournamentKeywords, logger),
		Leaderboard: service.NewLeaderboardService(store.Members, standingsCache),
	}

	// --- HTTP server ---
	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewRouter(cfg.Server, services, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}
	logger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	return server.Shutdown(ctxShutdown)
}

// openStore connects the configured backend and returns a function releasing it.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (repository.Store, func(), error) {
	switch cfg.Driver {
	case "memory":
		logger.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore().Repositories(), func() {}, nil
	case "mongo", "":
		client, err := mongo.ConnectDB(cfg.URI)
		if err != nil {
			return repository.Store{}, nil, fmt.Errorf("connect MongoDB: %w", err)
		}
		db := client.Database(cfg.Name)

		indexCtx, cancel := context.WithTimeout(ctx, time.Minute)
		mongo.EnsureIndexes(indexCtx, db, logger)
		cancel()

		closeFn := func() {
			if err := mongo.DisconnectDB(client); err != nil {
				logger.Error("failed to disconnect MongoDB", zap.Error(err))
			}
		}
		logger.Info("database connection established", zap.String("database", cfg.Name))
		return mongo.NewStore(client, db), closeFn, nil
	default:
		return repository.Store{}, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
