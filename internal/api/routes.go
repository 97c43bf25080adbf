package api

import (
	"net/http"
	"time"

	"alcyxob/team-points/internal/config"
	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services bundles everything the handlers call.
type Services struct {
	Auth        service.AuthService
	Ledger      service.LedgerService
	Awards      service.AwardService
	Attendance  service.AttendanceService
	Roster      service.RosterService
	Challenges  service.ChallengeService
	Exercises   service.ExerciseService
	Profiles    service.ProfileService
	Leaderboard service.LeaderboardService
}

// NewRouter builds the gin engine with logging, recovery, CORS and rate limiting.
func NewRouter(cfg config.ServerConfig, services Services, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(logger), Recovery(logger))

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	router.Use(cors.New(corsCfg))
	router.Use(RateLimitMiddleware(cfg.RateLimitPerMinute))

	SetupRoutes(router, services)
	return router
}

func SetupRoutes(router *gin.Engine, services Services) {
	authHandler := NewAuthHandler(services.Auth, services.Roster)
	memberHandler := NewMemberHandler(services.Roster, services.Ledger, services.Profiles, services.Leaderboard, services.Challenges)
	coachHandler := NewCoachHandler(services.Roster, services.Ledger, services.Awards, services.Attendance, services.Challenges, services.Profiles)
	exerciseHandler := NewExerciseHandler(services.Exercises)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/claim", authHandler.Placeholder)
			authGroup.POST("/claim", authHandler.Claim)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(services.Auth))
	{
		protected.GET("/me", memberHandler.Me)
		protected.GET("/me/profile", memberHandler.MyProfile)
		protected.GET("/me/history", memberHandler.MyHistory)
		protected.GET("/leaderboard", memberHandler.Leaderboard)
		protected.GET("/challenges/active", memberHandler.ActiveChallenges)
		protected.GET("/exercises", exerciseHandler.ListExercises)

		// All routes in this group require the coach role.
		coachGroup := protected.Group("/coach")
		coachGroup.Use(RoleMiddleware(domain.RoleCoach))
		{
			coachGroup.POST("/members", coachHandler.AddPlaceholder)
			coachGroup.GET("/members", coachHandler.ListMembers)
			coachGroup.GET("/members/:id/link", coachHandler.RegistrationLink)
			coachGroup.PUT("/members/:id/role", coachHandler.SetRole)
			coachGroup.DELETE("/members/:id", coachHandler.RemoveMember)
			coachGroup.POST("/members/:id/merge", coachHandler.MergePlaceholder)
			coachGroup.GET("/members/:id/profile", coachHandler.MemberProfile)
			coachGroup.GET("/members/:id/audit", coachHandler.Audit)

			coachGroup.POST("/awards", coachHandler.Award)
			coachGroup.GET("/awardables", coachHandler.Awardables)

			coachGroup.GET("/attendance/:date", coachHandler.GetAttendance)
			coachGroup.PUT("/attendance/:date", coachHandler.SaveAttendance)

			coachGroup.POST("/challenges", coachHandler.CreateChallenge)

			coachGroup.POST("/exercises", exerciseHandler.CreateExercise)
			coachGroup.POST("/exercises/upload-url", exerciseHandler.ImageUploadURL)
			coachGroup.DELETE("/exercises/:id", exerciseHandler.DeleteExercise)
		}
	}
}
