package api

import (
	"net/http"
	"strconv"

	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/service"

	"github.com/gin-gonic/gin"
)

const maxHistoryLimit = 500

// MemberHandler serves the signed-in member's own views and the shared team views.
type MemberHandler struct {
	rosterService      service.RosterService
	ledgerService      service.LedgerService
	profileService     service.ProfileService
	leaderboardService service.LeaderboardService
	challengeService   service.ChallengeService
}

func NewMemberHandler(
	rosterService service.RosterService,
	ledgerService service.LedgerService,
	profileService service.ProfileService,
	leaderboardService service.LeaderboardService,
	challengeService service.ChallengeService,
) *MemberHandler {
	return &MemberHandler{
		rosterService:      rosterService,
		ledgerService:      ledgerService,
		profileService:     profileService,
		leaderboardService: leaderboardService,
		challengeService:   challengeService,
	}
}

// Me godoc
// @Summary Get the signed-in member
// @Tags Member
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MemberResponse
// @Router /me [get]
func (h *MemberHandler) Me(c *gin.Context) {
	memberID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify member from token.")
		return
	}
	member, err := h.rosterService.Get(c.Request.Context(), memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapMemberToResponse(member))
}

// MyProfile godoc
// @Summary Get the signed-in member's profile
// @Description Streak, recent history, completed items and achievements.
// @Tags Member
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Profile
// @Router /me/profile [get]
func (h *MemberHandler) MyProfile(c *gin.Context) {
	memberID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify member from token.")
		return
	}
	profile, err := h.profileService.Profile(c.Request.Context(), memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// MyHistory godoc
// @Summary Get the signed-in member's point history
// @Tags Member
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum entries, newest first"
// @Success 200 {array} domain.LedgerEntry
// @Router /me/history [get]
func (h *MemberHandler) MyHistory(c *gin.Context) {
	memberID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify member from token.")
		return
	}

	limit := maxHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			abortWithError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries := []domain.LedgerEntry{}
	for e, err := range h.ledgerService.History(c.Request.Context(), memberID, limit) {
		if err != nil {
			respondError(c, err)
			return
		}
		entries = append(entries, e)
	}
	c.JSON(http.StatusOK, entries)
}

// Leaderboard godoc
// @Summary Get the team standings
// @Tags Member
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Standing
// @Router /leaderboard [get]
func (h *MemberHandler) Leaderboard(c *gin.Context) {
	standings, err := h.leaderboardService.Standings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, standings)
}

// ActiveChallenges godoc
// @Summary Get today's, this week's and this month's challenges
// @Tags Member
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.ActiveChallenges
// @Router /challenges/active [get]
func (h *MemberHandler) ActiveChallenges(c *gin.Context) {
	active, err := h.challengeService.ActiveChallenges(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, active)
}
