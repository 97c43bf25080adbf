package api

import (
	"net/http"

	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoachHandler serves roster management, awards, attendance and challenges.
type CoachHandler struct {
	rosterService     service.RosterService
	ledgerService     service.LedgerService
	awardService      service.AwardService
	attendanceService service.AttendanceService
	challengeService  service.ChallengeService
	profileService    service.ProfileService
}

func NewCoachHandler(
	rosterService service.RosterService,
	ledgerService service.LedgerService,
	awardService service.AwardService,
	attendanceService service.AttendanceService,
	challengeService service.ChallengeService,
	profileService service.ProfileService,
) *CoachHandler {
	return &CoachHandler{
		rosterService:     rosterService,
		ledgerService:     ledgerService,
		awardService:      awardService,
		attendanceService: attendanceService,
		challengeService:  challengeService,
		profileService:    profileService,
	}
}

// --- DTOs ---

type AddPlaceholderRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName"`
}

type SetRoleRequest struct {
	Role domain.Role `json:"role" binding:"required,oneof=member coach"`
}

type MergeRequest struct {
	AccountID string `json:"accountId" binding:"required"`
}

// AwardRequest awards an item (Item set) or a manual amount with a reason.
type AwardRequest struct {
	MemberID string          `json:"memberId" binding:"required"`
	Item     *domain.ItemRef `json:"item"`
	Reason   string          `json:"reason"`
	Amount   *int            `json:"amount"`
}

type AttendanceRequest struct {
	Attendees []string `json:"attendees"`
}

type CreateChallengeRequest struct {
	Kind        domain.ItemKind `json:"kind" binding:"required,oneof=daily weekly monthly"`
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Points      int             `json:"points" binding:"required"`
}

// objectIDParam parses the path parameter name, writing a 400 on failure.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// --- Roster ---

// AddPlaceholder godoc
// @Summary Add an offline placeholder to the roster
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param member body AddPlaceholderRequest true "Name"
// @Success 201 {object} MemberResponse
// @Router /coach/members [post]
func (h *CoachHandler) AddPlaceholder(c *gin.Context) {
	var req AddPlaceholderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	member, err := h.rosterService.AddPlaceholder(c.Request.Context(), req.FirstName, req.LastName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapMemberToResponse(member))
}

// ListMembers godoc
// @Summary List the roster
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Success 200 {array} MemberResponse
// @Router /coach/members [get]
func (h *CoachHandler) ListMembers(c *gin.Context) {
	members, err := h.rosterService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapMembersToResponse(members))
}

// RegistrationLink godoc
// @Summary Get a placeholder's registration link
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Success 200 {object} gin.H
// @Router /coach/members/{id}/link [get]
func (h *CoachHandler) RegistrationLink(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	link, err := h.rosterService.RegistrationLink(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link})
}

// SetRole godoc
// @Summary Change a member's role
// @Tags Coach
// @Accept json
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Param role body SetRoleRequest true "New role"
// @Success 204
// @Router /coach/members/{id}/role [put]
func (h *CoachHandler) SetRole(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if err := h.rosterService.SetRole(c.Request.Context(), id, req.Role); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveMember godoc
// @Summary Remove a member from the roster
// @Tags Coach
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Success 204
// @Router /coach/members/{id} [delete]
func (h *CoachHandler) RemoveMember(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.rosterService.Remove(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MergePlaceholder godoc
// @Summary Merge a placeholder into an existing account
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Placeholder ID"
// @Param merge body MergeRequest true "Target account"
// @Success 200 {object} MemberResponse
// @Router /coach/members/{id}/merge [post]
func (h *CoachHandler) MergePlaceholder(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	accountID, err := primitive.ObjectIDFromHex(req.AccountID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid accountId format.")
		return
	}
	member, err := h.rosterService.MergePlaceholder(c.Request.Context(), id, accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapMemberToResponse(member))
}

// MemberProfile godoc
// @Summary Get any member's profile
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Success 200 {object} service.Profile
// @Router /coach/members/{id}/profile [get]
func (h *CoachHandler) MemberProfile(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	profile, err := h.profileService.Profile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Audit godoc
// @Summary Compare a member's balance with their ledger
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Success 200 {object} domain.Audit
// @Router /coach/members/{id}/audit [get]
func (h *CoachHandler) Audit(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	audit, err := h.ledgerService.Audit(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, audit)
}

// --- Awards ---

// Award godoc
// @Summary Award points
// @Description Awards an exercise or challenge, or a manual amount with a reason.
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param award body AwardRequest true "Award"
// @Success 201 {object} service.AwardResult
// @Failure 409 {object} gin.H "Already completed"
// @Router /coach/awards [post]
func (h *CoachHandler) Award(c *gin.Context) {
	var req AwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	memberID, err := primitive.ObjectIDFromHex(req.MemberID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid memberId format.")
		return
	}
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify coach from token.")
		return
	}

	result, err := h.awardService.Award(c.Request.Context(), service.AwardRequest{
		MemberID: memberID,
		Item:     req.Item,
		Reason:   req.Reason,
		Amount:   req.Amount,
		ActorID:  coachID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Awardables godoc
// @Summary List what can be awarded right now
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.AwardableItem
// @Router /coach/awardables [get]
func (h *CoachHandler) Awardables(c *gin.Context) {
	items, err := h.challengeService.AwardableItems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// --- Attendance ---

// GetAttendance godoc
// @Summary Get the attendance recorded for a date
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param date path string true "YYYY-MM-DD"
// @Success 200 {object} domain.TrainingSession
// @Router /coach/attendance/{date} [get]
func (h *CoachHandler) GetAttendance(c *gin.Context) {
	session, err := h.attendanceService.Session(c.Request.Context(), c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// SaveAttendance godoc
// @Summary Save the attendance for a date
// @Description Stores the full attendee set and adjusts points of every member whose attendance changed.
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param date path string true "YYYY-MM-DD"
// @Param attendance body AttendanceRequest true "Attendee IDs"
// @Success 200 {object} service.ReconcileResult
// @Router /coach/attendance/{date} [put]
func (h *CoachHandler) SaveAttendance(c *gin.Context) {
	var req AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	attendees := make([]primitive.ObjectID, 0, len(req.Attendees))
	for _, raw := range req.Attendees {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid attendee ID: "+raw)
			return
		}
		attendees = append(attendees, id)
	}
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify coach from token.")
		return
	}

	result, err := h.attendanceService.Reconcile(c.Request.Context(), c.Param("date"), attendees, coachID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// --- Challenges ---

// CreateChallenge godoc
// @Summary Set the daily, weekly or monthly challenge
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param challenge body CreateChallengeRequest true "Challenge"
// @Success 201 {object} domain.AwardableItem
// @Router /coach/challenges [post]
func (h *CoachHandler) CreateChallenge(c *gin.Context) {
	var req CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	challenge, err := h.challengeService.CreateChallenge(c.Request.Context(), req.Kind, req.Title, req.Description, req.Points)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, challenge)
}
