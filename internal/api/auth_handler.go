package api

import (
	"fmt"
	"net/http"
	"time"

	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication and roster dependencies.
type AuthHandler struct {
	authService   service.AuthService
	rosterService service.RosterService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService, rosterService service.RosterService) *AuthHandler {
	return &AuthHandler{authService: authService, rosterService: rosterService}
}

// --- Request/Response Structs ---

type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ClaimRequest turns a placeholder into an account.
type ClaimRequest struct {
	Token    string `json:"token" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// MemberResponse excludes sensitive info like password hash
type MemberResponse struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	FirstName        string      `json:"firstName,omitempty"`
	LastName         string      `json:"lastName,omitempty"`
	Email            string      `json:"email,omitempty"`
	Role             domain.Role `json:"role"`
	Points           int         `json:"points"`
	TrainingSessions int         `json:"trainingSessions"`
	IsOffline        bool        `json:"isOffline"`
	CreatedAt        time.Time   `json:"createdAt"`
}

type LoginResponse struct {
	Token  string         `json:"token"`
	Member MemberResponse `json:"member"`
}

// --- Handler Methods ---

// Register godoc
// @Summary Register a new member
// @Tags Auth
// @Accept json
// @Produce json
// @Param member body RegisterRequest true "Registration details"
// @Success 201 {object} MemberResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 409 {object} gin.H "Email already in use"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	member, err := h.authService.Register(c.Request.Context(), req.FirstName, req.LastName, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapMemberToResponse(member))
}

// Login godoc
// @Summary Log in a member
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} gin.H "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	token, member, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Token: token, Member: MapMemberToResponse(member)})
}

// Placeholder godoc
// @Summary Resolve a registration token
// @Description Returns the unclaimed placeholder a registration link points to.
// @Tags Auth
// @Produce json
// @Param token query string true "Registration token"
// @Success 200 {object} MemberResponse
// @Failure 404 {object} gin.H "Unknown token"
// @Failure 409 {object} gin.H "Already claimed"
// @Router /auth/claim [get]
func (h *AuthHandler) Placeholder(c *gin.Context) {
	member, err := h.rosterService.Placeholder(c.Request.Context(), c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapMemberToResponse(member))
}

// Claim godoc
// @Summary Claim a placeholder
// @Description Turns a coach-created placeholder into an account, keeping its points and history.
// @Tags Auth
// @Accept json
// @Produce json
// @Param claim body ClaimRequest true "Token and credentials"
// @Success 200 {object} MemberResponse
// @Router /auth/claim [post]
func (h *AuthHandler) Claim(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	member, err := h.rosterService.ClaimPlaceholder(c.Request.Context(), req.Token, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapMemberToResponse(member))
}

// MapMemberToResponse converts a domain Member to a MemberResponse DTO.
func MapMemberToResponse(member *domain.Member) MemberResponse {
	if member == nil {
		return MemberResponse{}
	}
	return MemberResponse{
		ID:               member.ID.Hex(),
		Name:             member.DisplayName(),
		FirstName:        member.FirstName,
		LastName:         member.LastName,
		Email:            member.Email,
		Role:             member.Role,
		Points:           member.Points,
		TrainingSessions: member.TrainingSessions,
		IsOffline:        member.IsOffline,
		CreatedAt:        member.CreatedAt,
	}
}

// MapMembersToResponse converts a slice of domain Members.
func MapMembersToResponse(members []domain.Member) []MemberResponse {
	responses := make([]MemberResponse, len(members))
	for i := range members {
		responses[i] = MapMemberToResponse(&members[i])
	}
	return responses
}
