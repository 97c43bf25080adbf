package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alcyxob/team-points/internal/apperr"
	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "team-points"

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(ctx context.Context, firstName, lastName, email, password string) (*domain.Member, error)
	Login(ctx context.Context, email, password string) (token string, member *domain.Member, err error)
	// ParseToken validates a token and returns its claims.
	ParseToken(token string) (*Claims, error)
}

// authService implements the AuthService interface.
type authService struct {
	members        repository.MemberRepository
	jwtSecret      string
	jwtExpiration  time.Duration
	bootstrapCoach string
	logger         *zap.Logger
}

// NewAuthService creates a new instance of authService. A registration with
// bootstrapCoachEmail is given the coach role.
func NewAuthService(members repository.MemberRepository, jwtSecret string, jwtExpiration time.Duration, bootstrapCoachEmail string, logger *zap.Logger) (AuthService, error) {
	if jwtSecret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	return &authService{
		members:        members,
		jwtSecret:      jwtSecret,
		jwtExpiration:  jwtExpiration,
		bootstrapCoach: normalizeEmail(bootstrapCoachEmail),
		logger:         logger,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register handles self-registration of a new online member.
func (s *authService) Register(ctx context.Context, firstName, lastName, email, password string) (*domain.Member, error) {
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	email = normalizeEmail(email)
	if firstName == "" || email == "" {
		return nil, apperr.Invalid("first name and email are required")
	}
	if len(password) < minPasswordLength {
		return nil, apperr.Invalid(fmt.Sprintf("password must have at least %d characters", minPasswordLength))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := domain.RoleMember
	if s.bootstrapCoach != "" && email == s.bootstrapCoach {
		role = domain.RoleCoach
	}
	member := &domain.Member{
		Name:         strings.TrimSpace(firstName + " " + lastName),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		Badges:       []string{},
	}

	// The store rejects a duplicate email, so no check-then-insert race.
	id, err := s.members.Create(ctx, member)
	if err != nil {
		return nil, memberErr(err)
	}
	member.ID = id
	member.PasswordHash = ""

	s.logger.Info("member registered", zap.String("member", id.Hex()), zap.String("role", string(role)))
	return member, nil
}

// Login handles authentication and JWT generation.
func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.Member, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, apperr.InvalidCredentials
	}

	member, err := s.members.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, apperr.InvalidCredentials
		}
		return "", nil, apperr.Storage(err)
	}
	if member.IsOffline || bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(password)) != nil {
		return "", nil, apperr.InvalidCredentials
	}

	token, err := s.generateJWT(member)
	if err != nil {
		return "", nil, err
	}
	member.PasswordHash = ""
	return token, member, nil
}

// generateJWT creates a new JWT token for the given member.
func (s *authService) generateJWT(member *domain.Member) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: member.ID.Hex(),
		Role:   member.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   member.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
}

func (s *authService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Role == "" {
		return nil, errors.New("invalid token or missing claims")
	}
	if _, err := primitive.ObjectIDFromHex(claims.UserID); err != nil {
		return nil, errors.New("invalid subject in token")
	}
	return claims, nil
}
