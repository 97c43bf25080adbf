package service

import (
	"context"
	"fmt"
	"strings"

	"alcyxob/team-points/internal/apperr"
	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type RosterService interface {
	// AddPlaceholder creates an offline roster entry for someone without an account.
	AddPlaceholder(ctx context.Context, firstName, lastName string) (*domain.Member, error)
	// RegistrationLink returns the URL a placeholder follows to claim their entry.
	RegistrationLink(ctx context.Context, memberID primitive.ObjectID) (string, error)
	// Placeholder resolves a registration token to its still-unclaimed placeholder.
	Placeholder(ctx context.Context, token string) (*domain.Member, error)
	// ClaimPlaceholder turns the placeholder into an account; the id stays the same.
	ClaimPlaceholder(ctx context.Context, token, email, password string) (*domain.Member, error)
	// MergePlaceholder folds a placeholder's points, history and attendance into an
	// existing account and deletes the placeholder.
	MergePlaceholder(ctx context.Context, placeholderID, accountID primitive.ObjectID) (*domain.Member, error)
	SetRole(ctx context.Context, memberID primitive.ObjectID, role domain.Role) error
	Remove(ctx context.Context, memberID primitive.ObjectID) error
	List(ctx context.Context) ([]domain.Member, error)
	Get(ctx context.Context, memberID primitive.ObjectID) (*domain.Member, error)
}

type rosterService struct {
	store     repository.Store
	cache     StandingsCache
	publicURL string
	logger    *zap.Logger
}

// NewRosterService creates the roster service. publicURL is the base of registration links.
func NewRosterService(store repository.Store, cache StandingsCache, publicURL string, logger *zap.Logger) RosterService {
	if cache == nil {
		cache = NoopCache()
	}
	return &rosterService{
		store:     store,
		cache:     cache,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

func (s *rosterService) AddPlaceholder(ctx context.Context, firstName, lastName string) (*domain.Member, error) {
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	if firstName == "" {
		return nil, apperr.Invalid("first name is required")
	}

	member := &domain.Member{
		Name:      strings.TrimSpace(firstName + " " + lastName),
		FirstName: firstName,
		LastName:  lastName,
		Role:      domain.RoleMember,
		Badges:    []string{},
		IsOffline: true,
	}
	id, err := s.store.Members.Create(ctx, member)
	if err != nil {
		return nil, memberErr(err)
	}
	member.ID = id

	s.cache.Invalidate(ctx)
	s.logger.Info("placeholder added", zap.String("member", id.Hex()), zap.String("name", member.Name))
	return member, nil
}

func (s *rosterService) RegistrationLink(ctx context.Context, memberID primitive.ObjectID) (string, error) {
	member, err := s.store.Members.GetByID(ctx, memberID)
	if err != nil {
		return "", memberErr(err)
	}
	if !member.IsOffline {
		return "", apperr.NotPlaceholder
	}
	return fmt.Sprintf("%s/register?token=%s", s.publicURL, member.ID.Hex()), nil
}

func (s *rosterService) Placeholder(ctx context.Context, token string) (*domain.Member, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(token))
	if err != nil {
		return nil, apperr.MemberNotFound.WithMessage("invalid registration link")
	}
	member, err := s.store.Members.GetByID(ctx, id)
	if err != nil {
		return nil, memberErr(err)
	}
	if !member.IsOffline {
		return nil, apperr.NotPlaceholder.WithMessage("this registration link was already used")
	}
	return member, nil
}

func (s *rosterService) ClaimPlaceholder(ctx context.Context, token, email, password string) (*domain.Member, error) {
	email = normalizeEmail(email)
	if email == "" || len(password) < minPasswordLength {
		return nil, apperr.Invalid(fmt.Sprintf("email and a password of at least %d characters are required", minPasswordLength))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var claimed *domain.Member
	err = s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		placeholder, err := s.Placeholder(ctx, token)
		if err != nil {
			return err
		}
		if _, err := s.store.Members.GetByEmail(ctx, email); err == nil {
			return apperr.EmailTaken
		}
		if err := s.store.Members.Activate(ctx, placeholder.ID, email, string(hash)); err != nil {
			return memberErr(err)
		}
		claimed, err = s.store.Members.GetByID(ctx, placeholder.ID)
		return memberErr(err)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("placeholder claimed", zap.String("member", claimed.ID.Hex()))
	claimed.PasswordHash = ""
	return claimed, nil
}

func (s *rosterService) MergePlaceholder(ctx context.Context, placeholderID, accountID primitive.ObjectID) (*domain.Member, error) {
	if placeholderID == accountID {
		return nil, apperr.Invalid("cannot merge a member into itself")
	}

	var merged *domain.Member
	err := s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		placeholder, err := s.store.Members.GetByID(ctx, placeholderID)
		if err != nil {
			return memberErr(err)
		}
		if !placeholder.IsOffline {
			return apperr.NotPlaceholder
		}
		if _, err := s.store.Members.GetByID(ctx, accountID); err != nil {
			return memberErr(err)
		}

		// The placeholder's ledger moves with its balance, so no new entry is written.
		if merged, err = s.store.Members.Increment(ctx, accountID, placeholder.Points, placeholder.TrainingSessions); err != nil {
			return memberErr(err)
		}
		if err := s.store.Ledger.ReassignMember(ctx, placeholderID, accountID); err != nil {
			return apperr.Storage(err)
		}
		if err := s.store.Sessions.ReplaceAttendee(ctx, placeholderID, accountID); err != nil {
			return apperr.Storage(err)
		}
		if err := s.store.Items.ReplaceCompletion(ctx, placeholderID, accountID); err != nil {
			return apperr.Storage(err)
		}
		return memberErr(s.store.Members.Delete(ctx, placeholderID))
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("placeholder merged",
		zap.String("placeholder", placeholderID.Hex()),
		zap.String("account", accountID.Hex()),
	)
	merged.PasswordHash = ""
	return merged, nil
}

func (s *rosterService) SetRole(ctx context.Context, memberID primitive.ObjectID, role domain.Role) error {
	if !role.Valid() {
		return apperr.Invalid("role must be member or coach")
	}
	if err := s.store.Members.SetRole(ctx, memberID, role); err != nil {
		return memberErr(err)
	}
	s.logger.Info("role changed", zap.String("member", memberID.Hex()), zap.String("role", string(role)))
	return nil
}

func (s *rosterService) Remove(ctx context.Context, memberID primitive.ObjectID) error {
	if err := s.store.Members.Delete(ctx, memberID); err != nil {
		return memberErr(err)
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("member removed", zap.String("member", memberID.Hex()))
	return nil
}

func (s *rosterService) List(ctx context.Context) ([]domain.Member, error) {
	members, err := s.store.Members.List(ctx)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	for i := range members {
		members[i].PasswordHash = ""
	}
	return members, nil
}

func (s *rosterService) Get(ctx context.Context, memberID primitive.ObjectID) (*domain.Member, error) {
	member, err := s.store.Members.GetByID(ctx, memberID)
	if err != nil {
		return nil, memberErr(err)
	}
	member.PasswordHash = ""
	return member, nil
}
