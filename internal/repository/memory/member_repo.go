package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memberRepo struct {
	s *Store
}

func (r *memberRepo) Create(ctx context.Context, member *domain.Member) (primitive.ObjectID, error) {
	if err := member.Validate(); err != nil {
		return primitive.NilObjectID, err
	}
	defer r.s.lock(ctx)()

	if member.Email != "" {
		for _, m := range r.s.data.members {
			if strings.EqualFold(m.Email, member.Email) {
				return primitive.NilObjectID, repository.ErrConflict
			}
		}
	}

	member.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	member.CreatedAt = now
	member.UpdatedAt = now
	if member.Badges == nil {
		member.Badges = []string{}
	}
	r.s.data.members[member.ID] = copyMember(*member)
	return member.ID, nil
}

func (r *memberRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Member, error) {
	defer r.s.lock(ctx)()
	m, ok := r.s.data.members[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	m = copyMember(m)
	return &m, nil
}

func (r *memberRepo) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	defer r.s.lock(ctx)()
	for _, m := range r.s.data.members {
		if m.Email != "" && strings.EqualFold(m.Email, email) {
			m = copyMember(m)
			return &m, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memberRepo) snapshot() []domain.Member {
	members := make([]domain.Member, 0, len(r.s.data.members))
	for _, m := range r.s.data.members {
		members = append(members, copyMember(m))
	}
	return members
}

func (r *memberRepo) List(ctx context.Context) ([]domain.Member, error) {
	defer r.s.lock(ctx)()
	members := r.snapshot()
	sort.Slice(members, func(i, j int) bool {
		if members[i].Name != members[j].Name {
			return members[i].Name < members[j].Name
		}
		return compareIDs(members[i].ID, members[j].ID) < 0
	})
	return members, nil
}

func (r *memberRepo) ListByPoints(ctx context.Context) ([]domain.Member, error) {
	defer r.s.lock(ctx)()
	members := r.snapshot()
	sort.Slice(members, func(i, j int) bool {
		if members[i].Points != members[j].Points {
			return members[i].Points > members[j].Points
		}
		if members[i].Name != members[j].Name {
			return members[i].Name < members[j].Name
		}
		return compareIDs(members[i].ID, members[j].ID) < 0
	})
	return members, nil
}

func (r *memberRepo) Increment(ctx context.Context, id primitive.ObjectID, pointsDelta, sessionsDelta int) (*domain.Member, error) {
	defer r.s.lock(ctx)()
	m, ok := r.s.data.members[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if m.Points+pointsDelta < 0 || m.TrainingSessions+sessionsDelta < 0 {
		return nil, repository.ErrNegativeBalance
	}
	m.Points += pointsDelta
	m.TrainingSessions += sessionsDelta
	m.UpdatedAt = time.Now().UTC()
	r.s.data.members[id] = m

	out := copyMember(m)
	return &out, nil
}

func (r *memberRepo) SetRole(ctx context.Context, id primitive.ObjectID, role domain.Role) error {
	defer r.s.lock(ctx)()
	m, ok := r.s.data.members[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.Role = role
	m.UpdatedAt = time.Now().UTC()
	r.s.data.members[id] = m
	return nil
}

func (r *memberRepo) Activate(ctx context.Context, id primitive.ObjectID, email, passwordHash string) error {
	defer r.s.lock(ctx)()
	m, ok := r.s.data.members[id]
	if !ok || !m.IsOffline {
		return repository.ErrNotFound
	}
	for otherID, other := range r.s.data.members {
		if otherID != id && other.Email != "" && strings.EqualFold(other.Email, email) {
			return repository.ErrConflict
		}
	}
	m.Email = email
	m.PasswordHash = passwordHash
	m.IsOffline = false
	m.UpdatedAt = time.Now().UTC()
	r.s.data.members[id] = m
	return nil
}

func (r *memberRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.members[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.data.members, id)
	return nil
}
