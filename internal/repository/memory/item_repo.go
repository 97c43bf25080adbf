package memory

import (
	"context"
	"sort"
	"time"

	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type itemRepo struct {
	s *Store
}

func (r *itemRepo) bucket(kind domain.ItemKind) map[string]domain.AwardableItem {
	b, ok := r.s.data.items[kind]
	if !ok {
		b = make(map[string]domain.AwardableItem)
		r.s.data.items[kind] = b
	}
	return b
}

func (r *itemRepo) Create(ctx context.Context, item *domain.AwardableItem) (string, error) {
	item.ID = primitive.NewObjectID().Hex()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	if item.CompletedBy == nil {
		item.CompletedBy = []primitive.ObjectID{}
	}
	if err := item.Validate(); err != nil {
		return "", err
	}
	defer r.s.lock(ctx)()
	r.bucket(item.Kind)[item.ID] = copyItem(*item)
	return item.ID, nil
}

func (r *itemRepo) Upsert(ctx context.Context, item *domain.AwardableItem) error {
	if item.CompletedBy == nil {
		item.CompletedBy = []primitive.ObjectID{}
	}
	if err := item.Validate(); err != nil {
		return err
	}
	defer r.s.lock(ctx)()
	r.bucket(item.Kind)[item.ID] = copyItem(*item)
	return nil
}

func (r *itemRepo) Get(ctx context.Context, ref domain.ItemRef) (*domain.AwardableItem, error) {
	defer r.s.lock(ctx)()
	it, ok := r.s.data.items[ref.Kind][ref.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	it = copyItem(it)
	return &it, nil
}

func (r *itemRepo) filter(kind domain.ItemKind, keep func(domain.AwardableItem) bool) []domain.AwardableItem {
	var items []domain.AwardableItem
	for _, it := range r.s.data.items[kind] {
		if keep(it) {
			items = append(items, copyItem(it))
		}
	}
	return items
}

func sortNewestFirst(items []domain.AwardableItem) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
}

func (r *itemRepo) ListByKind(ctx context.Context, kind domain.ItemKind) ([]domain.AwardableItem, error) {
	defer r.s.lock(ctx)()
	items := r.filter(kind, func(domain.AwardableItem) bool { return true })
	sortNewestFirst(items)
	return items, nil
}

func (r *itemRepo) ListCreatedSince(ctx context.Context, kind domain.ItemKind, since time.Time) ([]domain.AwardableItem, error) {
	defer r.s.lock(ctx)()
	items := r.filter(kind, func(it domain.AwardableItem) bool { return !it.CreatedAt.Before(since) })
	sortNewestFirst(items)
	return items, nil
}

func (r *itemRepo) ListEndingAfter(ctx context.Context, kind domain.ItemKind, t time.Time) ([]domain.AwardableItem, error) {
	defer r.s.lock(ctx)()
	items := r.filter(kind, func(it domain.AwardableItem) bool {
		return it.EndDate != nil && !it.EndDate.Before(t)
	})
	sort.Slice(items, func(i, j int) bool { return items[i].EndDate.Before(*items[j].EndDate) })
	return items, nil
}

func (r *itemRepo) ListCompletedBy(ctx context.Context, memberID primitive.ObjectID) ([]domain.AwardableItem, error) {
	defer r.s.lock(ctx)()
	var items []domain.AwardableItem
	for kind := range r.s.data.items {
		items = append(items, r.filter(kind, func(it domain.AwardableItem) bool { return it.CompletedByMember(memberID) })...)
	}
	sortNewestFirst(items)
	return items, nil
}

func (r *itemRepo) AddCompletion(ctx context.Context, ref domain.ItemRef, memberID primitive.ObjectID) (bool, error) {
	defer r.s.lock(ctx)()
	it, ok := r.s.data.items[ref.Kind][ref.ID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if it.CompletedByMember(memberID) {
		return false, nil
	}
	it.CompletedBy = append(append([]primitive.ObjectID(nil), it.CompletedBy...), memberID)
	r.s.data.items[ref.Kind][ref.ID] = it
	return true, nil
}

func (r *itemRepo) ReplaceCompletion(ctx context.Context, from, to primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	for kind, byID := range r.s.data.items {
		for id, it := range byID {
			if !it.CompletedByMember(from) {
				continue
			}
			kept := make([]primitive.ObjectID, 0, len(it.CompletedBy))
			for _, m := range it.CompletedBy {
				if m != from {
					kept = append(kept, m)
				}
			}
			if !it.CompletedByMember(to) {
				kept = append(kept, to)
			}
			it.CompletedBy = kept
			r.s.data.items[kind][id] = it
		}
	}
	return nil
}

func (r *itemRepo) Delete(ctx context.Context, ref domain.ItemRef) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.items[ref.Kind][ref.ID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.data.items[ref.Kind], ref.ID)
	return nil
}
