package mongo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	exerciseCollectionName = "exercises"
	dailyCollectionName    = "challenges"
	weeklyCollectionName   = "weeklyChallenges"
	monthlyCollectionName  = "monthlyChallenges"
)

// mongoItemRepository implements repository.ItemRepository.
// Each item kind lives in its own collection.
type mongoItemRepository struct {
	collections map[domain.ItemKind]*mongo.Collection
}

// NewMongoItemRepository creates a new item repository backed by MongoDB.
func NewMongoItemRepository(db *mongo.Database) repository.ItemRepository {
	return &mongoItemRepository{
		collections: map[domain.ItemKind]*mongo.Collection{
			domain.KindExercise:         db.Collection(exerciseCollectionName),
			domain.KindDailyChallenge:   db.Collection(dailyCollectionName),
			domain.KindWeeklyChallenge:  db.Collection(weeklyCollectionName),
			domain.KindMonthlyChallenge: db.Collection(monthlyCollectionName),
		},
	}
}

func (r *mongoItemRepository) collection(kind domain.ItemKind) (*mongo.Collection, error) {
	c, ok := r.collections[kind]
	if !ok {
		return nil, fmt.Errorf("unknown item kind %q", kind)
	}
	return c, nil
}

// Create inserts an exercise or daily challenge under a new hex id.
func (r *mongoItemRepository) Create(ctx context.Context, item *domain.AwardableItem) (string, error) {
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
	c, err := r.collection(item.Kind)
	if err != nil {
		return "", err
	}

	if _, err := c.InsertOne(ctx, item); err != nil {
		return "", err
	}
	return item.ID, nil
}

// Upsert writes a periodic challenge under its period key.
func (r *mongoItemRepository) Upsert(ctx context.Context, item *domain.AwardableItem) error {
	if item.CompletedBy == nil {
		item.CompletedBy = []primitive.ObjectID{}
	}
	if err := item.Validate(); err != nil {
		return err
	}
	c, err := r.collection(item.Kind)
	if err != nil {
		return err
	}
	_, err = c.ReplaceOne(ctx, bson.M{"_id": item.ID}, item, options.Replace().SetUpsert(true))
	return err
}

func (r *mongoItemRepository) Get(ctx context.Context, ref domain.ItemRef) (*domain.AwardableItem, error) {
	c, err := r.collection(ref.Kind)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	var item domain.AwardableItem
	if err := c.FindOne(ctx, bson.M{"_id": ref.ID}).Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *mongoItemRepository) find(ctx context.Context, kind domain.ItemKind, filter bson.M, sort bson.D) ([]domain.AwardableItem, error) {
	c, err := r.collection(kind)
	if err != nil {
		return nil, err
	}
	cursor, err := c.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []domain.AwardableItem{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, cursor.Err()
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func (r *mongoItemRepository) ListByKind(ctx context.Context, kind domain.ItemKind) ([]domain.AwardableItem, error) {
	return r.find(ctx, kind, bson.M{}, newestFirst)
}

func (r *mongoItemRepository) ListCreatedSince(ctx context.Context, kind domain.ItemKind, since time.Time) ([]domain.AwardableItem, error) {
	return r.find(ctx, kind, bson.M{"createdAt": bson.M{"$gte": since}}, newestFirst)
}

func (r *mongoItemRepository) ListEndingAfter(ctx context.Context, kind domain.ItemKind, t time.Time) ([]domain.AwardableItem, error) {
	return r.find(ctx, kind, bson.M{"endDate": bson.M{"$gte": t}}, bson.D{{Key: "endDate", Value: 1}})
}

// ListCompletedBy scans every kind's collection for items the member completed.
func (r *mongoItemRepository) ListCompletedBy(ctx context.Context, memberID primitive.ObjectID) ([]domain.AwardableItem, error) {
	var items []domain.AwardableItem
	for kind := range r.collections {
		found, err := r.find(ctx, kind, bson.M{"completedBy": memberID}, newestFirst)
		if err != nil {
			return nil, err
		}
		items = append(items, found...)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

// AddCompletion uses $addToSet; ModifiedCount tells whether the member was new.
func (r *mongoItemRepository) AddCompletion(ctx context.Context, ref domain.ItemRef, memberID primitive.ObjectID) (bool, error) {
	c, err := r.collection(ref.Kind)
	if err != nil {
		return false, repository.ErrNotFound
	}
	result, err := c.UpdateOne(ctx, bson.M{"_id": ref.ID}, bson.M{"$addToSet": bson.M{"completedBy": memberID}})
	if err != nil {
		return false, err
	}
	if result.MatchedCount == 0 {
		return false, repository.ErrNotFound
	}
	return result.ModifiedCount > 0, nil
}

// ReplaceCompletion swaps from for to in every completion set of every kind.
func (r *mongoItemRepository) ReplaceCompletion(ctx context.Context, from, to primitive.ObjectID) error {
	for _, c := range r.collections {
		if _, err := c.UpdateMany(ctx,
			bson.M{"completedBy": from},
			bson.M{"$addToSet": bson.M{"completedBy": to}},
		); err != nil {
			return err
		}
		if _, err := c.UpdateMany(ctx,
			bson.M{"completedBy": from},
			bson.M{"$pull": bson.M{"completedBy": from}},
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *mongoItemRepository) Delete(ctx context.Context, ref domain.ItemRef) error {
	c, err := r.collection(ref.Kind)
	if err != nil {
		return repository.ErrNotFound
	}
	result, err := c.DeleteOne(ctx, bson.M{"_id": ref.ID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureItemIndexes creates the indexes shared by the item collections.
func EnsureItemIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{
			Keys:    bson.D{{Key: "endDate", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{Keys: bson.D{{Key: "completedBy", Value: 1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
