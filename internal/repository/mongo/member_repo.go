package mongo

import (
	"context"
	"errors"
	"time"

	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const memberCollectionName = "members"

// mongoMemberRepository implements the repository.MemberRepository interface using MongoDB.
type mongoMemberRepository struct {
	collection *mongo.Collection
}

// NewMongoMemberRepository creates a new instance of mongoMemberRepository.
func NewMongoMemberRepository(db *mongo.Database) repository.MemberRepository {
	return &mongoMemberRepository{
		collection: db.Collection(memberCollectionName),
	}
}

// Create inserts a new member into the database.
func (r *mongoMemberRepository) Create(ctx context.Context, member *domain.Member) (primitive.ObjectID, error) {
	if err := member.Validate(); err != nil {
		return primitive.NilObjectID, err
	}

	member.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	member.CreatedAt = now
	member.UpdatedAt = now
	if member.Badges == nil {
		member.Badges = []string{}
	}

	if _, err := r.collection.InsertOne(ctx, member); err != nil {
		// The unique email index rejects a second account with the same address.
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrConflict
		}
		return primitive.NilObjectID, err
	}
	return member.ID, nil
}

func (r *mongoMemberRepository) findOne(ctx context.Context, filter bson.M) (*domain.Member, error) {
	var member domain.Member
	err := r.collection.FindOne(ctx, filter).Decode(&member)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &member, nil
}

// GetByID retrieves a member by their MongoDB ObjectID.
func (r *mongoMemberRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Member, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail retrieves a member by their (lower-cased) email address.
func (r *mongoMemberRepository) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoMemberRepository) find(ctx context.Context, sort bson.D) ([]domain.Member, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	members := []domain.Member{}
	if err = cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, cursor.Err()
}

// List returns the roster ordered by name.
func (r *mongoMemberRepository) List(ctx context.Context) ([]domain.Member, error) {
	return r.find(ctx, bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
}

// ListByPoints returns the roster ordered for the leaderboard.
func (r *mongoMemberRepository) ListByPoints(ctx context.Context) ([]domain.Member, error) {
	return r.find(ctx, bson.D{{Key: "points", Value: -1}, {Key: "name", Value: 1}, {Key: "_id", Value: 1}})
}

// Increment applies both deltas with a single $inc. The filter carries the
// non-negative guard, so a concurrent decrement cannot overdraw the balance.
func (r *mongoMemberRepository) Increment(ctx context.Context, id primitive.ObjectID, pointsDelta, sessionsDelta int) (*domain.Member, error) {
	filter := bson.M{
		"_id":              id,
		"points":           bson.M{"$gte": -pointsDelta},
		"trainingSessions": bson.M{"$gte": -sessionsDelta},
	}
	update := bson.M{
		"$inc": bson.M{"points": pointsDelta, "trainingSessions": sessionsDelta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var member domain.Member
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&member)
	if err == nil {
		return &member, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// No match: either the member is gone or the guard rejected the update.
	n, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if countErr != nil {
		return nil, countErr
	}
	if n == 0 {
		return nil, repository.ErrNotFound
	}
	return nil, repository.ErrNegativeBalance
}

// SetRole changes a member's role.
func (r *mongoMemberRepository) SetRole(ctx context.Context, id primitive.ObjectID, role domain.Role) error {
	update := bson.M{"$set": bson.M{"role": role, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Activate attaches credentials to an offline placeholder, keeping its id and balance.
func (r *mongoMemberRepository) Activate(ctx context.Context, id primitive.ObjectID, email, passwordHash string) error {
	filter := bson.M{"_id": id, "isOffline": true}
	update := bson.M{"$set": bson.M{
		"email":        email,
		"passwordHash": passwordHash,
		"isOffline":    false,
		"updatedAt":    time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrConflict
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a member document.
func (r *mongoMemberRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureMemberIndexes creates necessary indexes for the members collection.
// Call this once during application startup.
func EnsureMemberIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Placeholders have no email, hence sparse.
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "points", Value: -1}, {Key: "name", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "name", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
