package mongo

import (
	"context"
	"errors"

	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ledgerCollectionName = "pointLogs"

// mongoLedgerRepository implements repository.LedgerRepository.
// Entries are only ever inserted, except for placeholder merges.
type mongoLedgerRepository struct {
	collection *mongo.Collection
}

// NewMongoLedgerRepository creates a new ledger repository backed by MongoDB.
func NewMongoLedgerRepository(db *mongo.Database) repository.LedgerRepository {
	return &mongoLedgerRepository{
		collection: db.Collection(ledgerCollectionName),
	}
}

// Append inserts a new entry.
func (r *mongoLedgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry) (primitive.ObjectID, error) {
	if err := entry.Validate(); err != nil {
		return primitive.NilObjectID, err
	}
	entry.ID = primitive.NewObjectID()

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// ListByMember pages a member's entries newest first, using (timestamp, _id) as the keyset.
func (r *mongoLedgerRepository) ListByMember(ctx context.Context, memberID primitive.ObjectID, cursor domain.LedgerCursor, limit int) ([]domain.LedgerEntry, error) {
	filter := bson.M{"memberId": memberID}
	if !cursor.IsZero() {
		filter["$or"] = bson.A{
			bson.M{"timestamp": bson.M{"$lt": cursor.Timestamp}},
			bson.M{"timestamp": cursor.Timestamp, "_id": bson.M{"$lt": cursor.ID}},
		}
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}

	cur, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	entries := []domain.LedgerEntry{}
	if err = cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, cur.Err()
}

// SumByMember aggregates the deltas of one member.
func (r *mongoLedgerRepository) SumByMember(ctx context.Context, memberID primitive.ObjectID) (int, int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"memberId": memberID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$points"},
			"count": bson.M{"$sum": 1},
		}}},
	}

	cur, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Total int `bson:"total"`
		Count int `bson:"count"`
	}
	if err = cur.All(ctx, &rows); err != nil {
		return 0, 0, err
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return rows[0].Total, rows[0].Count, nil
}

// ReassignMember moves every entry of from onto to.
func (r *mongoLedgerRepository) ReassignMember(ctx context.Context, from, to primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx, bson.M{"memberId": from}, bson.M{"$set": bson.M{"memberId": to}})
	return err
}

// EnsureLedgerIndexes creates the keyset index used by history pagination and audits.
func EnsureLedgerIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "memberId", Value: 1}, {Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
