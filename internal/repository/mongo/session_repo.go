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

const sessionCollectionName = "trainingSessions"

// mongoSessionRepository implements repository.SessionRepository.
// The session date is the document _id.
type mongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new session repository backed by MongoDB.
func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &mongoSessionRepository{
		collection: db.Collection(sessionCollectionName),
	}
}

func (r *mongoSessionRepository) Get(ctx context.Context, date string) (*domain.TrainingSession, error) {
	var session domain.TrainingSession
	err := r.collection.FindOne(ctx, bson.M{"_id": date}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// Put replaces the session document for session.Date, creating it if needed.
func (r *mongoSessionRepository) Put(ctx context.Context, session *domain.TrainingSession) error {
	if err := session.Validate(); err != nil {
		return err
	}
	if session.Attendees == nil {
		session.Attendees = []primitive.ObjectID{}
	}
	session.UpdatedAt = time.Now().UTC()

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": session.Date}, session, options.Replace().SetUpsert(true))
	return err
}

// ListAll returns every session; YYYY-MM-DD ids sort chronologically.
func (r *mongoSessionRepository) ListAll(ctx context.Context) ([]domain.TrainingSession, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []domain.TrainingSession{}
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, cursor.Err()
}

// ReplaceAttendee swaps from for to in every session, without creating duplicates.
func (r *mongoSessionRepository) ReplaceAttendee(ctx context.Context, from, to primitive.ObjectID) error {
	// Two steps: add to where from attended, then pull from everywhere.
	if _, err := r.collection.UpdateMany(ctx,
		bson.M{"attendees": from},
		bson.M{"$addToSet": bson.M{"attendees": to}},
	); err != nil {
		return err
	}
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"attendees": from},
		bson.M{"$pull": bson.M{"attendees": from}},
	)
	return err
}
