package mongo

import (
	"context"
	"time"

	"alcyxob/team-points/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI.
// It returns the mongo.Client which can be used to access databases and collections.
func ConnectDB(uri string) (*mongo.Client, error) {
	// Set context with timeout for the connection attempt
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Ping the primary node to verify the connection. The initial connect can
	// succeed against an unresponsive server.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// transactor runs multi-document transactions on client sessions.
// Transactions require a replica set or sharded cluster.
type transactor struct {
	client *mongo.Client
}

// NewTransactor returns a repository.Transactor backed by MongoDB sessions.
func NewTransactor(client *mongo.Client) repository.Transactor {
	return &transactor{client: client}
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Already inside a session: join it instead of opening a nested one.
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// NewStore wires every MongoDB repository against db.
func NewStore(client *mongo.Client, db *mongo.Database) repository.Store {
	return repository.Store{
		Members:  NewMongoMemberRepository(db),
		Ledger:   NewMongoLedgerRepository(db),
		Sessions: NewMongoSessionRepository(db),
		Items:    NewMongoItemRepository(db),
		Tx:       NewTransactor(client),
	}
}

// EnsureIndexes creates the indexes of every collection. Failures are logged
// and startup continues.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) {
	steps := []struct {
		collection string
		ensure     func(context.Context, *mongo.Collection) error
	}{
		{memberCollectionName, EnsureMemberIndexes},
		{ledgerCollectionName, EnsureLedgerIndexes},
		{exerciseCollectionName, EnsureItemIndexes},
		{dailyCollectionName, EnsureItemIndexes},
		{weeklyCollectionName, EnsureItemIndexes},
		{monthlyCollectionName, EnsureItemIndexes},
	}
	for _, step := range steps {
		if err := step.ensure(ctx, db.Collection(step.collection)); err != nil {
			logger.Warn("failed to create indexes", zap.String("collection", step.collection), zap.Error(err))
		}
	}
}
