package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// Collection names
const (
	programCollectionName       = "programs"
	legacyWeekCollectionName    = "program_weeks"
	cohortCollectionName        = "program_cohorts"
	instanceCollectionName      = "program_instances"
	enrollmentCollectionName    = "program_enrollments"
	taskCollectionName          = "tasks"
	clientWeekCollectionName    = "client_program_weeks"
	habitCollectionName         = "habits"
	discoverEventCollectionName = "discover_events"
)

// ConnectDB establishes a connection to MongoDB using the provided URI.
// It returns the mongo.Client which can be used to access databases and collections.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Ping the primary node to verify the connection; the connect call alone
	// succeeds even when the server is unreachable.
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

// SupportsTransactions reports whether the connected deployment can run
// multi-document transactions: replica set members and mongos routers can,
// standalone servers cannot.
func SupportsTransactions(ctx context.Context, client *mongo.Client) (bool, error) {
	var hello struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		return false, err
	}
	return hello.SetName != "" || hello.Msg == "isdbgrid", nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection. Failures are logged, not fatal,
// except for the instance uniqueness index which instance resolution relies on.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	ensure := func(name string, models []mongo.IndexModel) error {
		_, err := db.Collection(name).Indexes().CreateMany(ctx, models)
		if err != nil {
			logger.Warn("failed to create indexes", zap.String("collection", name), zap.Error(err))
		}
		return err
	}

	ensure(programCollectionName, programIndexes())
	ensure(legacyWeekCollectionName, legacyWeekIndexes())
	ensure(cohortCollectionName, cohortIndexes())
	ensure(enrollmentCollectionName, enrollmentIndexes())
	ensure(taskCollectionName, taskIndexes())
	ensure(clientWeekCollectionName, clientWeekIndexes())
	ensure(habitCollectionName, habitIndexes())
	ensure(discoverEventCollectionName, discoverEventIndexes())
	return ensure(instanceCollectionName, instanceIndexes())
}

// txRunner runs a unit of work atomically. With transactions disabled (standalone
// servers do not support them) the work runs directly and atomicity falls back to
// whatever the single write inside it guarantees.
type txRunner struct {
	client  *mongo.Client
	enabled bool
}

func newTxRunner(db *mongo.Database, enabled bool) txRunner {
	return txRunner{client: db.Client(), enabled: enabled}
}

func (t txRunner) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled {
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
