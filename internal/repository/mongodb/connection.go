package mongodb

import (
	"context"
	"contract-signing/internal/repository"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	contractsCollection = "contracts"
	filesCollection     = "contract_files"
	approvalsCollection = "approvals"
	usersCollection     = "users"
	countersCollection  = "counters"
)

type Repository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

func NewConnection(logger *zap.Logger, uri, dbName string) (Repository, error) {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		logger.Error("db connection failed", zap.String("db", dbName))
		return Repository{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	disconnect := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("failed to disconnect the DB: " + err.Error())
		}
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		disconnect()
		return Repository{}, err
	}

	repo := Repository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}

	if err := repo.EnsureSchema(ctx); err != nil {
		disconnect()
		return Repository{}, errors.New("failed to prepare the schema: " + err.Error())
	}

	return repo, nil
}

// WithinTx runs fn in a multi-document transaction. The driver retries fn on
// transient errors such as a write conflict with a concurrent transaction;
// the raw driver error is handed back so the label survives the wrapping
// done by callers of tx.
func (r Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	sess, err := r.client.StartSession()
	if err != nil {
		return errors.New("failed to start a session: " + err.Error())
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		t := newTx(r.db)
		if err := fn(sc, t); err != nil {
			if *t.transient != nil {
				return nil, *t.transient
			}
			return nil, err
		}
		return nil, nil
	})
	return err
}

func (r Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
