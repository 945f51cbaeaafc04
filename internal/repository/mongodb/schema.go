package mongodb

import (
	"context"
	"contract-signing/internal/model"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// namespace already exists
const codeNamespaceExists = 48

// EnsureSchema creates the collections up front, since transactions cannot
// create them on older servers, and the indexes backing the invariants.
func (r Repository) EnsureSchema(ctx context.Context) error {
	for _, name := range []string{contractsCollection, filesCollection, approvalsCollection, usersCollection, countersCollection} {
		err := r.db.CreateCollection(ctx, name)
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Code == codeNamespaceExists {
			continue
		}
		if err != nil {
			return errors.New("failed to create collection " + name + ": " + err.Error())
		}
	}

	_, err := r.db.Collection(contractsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "contract_code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		return errors.New("failed to index contracts: " + err.Error())
	}

	_, err = r.db.Collection(approvalsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			// at most one pending approval per contract and approver
			Keys: bson.D{{Key: "contract_id", Value: 1}, {Key: "approver_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("one_pending_per_approver").
				SetPartialFilterExpression(bson.M{"status": string(model.ApprovalPending)}),
		},
		{
			Keys: bson.D{{Key: "approver_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "contract_id", Value: 1}, {Key: "status", Value: 1}},
		},
	})
	if err != nil {
		return errors.New("failed to index approvals: " + err.Error())
	}

	return nil
}
