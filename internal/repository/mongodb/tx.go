package mongodb

import (
	"context"
	"contract-signing/internal/model"
	"contract-signing/internal/repository"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const transientTransactionLabel = "TransientTransactionError"

// tx issues every operation through the session context it was handed.
type tx struct {
	db *mongo.Database

	// first transient failure of this attempt, see Repository.WithinTx
	transient *error
}

func newTx(db *mongo.Database) tx {
	return tx{db: db, transient: new(error)}
}

// retryable is set by the server on write conflicts between concurrent
// transactions; the whole transaction may be run again.
func retryable(err error) bool {
	var serverErr mongo.ServerError
	return errors.As(err, &serverErr) && serverErr.HasErrorLabel(transientTransactionLabel)
}

func (t tx) translate(err error, what string) error {
	if retryable(err) && *t.transient == nil {
		*t.transient = err
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, what)
	default:
		return fmt.Errorf("failed to %s: %w", what, err)
	}
}

func mismatch(err error) error {
	return fmt.Errorf("%w: %s", repository.ErrSchemaMismatch, err.Error())
}

func (t tx) nextID(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var c counter
	err := t.db.Collection(countersCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": 1}}, opts).
		Decode(&c)
	if err != nil {
		return 0, t.translate(err, "allocate "+name+" id")
	}
	return c.Seq, nil
}

func (t tx) InsertContract(ctx context.Context, c *model.Contract) error {
	id, err := t.nextID(ctx, contractsCollection)
	if err != nil {
		return err
	}

	stored := fromContract(*c)
	stored.ID = id
	if _, err := t.db.Collection(contractsCollection).InsertOne(ctx, stored); err != nil {
		return t.translate(err, "insert a contract")
	}

	c.ID = id
	return nil
}

func (t tx) GetContract(ctx context.Context, id int64) (model.Contract, error) {
	var stored storedContract
	err := t.db.Collection(contractsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&stored)
	if err != nil {
		return model.Contract{}, t.translate(err, "get the contract")
	}
	return stored.toModel(), nil
}

func (t tx) ListContracts(ctx context.Context, filter repository.ContractFilter) ([]model.Contract, error) {
	query := bson.M{}
	if filter.OwnerID != 0 {
		query["owner_id"] = filter.OwnerID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := t.db.Collection(contractsCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, t.translate(err, "find contracts")
	}

	var stored []storedContract
	if err := cursor.All(ctx, &stored); err != nil {
		return nil, t.translate(err, "get all contracts from the cursor")
	}

	contracts := make([]model.Contract, 0, len(stored))
	for _, s := range stored {
		contracts = append(contracts, s.toModel())
	}
	return contracts, nil
}

func (t tx) UpdateContract(ctx context.Context, c model.Contract) error {
	result, err := t.db.Collection(contractsCollection).ReplaceOne(ctx, bson.M{"_id": c.ID}, fromContract(c))
	if err != nil {
		return t.translate(err, "update the contract")
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (t tx) DeleteContract(ctx context.Context, id int64) error {
	result, err := t.db.Collection(contractsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return t.translate(err, "delete the contract")
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (t tx) GetFiles(ctx context.Context, contractID int64) (model.DocumentVersionSet, error) {
	var stored storedFiles
	err := t.db.Collection(filesCollection).FindOne(ctx, bson.M{"_id": contractID}).Decode(&stored)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.DocumentVersionSet{ContractID: contractID}, nil
	}
	if err != nil {
		return model.DocumentVersionSet{}, t.translate(err, "get the contract files")
	}

	files, err := stored.toModel()
	if err != nil {
		return model.DocumentVersionSet{}, mismatch(err)
	}
	return files, nil
}

func (t tx) ListFiles(ctx context.Context, contractIDs []int64) (map[int64]model.DocumentVersionSet, error) {
	result := make(map[int64]model.DocumentVersionSet, len(contractIDs))
	if len(contractIDs) == 0 {
		return result, nil
	}

	cursor, err := t.db.Collection(filesCollection).Find(ctx, bson.M{"_id": bson.M{"$in": contractIDs}})
	if err != nil {
		return nil, t.translate(err, "find contract files")
	}

	var stored []storedFiles
	if err := cursor.All(ctx, &stored); err != nil {
		return nil, t.translate(err, "get all contract files from the cursor")
	}

	for _, s := range stored {
		files, err := s.toModel()
		if err != nil {
			return nil, mismatch(err)
		}
		result[files.ContractID] = files
	}
	return result, nil
}

func (t tx) PutFiles(ctx context.Context, files model.DocumentVersionSet) error {
	count, err := t.db.Collection(contractsCollection).CountDocuments(ctx, bson.M{"_id": files.ContractID})
	if err != nil {
		return t.translate(err, "check the contract")
	}
	if count == 0 {
		return repository.ErrNotFound
	}

	opts := options.Replace().SetUpsert(true)
	_, err = t.db.Collection(filesCollection).ReplaceOne(ctx, bson.M{"_id": files.ContractID}, fromFiles(files), opts)
	return t.translate(err, "store the contract files")
}

func (t tx) DeleteFiles(ctx context.Context, contractID int64) error {
	_, err := t.db.Collection(filesCollection).DeleteOne(ctx, bson.M{"_id": contractID})
	return t.translate(err, "delete the contract files")
}

func (t tx) InsertApproval(ctx context.Context, a *model.Approval) error {
	id, err := t.nextID(ctx, approvalsCollection)
	if err != nil {
		return err
	}

	stored := fromApproval(*a)
	stored.ID = id
	if _, err := t.db.Collection(approvalsCollection).InsertOne(ctx, stored); err != nil {
		return t.translate(err, "insert an approval")
	}

	a.ID = id
	return nil
}

func (t tx) findApproval(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (model.Approval, error) {
	var stored storedApproval
	err := t.db.Collection(approvalsCollection).FindOne(ctx, filter, opts...).Decode(&stored)
	if err != nil {
		return model.Approval{}, t.translate(err, "get the approval")
	}

	a, err := stored.toModel()
	if err != nil {
		return model.Approval{}, mismatch(err)
	}
	return a, nil
}

func (t tx) GetApproval(ctx context.Context, id int64) (model.Approval, error) {
	return t.findApproval(ctx, bson.M{"_id": id})
}

func (t tx) PendingApproval(ctx context.Context, contractID, approverID int64) (model.Approval, error) {
	filter := bson.M{
		"contract_id": contractID,
		"approver_id": approverID,
		"status":      string(model.ApprovalPending),
	}
	return t.findApproval(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}}))
}

func (t tx) UpdateApproval(ctx context.Context, a model.Approval) error {
	result, err := t.db.Collection(approvalsCollection).ReplaceOne(ctx, bson.M{"_id": a.ID}, fromApproval(a))
	if err != nil {
		return t.translate(err, "update the approval")
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (t tx) CountPendingApprovals(ctx context.Context, contractID int64) (int, error) {
	count, err := t.db.Collection(approvalsCollection).CountDocuments(ctx, bson.M{
		"contract_id": contractID,
		"status":      string(model.ApprovalPending),
	})
	if err != nil {
		return 0, t.translate(err, "count pending approvals")
	}
	return int(count), nil
}

func (t tx) listApprovals(ctx context.Context, filter bson.M) ([]model.Approval, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := t.db.Collection(approvalsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, t.translate(err, "find approvals")
	}

	var stored []storedApproval
	if err := cursor.All(ctx, &stored); err != nil {
		return nil, t.translate(err, "get all approvals from the cursor")
	}

	approvals := make([]model.Approval, 0, len(stored))
	for _, s := range stored {
		a, err := s.toModel()
		if err != nil {
			return nil, mismatch(err)
		}
		approvals = append(approvals, a)
	}
	return approvals, nil
}

func (t tx) ListApprovalsByApprover(ctx context.Context, approverID int64) ([]model.Approval, error) {
	return t.listApprovals(ctx, bson.M{"approver_id": approverID})
}

func (t tx) ListApprovalsByContract(ctx context.Context, contractID int64) ([]model.Approval, error) {
	return t.listApprovals(ctx, bson.M{"contract_id": contractID})
}

func (t tx) DeleteApprovals(ctx context.Context, contractID int64) error {
	_, err := t.db.Collection(approvalsCollection).DeleteMany(ctx, bson.M{"contract_id": contractID})
	return t.translate(err, "delete approvals")
}

func (t tx) GetUser(ctx context.Context, id int64) (model.User, error) {
	var stored storedUser
	err := t.db.Collection(usersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&stored)
	if err != nil {
		return model.User{}, t.translate(err, "get the user")
	}
	return stored.toModel(), nil
}

func (t tx) UpsertUser(ctx context.Context, u model.User) error {
	stored := storedUser{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: u.Role}
	opts := options.Replace().SetUpsert(true)
	_, err := t.db.Collection(usersCollection).ReplaceOne(ctx, bson.M{"_id": u.ID}, stored, opts)
	return t.translate(err, "store the user")
}
