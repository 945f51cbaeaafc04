// Package repository defines the transactional record store holding
// contracts, their document version sets, approvals and users.
package repository

import (
	"context"
	"contract-signing/internal/model"
	"errors"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")

	// ErrSchemaMismatch marks a persisted record of unexpected shape.
	ErrSchemaMismatch = errors.New("stored record has an unexpected shape")
)

// RecordStore runs units of work. fn may be invoked more than once when the
// backend retries a transaction, so it must not perform side effects outside
// the Tx.
type RecordStore interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type ContractFilter struct {
	// zero means any owner
	OwnerID int64
}

type Tx interface {
	// InsertContract assigns c.ID. A taken code yields ErrDuplicate.
	InsertContract(ctx context.Context, c *model.Contract) error
	GetContract(ctx context.Context, id int64) (model.Contract, error)
	// ListContracts returns newest first.
	ListContracts(ctx context.Context, filter ContractFilter) ([]model.Contract, error)
	UpdateContract(ctx context.Context, c model.Contract) error
	DeleteContract(ctx context.Context, id int64) error

	// GetFiles returns an empty set for a contract without files.
	GetFiles(ctx context.Context, contractID int64) (model.DocumentVersionSet, error)
	ListFiles(ctx context.Context, contractIDs []int64) (map[int64]model.DocumentVersionSet, error)
	PutFiles(ctx context.Context, files model.DocumentVersionSet) error
	DeleteFiles(ctx context.Context, contractID int64) error

	// InsertApproval assigns a.ID. A second pending approval for the same
	// contract and approver yields ErrDuplicate.
	InsertApproval(ctx context.Context, a *model.Approval) error
	GetApproval(ctx context.Context, id int64) (model.Approval, error)
	PendingApproval(ctx context.Context, contractID, approverID int64) (model.Approval, error)
	UpdateApproval(ctx context.Context, a model.Approval) error
	CountPendingApprovals(ctx context.Context, contractID int64) (int, error)
	// Approval listings are newest first.
	ListApprovalsByApprover(ctx context.Context, approverID int64) ([]model.Approval, error)
	ListApprovalsByContract(ctx context.Context, contractID int64) ([]model.Approval, error)
	DeleteApprovals(ctx context.Context, contractID int64) error

	GetUser(ctx context.Context, id int64) (model.User, error)
	UpsertUser(ctx context.Context, u model.User) error
}

// UserExists reports whether id names a known user.
func UserExists(ctx context.Context, tx Tx, id int64) (bool, error) {
	_, err := tx.GetUser(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
