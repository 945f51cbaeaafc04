package app

import (
	"context"
	"contract-signing/internal/apperrors"
	"contract-signing/internal/model"
	"contract-signing/internal/repository"
	"contract-signing/internal/workflow"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ContractView is a contract together with its document set.
type ContractView struct {
	Contract model.Contract
	Files    model.DocumentVersionSet
}

// ContractUpdate carries the editable metadata; nil fields are kept.
type ContractUpdate struct {
	Title  *string
	Vendor *string
	Code   *string
}

func validateContract(c model.Contract) error {
	var err error
	if c.Title == "" {
		err = multierr.Append(err, errors.New("title is required"))
	}
	if c.Vendor == "" {
		err = multierr.Append(err, errors.New("vendor is required"))
	}
	if c.Code == "" {
		err = multierr.Append(err, errors.New("contractId is required"))
	}
	if c.OwnerID <= 0 {
		err = multierr.Append(err, errors.New("owner_id is required"))
	}
	return err
}

func (a App) CreateContract(ctx context.Context, c model.Contract) (ContractView, error) {
	c.Complete(a.now())
	if err := validateContract(c); err != nil {
		return ContractView{}, apperrors.Validation(apperrors.CodeBadPayload, "invalid contract", err)
	}

	err := a.tx(ctx, func(ctx context.Context, tx repository.Tx) error {
		exists, err := repository.UserExists(ctx, tx, c.OwnerID)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.Validation(apperrors.CodeInvalidReference, "owner_id "+strconv.FormatInt(c.OwnerID, 10)+" is not a known user", nil)
		}

		if err := tx.InsertContract(ctx, &c); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.Conflict(apperrors.CodeDuplicate, "contract code "+c.Code+" is already used")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return ContractView{}, err
	}

	a.logger.Info("contract created", zap.Int64("contractID", c.ID), zap.String("code", c.Code), zap.Int64("ownerID", c.OwnerID))
	return ContractView{Contract: c, Files: model.DocumentVersionSet{ContractID: c.ID}}, nil
}

func (a App) GetContract(ctx context.Context, id int64) (view ContractView, err error) {
	err = a.tx(ctx, func(ctx context.Context, tx repository.Tx) error {
		contract, err := workflow.LoadContract(ctx, tx, id)
		if err != nil {
			return err
		}
		files, err := a.ledger.Files(ctx, tx, id)
		if err != nil {
			return err
		}
		view = ContractView{Contract: contract, Files: files}
		return nil
	})
	return
}

// ListContracts returns newest first; ownerID 0 lists every contract.
func (a App) ListContracts(ctx context.Context, ownerID int64) (views []ContractView, err error) {
	err = a.tx(ctx, func(ctx context.Context, tx repository.Tx) error {
		contracts, err := tx.ListContracts(ctx, repository.ContractFilter{OwnerID: ownerID})
		if err != nil {
			return err
		}

		ids := make([]int64, 0, len(contracts))
		for _, c := range contracts {
			ids = append(ids, c.ID)
		}
		files, err := tx.ListFiles(ctx, ids)
		if err != nil {
			return err
		}

		views = make([]ContractView, 0, len(contracts))
		for _, c := range contracts {
			set, ok := files[c.ID]
			if !ok {
				set = model.DocumentVersionSet{ContractID: c.ID}
			}
			views = append(views, ContractView{Contract: c, Files: set})
		}
		return nil
	})
	return
}

// UpdateContract edits metadata only; the status belongs to the workflow.
func (a App) UpdateContract(ctx context.Context, id int64, update ContractUpdate) (view ContractView, err error) {
	err = a.tx(ctx, func(ctx context.Context, tx repository.Tx) error {
		contract, err := workflow.LoadContract(ctx, tx, id)
		if err != nil {
			return err
		}

		if update.Title != nil {
			contract.Title = strings.TrimSpace(*update.Title)
		}
		if update.Vendor != nil {
			contract.Vendor = strings.TrimSpace(*update.Vendor)
		}
		if update.Code != nil {
			contract.Code = strings.TrimSpace(*update.Code)
		}
		if err := validateContract(contract); err != nil {
			return apperrors.Validation(apperrors.CodeBadPayload, "invalid contract", err)
		}
		contract.UpdatedAt = a.now()

		if err := tx.UpdateContract(ctx, contract); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.Conflict(apperrors.CodeDuplicate, "contract code "+contract.Code+" is already used")
			}
			return err
		}

		files, err := a.ledger.Files(ctx, tx, id)
		if err != nil {
			return err
		}
		view = ContractView{Contract: contract, Files: files}
		return nil
	})
	return
}

// DeleteContract removes the contract with its document set and approvals.
// The files go once the records are gone.
func (a App) DeleteContract(ctx context.Context, id int64) error {
	var orphans []model.FileRef

	err := a.tx(ctx, func(ctx context.Context, tx repository.Tx) error {
		orphans = nil
		if _, err := workflow.LoadContract(ctx, tx, id); err != nil {
			return err
		}

		files, err := a.ledger.Files(ctx, tx, id)
		if err != nil {
			return err
		}
		orphans = append(orphans, files.Original, files.Signed)

		approvals, err := tx.ListApprovalsByContract(ctx, id)
		if err != nil {
			return err
		}
		for _, approval := range approvals {
			orphans = append(orphans, approval.Signed)
		}

		if err := tx.DeleteApprovals(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteFiles(ctx, id); err != nil {
			return err
		}
		return tx.DeleteContract(ctx, id)
	})
	if err != nil {
		return err
	}

	a.ledger.Reclaim(orphans...)
	a.logger.Info("contract deleted", zap.Int64("contractID", id))
	return nil
}
