package app

import (
	"context"
	"contract-signing/internal/apperrors"
	"contract-signing/internal/ledger"
	"contract-signing/internal/model"
	"contract-signing/internal/repository"
	"contract-signing/internal/workflow"
	"errors"

	"go.uber.org/zap"
)

// ApprovalView joins an approval with the contract it belongs to.
type ApprovalView struct {
	Approval model.Approval
	Contract ContractView
}

// RequestApproval is idempotent: an existing pending approval for the same
// approver comes back with created set to false.
func (a App) RequestApproval(ctx context.Context, contractID, approverID int64) (model.Approval, bool, error) {
	if approverID <= 0 {
		return model.Approval{}, false, apperrors.Validation(apperrors.CodeBadPayload, "approver_id is required", nil)
	}

	var (
		approval model.Approval
		created  bool
	)
	err := a.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		approval, created, err = a.machine.RequestApproval(ctx, tx, contractID, approverID, a.now())
		return err
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// lost the race for the pending slot, hand back the winner
		a.logger.Debug("concurrent approval request, returning the existing one", zap.Int64("contractID", contractID), zap.Int64("approverID", approverID))
		err = a.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			var err error
			approval, err = a.machine.PendingApproval(ctx, tx, contractID, approverID)
			created = false
			return err
		})
	}
	if err != nil {
		return model.Approval{}, false, classify(err)
	}
	return approval, created, nil
}

// ListApprovals returns the approvals assigned to approverID, newest first.
func (a App) ListApprovals(ctx context.Context, approverID int64) (views []ApprovalView, err error) {
	if approverID <= 0 {
		return nil, apperrors.Validation(apperrors.CodeBadPayload, "approver_id is required", nil)
	}

	err = a.tx(ctx, func(ctx context.Context, tx repository.Tx) error {
		approvals, err := tx.ListApprovalsByApprover(ctx, approverID)
		if err != nil {
			return err
		}

		ids := make([]int64, 0, len(approvals))
		for _, approval := range approvals {
			ids = append(ids, approval.ContractID)
		}
		files, err := tx.ListFiles(ctx, ids)
		if err != nil {
			return err
		}

		views = make([]ApprovalView, 0, len(approvals))
		for _, approval := range approvals {
			contract, err := tx.GetContract(ctx, approval.ContractID)
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.Integrity(apperrors.CodeSchemaMismatch, "approval references a missing contract", err)
			}
			if err != nil {
				return err
			}

			set, ok := files[approval.ContractID]
			if !ok {
				set = model.DocumentVersionSet{ContractID: approval.ContractID}
			}
			views = append(views, ApprovalView{
				Approval: approval,
				Contract: ContractView{Contract: contract, Files: set},
			})
		}
		return nil
	})
	return
}

// ContractApprovals lists every approval cycle of one contract.
func (a App) ContractApprovals(ctx context.Context, contractID int64) (approvals []model.Approval, err error) {
	err = a.tx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := workflow.LoadContract(ctx, tx, contractID); err != nil {
			return err
		}
		approvals, err = tx.ListApprovalsByContract(ctx, contractID)
		return err
	})
	return
}

// SignApproval stamps the latest contract document on behalf of an approver
// and closes the approval. The contract's own signed artifact is untouched.
func (a App) SignApproval(ctx context.Context, approvalID int64, req model.SignRequest) (model.Approval, model.Contract, error) {
	in, err := prepareSign(req)
	if err != nil {
		return model.Approval{}, model.Contract{}, err
	}

	var (
		approval model.Approval
		source   ledger.SourceVersion
	)
	if err := a.tx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		approval, err = a.machine.Signable(ctx, tx, approvalID)
		if err != nil {
			return err
		}
		source, err = a.ledger.Source(ctx, tx, approval.ContractID)
		return err
	}); err != nil {
		return model.Approval{}, model.Contract{}, err
	}

	ctx, cancel := a.detach(ctx)
	defer cancel()

	sourceBytes, err := a.ledger.LoadSource(ctx, source)
	if err != nil {
		return model.Approval{}, model.Contract{}, err
	}

	signed, err := a.stamp(sourceBytes, in)
	if err != nil {
		return model.Approval{}, model.Contract{}, err
	}

	ref, digest, err := a.ledger.StoreNew(ctx, func() model.FileRef {
		return a.namer.ApprovalSigned(approvalID, approval.ContractID)
	}, signed)
	if err != nil {
		return model.Approval{}, model.Contract{}, err
	}

	var contract model.Contract
	err = a.tx(ctx, func(ctx context.Context, tx repository.Tx) error {
		// the approval may have been closed while composing
		_, c, err := a.machine.Approve(ctx, tx, approvalID, in.notes, a.now())
		if err != nil {
			return err
		}
		contract = c

		approval, err = a.ledger.RecordApprovalSigned(ctx, tx, approvalID, ref, digest)
		return err
	})
	if err != nil {
		a.ledger.Reclaim(ref)
		return model.Approval{}, model.Contract{}, err
	}

	a.logger.Info("approval document signed", zap.Int64("approvalID", approvalID), zap.Int64("contractID", approval.ContractID), zap.String("path", ref.Path()), zap.String("contractStatus", contract.Status.String()))
	return approval, contract, nil
}

// RejectApproval closes a pending approval without a signature.
func (a App) RejectApproval(ctx context.Context, approvalID int64, notes string) (approval model.Approval, contract model.Contract, err error) {
	err = a.tx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		approval, contract, err = a.machine.Reject(ctx, tx, approvalID, notes, a.now())
		return err
	})
	return
}
