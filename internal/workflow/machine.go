package workflow

import (
	"context"
	"contract-signing/internal/apperrors"
	"contract-signing/internal/model"
	"contract-signing/internal/repository"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Machine applies lifecycle events inside a caller supplied unit of work.
// It never opens transactions of its own.
type Machine struct {
	logger *zap.Logger
}

func NewMachine(logger *zap.Logger) Machine {
	return Machine{logger: logger}
}

// LoadContract maps a missing record to a client facing not found.
func LoadContract(ctx context.Context, tx repository.Tx, contractID int64) (model.Contract, error) {
	contract, err := tx.GetContract(ctx, contractID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Contract{}, apperrors.NotFound(apperrors.CodeContractNotFound, "contract "+strconv.FormatInt(contractID, 10)+" not found")
	}
	if err != nil {
		return model.Contract{}, err
	}
	return contract, nil
}

func loadApproval(ctx context.Context, tx repository.Tx, approvalID int64) (model.Approval, error) {
	approval, err := tx.GetApproval(ctx, approvalID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Approval{}, apperrors.NotFound(apperrors.CodeApprovalNotFound, "approval "+strconv.FormatInt(approvalID, 10)+" not found")
	}
	if err != nil {
		return model.Approval{}, err
	}
	return approval, nil
}

// Apply moves the contract through ev and persists the new status.
func (m Machine) Apply(ctx context.Context, tx repository.Tx, contractID int64, ev Event, now time.Time) (model.Contract, error) {
	contract, err := LoadContract(ctx, tx, contractID)
	if err != nil {
		return model.Contract{}, err
	}

	next, err := Transition(contract.Status, ev)
	if err != nil {
		return model.Contract{}, apperrors.Integrity(apperrors.CodeSchemaMismatch, "cannot apply "+ev.String(), err)
	}
	if next == contract.Status {
		return contract, nil
	}

	m.logger.Debug("contract status changed",
		zap.Int64("contractID", contractID),
		zap.String("from", contract.Status.String()),
		zap.String("to", next.String()),
		zap.Stringer("event", ev))

	contract.Status = next
	contract.UpdatedAt = now
	if err := tx.UpdateContract(ctx, contract); err != nil {
		return model.Contract{}, errors.New("failed to update the contract status: " + err.Error())
	}
	return contract, nil
}

// claim writes the contract before its status is decided from other records.
// Concurrent units of work deciding the same contract then always collide on
// the contract and the store reruns the loser, which sees the winner's
// approvals.
func (m Machine) claim(ctx context.Context, tx repository.Tx, contractID int64, now time.Time) error {
	contract, err := LoadContract(ctx, tx, contractID)
	if err != nil {
		return err
	}

	contract.UpdatedAt = now
	if err := tx.UpdateContract(ctx, contract); err != nil {
		return fmt.Errorf("failed to claim the contract: %w", err)
	}
	return nil
}

// RequestApproval opens an approval cycle for approverID. An existing pending
// approval is returned unchanged with created set to false.
func (m Machine) RequestApproval(ctx context.Context, tx repository.Tx, contractID, approverID int64, now time.Time) (model.Approval, bool, error) {
	if _, err := LoadContract(ctx, tx, contractID); err != nil {
		return model.Approval{}, false, err
	}

	exists, err := repository.UserExists(ctx, tx, approverID)
	if err != nil {
		return model.Approval{}, false, errors.New("failed to look up the approver: " + err.Error())
	}
	if !exists {
		return model.Approval{}, false, apperrors.Validation(apperrors.CodeInvalidReference, "approver_id "+strconv.FormatInt(approverID, 10)+" is not a known user", nil)
	}

	pending, err := tx.PendingApproval(ctx, contractID, approverID)
	if err == nil {
		return pending, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.Approval{}, false, errors.New("failed to look up pending approvals: " + err.Error())
	}

	if err := m.claim(ctx, tx, contractID, now); err != nil {
		return model.Approval{}, false, err
	}

	approval := model.NewPendingApproval(contractID, approverID, now)
	if err := tx.InsertApproval(ctx, &approval); err != nil {
		// a concurrent request won the unique pending slot; the caller re-reads it
		return model.Approval{}, false, err
	}

	if _, err := m.Apply(ctx, tx, contractID, EventApprovalRequested, now); err != nil {
		return model.Approval{}, false, err
	}

	m.logger.Info("approval requested", zap.Int64("contractID", contractID), zap.Int64("approverID", approverID), zap.Int64("approvalID", approval.ID))
	return approval, true, nil
}

// PendingApproval reads the open approval of approverID, used after a lost
// insert race.
func (m Machine) PendingApproval(ctx context.Context, tx repository.Tx, contractID, approverID int64) (model.Approval, error) {
	approval, err := tx.PendingApproval(ctx, contractID, approverID)
	if err != nil {
		return model.Approval{}, apperrors.Integrity(apperrors.CodeDuplicate, "pending approval vanished after a duplicate insert", err)
	}
	return approval, nil
}

// Signable checks that approvalID can still be signed.
func (m Machine) Signable(ctx context.Context, tx repository.Tx, approvalID int64) (model.Approval, error) {
	approval, err := loadApproval(ctx, tx, approvalID)
	if err != nil {
		return model.Approval{}, err
	}

	switch approval.Status {
	case model.ApprovalRejected:
		return model.Approval{}, apperrors.Validation(apperrors.CodeApprovalRejected, "approval was already rejected", nil)
	case model.ApprovalApproved:
		return model.Approval{}, apperrors.Conflict(apperrors.CodeApprovalClosed, "approval was already signed")
	}
	return approval, nil
}

// Approve closes a pending approval as approved. The pending count deciding
// whether the contract becomes active is read in the same unit of work.
func (m Machine) Approve(ctx context.Context, tx repository.Tx, approvalID int64, notes string, now time.Time) (model.Approval, model.Contract, error) {
	approval, err := m.Signable(ctx, tx, approvalID)
	if err != nil {
		return model.Approval{}, model.Contract{}, err
	}
	if err := m.claim(ctx, tx, approval.ContractID, now); err != nil {
		return model.Approval{}, model.Contract{}, err
	}

	approval.Status = model.ApprovalApproved
	approval.Notes = trimNotes(notes)
	approval.UpdatedAt = now
	signedAt := now
	approval.SignedAt = &signedAt
	if err := tx.UpdateApproval(ctx, approval); err != nil {
		return model.Approval{}, model.Contract{}, errors.New("failed to update the approval: " + err.Error())
	}

	pendingLeft, err := tx.CountPendingApprovals(ctx, approval.ContractID)
	if err != nil {
		return model.Approval{}, model.Contract{}, errors.New("failed to count pending approvals: " + err.Error())
	}

	contract, err := m.Apply(ctx, tx, approval.ContractID, AfterApproverSigned(pendingLeft), now)
	if err != nil {
		return model.Approval{}, model.Contract{}, err
	}

	m.logger.Info("approval signed", zap.Int64("approvalID", approvalID), zap.Int64("contractID", approval.ContractID), zap.Int("pendingLeft", pendingLeft))
	return approval, contract, nil
}

// Reject closes a pending approval as rejected and sends the contract back
// to in_progress for rework.
func (m Machine) Reject(ctx context.Context, tx repository.Tx, approvalID int64, notes string, now time.Time) (model.Approval, model.Contract, error) {
	approval, err := loadApproval(ctx, tx, approvalID)
	if err != nil {
		return model.Approval{}, model.Contract{}, err
	}
	if approval.Status != model.ApprovalPending {
		return model.Approval{}, model.Contract{}, apperrors.Conflict(apperrors.CodeApprovalClosed, "approval is already "+approval.Status.String())
	}

	approval.Status = model.ApprovalRejected
	approval.Notes = trimNotes(notes)
	approval.UpdatedAt = now
	if err := tx.UpdateApproval(ctx, approval); err != nil {
		return model.Approval{}, model.Contract{}, errors.New("failed to update the approval: " + err.Error())
	}

	contract, err := m.Apply(ctx, tx, approval.ContractID, EventApproverRejected, now)
	if err != nil {
		return model.Approval{}, model.Contract{}, err
	}

	m.logger.Info("approval rejected", zap.Int64("approvalID", approvalID), zap.Int64("contractID", approval.ContractID))
	return approval, contract, nil
}

func trimNotes(notes string) *string {
	trimmed := strings.TrimSpace(notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
