package workflow_test

import (
	"context"
	"contract-signing/internal/apperrors"
	"contract-signing/internal/model"
	"contract-signing/internal/repository"
	"contract-signing/internal/repository/memory"
	"contract-signing/internal/workflow"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store    *memory.Store
	machine  workflow.Machine
	contract model.Contract
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		store: memory.New(memory.WithUsers(
			model.User{ID: 1, FullName: "Owner"},
			model.User{ID: 9, FullName: "Approver A"},
			model.User{ID: 10, FullName: "Approver B"},
		)),
		machine: workflow.NewMachine(zap.NewNop()),
		now:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}

	f.contract = model.Contract{OwnerID: 1, Code: "C-7", Title: "Supply", Vendor: "ACME", Status: model.StatusInProgress}
	f.contract.Complete(f.now)
	f.tx(t, func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertContract(ctx, &f.contract)
	})
	return f
}

func (f *fixture) tx(t *testing.T, fn func(ctx context.Context, tx repository.Tx) error) {
	t.Helper()
	require.NoError(t, f.store.WithinTx(context.Background(), fn))
}

func (f *fixture) request(t *testing.T, approverID int64) (model.Approval, bool) {
	var (
		approval model.Approval
		created  bool
	)
	f.tx(t, func(ctx context.Context, tx repository.Tx) error {
		var err error
		approval, created, err = f.machine.RequestApproval(ctx, tx, f.contract.ID, approverID, f.now)
		return err
	})
	return approval, created
}

func (f *fixture) status(t *testing.T) model.ContractStatus {
	var status model.ContractStatus
	f.tx(t, func(ctx context.Context, tx repository.Tx) error {
		c, err := tx.GetContract(ctx, f.contract.ID)
		status = c.Status
		return err
	})
	return status
}

func TestRequestApprovalIsIdempotent(t *testing.T) {
	f := newFixture(t)

	first, created := f.request(t, 9)
	assert.True(t, created)
	assert.Equal(t, model.StatusPendingApproval, f.status(t))

	second, created := f.request(t, 9)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	f.tx(t, func(ctx context.Context, tx repository.Tx) error {
		approvals, err := tx.ListApprovalsByContract(ctx, f.contract.ID)
		assert.Len(t, approvals, 1)
		return err
	})
}

func TestRequestApprovalUnknownApprover(t *testing.T) {
	f := newFixture(t)

	err := f.store.WithinTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		_, _, err := f.machine.RequestApproval(ctx, tx, f.contract.ID, 404, f.now)
		return err
	})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	err = f.store.WithinTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		_, _, err := f.machine.RequestApproval(ctx, tx, 777, 9, f.now)
		return err
	})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestTwoApproversBothSign(t *testing.T) {
	f := newFixture(t)
	a, _ := f.request(t, 9)
	b, _ := f.request(t, 10)

	f.tx(t, func(ctx context.Context, tx repository.Tx) error {
		_, contract, err := f.machine.Approve(ctx, tx, a.ID, "", f.now)
		assert.Equal(t, model.StatusPendingApproval, contract.Status)
		return err
	})
	assert.Equal(t, model.StatusPendingApproval, f.status(t))

	f.tx(t, func(ctx context.Context, tx repository.Tx) error {
		approval, contract, err := f.machine.Approve(ctx, tx, b.ID, "  looks good ", f.now)
		require.NotNil(t, approval.Notes)
		assert.Equal(t, "looks good", *approval.Notes)
		assert.NotNil(t, approval.SignedAt)
		assert.Equal(t, model.StatusActiveContract, contract.Status)
		return err
	})
	assert.Equal(t, model.StatusActiveContract, f.status(t))
}

func TestRejectAfterOtherApproved(t *testing.T) {
	f := newFixture(t)
	a, _ := f.request(t, 9)
	b, _ := f.request(t, 10)

	f.tx(t, func(ctx context.Context, tx repository.Tx) error {
		_, _, err := f.machine.Approve(ctx, tx, a.ID, "", f.now)
		return err
	})

	f.tx(t, func(ctx context.Context, tx repository.Tx) error {
		rejected, _, err := f.machine.Reject(ctx, tx, b.ID, "missing signature page", f.now)
		require.NotNil(t, rejected.Notes)
		assert.Equal(t, "missing signature page", *rejected.Notes)
		return err
	})
	assert.Equal(t, model.StatusInProgress, f.status(t))

	f.tx(t, func(ctx context.Context, tx repository.Tx) error {
		stillApproved, err := tx.GetApproval(ctx, a.ID)
		assert.Equal(t, model.ApprovalApproved, stillApproved.Status)
		return err
	})
}

func TestClosedApprovalsAreTerminal(t *testing.T) {
	f := newFixture(t)
	a, _ := f.request(t, 9)

	f.tx(t, func(ctx context.Context, tx repository.Tx) error {
		_, _, err := f.machine.Reject(ctx, tx, a.ID, "", f.now)
		return err
	})

	err := f.store.WithinTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		_, _, err := f.machine.Approve(ctx, tx, a.ID, "", f.now)
		return err
	})
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeApprovalRejected, appErr.Code)

	err = f.store.WithinTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		_, _, err := f.machine.Reject(ctx, tx, a.ID, "", f.now)
		return err
	})
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	// a new cycle gets a new record
	again, created := f.request(t, 9)
	assert.True(t, created)
	assert.NotEqual(t, a.ID, again.ID)
}

func TestApproveMissingApproval(t *testing.T) {
	f := newFixture(t)
	err := f.store.WithinTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		_, _, err := f.machine.Approve(ctx, tx, 55, "", f.now)
		return err
	})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

// writeRecorder notes every document a unit of work writes.
type writeRecorder struct {
	repository.Tx
	writes *[]string
}

func (w writeRecorder) UpdateContract(ctx context.Context, c model.Contract) error {
	*w.writes = append(*w.writes, fmt.Sprintf("contract-%d", c.ID))
	return w.Tx.UpdateContract(ctx, c)
}

func (w writeRecorder) UpdateApproval(ctx context.Context, a model.Approval) error {
	*w.writes = append(*w.writes, fmt.Sprintf("approval-%d", a.ID))
	return w.Tx.UpdateApproval(ctx, a)
}

func (w writeRecorder) InsertApproval(ctx context.Context, a *model.Approval) error {
	err := w.Tx.InsertApproval(ctx, a)
	*w.writes = append(*w.writes, fmt.Sprintf("approval-%d", a.ID))
	return err
}

func TestApproveAlwaysWritesContract(t *testing.T) {
	f := newFixture(t)
	a, _ := f.request(t, 9)
	b, _ := f.request(t, 10)
	contractDoc := fmt.Sprintf("contract-%d", f.contract.ID)

	// concurrent final approvals of one contract must share a written
	// document, otherwise both commit with a stale pending count
	for i, approval := range []model.Approval{a, b} {
		var writes []string
		f.tx(t, func(ctx context.Context, tx repository.Tx) error {
			_, _, err := f.machine.Approve(ctx, writeRecorder{Tx: tx, writes: &writes}, approval.ID, "", f.now.Add(time.Minute))
			return err
		})
		assert.Contains(t, writes, contractDoc)
		assert.Contains(t, writes, fmt.Sprintf("approval-%d", approval.ID))
		if i == 0 {
			assert.Equal(t, model.StatusPendingApproval, f.status(t))
		}
	}
	assert.Equal(t, model.StatusActiveContract, f.status(t))
}

func TestRequestApprovalWritesContract(t *testing.T) {
	f := newFixture(t)
	f.request(t, 9)

	// the contract is already pending_approval, so no status change is due
	var writes []string
	f.tx(t, func(ctx context.Context, tx repository.Tx) error {
		_, created, err := f.machine.RequestApproval(ctx, writeRecorder{Tx: tx, writes: &writes}, f.contract.ID, 10, f.now)
		if err != nil {
			return err
		}
		assert.True(t, created)
		return nil
	})
	assert.Contains(t, writes, fmt.Sprintf("contract-%d", f.contract.ID))
}
