package mongodb

import (
	"context"
	"contract-signing/internal/model"
	"contract-signing/internal/repository"
	"contract-signing/internal/workflow"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Needs a replica set, e.g. TEST_DB_URI=mongodb://localhost:27017/?replicaSet=rs0
func newTestRepository(t *testing.T) Repository {
	uri := os.Getenv("TEST_DB_URI")
	if uri == "" {
		t.Skip("TEST_DB_URI not set")
	}

	repo, err := NewConnection(zap.NewNop(), uri, "contracts_test_"+uuid.NewString()[:8])
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = repo.db.Drop(context.Background())
		_ = repo.Close(context.Background())
	})
	return repo
}

func TestContractLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	c := model.Contract{OwnerID: 1, Code: "C-7", Title: "Supply", Vendor: "ACME"}
	c.Complete(now)

	err := repo.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertContract(ctx, &c)
	})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)

	dup := model.Contract{OwnerID: 1, Code: "C-7"}
	dup.Complete(now)
	err = repo.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertContract(ctx, &dup)
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	files := model.DocumentVersionSet{
		ContractID:   c.ID,
		Original:     model.FileRef{Area: model.AreaUploads, Name: "1-a b.pdf"},
		OriginalHash: "abc",
	}
	err = repo.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.PutFiles(ctx, files)
	})
	require.NoError(t, err)

	err = repo.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		got, err := tx.GetContract(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "C-7", got.Code)
		assert.Equal(t, model.StatusDraft, got.Status)

		gotFiles, err := tx.GetFiles(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, files, gotFiles)

		listed, err := tx.ListFiles(ctx, []int64{c.ID, c.ID + 100})
		require.NoError(t, err)
		assert.Len(t, listed, 1)
		return nil
	})
	require.NoError(t, err)
}

func TestPendingApprovalIndex(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	c := model.Contract{OwnerID: 1, Code: "C-9"}
	c.Complete(now)
	first := model.NewPendingApproval(0, 9, now)

	err := repo.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.InsertContract(ctx, &c); err != nil {
			return err
		}
		first.ContractID = c.ID
		return tx.InsertApproval(ctx, &first)
	})
	require.NoError(t, err)

	err = repo.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		second := model.NewPendingApproval(c.ID, 9, now)
		return tx.InsertApproval(ctx, &second)
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	err = repo.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		first.Status = model.ApprovalApproved
		first.Signed = model.FileRef{Area: model.AreaStorage, Name: "approval-1-contract-1-signed-1.pdf"}
		if err := tx.UpdateApproval(ctx, first); err != nil {
			return err
		}
		count, err := tx.CountPendingApprovals(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		next := model.NewPendingApproval(c.ID, 9, now.Add(time.Second))
		return tx.InsertApproval(ctx, &next)
	})
	require.NoError(t, err)

	err = repo.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		approvals, err := tx.ListApprovalsByApprover(ctx, 9)
		require.NoError(t, err)
		require.Len(t, approvals, 2)
		assert.Equal(t, model.ApprovalPending, approvals[0].Status)
		assert.Equal(t, model.ApprovalApproved, approvals[1].Status)
		assert.Equal(t, "approval-1-contract-1-signed-1.pdf", approvals[1].Signed.Name)
		return nil
	})
	require.NoError(t, err)
}

func TestConcurrentFinalApprovals(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	machine := workflow.NewMachine(zap.NewNop())

	c := model.Contract{OwnerID: 1, Code: "C-11", Status: model.StatusInProgress}
	c.Complete(now)
	var approvals []model.Approval
	err := repo.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		approvals = nil
		for _, u := range []model.User{{ID: 1, FullName: "Owner"}, {ID: 9, FullName: "A"}, {ID: 10, FullName: "B"}} {
			if err := tx.UpsertUser(ctx, u); err != nil {
				return err
			}
		}
		if err := tx.InsertContract(ctx, &c); err != nil {
			return err
		}
		for _, approverID := range []int64{9, 10} {
			a, _, err := machine.RequestApproval(ctx, tx, c.ID, approverID, now)
			if err != nil {
				return err
			}
			approvals = append(approvals, a)
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, approvals, 2)

	var (
		wg   sync.WaitGroup
		errs = make([]error, len(approvals))
	)
	for i, a := range approvals {
		wg.Add(1)
		go func(i int, approvalID int64) {
			defer wg.Done()
			errs[i] = repo.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
				_, _, err := machine.Approve(ctx, tx, approvalID, "", now.Add(time.Minute))
				return err
			})
		}(i, a.ID)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	err = repo.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		got, err := tx.GetContract(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusActiveContract, got.Status)

		pending, err := tx.CountPendingApprovals(ctx, c.ID)
		require.NoError(t, err)
		assert.Zero(t, pending)
		return nil
	})
	require.NoError(t, err)
}
