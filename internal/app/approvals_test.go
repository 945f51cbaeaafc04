package app

import (
	"context"
	"contract-signing/internal/apperrors"
	"contract-signing/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestApprovalThenReject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	contract := env.createContract(t, "C-7")
	env.uploadPDF(t, contract.ID, 1)

	approval, created, err := env.app.RequestApproval(ctx, contract.ID, 9)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.ApprovalPending, approval.Status)

	again, created, err := env.app.RequestApproval(ctx, contract.ID, 9)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, approval.ID, again.ID)

	view, err := env.app.GetContract(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingApproval, view.Contract.Status)

	rejected, after, err := env.app.RejectApproval(ctx, approval.ID, "missing signature page")
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalRejected, rejected.Status)
	require.NotNil(t, rejected.Notes)
	assert.Equal(t, "missing signature page", *rejected.Notes)
	assert.Equal(t, model.StatusInProgress, after.Status)

	approvals, err := env.app.ContractApprovals(ctx, contract.ID)
	require.NoError(t, err)
	require.Len(t, approvals, 1)
	assert.Equal(t, model.ApprovalRejected, approvals[0].Status)
}

func TestTwoApproversSign(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	contract := env.createContract(t, "C-7")
	env.uploadPDF(t, contract.ID, 1)

	ownerSigned, err := env.app.SignContract(ctx, contract.ID, signRequest(0))
	require.NoError(t, err)

	a, _, err := env.app.RequestApproval(ctx, contract.ID, 9)
	require.NoError(t, err)
	b, _, err := env.app.RequestApproval(ctx, contract.ID, 10)
	require.NoError(t, err)

	req := signRequest(0)
	req.Notes = "  ok  "
	approvedA, after, err := env.app.SignApproval(ctx, a.ID, req)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalApproved, approvedA.Status)
	assert.Equal(t, model.StatusPendingApproval, after.Status)
	require.NotNil(t, approvedA.Notes)
	assert.Equal(t, "ok", *approvedA.Notes)
	assert.Contains(t, approvedA.Signed.Name, "approval-1-contract-1-signed-")
	assert.NotEmpty(t, approvedA.SignedHash)
	assert.True(t, env.exists(t, approvedA.Signed))

	approvedB, after, err := env.app.SignApproval(ctx, b.ID, signRequest(0))
	require.NoError(t, err)
	assert.Nil(t, approvedB.Notes)
	assert.Equal(t, model.StatusActiveContract, after.Status)

	// approval artifacts never replace the contract's own signed file
	view, err := env.app.GetContract(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, ownerSigned.Files.Signed, view.Files.Signed)
	assert.True(t, env.exists(t, ownerSigned.Files.Signed))
}

func TestRejectLeavesOtherApprovalUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	contract := env.createContract(t, "C-7")
	env.uploadPDF(t, contract.ID, 1)

	a, _, err := env.app.RequestApproval(ctx, contract.ID, 9)
	require.NoError(t, err)
	b, _, err := env.app.RequestApproval(ctx, contract.ID, 10)
	require.NoError(t, err)

	_, _, err = env.app.SignApproval(ctx, a.ID, signRequest(0))
	require.NoError(t, err)

	_, after, err := env.app.RejectApproval(ctx, b.ID, "wrong vendor")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, after.Status)

	listed, err := env.app.ListApprovals(ctx, 9)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, model.ApprovalApproved, listed[0].Approval.Status)
	assert.Equal(t, contract.ID, listed[0].Contract.Contract.ID)
	assert.False(t, listed[0].Contract.Files.Original.IsZero())
}

func TestSignClosedApprovals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	contract := env.createContract(t, "C-7")
	env.uploadPDF(t, contract.ID, 1)

	a, _, err := env.app.RequestApproval(ctx, contract.ID, 9)
	require.NoError(t, err)
	_, _, err = env.app.RejectApproval(ctx, a.ID, "")
	require.NoError(t, err)

	_, _, err = env.app.SignApproval(ctx, a.ID, signRequest(0))
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
	assert.Equal(t, apperrors.CodeApprovalRejected, appErr.Code)

	b, _, err := env.app.RequestApproval(ctx, contract.ID, 10)
	require.NoError(t, err)
	_, _, err = env.app.SignApproval(ctx, b.ID, signRequest(0))
	require.NoError(t, err)

	_, _, err = env.app.SignApproval(ctx, b.ID, signRequest(0))
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	_, _, err = env.app.SignApproval(ctx, 999, signRequest(0))
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestSignApprovalWithoutUpload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	contract := env.createContract(t, "C-7")

	a, _, err := env.app.RequestApproval(ctx, contract.ID, 9)
	require.NoError(t, err)

	_, _, err = env.app.SignApproval(ctx, a.ID, signRequest(0))
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeSourceNotUploaded, appErr.Code)
}

func TestRequestApprovalValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	contract := env.createContract(t, "C-7")

	_, _, err := env.app.RequestApproval(ctx, contract.ID, 0)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, _, err = env.app.RequestApproval(ctx, contract.ID, 404)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeInvalidReference, appErr.Code)

	_, _, err = env.app.RequestApproval(ctx, 404, 9)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	_, err = env.app.ListApprovals(ctx, 0)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}
