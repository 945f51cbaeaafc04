package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want ContractStatus
	}{
		{"Pending Approval", StatusPendingApproval},
		{"pending approval", StatusPendingApproval},
		{"pending_approval", StatusPendingApproval},
		{"  In   Progress ", StatusInProgress},
		{"ACTIVE_CONTRACT", StatusActiveContract},
		{"Expiring Soon", StatusExpiringSoon},
		{"", StatusDraft},
		{"archived", StatusDraft},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeStatus(tt.in), tt.in)
	}

	assert.Equal(t, "Pending Approval", StatusPendingApproval.Label())
	assert.Equal(t, "weird", ContractStatus("weird").Label())
}

func TestContractComplete(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := Contract{Title: " Lease ", Status: "bogus"}
	c.Complete(now)

	assert.Equal(t, "Lease", c.Title)
	assert.Equal(t, StatusDraft, c.Status)
	assert.Equal(t, now, c.CreatedAt)
	assert.Equal(t, now, c.UpdatedAt)
}

func TestFileRefPath(t *testing.T) {
	ref := FileRef{Area: AreaStorage, Name: "contract-7-signed-1.pdf"}
	assert.Equal(t, "/storage/contract-7-signed-1.pdf", ref.Path())
	assert.Equal(t, "", FileRef{}.Path())

	parsed, ok := ParseFileRef(ref.Path())
	require.True(t, ok)
	assert.Equal(t, ref, parsed)

	spaced := FileRef{Area: AreaUploads, Name: "1-my file.pdf"}
	parsed, ok = ParseFileRef(spaced.Path())
	require.True(t, ok)
	assert.Equal(t, spaced, parsed)
}

func TestParseFileRefRejectsOutsideAreas(t *testing.T) {
	for _, p := range []string{"", "/etc/passwd", "/uploads", "/uploads/..", "/public/a.pdf"} {
		_, ok := ParseFileRef(p)
		assert.False(t, ok, p)
	}

	// only the base name survives
	ref, ok := ParseFileRef("/uploads/..%2F..%2Fsecret.pdf")
	require.True(t, ok)
	assert.Equal(t, FileRef{Area: AreaUploads, Name: "secret.pdf"}, ref)
}

func TestLatest(t *testing.T) {
	var set DocumentVersionSet
	_, ok := set.Latest()
	assert.False(t, ok)

	set.Original = FileRef{Area: AreaUploads, Name: "1-a.pdf"}
	latest, ok := set.Latest()
	require.True(t, ok)
	assert.Equal(t, set.Original, latest)

	set.Signed = FileRef{Area: AreaStorage, Name: "contract-1-signed-2.pdf"}
	latest, ok = set.Latest()
	require.True(t, ok)
	assert.Equal(t, set.Signed, latest)
}

func TestSignRequestValidate(t *testing.T) {
	page, x, y, w, h := 0, 10.0, 20.0, 100.0, 40.0
	req := SignRequest{PageIndex: &page, X: &x, Y: &y, Width: &w, Height: &h, ImageDataURL: "data:image/png;base64,AA=="}
	assert.NoError(t, req.Validate())

	negative, zero, nan := -1, 0.0, math.NaN()
	bad := SignRequest{PageIndex: &negative, X: &nan, Width: &zero, Height: &h}
	err := bad.Validate()
	require.Error(t, err)
	for _, msg := range []string{"pageIndex must not be negative", "x must be a finite number", "y is missing", "width must be greater than zero", "imageDataUrl is missing"} {
		assert.Contains(t, err.Error(), msg)
	}

	assert.Equal(t, 0, SignRequest{}.Page())
}

func TestApprovalStatus(t *testing.T) {
	a := NewPendingApproval(1, 9, time.Now())
	assert.Equal(t, ApprovalPending, a.Status)
	assert.False(t, a.Status.IsTerminal())
	assert.True(t, ApprovalRejected.IsTerminal())
	assert.False(t, ApprovalStatus("maybe").IsValid())
}
