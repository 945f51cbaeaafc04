package http

import (
	"contract-signing/internal/app"
	"contract-signing/internal/model"
	"time"
)

type contractResponse struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	ContractID  string    `json:"contractId"`
	Title       string    `json:"title"`
	Vendor      string    `json:"vendor"`
	Status      string    `json:"status"`
	StatusLabel string    `json:"status_label"`
	UploadPath  *string   `json:"upload_path"`
	SignedPath  *string   `json:"signed_path"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type approvalResponse struct {
	ApprovalID int64      `json:"approval_id"`
	ContractID int64      `json:"contract_id"`
	ApproverID int64      `json:"approver_id"`
	Status     string     `json:"approval_status"`
	Notes      *string    `json:"notes"`
	SignedPath *string    `json:"approval_signed_path"`
	CreatedAt  time.Time  `json:"created_at"`
	SignedAt   *time.Time `json:"signed_at"`

	Contract *contractResponse `json:"contract,omitempty"`
}

// publicPath is null for a document that does not exist yet.
func publicPath(ref model.FileRef) *string {
	if ref.IsZero() {
		return nil
	}
	p := ref.Path()
	return &p
}

func toContractResponse(view app.ContractView) contractResponse {
	c := view.Contract
	return contractResponse{
		ID:          c.ID,
		OwnerID:     c.OwnerID,
		ContractID:  c.Code,
		Title:       c.Title,
		Vendor:      c.Vendor,
		Status:      c.Status.String(),
		StatusLabel: c.Status.Label(),
		UploadPath:  publicPath(view.Files.Original),
		SignedPath:  publicPath(view.Files.Signed),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toApprovalResponse(a model.Approval) approvalResponse {
	return approvalResponse{
		ApprovalID: a.ID,
		ContractID: a.ContractID,
		ApproverID: a.ApproverID,
		Status:     a.Status.String(),
		Notes:      a.Notes,
		SignedPath: publicPath(a.Signed),
		CreatedAt:  a.CreatedAt,
		SignedAt:   a.SignedAt,
	}
}
