package model

import "time"

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func (status ApprovalStatus) IsValid() bool {
	return status == ApprovalPending || status == ApprovalApproved || status == ApprovalRejected
}

func (status ApprovalStatus) IsTerminal() bool {
	return status == ApprovalApproved || status == ApprovalRejected
}

func (status ApprovalStatus) String() string {
	return string(status)
}

// Approval is one approver's decision on one contract. Approved and rejected
// records are never reopened; a new cycle creates a new record.
type Approval struct {
	ID         int64
	ContractID int64
	ApproverID int64
	Status     ApprovalStatus

	// Notes is nil when none were given.
	Notes *string

	Signed     FileRef
	SignedHash string

	CreatedAt time.Time
	UpdatedAt time.Time
	SignedAt  *time.Time
}

func NewPendingApproval(contractID, approverID int64, now time.Time) Approval {
	return Approval{
		ContractID: contractID,
		ApproverID: approverID,
		Status:     ApprovalPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
