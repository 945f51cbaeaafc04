package model

import (
	"strings"
	"time"
)

type ContractStatus string

const (
	StatusDraft           ContractStatus = "draft"
	StatusInProgress      ContractStatus = "in_progress"
	StatusPendingApproval ContractStatus = "pending_approval"
	StatusActiveContract  ContractStatus = "active_contract"
	StatusExpiringSoon    ContractStatus = "expiring_soon"
)

var statusLabels = map[ContractStatus]string{
	StatusDraft:           "Draft",
	StatusInProgress:      "In Progress",
	StatusPendingApproval: "Pending Approval",
	StatusActiveContract:  "Active Contract",
	StatusExpiringSoon:    "Expiring Soon",
}

// Contract is the unit routed through signing and approval.
type Contract struct {
	ID      int64
	OwnerID int64
	Code    string
	Title   string
	Vendor  string
	Status  ContractStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (status ContractStatus) IsValid() bool {
	_, ok := statusLabels[status]
	return ok
}

func (status ContractStatus) String() string {
	return string(status)
}

// Label is the human readable form used by the front end.
func (status ContractStatus) Label() string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return string(status)
}

// NormalizeStatus maps the synonyms arriving from forms and older clients
// ("Pending Approval", "pending approval", "pending_approval") onto the closed
// enum. Anything unknown or empty becomes draft.
func NormalizeStatus(input string) ContractStatus {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.Join(strings.Fields(s), "_")

	status := ContractStatus(s)
	if status.IsValid() {
		return status
	}

	return StatusDraft
}

// Complete fills the defaults of a freshly created contract.
func (c *Contract) Complete(now time.Time) {
	c.Code = strings.TrimSpace(c.Code)
	c.Title = strings.TrimSpace(c.Title)
	c.Vendor = strings.TrimSpace(c.Vendor)

	if !c.Status.IsValid() {
		c.Status = StatusDraft
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
}
