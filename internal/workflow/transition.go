// Package workflow owns the contract lifecycle status and the per approver
// approval records.
package workflow

import (
	"contract-signing/internal/model"
	"errors"
	"fmt"
)

type Event int

const (
	// a new original replaced the document set
	EventUploaded Event = iota
	EventOwnerSigned
	EventApprovalRequested
	// an approver signed and others are still pending
	EventApproverSigned
	// the last pending approval was signed
	EventApprovalsCleared
	EventApproverRejected
)

var eventNames = map[Event]string{
	EventUploaded:          "uploaded",
	EventOwnerSigned:       "owner_signed",
	EventApprovalRequested: "approval_requested",
	EventApproverSigned:    "approver_signed",
	EventApprovalsCleared:  "approvals_cleared",
	EventApproverRejected:  "approver_rejected",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(e))
}

var ErrUnknownStatus = errors.New("contract status is not part of the lifecycle")

// Transition is the contract lifecycle:
//
//	draft -> in_progress -> pending_approval -> active_contract
//
// pending_approval falls back to in_progress on rejection and a fresh upload
// always restarts at in_progress. It only accepts canonical statuses.
func Transition(current model.ContractStatus, ev Event) (model.ContractStatus, error) {
	if !current.IsValid() {
		return current, fmt.Errorf("%w: %q", ErrUnknownStatus, string(current))
	}

	switch ev {
	case EventUploaded, EventApproverRejected:
		return model.StatusInProgress, nil
	case EventOwnerSigned, EventApprovalsCleared:
		return model.StatusActiveContract, nil
	case EventApprovalRequested:
		return model.StatusPendingApproval, nil
	case EventApproverSigned:
		return current, nil
	default:
		return current, errors.New("unknown workflow event: " + ev.String())
	}
}

// AfterApproverSigned picks the event for a completed approval from the
// number of approvals still pending on the contract.
func AfterApproverSigned(pendingLeft int) Event {
	if pendingLeft == 0 {
		return EventApprovalsCleared
	}
	return EventApproverSigned
}
