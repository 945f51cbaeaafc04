package http

import (
	"contract-signing/internal/apperrors"
	"net/http"
)

var approverKeys = []string{"approver_id", "approverId"}

func (ser server) requestApproval(w http.ResponseWriter, r *http.Request) {
	contractID, err := pathID(r, "id")
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	f, err := ser.readFields(w, r)
	if err != nil {
		ser.fail(w, r, err)
		return
	}
	approverID, err := optionalID(f, approverKeys...)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	approval, created, err := ser.app.RequestApproval(r.Context(), contractID, approverID)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	status, msg := http.StatusCreated, "approval requested"
	if !created {
		status, msg = http.StatusOK, "approval request already exists"
	}
	ser.respond(w, r, status, map[string]interface{}{
		"message":         msg,
		"approval_id":     approval.ID,
		"approval_status": approval.Status.String(),
	})
}

func (ser server) listApprovals(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	approverID, err := optionalID(fields{
		"approver_id": normalize(query.Get("approver_id")),
	}, "approver_id")
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	approverID = callerOr(r, approverID)
	if approverID == 0 {
		ser.badRequest(w, r, apperrors.CodeBadPayload, "approver_id is required", nil)
		return
	}

	views, err := ser.app.ListApprovals(r.Context(), approverID)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	response := make([]approvalResponse, len(views))
	for i, view := range views {
		contract := toContractResponse(view.Contract)
		response[i] = toApprovalResponse(view.Approval)
		response[i].Contract = &contract
	}
	ser.respond(w, r, http.StatusOK, response)
}

func (ser server) signApproval(w http.ResponseWriter, r *http.Request) {
	approvalID, err := pathID(r, "approvalId")
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	req, err := ser.readSignRequest(w, r)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	approval, contract, err := ser.app.SignApproval(r.Context(), approvalID, req)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	ser.respond(w, r, http.StatusOK, map[string]interface{}{
		"message":              "approval signed",
		"approval_signed_path": approval.Signed.Path(),
		"approval_status":      approval.Status.String(),
		"contract_status":      contract.Status.String(),
	})
}

func (ser server) rejectApproval(w http.ResponseWriter, r *http.Request) {
	approvalID, err := pathID(r, "approvalId")
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	f, err := ser.readFields(w, r)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	approval, contract, err := ser.app.RejectApproval(r.Context(), approvalID, f.get("notes"))
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	ser.respond(w, r, http.StatusOK, map[string]interface{}{
		"message":         "approval rejected",
		"approval_status": approval.Status.String(),
		"contract_status": contract.Status.String(),
	})
}
