package http

import (
	"contract-signing/internal/app"
	"contract-signing/internal/model"
	"contract-signing/internal/ports/http/middleware/auth"
	"net/http"

	"go.uber.org/zap"
)

var (
	titleKeys  = []string{"title", "contract_title"}
	vendorKeys = []string{"vendor", "vendor_name"}
	codeKeys   = []string{"contractId", "contract_id", "contract_code"}
	ownerKeys  = []string{"owner_id", "ownerId", "user_id"}
)

// callerOr falls back to the authenticated user when no id was sent.
func callerOr(r *http.Request, id int64) int64 {
	if id > 0 {
		return id
	}
	if caller, ok := auth.UserID(r.Context()); ok {
		return caller
	}
	return 0
}

func (ser server) createContract(w http.ResponseWriter, r *http.Request) {
	f, err := ser.readFields(w, r)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	ownerID, err := optionalID(f, ownerKeys...)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	contract := model.Contract{
		OwnerID: callerOr(r, ownerID),
		Code:    f.get(codeKeys...),
		Title:   f.get(titleKeys...),
		Vendor:  f.get(vendorKeys...),
		Status:  model.NormalizeStatus(f.get("status")),
	}

	view, err := ser.app.CreateContract(r.Context(), contract)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	ser.respond(w, r, http.StatusCreated, map[string]interface{}{
		"message":  "contract created",
		"contract": toContractResponse(view),
	})
}

func (ser server) listContracts(w http.ResponseWriter, r *http.Request) {
	ownerID, err := optionalID(fields{"owner_id": normalize(r.URL.Query().Get("owner_id"))}, "owner_id")
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	views, err := ser.app.ListContracts(r.Context(), ownerID)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	contracts := make([]contractResponse, len(views))
	for i, view := range views {
		contracts[i] = toContractResponse(view)
	}
	ser.respond(w, r, http.StatusOK, contracts)
}

func (ser server) getContract(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	view, err := ser.app.GetContract(r.Context(), id)
	if err != nil {
		ser.fail(w, r, err)
		return
	}
	ser.respond(w, r, http.StatusOK, toContractResponse(view))
}

func (ser server) updateContract(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	f, err := ser.readFields(w, r)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	var update app.ContractUpdate
	if title, ok := f.first(titleKeys...); ok {
		update.Title = &title
	}
	if vendor, ok := f.first(vendorKeys...); ok {
		update.Vendor = &vendor
	}
	if code, ok := f.first(codeKeys...); ok {
		update.Code = &code
	}
	if _, ok := f.first("status"); ok {
		ser.log(r).Debug("ignoring status in a metadata update", zap.Int64("contractID", id))
	}

	view, err := ser.app.UpdateContract(r.Context(), id, update)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	ser.respond(w, r, http.StatusOK, map[string]interface{}{
		"message":  "contract updated",
		"contract": toContractResponse(view),
	})
}

func (ser server) deleteContract(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	if err := ser.app.DeleteContract(r.Context(), id); err != nil {
		ser.fail(w, r, err)
		return
	}
	ser.respond(w, r, http.StatusOK, message("contract deleted"))
}

func (ser server) uploadOriginal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	filename, data, err := ser.readPDF(w, r)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	view, err := ser.app.UploadOriginal(r.Context(), id, filename, data)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	ser.respond(w, r, http.StatusOK, map[string]interface{}{
		"message":     "file uploaded",
		"upload_path": view.Files.Original.Path(),
		"contract":    toContractResponse(view),
	})
}

func (ser server) signContract(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	req, err := ser.readSignRequest(w, r)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	view, err := ser.app.SignContract(r.Context(), id, req)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	ser.respond(w, r, http.StatusOK, map[string]interface{}{
		"message":     "contract signed",
		"signed_path": view.Files.Signed.Path(),
		"contract":    toContractResponse(view),
	})
}

func (ser server) contractApprovals(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	approvals, err := ser.app.ContractApprovals(r.Context(), id)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	response := make([]approvalResponse, len(approvals))
	for i, approval := range approvals {
		response[i] = toApprovalResponse(approval)
	}
	ser.respond(w, r, http.StatusOK, response)
}
