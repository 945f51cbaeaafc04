package http

import (
	"contract-signing/internal/apperrors"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

func message(msg string) map[string]interface{} {
	return map[string]interface{}{"message": msg}
}

func (ser server) respond(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	response, err := json.Marshal(body)
	if err != nil {
		ser.serverError(w, r, "marshalling the response failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(response); err != nil {
		ser.log(r).Error("failed to write the response: " + err.Error())
	}
}

func statusOf(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// fail maps a classified error onto its status and the JSON error body.
func (ser server) fail(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.As(err)
	if appErr == nil {
		appErr = apperrors.Internal("internal error", err)
	}

	status := statusOf(appErr.Kind)
	body := errorResponse{
		Message: appErr.Message,
		Code:    appErr.Code,
		Error:   appErr.Detail(),
	}

	logger := ser.log(r).With(zap.String("code", appErr.Code), zap.Int("status", status))
	if status >= http.StatusInternalServerError {
		logger.Error(err.Error())
	} else {
		logger.Warn(err.Error())
	}

	ser.respond(w, r, status, body)
}

func (ser server) badRequest(w http.ResponseWriter, r *http.Request, code, msg string, err error) {
	ser.fail(w, r, apperrors.Validation(code, msg, err))
}

func (ser server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ser.fail(w, r, apperrors.Internal(msg, err))
}

// pathID reads a positive integer path variable.
func pathID(r *http.Request, name string) (int64, error) {
	raw := normalize(mux.Vars(r)[name])
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation(apperrors.CodeInvalidID, "invalid "+name+": "+strconv.Quote(raw), nil)
	}
	return id, nil
}
