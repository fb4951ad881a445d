package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"payouts/service"

	log "github.com/sirupsen/logrus"
)

// jsonResponse is the envelope of every API response
type jsonResponse struct {
	Status  string      `json:"status"` // "success" or "error"
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body jsonResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, jsonResponse{Status: "error", Message: message})
}

func writeJSONSuccess(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, jsonResponse{Status: "success", Message: message, Data: data})
}

// statusForError maps service errors onto HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrPayoutNotFound), errors.Is(err, service.ErrCommissionSettingNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidPayoutState), errors.Is(err, service.ErrPeriodSuperseded):
		return http.StatusConflict
	case errors.Is(err, service.ErrCommissionUnconfigured):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidRate), errors.Is(err, service.ErrInvalidCommissionSetting):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError responds with the status mapped from err. Internal
// errors are logged and their message is not exposed.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, data interface{}) {
	status := statusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"error":  err,
		}).Error("Request failed")
		message = "internal error"
	}

	writeJSON(w, status, jsonResponse{
		Status:  "error",
		Message: message,
		Code:    service.ErrorCode(err),
		Data:    data,
	})
}
