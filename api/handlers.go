package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"payouts/models"
	"payouts/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type handlers struct {
	payouts  service.PayoutService
	settings service.CommissionSettingService
}

type processMonthRequest struct {
	Period string `json:"period"`
}

type bulkConfirmRequest struct {
	IDs []int64 `json:"ids"`
}

type failPayoutRequest struct {
	Reason string `json:"reason"`
}

type commissionSettingRequest struct {
	Rate           decimal.Decimal `json:"rate"`
	ApplicableFrom string          `json:"applicable_from"` // YYYY-MM-DD
	ApplicableTo   *string         `json:"applicable_to"`
	IsActive       *bool           `json:"is_active"`
	Description    string          `json:"description"`
}

func (req commissionSettingRequest) toInput() (service.CommissionSettingInput, error) {
	input := service.CommissionSettingInput{
		Rate:        req.Rate,
		IsActive:    req.IsActive,
		Description: req.Description,
	}

	from, err := time.Parse(time.DateOnly, req.ApplicableFrom)
	if err != nil {
		return input, fmt.Errorf("invalid applicable_from %q", req.ApplicableFrom)
	}
	input.ApplicableFrom = from

	if req.ApplicableTo != nil && *req.ApplicableTo != "" {
		to, err := time.Parse(time.DateOnly, *req.ApplicableTo)
		if err != nil {
			return input, fmt.Errorf("invalid applicable_to %q", *req.ApplicableTo)
		}
		input.ApplicableTo = &to
	}
	return input, nil
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (h *handlers) processMonth(w http.ResponseWriter, r *http.Request) {
	var req processMonthRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	period, err := models.ParsePeriod(req.Period)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.payouts.ProcessMonth(r.Context(), period)
	if err != nil {
		writeServiceError(w, r, err, report)
		return
	}
	writeJSONSuccess(w, fmt.Sprintf("Processed %s", period), report)
}

func (h *handlers) listPayouts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var filter models.PayoutFilter

	if raw := query.Get("period"); raw != "" {
		period, err := models.ParsePeriod(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Period = &period
	}
	if raw := query.Get("status"); raw != "" {
		status := models.PayoutStatus(raw)
		if !status.IsValid() {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", raw))
			return
		}
		filter.Status = status
	}
	if raw := query.Get("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		filter.UserID = userID
	}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if raw := query.Get(key); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v < 0 {
				writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", key))
				return
			}
			*dst = v
		}
	}

	payouts, err := h.payouts.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	writeJSONSuccess(w, "Payouts retrieved successfully", payouts)
}

func (h *handlers) confirmPayout(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	payout, err := h.payouts.Confirm(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	writeJSONSuccess(w, "Payout confirmed", payout)
}

func (h *handlers) bulkConfirm(w http.ResponseWriter, r *http.Request) {
	var req bulkConfirmRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.payouts.BulkConfirm(r.Context(), req.IDs)
	if err != nil {
		writeServiceError(w, r, err, report)
		return
	}
	writeJSONSuccess(w, fmt.Sprintf("%d confirmed, %d failed", len(report.Succeeded), len(report.Failed)), report)
}

func (h *handlers) failPayout(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req failPayoutRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	payout, err := h.payouts.MarkFailed(r.Context(), id, req.Reason)
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	writeJSONSuccess(w, "Payout marked as failed", payout)
}

func (h *handlers) deletePayout(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.payouts.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	writeJSONSuccess(w, "Payout deleted", nil)
}

func (h *handlers) latestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.payouts.LatestRun(r.Context())
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	if run == nil {
		writeJSONError(w, http.StatusNotFound, "no payout run recorded yet")
		return
	}
	writeJSONSuccess(w, "Latest payout run", run)
}

func (h *handlers) authorPayouts(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	payouts, err := h.payouts.ListByAuthor(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	writeJSONSuccess(w, "Payouts retrieved successfully", payouts)
}

func (h *handlers) authorCarryOver(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	period := models.PeriodOf(time.Now())
	if raw := r.URL.Query().Get("period"); raw != "" {
		period, err = models.ParsePeriod(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	view, err := h.payouts.CarryOverBalance(r.Context(), userID, period)
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	writeJSONSuccess(w, "Carry-over retrieved successfully", view)
}

func (h *handlers) listCommissionSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	writeJSONSuccess(w, "Commission settings retrieved successfully", settings)
}

func (h *handlers) createCommissionSetting(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeSettingInput(w, r)
	if !ok {
		return
	}

	setting, err := h.settings.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{Status: "success", Message: "Commission setting created", Data: setting})
}

func (h *handlers) updateCommissionSetting(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	input, ok := decodeSettingInput(w, r)
	if !ok {
		return
	}

	setting, err := h.settings.Update(r.Context(), id, input)
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	writeJSONSuccess(w, "Commission setting updated", setting)
}

func (h *handlers) deleteCommissionSetting(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.settings.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	writeJSONSuccess(w, "Commission setting deleted", nil)
}

func decodeSettingInput(w http.ResponseWriter, r *http.Request) (service.CommissionSettingInput, bool) {
	var req commissionSettingRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return service.CommissionSettingInput{}, false
	}
	input, err := req.toInput()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return service.CommissionSettingInput{}, false
	}
	return input, true
}
