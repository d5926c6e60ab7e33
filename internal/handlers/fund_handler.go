package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pocketfund/backend/internal/services"
)

type FundHandler struct {
	service   *services.FundService
	validator *services.ValidationHelper
}

func NewFundHandler(service *services.FundService) *FundHandler {
	return &FundHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// CreateFund reserves part of an account balance for a category
// @Summary Create category fund
// @Description Earmark part of an account's unreserved balance for a budget category
// @Tags funds
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{accountId=string,categoryId=string,amount=int64,currency=string} true "Fund creation request"
// @Success 200 {object} models.CategoryReservation
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /funds [post]
func (h *FundHandler) CreateFund(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID  string `json:"accountId" validate:"required,uuid4"`
		CategoryID string `json:"categoryId" validate:"required,uuid4"`
		Amount     int64  `json:"amount" validate:"required,gt=0"`
		Currency   string `json:"currency" validate:"required,len=3"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	reservation, err := h.service.CreateCategoryFund(r.Context(), req.AccountID, req.CategoryID, req.Amount, req.Currency)
	if err != nil {
		log.Printf("[FUNDS] Create failed for account %s: %v", req.AccountID, err)
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}

	log.Printf("[FUNDS] Reserved %d %s on account %s for category %s", req.Amount, req.Currency, req.AccountID, req.CategoryID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reservation)
}

// AdjustFund tops up or draws down a reservation
// @Summary Adjust category fund balance
// @Description Apply a signed delta to a reservation's amount
// @Tags funds
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param fundId path string true "Reservation ID"
// @Param request body object{delta=int64} true "Adjustment request"
// @Success 200 {object} models.CategoryReservation
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Failure 422 {object} services.ErrorResponse
// @Router /funds/{fundId}/adjust [post]
func (h *FundHandler) AdjustFund(w http.ResponseWriter, r *http.Request) {
	fundID := chi.URLParam(r, "fundId")

	// Pointer so a zero delta still counts as present; zero is a legal
	// no-op adjustment.
	var req struct {
		Delta *int64 `json:"delta" validate:"required"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	reservation, err := h.service.AdjustFundBalance(r.Context(), fundID, *req.Delta)
	if err != nil {
		log.Printf("[FUNDS] Adjust %+d failed for reservation %s: %v", *req.Delta, fundID, err)
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reservation)
}

// DeleteFund releases a reservation back to the unreserved pool
// @Summary Delete category fund
// @Tags funds
// @Produce json
// @Security BearerAuth
// @Param fundId path string true "Reservation ID"
// @Success 200 {object} object{success=bool}
// @Failure 404 {object} services.ErrorResponse
// @Router /funds/{fundId} [delete]
func (h *FundHandler) DeleteFund(w http.ResponseWriter, r *http.Request) {
	fundID := chi.URLParam(r, "fundId")

	if err := h.service.DeleteCategoryFund(r.Context(), fundID); err != nil {
		log.Printf("[FUNDS] Delete failed for reservation %s: %v", fundID, err)
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// UpdateFundMeta updates non-financial reservation fields
// @Summary Update category fund metadata
// @Tags funds
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param fundId path string true "Reservation ID"
// @Param request body object{sortOrder=int} true "Metadata update"
// @Success 200 {object} object{success=bool}
// @Failure 404 {object} services.ErrorResponse
// @Router /funds/{fundId} [patch]
func (h *FundHandler) UpdateFundMeta(w http.ResponseWriter, r *http.Request) {
	fundID := chi.URLParam(r, "fundId")

	var req struct {
		SortOrder int `json:"sortOrder" validate:"gte=0"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := h.service.UpdateFundMeta(r.Context(), fundID, req.SortOrder); err != nil {
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// ListFunds returns an account's reservations
// @Summary List category funds for an account
// @Tags funds
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account ID"
// @Success 200 {array} models.CategoryReservation
// @Router /accounts/{accountId}/funds [get]
func (h *FundHandler) ListFunds(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")

	funds, err := h.service.ListFunds(r.Context(), accountID)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"funds":   funds,
	})
}
