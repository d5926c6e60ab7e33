package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/pocketfund/backend/internal/services"
)

type CallbackHandler struct {
	service   *services.CallbackService
	validator *services.ValidationHelper
}

func NewCallbackHandler(service *services.CallbackService) *CallbackHandler {
	return &CallbackHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// HandleCallback processes an auth deep-link URL
// @Summary Process auth callback URL
// @Description Classify a deep-link/redirect URL and exchange any tokens it carries for a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{url=string} true "Inbound callback URL"
// @Success 200 {object} services.CallbackResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /auth/callback [post]
func (h *CallbackHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url" validate:"required"`
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

	result, err := h.service.ProcessCallback(r.Context(), req.URL)
	if err != nil {
		// Session-set failures land here, including replays of an
		// already-consumed URL. Log and report; never panic.
		log.Printf("[AUTH] Callback processing failed: %v", err)
		if errors.Is(err, services.ErrAuthProvider) {
			services.SendErrorResponse(w, err.Error(), http.StatusUnauthorized, nil)
			return
		}
		services.SendErrorResponse(w, err.Error(), services.StatusForError(err), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
