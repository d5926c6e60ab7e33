package services

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-redis/redis/v8"
)

// PreferenceService persists the user's last-selected account so the app
// reopens where they left off. Last write wins; losing a preference is
// harmless, so Redis is the store.
type PreferenceService struct {
	redis     *redis.Client
	validator *ValidationHelper
}

func NewPreferenceService(redisClient *redis.Client) *PreferenceService {
	return &PreferenceService{
		redis:     redisClient,
		validator: NewValidationHelper(),
	}
}

func lastAccountKey(userID string) string {
	return fmt.Sprintf("pref:last_account:%s", userID)
}

// GetLastAccount returns the user's last selected account id
// @Summary Get last selected account
// @Tags preferences
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{accountId=string}
// @Router /preferences/last-account [get]
func (s *PreferenceService) GetLastAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	accountID := ""
	if s.redis != nil {
		val, err := s.redis.Get(r.Context(), lastAccountKey(userID)).Result()
		if err != nil && err != redis.Nil {
			log.Printf("[PREFS] Read failed for user %s: %v", userID, err)
			SendErrorResponse(w, "Failed to read preference", http.StatusInternalServerError, nil)
			return
		}
		accountID = val
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"accountId": accountID})
}

// SetLastAccount stores the user's last selected account id
// @Summary Set last selected account
// @Tags preferences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{accountId=string} true "Preference"
// @Success 200 {object} object{success=bool}
// @Router /preferences/last-account [put]
func (s *PreferenceService) SetLastAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		AccountID string `json:"accountId" validate:"required,uuid4"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if s.redis != nil {
		if err := s.redis.Set(r.Context(), lastAccountKey(userID), req.AccountID, 0).Err(); err != nil {
			log.Printf("[PREFS] Write failed for user %s: %v", userID, err)
			SendErrorResponse(w, "Failed to store preference", http.StatusInternalServerError, nil)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}
