package services

import (
	cryptorand "crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/argon2"
)

// PasscodeService manages the local app-lock passcode. The passcode never
// reaches the identity provider; only its argon2id hash is stored here.
type PasscodeService struct {
	db        *sql.DB
	validator *ValidationHelper
}

func NewPasscodeService(db *sql.DB) *PasscodeService {
	return &PasscodeService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

// SetPasscode stores the user's app-lock passcode
// @Summary Set app passcode
// @Tags passcode
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{passcode=string} true "Passcode"
// @Success 200 {object} object{success=bool}
// @Failure 400 {object} ErrorResponse
// @Router /passcode [put]
func (s *PasscodeService) SetPasscode(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Passcode string `json:"passcode" validate:"required,numeric,len=6"`
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

	hashed, err := hashPasscode(req.Passcode)
	if err != nil {
		log.Printf("[PASSCODE] Hashing failed for user %s: %v", userID, err)
		SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	_, err = s.db.Exec(`
		INSERT INTO app_passcodes (user_id, passcode_hash, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET passcode_hash = $2, updated_at = $3`,
		userID, hashed, time.Now())
	if err != nil {
		log.Printf("[PASSCODE] Store failed for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to store passcode", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// VerifyPasscode checks the user's app-lock passcode
// @Summary Verify app passcode
// @Tags passcode
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{passcode=string} true "Passcode"
// @Success 200 {object} object{valid=bool}
// @Failure 401 {object} ErrorResponse
// @Router /passcode/verify [post]
func (s *PasscodeService) VerifyPasscode(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Passcode string `json:"passcode" validate:"required,numeric,len=6"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var hashed string
	err := s.db.QueryRow(`SELECT passcode_hash FROM app_passcodes WHERE user_id = $1`, userID).Scan(&hashed)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "No passcode set", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		SendErrorResponse(w, "Failed to verify passcode", http.StatusInternalServerError, nil)
		return
	}

	if !verifyPasscode(req.Passcode, hashed) {
		log.Printf("[PASSCODE] Invalid passcode attempt for user %s", userID)
		SendErrorResponse(w, "Invalid passcode", http.StatusUnauthorized, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"valid": true})
}

func hashPasscode(passcode string) (string, error) {
	salt := make([]byte, viper.GetInt("argon2.salt_length"))
	if _, err := cryptorand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(passcode), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return fmt.Sprintf("%s$%s", base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(hash)), nil
}

func verifyPasscode(passcode, hashedPasscode string) bool {
	parts := strings.Split(hashedPasscode, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}

	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	computedHash := argon2.IDKey([]byte(passcode), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return string(hash) == string(computedHash)
}
