package services

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pocketfund/backend/internal/models"
)

type AccountService struct {
	db        *sql.DB
	validator *ValidationHelper
}

// BalanceEnquiry is the three-way view of an account's money: total,
// earmarked for categories, and free to spend or reserve.
type BalanceEnquiry struct {
	AccountID string `json:"accountId"`
	Currency  string `json:"currency"`
	Balance   int64  `json:"balance"`
	Reserved  int64  `json:"reserved"`
	Headroom  int64  `json:"headroom"`
	Display   string `json:"display"`
}

func NewAccountService(db *sql.DB) *AccountService {
	return &AccountService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

// CreateAccount creates an account for the authenticated user
// @Summary Create account
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,currency=string,openingBalance=int64} true "Account creation request"
// @Success 200 {object} models.Account
// @Failure 400 {object} ErrorResponse
// @Router /accounts [post]
func (s *AccountService) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Name           string `json:"name" validate:"required,min=1,max=60"`
		Currency       string `json:"currency" validate:"required,len=3,uppercase"`
		OpeningBalance int64  `json:"openingBalance" validate:"gte=0"`
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

	now := time.Now()
	account := models.Account{
		ID:        uuid.NewString(),
		OwnerID:   userID,
		Name:      req.Name,
		Currency:  req.Currency,
		Balance:   req.OpeningBalance,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(`
		INSERT INTO accounts (id, owner_id, name, currency, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		account.ID, account.OwnerID, account.Name, account.Currency, account.Balance, now, now)
	if err != nil {
		log.Printf("[ACCOUNTS] Create failed for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to create account", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[ACCOUNTS] Created account %s (%s) for user %s", account.ID, account.Currency, userID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(account)
}

// ListAccounts returns the authenticated user's accounts
// @Summary List accounts
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Account
// @Router /accounts [get]
func (s *AccountService) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := s.db.Query(`
		SELECT id, owner_id, name, currency, balance, created_at, updated_at
		FROM accounts
		WHERE owner_id = $1
		ORDER BY created_at`, userID)
	if err != nil {
		SendErrorResponse(w, "Failed to fetch accounts", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Name, &a.Currency, &a.Balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
			SendErrorResponse(w, "Failed to fetch accounts", http.StatusInternalServerError, nil)
			return
		}
		accounts = append(accounts, a)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":  true,
		"accounts": accounts,
	})
}

// AccountBalanceEnquiry returns balance, reserved total and headroom
// @Summary Account balance enquiry
// @Description Balance with reserved total and unreserved headroom, all in minor units
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account ID"
// @Success 200 {object} BalanceEnquiry
// @Failure 404 {object} ErrorResponse
// @Router /accounts/{accountId}/balance [get]
func (s *AccountService) AccountBalanceEnquiry(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")

	var enquiry BalanceEnquiry
	err := s.db.QueryRow(`
		SELECT a.id, a.currency, a.balance,
			COALESCE((SELECT SUM(reserved_amount) FROM category_reservations WHERE account_id = a.id), 0)
		FROM accounts a
		WHERE a.id = $1`, accountID).
		Scan(&enquiry.AccountID, &enquiry.Currency, &enquiry.Balance, &enquiry.Reserved)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[ACCOUNTS] Balance enquiry failed for %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to fetch balance", http.StatusInternalServerError, nil)
		return
	}

	enquiry.Headroom = unreservedHeadroom(enquiry.Balance, enquiry.Reserved)
	enquiry.Display = FormatMinorAmount(enquiry.Balance, enquiry.Currency)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(enquiry)
}

// DeleteAccount removes an account and everything hanging off it
// @Summary Delete account
// @Description Delete an account; its reservations and transactions cascade
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account ID"
// @Success 200 {object} object{success=bool}
// @Failure 404 {object} ErrorResponse
// @Router /accounts/{accountId} [delete]
func (s *AccountService) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	accountID := chi.URLParam(r, "accountId")

	result, err := s.db.Exec(`DELETE FROM accounts WHERE id = $1 AND owner_id = $2`, accountID, userID)
	if err != nil {
		log.Printf("[ACCOUNTS] Delete failed for %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to delete account", http.StatusInternalServerError, nil)
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}

	log.Printf("[ACCOUNTS] Deleted account %s for user %s", accountID, userID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}
