package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pocketfund/backend/internal/config"
	"github.com/pocketfund/backend/internal/models"
)

type TransactionService struct {
	db        *sql.DB
	cfg       *config.FundsConfig
	validator *ValidationHelper
}

type recordRequest struct {
	AccountID  string  `json:"accountId" validate:"required,uuid4"`
	CategoryID *string `json:"categoryId" validate:"omitempty,uuid4"`
	Amount     int64   `json:"amount" validate:"required,gt=0"`
	Currency   string  `json:"currency" validate:"required,len=3"`
	TxType     string  `json:"txType" validate:"required,oneof=DEBIT CREDIT"`
	Narration  string  `json:"narration" validate:"max=200"`
}

func NewTransactionService(db *sql.DB, cfg *config.FundsConfig) *TransactionService {
	if cfg == nil {
		cfg = config.LoadFundsConfig()
	}
	return &TransactionService{
		db:        db,
		cfg:       cfg,
		validator: NewValidationHelper(),
	}
}

// RecordTransaction logs a spend or top-up
// @Summary Record a transaction
// @Description Record a DEBIT or CREDIT against an account; a categorized DEBIT draws down that category's reservation first
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body recordRequest true "Transaction data"
// @Success 200 {object} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /transactions [post]
func (ts *TransactionService) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req recordRequest

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

	if err := ts.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	transaction, err := ts.record(r.Context(), &req)
	if err != nil {
		log.Printf("[TX] Record failed for account %s: %v", req.AccountID, err)
		SendErrorResponse(w, err.Error(), StatusForError(err), nil)
		return
	}

	log.Printf("[TX] Recorded %s of %d %s on account %s", transaction.TxType, transaction.Amount, transaction.Currency, transaction.AccountID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transaction)
}

// record applies the transaction inside one database transaction with the
// account row locked, the same guard the fund service uses, so spending
// can never leave the account holding less than its reservations.
func (ts *TransactionService) record(ctx context.Context, req *recordRequest) (*models.Transaction, error) {
	tx, err := ts.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var balance int64
	var currency string
	err = tx.QueryRow(`SELECT balance, currency FROM accounts WHERE id = $1 FOR UPDATE`, req.AccountID).
		Scan(&balance, &currency)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %s: %w", req.AccountID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if currency != req.Currency {
		return nil, fmt.Errorf("account holds %s, got %s: %w", currency, req.Currency, ErrCurrencyMismatch)
	}

	newBalance := balance
	switch req.TxType {
	case models.TxTypeCredit:
		newBalance += req.Amount

	case models.TxTypeDebit:
		newBalance -= req.Amount
		if newBalance < 0 {
			return nil, fmt.Errorf("balance %d cannot cover %d: %w", balance, req.Amount, ErrInsufficientFunds)
		}

		if req.CategoryID != nil {
			if err := ts.drawDownReservation(tx, req.AccountID, *req.CategoryID, req.Amount); err != nil {
				return nil, err
			}
		}

		// An uncategorized spend (or one exceeding its envelope) comes out
		// of the unreserved pool; it may not eat into other reservations.
		var totalReserved int64
		err = tx.QueryRow(`
			SELECT COALESCE(SUM(reserved_amount), 0) FROM category_reservations WHERE account_id = $1`,
			req.AccountID).Scan(&totalReserved)
		if err != nil {
			return nil, err
		}
		if totalReserved > newBalance {
			return nil, fmt.Errorf("spend would leave %d against %d reserved: %w", newBalance, totalReserved, ErrInsufficientUnreservedFunds)
		}
	}

	now := time.Now()
	transaction := &models.Transaction{
		ID:         uuid.NewString(),
		AccountID:  req.AccountID,
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		TxType:     req.TxType,
		Narration:  req.Narration,
		CreatedAt:  now,
	}

	_, err = tx.Exec(`
		INSERT INTO transactions (id, account_id, category_id, amount, currency, tx_type, narration, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		transaction.ID, transaction.AccountID, transaction.CategoryID, transaction.Amount,
		transaction.Currency, transaction.TxType, transaction.Narration, now)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(`UPDATE accounts SET balance = $1, updated_at = $2 WHERE id = $3`,
		newBalance, now, req.AccountID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return transaction, nil
}

// drawDownReservation releases up to amount from the category's envelope on
// this account, if one exists. Runs under the account lock.
func (ts *TransactionService) drawDownReservation(tx *sql.Tx, accountID, categoryID string, amount int64) error {
	var reservationID string
	var reserved int64
	err := tx.QueryRow(`
		SELECT id, reserved_amount FROM category_reservations
		WHERE account_id = $1 AND category_id = $2
		FOR UPDATE`, accountID, categoryID).Scan(&reservationID, &reserved)
	if err == sql.ErrNoRows {
		return nil // no envelope for this category, spend from the unreserved pool
	}
	if err != nil {
		return err
	}

	draw := amount
	if draw > reserved {
		draw = reserved
	}
	newReserved := reserved - draw

	if newReserved == 0 && ts.cfg.DeleteOnZero {
		_, err = tx.Exec(`DELETE FROM category_reservations WHERE id = $1`, reservationID)
		return err
	}

	_, err = tx.Exec(`UPDATE category_reservations SET reserved_amount = $1, updated_at = $2 WHERE id = $3`,
		newReserved, time.Now(), reservationID)
	return err
}

// ListTransactions returns an account's transactions, newest first
// @Summary List transactions
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account ID"
// @Param limit query int false "Page size (default 50)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Transaction
// @Router /accounts/{accountId}/transactions [get]
func (ts *TransactionService) ListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	rows, err := ts.db.Query(`
		SELECT id, account_id, category_id, amount, currency, tx_type, narration, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.CategoryID, &t.Amount, &t.Currency, &t.TxType, &t.Narration, &t.CreatedAt); err != nil {
			SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
			return
		}
		transactions = append(transactions, t)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":      true,
		"transactions": transactions,
	})
}

// MonthlySummary returns per-category spending for one month
// @Summary Monthly spending summary
// @Description Per-category DEBIT totals for the given month (YYYY-MM, defaults to current)
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account ID"
// @Param month query string false "Month as YYYY-MM"
// @Success 200 {array} models.CategorySpend
// @Router /accounts/{accountId}/summary [get]
func (ts *TransactionService) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")

	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	start, err := time.Parse("2006-01", month)
	if err != nil {
		SendErrorResponse(w, "Invalid month, expected YYYY-MM", http.StatusBadRequest, nil)
		return
	}
	end := start.AddDate(0, 1, 0)

	rows, err := ts.db.Query(`
		SELECT c.id, c.name, c.emoji, SUM(t.amount), COUNT(*)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.account_id = $1 AND t.tx_type = 'DEBIT'
			AND t.created_at >= $2 AND t.created_at < $3
		GROUP BY c.id, c.name, c.emoji
		ORDER BY SUM(t.amount) DESC`, accountID, start, end)
	if err != nil {
		SendErrorResponse(w, "Failed to fetch summary", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	summary := []models.CategorySpend{}
	for rows.Next() {
		var s models.CategorySpend
		if err := rows.Scan(&s.CategoryID, &s.Category, &s.Emoji, &s.Spent, &s.Count); err != nil {
			SendErrorResponse(w, "Failed to fetch summary", http.StatusInternalServerError, nil)
			return
		}
		summary = append(summary, s)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"month":   month,
		"summary": summary,
	})
}

// GetRecentTransactions returns the user's latest activity across accounts
// @Summary Recent transactions
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Transaction
// @Router /transactions/recent [get]
func (ts *TransactionService) GetRecentTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := ts.db.Query(`
		SELECT t.id, t.account_id, t.category_id, t.amount, t.currency, t.tx_type, t.narration, t.created_at
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE a.owner_id = $1
		ORDER BY t.created_at DESC
		LIMIT 20`, userID)
	if err != nil {
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.CategoryID, &t.Amount, &t.Currency, &t.TxType, &t.Narration, &t.CreatedAt); err != nil {
			SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
			return
		}
		transactions = append(transactions, t)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":      true,
		"transactions": transactions,
	})
}
