package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pocketfund/backend/internal/config"
	"github.com/pocketfund/backend/internal/models"
)

// FundService maintains category reservations against account balances.
// Every mutation recomputes unreserved headroom from persisted state inside
// a single database transaction with the account row locked, so the
// sum(reserved) <= balance invariant holds under concurrent writers.
type FundService struct {
	db  *sql.DB
	cfg *config.FundsConfig
}

func NewFundService(db *sql.DB, cfg *config.FundsConfig) *FundService {
	if cfg == nil {
		cfg = config.LoadFundsConfig()
	}
	return &FundService{
		db:  db,
		cfg: cfg,
	}
}

// CreateCategoryFund reserves amount of the account's unreserved balance for
// a category. The account balance is not changed; it already contains the
// funds being earmarked.
func (s *FundService) CreateCategoryFund(ctx context.Context, accountID, categoryID string, amount int64, currency string) (*models.CategoryReservation, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("reservation amount must be positive, got %d", amount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	account, err := s.lockAccount(tx, accountID)
	if err != nil {
		return nil, err
	}

	if account.Currency != currency {
		return nil, fmt.Errorf("account holds %s, got %s: %w", account.Currency, currency, ErrCurrencyMismatch)
	}

	var categoryExists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, categoryID).Scan(&categoryExists); err != nil {
		return nil, err
	}
	if !categoryExists {
		return nil, fmt.Errorf("category %s: %w", categoryID, ErrNotFound)
	}

	// One reservation per account/category pair; the schema enforces it
	// with a unique constraint, this check turns the collision into a
	// domain error. Runs under the account lock, so no writer can slip a
	// duplicate in between check and insert.
	var reservationExists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM category_reservations WHERE account_id = $1 AND category_id = $2)`,
		accountID, categoryID).Scan(&reservationExists); err != nil {
		return nil, err
	}
	if reservationExists {
		return nil, fmt.Errorf("category %s on account %s: %w", categoryID, accountID, ErrDuplicateReservation)
	}

	totalReserved, err := s.sumReservations(tx, accountID, "")
	if err != nil {
		return nil, err
	}

	if err := checkCreate(account.Balance, totalReserved, amount); err != nil {
		return nil, err
	}

	now := time.Now()
	reservation := &models.CategoryReservation{
		ID:             uuid.NewString(),
		AccountID:      accountID,
		CategoryID:     categoryID,
		ReservedAmount: amount,
		Currency:       currency,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err = tx.Exec(`
		INSERT INTO category_reservations (id, account_id, category_id, reserved_amount, currency, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		reservation.ID, accountID, categoryID, amount, currency, 0, now, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return reservation, nil
}

// AdjustFundBalance applies delta to a reservation. This is the hot path:
// users repeatedly top up and draw down envelopes. The reservation is
// re-read under lock after the account row is locked, so two concurrent
// adjustments serialize and neither works from a stale amount.
func (s *FundService) AdjustFundBalance(ctx context.Context, reservationID string, delta int64) (*models.CategoryReservation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Unlocked peek to learn the owning account; lock order is always
	// account first, then reservation, matching CreateCategoryFund.
	var accountID string
	err = tx.QueryRow(`SELECT account_id FROM category_reservations WHERE id = $1`, reservationID).Scan(&accountID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reservation %s: %w", reservationID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	account, err := s.lockAccount(tx, accountID)
	if err != nil {
		return nil, err
	}

	var reservation models.CategoryReservation
	err = tx.QueryRow(`
		SELECT id, account_id, category_id, reserved_amount, currency, sort_order, created_at, updated_at
		FROM category_reservations
		WHERE id = $1
		FOR UPDATE`, reservationID).
		Scan(&reservation.ID, &reservation.AccountID, &reservation.CategoryID, &reservation.ReservedAmount,
			&reservation.Currency, &reservation.SortOrder, &reservation.CreatedAt, &reservation.UpdatedAt)
	if err == sql.ErrNoRows {
		// Deleted between the peek and the account lock.
		return nil, fmt.Errorf("reservation %s: %w", reservationID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	otherReserved, err := s.sumReservations(tx, accountID, reservationID)
	if err != nil {
		return nil, err
	}

	newAmount, err := checkAdjust(account.Balance, otherReserved, reservation.ReservedAmount, delta)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if newAmount == 0 && s.cfg.DeleteOnZero {
		if _, err := tx.Exec(`DELETE FROM category_reservations WHERE id = $1`, reservationID); err != nil {
			return nil, err
		}
	} else {
		if _, err := tx.Exec(`
			UPDATE category_reservations SET reserved_amount = $1, updated_at = $2 WHERE id = $3`,
			newAmount, now, reservationID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	reservation.ReservedAmount = newAmount
	reservation.UpdatedAt = now
	return &reservation, nil
}

// DeleteCategoryFund removes a reservation, returning its amount to the
// unreserved pool. The account balance is untouched. Safe to retry: a
// missing id reports ErrNotFound and nothing else changes.
func (s *FundService) DeleteCategoryFund(ctx context.Context, reservationID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM category_reservations WHERE id = $1`, reservationID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("reservation %s: %w", reservationID, ErrNotFound)
	}

	return nil
}

// UpdateFundMeta changes non-financial reservation fields. Amounts are never
// touched here.
func (s *FundService) UpdateFundMeta(ctx context.Context, reservationID string, sortOrder int) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE category_reservations SET sort_order = $1, updated_at = $2 WHERE id = $3`,
		sortOrder, time.Now(), reservationID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("reservation %s: %w", reservationID, ErrNotFound)
	}

	return nil
}

// ListFunds returns an account's reservations ordered for display.
func (s *FundService) ListFunds(ctx context.Context, accountID string) ([]models.CategoryReservation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, category_id, reserved_amount, currency, sort_order, created_at, updated_at
		FROM category_reservations
		WHERE account_id = $1
		ORDER BY sort_order, created_at`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var funds []models.CategoryReservation
	for rows.Next() {
		var r models.CategoryReservation
		if err := rows.Scan(&r.ID, &r.AccountID, &r.CategoryID, &r.ReservedAmount,
			&r.Currency, &r.SortOrder, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		funds = append(funds, r)
	}

	return funds, rows.Err()
}

func (s *FundService) lockAccount(tx *sql.Tx, accountID string) (*models.Account, error) {
	var account models.Account
	err := tx.QueryRow(`
		SELECT id, balance, currency
		FROM accounts
		WHERE id = $1
		FOR UPDATE`, accountID).Scan(&account.ID, &account.Balance, &account.Currency)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// sumReservations totals the account's reservations, optionally excluding
// one id. Runs after lockAccount so the total cannot move under us.
func (s *FundService) sumReservations(tx *sql.Tx, accountID, excludeID string) (int64, error) {
	var total int64
	err := tx.QueryRow(`
		SELECT COALESCE(SUM(reserved_amount), 0)
		FROM category_reservations
		WHERE account_id = $1 AND id <> $2`, accountID, excludeID).Scan(&total)
	return total, err
}
