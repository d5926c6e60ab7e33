package models

import (
	"time"
)

const (
	TxTypeDebit  = "DEBIT"
	TxTypeCredit = "CREDIT"
)

// Transaction is a single spend or top-up against an account.
// Amount is always positive; TxType carries the direction.
type Transaction struct {
	ID         string    `json:"id" db:"id"`
	AccountID  string    `json:"accountId" db:"account_id"`
	CategoryID *string   `json:"categoryId,omitempty" db:"category_id"`
	Amount     int64     `json:"amount" db:"amount"` // minor units (cents)
	Currency   string    `json:"currency" db:"currency"`
	TxType     string    `json:"txType" db:"tx_type"` // DEBIT or CREDIT
	Narration  string    `json:"narration,omitempty" db:"narration"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// CategorySpend is one row of the monthly per-category summary.
type CategorySpend struct {
	CategoryID string `json:"categoryId"`
	Category   string `json:"category"`
	Emoji      string `json:"emoji"`
	Spent      int64  `json:"spent"` // minor units
	Count      int    `json:"count"`
}
