package models

import (
	"time"
)

type Account struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   string    `json:"ownerId" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	Currency  string    `json:"currency" db:"currency"`
	Balance   int64     `json:"balance" db:"balance"` // minor units (cents)
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type Category struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   string    `json:"ownerId" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	Emoji     string    `json:"emoji" db:"emoji"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// CategoryReservation earmarks part of an account's balance for a category.
// The account balance already includes the reserved amount; for any account
// the sum of its reservations never exceeds the balance.
type CategoryReservation struct {
	ID             string    `json:"id" db:"id"`
	AccountID      string    `json:"accountId" db:"account_id"`
	CategoryID     string    `json:"categoryId" db:"category_id"`
	ReservedAmount int64     `json:"reservedAmount" db:"reserved_amount"` // minor units, >= 0
	Currency       string    `json:"currency" db:"currency"`
	SortOrder      int       `json:"sortOrder" db:"sort_order"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}
