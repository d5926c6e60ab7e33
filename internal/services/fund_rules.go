package services

// Pure reservation arithmetic. The fund service evaluates these inside a
// database transaction after locking the account row, so the inputs are the
// current persisted values, never a cached snapshot.

// unreservedHeadroom is the portion of the balance not claimed by any
// reservation. Balance already includes reserved funds.
func unreservedHeadroom(balance, totalReserved int64) int64 {
	return balance - totalReserved
}

// checkCreate validates a new reservation of amount against an account with
// the given balance and existing reservation total.
func checkCreate(balance, totalReserved, amount int64) error {
	if amount > unreservedHeadroom(balance, totalReserved) {
		return ErrInsufficientUnreservedFunds
	}
	return nil
}

// checkAdjust validates applying delta to a reservation currently holding
// current, where otherReserved is the account's reservation total excluding
// this one. Returns the resulting amount.
func checkAdjust(balance, otherReserved, current, delta int64) (int64, error) {
	next := current + delta
	if next < 0 {
		return 0, ErrNegativeBalance
	}
	if delta > 0 && otherReserved+next > balance {
		return 0, ErrInsufficientUnreservedFunds
	}
	return next, nil
}
