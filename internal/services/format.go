package services

import (
	"fmt"
	"strings"
	"time"
)

// Display formatting for amounts and timestamps. Amounts stay integer minor
// units all the way here; division only happens while building the string.

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"NGN": "₦",
	"JPY": "¥",
}

// minorUnitDigits is 2 for almost everything the app supports; zero-decimal
// currencies are the exception.
var minorUnitDigits = map[string]int{
	"JPY": 0,
}

// FormatMinorAmount renders an integer minor-unit amount as a display
// string, e.g. FormatMinorAmount(123456, "USD") == "$1,234.56".
func FormatMinorAmount(amount int64, currency string) string {
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = currency + " "
	}

	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := 2
	if d, ok := minorUnitDigits[currency]; ok {
		digits = d
	}

	if digits == 0 {
		return sign + symbol + groupThousands(fmt.Sprintf("%d", amount))
	}

	divisor := int64(1)
	for i := 0; i < digits; i++ {
		divisor *= 10
	}

	whole := amount / divisor
	frac := amount % divisor

	return fmt.Sprintf("%s%s%s.%0*d", sign, symbol, groupThousands(fmt.Sprintf("%d", whole)), digits, frac)
}

// groupThousands inserts comma separators into a digit string.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatDisplayDate renders a timestamp the way the transaction list shows
// it: Today, Yesterday, or an absolute date.
func FormatDisplayDate(ts time.Time, now time.Time) string {
	tsDay := ts.Truncate(24 * time.Hour)
	nowDay := now.Truncate(24 * time.Hour)

	switch nowDay.Sub(tsDay) {
	case 0:
		return "Today"
	case 24 * time.Hour:
		return "Yesterday"
	}

	if ts.Year() == now.Year() {
		return ts.Format("Jan 2")
	}
	return ts.Format("Jan 2, 2006")
}

// ParseISOTimestamp parses the RFC 3339 timestamps the backend stores.
func ParseISOTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
