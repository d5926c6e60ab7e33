package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatMinorAmount(t *testing.T) {
	tests := []struct {
		amount   int64
		currency string
		want     string
	}{
		{123456, "USD", "$1,234.56"},
		{5, "USD", "$0.05"},
		{0, "USD", "$0.00"},
		{-123456, "USD", "-$1,234.56"},
		{100000000, "EUR", "€1,000,000.00"},
		{250099, "NGN", "₦2,500.99"},
		{123456, "JPY", "¥123,456"},
		{123456, "XTS", "XTS 1,234.56"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatMinorAmount(tc.amount, tc.currency), "%d %s", tc.amount, tc.currency)
	}
}

func TestGroupThousands(t *testing.T) {
	assert.Equal(t, "0", groupThousands("0"))
	assert.Equal(t, "999", groupThousands("999"))
	assert.Equal(t, "1,000", groupThousands("1000"))
	assert.Equal(t, "12,345,678", groupThousands("12345678"))
}

func TestFormatDisplayDate(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		ts   time.Time
		want string
	}{
		{"same day", time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC), "Today"},
		{"previous day", time.Date(2025, 6, 14, 23, 59, 0, 0, time.UTC), "Yesterday"},
		{"same year", time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC), "Mar 2"},
		{"another year", time.Date(2024, 12, 31, 10, 0, 0, 0, time.UTC), "Dec 31, 2024"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatDisplayDate(tc.ts, now))
		})
	}
}

func TestParseISOTimestamp(t *testing.T) {
	ts, err := ParseISOTimestamp("2025-06-15T14:30:00Z")
	assert.NoError(t, err)
	assert.Equal(t, 2025, ts.Year())

	_, err = ParseISOTimestamp("15/06/2025")
	assert.Error(t, err)
}
