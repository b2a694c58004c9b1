package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyFormatINR(t *testing.T) {
	assert.Equal(t, "₹5,00,000", Money{Amount: 50000000, Currency: "INR"}.Format())
	assert.Equal(t, "₹50,00,000", Money{Amount: 500000000, Currency: "INR"}.Format())
	assert.Equal(t, "₹999", Money{Amount: 99900, Currency: "INR"}.Format())
	assert.Equal(t, "₹1,000", Money{Amount: 100000, Currency: "INR"}.Format())
	assert.Equal(t, "₹0", Money{Amount: 0, Currency: "INR"}.Format())
}

func TestMoneyFormatOtherCurrencies(t *testing.T) {
	assert.Equal(t, "$1,200.50", Money{Amount: 120050, Currency: "USD"}.Format())
	assert.Equal(t, "€75", Money{Amount: 7500, Currency: "EUR"}.Format())
	assert.Equal(t, "CHF 1,000", Money{Amount: 100000, Currency: "CHF"}.Format())
}

func TestMoneyFormatNegative(t *testing.T) {
	assert.Equal(t, "-$12.50", Money{Amount: -1250, Currency: "USD"}.Format())
}

func TestParseDisplay(t *testing.T) {
	m, err := ParseDisplay("₹5,00,000")
	require.NoError(t, err)
	assert.Equal(t, Money{Amount: 50000000, Currency: "INR"}, m)

	m, err = ParseDisplay("$1,200.50")
	require.NoError(t, err)
	assert.Equal(t, Money{Amount: 120050, Currency: "USD"}, m)

	// Bare numbers from legacy records default to INR.
	m, err = ParseDisplay("50000")
	require.NoError(t, err)
	assert.Equal(t, Money{Amount: 5000000, Currency: "INR"}, m)
}

func TestParseDisplayRoundTrip(t *testing.T) {
	for _, display := range []string{"₹5,00,000", "₹50,00,000", "₹1,000"} {
		m, err := ParseDisplay(display)
		require.NoError(t, err)
		assert.Equal(t, display, m.Format())
	}
}

func TestParseDisplayRejectsGarbage(t *testing.T) {
	_, err := ParseDisplay("")
	assert.Error(t, err)

	_, err = ParseDisplay("no numbers here")
	assert.Error(t, err)
}

func TestClampProgress(t *testing.T) {
	assert.Equal(t, 0, ClampProgress(-5))
	assert.Equal(t, 100, ClampProgress(250))
	assert.Equal(t, 42, ClampProgress(42))
}
