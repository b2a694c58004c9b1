package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Money is a monetary amount in minor units (paise, cents) plus an ISO
// currency code. Formatting happens only at presentation boundaries;
// nothing downstream parses display strings.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

var currencySymbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

var symbolCurrencies = map[string]string{
	"₹": "INR",
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
}

// Format renders the amount for display. INR uses Indian digit grouping
// (₹5,00,000); other currencies group by thousands. Minor units are
// shown only when non-zero.
func (m Money) Format() string {
	units := m.Amount / 100
	minor := m.Amount % 100
	neg := false
	if units < 0 {
		neg = true
		units = -units
	}
	if minor < 0 {
		minor = -minor
	}

	var grouped string
	if m.Currency == "INR" {
		grouped = groupIndian(strconv.FormatInt(units, 10))
	} else {
		grouped = groupThousands(strconv.FormatInt(units, 10))
	}

	out := grouped
	if minor != 0 {
		out = fmt.Sprintf("%s.%02d", grouped, minor)
	}
	if sym, ok := currencySymbols[m.Currency]; ok {
		out = sym + out
	} else if m.Currency != "" {
		out = m.Currency + " " + out
	}
	if neg {
		out = "-" + out
	}
	return out
}

// groupIndian groups the last three digits, then pairs: 500000 -> 5,00,000.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	parts = append([]string{head}, parts...)
	return strings.Join(parts, ",") + "," + tail
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var parts []string
	for len(digits) > 3 {
		parts = append([]string{digits[len(digits)-3:]}, parts...)
		digits = digits[:len(digits)-3]
	}
	parts = append([]string{digits}, parts...)
	return strings.Join(parts, ",")
}

var displayAmountPattern = regexp.MustCompile(`-?[0-9][0-9,]*(?:\.[0-9]{1,2})?`)

// ParseDisplay ingests a legacy display-formatted value ("₹5,00,000",
// "$1,200.50") into Money. Used once, at the persistence boundary, when
// normalizing records written by older clients. Unknown symbols default
// to INR, matching the legacy data.
func ParseDisplay(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, fmt.Errorf("empty money string")
	}

	currency := "INR"
	for sym, code := range symbolCurrencies {
		if strings.Contains(s, sym) {
			currency = code
			break
		}
	}

	raw := displayAmountPattern.FindString(s)
	if raw == "" {
		return Money{}, fmt.Errorf("no amount in %q", s)
	}
	raw = strings.ReplaceAll(raw, ",", "")

	units := raw
	minor := "0"
	if i := strings.IndexByte(raw, '.'); i >= 0 {
		units = raw[:i]
		minor = raw[i+1:]
		if len(minor) == 1 {
			minor += "0"
		}
	}

	u, err := strconv.ParseInt(units, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	mi, err := strconv.ParseInt(minor, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", s, err)
	}

	amount := u*100 + mi
	if strings.HasPrefix(units, "-") {
		amount = u*100 - mi
	}
	return Money{Amount: amount, Currency: currency}, nil
}
