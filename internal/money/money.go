package money

import (
	"fmt"
	"strconv"
	"strings"
)

// Amount is a monetary value in minor units (cents) of its currency.
// All supported settlement currencies use two decimal places.
type Amount struct {
	MinorUnits int64
	Currency   string
}

// Value renders the amount as the gateway wire format, e.g. "45.00".
func (a Amount) Value() string {
	sign := ""
	units := a.MinorUnits
	if units < 0 {
		sign = "-"
		units = -units
	}
	return fmt.Sprintf("%s%d.%02d", sign, units/100, units%100)
}

func (a Amount) IsPositive() bool {
	return a.MinorUnits > 0
}

// settlementCurrencies is the set the gateway accepts for capture.
var settlementCurrencies = map[string]struct{}{
	"USD": {},
	"EUR": {},
	"GBP": {},
	"AUD": {},
	"CAD": {},
}

func Supported(currency string) bool {
	_, ok := settlementCurrencies[strings.ToUpper(currency)]
	return ok
}

// ParseValue parses a 2-decimal wire value ("45.00") into an Amount.
// Values with more than two decimal places are rejected rather than rounded,
// since the caller declared a price and rounding it silently would change it.
func ParseValue(value, currency string) (Amount, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Amount{}, fmt.Errorf("empty amount")
	}

	whole, frac, hasFrac := strings.Cut(value, ".")
	if whole == "" || strings.HasPrefix(whole, "+") {
		return Amount{}, fmt.Errorf("invalid amount %q", value)
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q", value)
	}

	var cents int64
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 {
			return Amount{}, fmt.Errorf("amount %q must have at most two decimal places", value)
		}
		padded := frac + strings.Repeat("0", 2-len(frac))
		cents, err = strconv.ParseInt(padded, 10, 64)
		if err != nil {
			return Amount{}, fmt.Errorf("invalid amount %q", value)
		}
	}

	minor := units*100 + cents
	if units < 0 || strings.HasPrefix(whole, "-") {
		minor = units*100 - cents
	}
	return Amount{MinorUnits: minor, Currency: strings.ToUpper(currency)}, nil
}

// Split divides total into n near-equal shares in minor units. The integer
// remainder goes to the first shares, so the shares always sum to the total
// exactly and no share ever exceeds the captured amount.
func Split(total Amount, n int) []Amount {
	if n <= 0 {
		return nil
	}
	base := total.MinorUnits / int64(n)
	rem := total.MinorUnits % int64(n)

	shares := make([]Amount, n)
	for i := range shares {
		shares[i] = Amount{MinorUnits: base, Currency: total.Currency}
		if int64(i) < rem {
			shares[i].MinorUnits++
		}
	}
	return shares
}
