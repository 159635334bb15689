package money

import (
	"fmt"
	"math"
	"strings"
)

// Converter turns reference-currency prices (the currency the catalog lists
// prices in) into settlement or display currencies using a fixed rate table.
// It is pure: no I/O, no state beyond the table it was built with.
type Converter struct {
	reference string
	rates     map[string]float64
}

// DefaultRates maps one whole unit of the reference currency to the target
// currency. Refreshed out of band; checkout only needs display fidelity.
var DefaultRates = map[string]float64{
	"USD": 0.011,
	"EUR": 0.010,
	"GBP": 0.0087,
	"AUD": 0.017,
	"CAD": 0.015,
}

func NewConverter(reference string, rates map[string]float64) *Converter {
	if rates == nil {
		rates = DefaultRates
	}
	return &Converter{reference: strings.ToUpper(reference), rates: rates}
}

func (c *Converter) Reference() string {
	return c.reference
}

// Convert converts a whole-unit price in the reference currency into target
// minor units, rounding half away from zero.
func (c *Converter) Convert(referenceUnits int64, target string) (Amount, error) {
	target = strings.ToUpper(target)
	if target == c.reference {
		return Amount{MinorUnits: referenceUnits * 100, Currency: target}, nil
	}
	rate, ok := c.rates[target]
	if !ok {
		return Amount{}, fmt.Errorf("no conversion rate for %s", target)
	}
	minor := math.Round(float64(referenceUnits) * rate * 100)
	return Amount{MinorUnits: int64(minor), Currency: target}, nil
}
