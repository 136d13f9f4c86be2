package exchange

import (
	"sort"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/shopspring/decimal"
)

// Base is the currency every rate is quoted against.
const Base = "GEL"

// Rates maps a currency code to units per one GEL.
type Rates map[string]decimal.Decimal

// DefaultRates are the fixed shop rates.
var DefaultRates = Rates{
	"GEL": decimal.NewFromInt(1),
	"USD": decimal.RequireFromString("0.37"),
	"EUR": decimal.RequireFromString("0.34"),
}

// Currencies lists the supported codes, base first.
func (r Rates) Currencies() []string {
	out := make([]string, 0, len(r))
	for code := range r {
		if code != Base {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	if _, ok := r[Base]; ok {
		out = append([]string{Base}, out...)
	}
	return out
}

// Convert turns amount of from into to, rounded to two places. A
// non-positive amount has no result and reports false.
func (r Rates) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, bool, error) {
	fromRate, err := r.rate(from)
	if err != nil {
		return decimal.Zero, false, err
	}
	toRate, err := r.rate(to)
	if err != nil {
		return decimal.Zero, false, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, false, nil
	}
	return amount.Div(fromRate).Mul(toRate).Round(2), true, nil
}

func (r Rates) rate(code string) (decimal.Decimal, error) {
	rate, ok := r[strings.ToUpper(strings.TrimSpace(code))]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency").
			WithDetails(map[string]string{"currency": code})
	}
	return rate, nil
}
