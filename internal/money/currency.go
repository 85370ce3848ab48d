// Package money provides exact decimal amounts tagged with a currency.
package money

import (
	"fmt"
	"strings"
)

// Currency is an ISO 4217 code supported by the ledger.
type Currency string

const (
	ILS Currency = "ILS"
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
)

// Currencies lists the supported currencies in display order.
var Currencies = []Currency{ILS, USD, EUR, GBP, JPY}

var exponents = map[Currency]int32{
	ILS: 2,
	USD: 2,
	EUR: 2,
	GBP: 2,
	JPY: 0,
}

var symbols = map[Currency]string{
	ILS: "₪",
	USD: "$",
	EUR: "€",
	GBP: "£",
	JPY: "¥",
}

// aliases maps symbols, codes and currency words (lowercased) to a currency.
var aliases = map[string]Currency{
	"₪":       ILS,
	"ils":     ILS,
	"nis":     ILS,
	"shekel":  ILS,
	"shekels": ILS,
	"ש\"ח":    ILS,
	"ש״ח":     ILS,
	"שח":      ILS,
	"שקל":     ILS,
	"שקלים":   ILS,
	"$":       USD,
	"usd":     USD,
	"dollar":  USD,
	"dollars": USD,
	"€":       EUR,
	"eur":     EUR,
	"euro":    EUR,
	"euros":   EUR,
	"£":       GBP,
	"gbp":     GBP,
	"pound":   GBP,
	"pounds":  GBP,
	"¥":       JPY,
	"jpy":     JPY,
	"yen":     JPY,
}

// ParseCurrency resolves a symbol, ISO code or currency word.
func ParseCurrency(token string) (Currency, error) {
	if c, ok := aliases[strings.ToLower(strings.TrimSpace(token))]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown currency %q", token)
}

// Valid reports whether c is a supported currency.
func (c Currency) Valid() bool {
	_, ok := exponents[c]
	return ok
}

// Exponent is the number of decimal places of the currency's minor unit.
func (c Currency) Exponent() int32 {
	return exponents[c]
}

// Symbol returns the display symbol, falling back to the code.
func (c Currency) Symbol() string {
	if s, ok := symbols[c]; ok {
		return s
	}
	return string(c)
}

func (c Currency) String() string { return string(c) }
