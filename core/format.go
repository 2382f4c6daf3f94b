package core

import (
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const EtherDecimals = 18

var (
	minDisplayAmount = big.NewFloat(0.0001)
	amountPrinter    = message.NewPrinter(language.AmericanEnglish)
)

// FormatAddress shortens s to its first start and last end characters.
func FormatAddress(s string, start, end int) string {
	return shorten(s, start, end)
}

// FormatTxHash shortens a transaction hash to its first start and last end characters.
func FormatTxHash(s string, start, end int) string {
	return shorten(s, start, end)
}

func shorten(s string, start, end int) string {
	if start < 0 || end < 0 || len(s) < start+end {
		return s
	}
	return fmt.Sprintf("%s...%s", s[:start], s[len(s)-end:])
}

// FormatUnits renders amount, expressed in 10^-decimals units, with at most
// displayDecimals fraction digits and thousands separators. Amounts below
// 0.0001 in magnitude render as "< 0.0001".
//
// The value is rendered through a float64, so only about 15 significant digits
// are exact. Use ParseUnits and big.Int arithmetic where precision matters.
func FormatUnits(amount *big.Int, decimals int, displayDecimals int) string {
	if amount == nil || amount.Sign() == 0 {
		return "0"
	}
	v := new(big.Float).Quo(new(big.Float).SetInt(amount), new(big.Float).SetInt(pow10(decimals)))
	if new(big.Float).Abs(v).Cmp(minDisplayAmount) < 0 {
		return "< 0.0001"
	}
	f, _ := v.Float64()
	return amountPrinter.Sprint(number.Decimal(f,
		number.MinFractionDigits(0),
		number.MaxFractionDigits(displayDecimals),
	))
}

// FormatEther renders a wei amount in ether with an "ETH" suffix.
func FormatEther(wei *big.Int, displayDecimals int) string {
	return FormatUnits(wei, EtherDecimals, displayDecimals) + " ETH"
}

// ParseUnits parses a decimal string into 10^-decimals units. Extra fraction
// digits are rounded half up.
func ParseUnits(s string, decimals int) (*big.Int, error) {
	if decimals < 0 {
		return nil, fmt.Errorf("invalid decimals %d", decimals)
	}
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if !isDigits(intPart) || !isDigits(fracPart) {
		return nil, fmt.Errorf("invalid amount %q", s)
	}

	roundUp := false
	if len(fracPart) > decimals {
		roundUp = fracPart[decimals] >= '5'
		fracPart = fracPart[:decimals]
	}
	fracPart += strings.Repeat("0", decimals-len(fracPart))

	v, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		v = new(big.Int)
	}
	if roundUp {
		v.Add(v, big.NewInt(1))
	}
	if neg {
		v.Neg(v)
	}
	return v, nil
}

// ParseEther parses a decimal ether amount into wei.
func ParseEther(s string) (*big.Int, error) {
	return ParseUnits(s, EtherDecimals)
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
