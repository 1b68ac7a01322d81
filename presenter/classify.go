// Package presenter turns the untrusted medicines payload into display rows.
// Classification never fails: missing or malformed fields degrade to fallback
// display values instead of returning errors.
package presenter

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	// UnknownName replaces names that are missing, not strings, or blank
	UnknownName = "Unknown name"

	PriceUnavailableText = "Price unavailable"
	InvalidPriceText     = "Invalid price"
	InvalidPriceAdvisory = "This price is not a valid number"
)

// PriceStatus is the three-way outcome of price classification.
// Missing and invalid prices are kept apart on purpose: they are displayed differently.
type PriceStatus int

const (
	PriceFormatted PriceStatus = iota
	PriceUnavailable
	PriceInvalid
)

func (s PriceStatus) String() string {
	switch s {
	case PriceFormatted:
		return "formatted"
	case PriceUnavailable:
		return "unavailable"
	case PriceInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// PriceState is the classified price of a record
type PriceState struct {
	Status   PriceStatus
	Value    float64 // set only when Status is PriceFormatted
	Text     string
	Advisory string
}

var (
	// decimalLiteral matches what a loose numeric coercion accepts in base 10
	decimalLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

	errNotANumber = errors.New("not a number")
)

// ClassifyPrice maps any raw price value to one of the three price states.
func ClassifyPrice(raw any) PriceState {
	if raw == nil {
		return PriceState{Status: PriceUnavailable, Text: PriceUnavailableText}
	}

	value := coerceNumber(raw)
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return PriceState{
			Status:   PriceInvalid,
			Text:     InvalidPriceText,
			Advisory: InvalidPriceAdvisory,
		}
	}

	// -0 passes the >= 0 check but must not print a sign
	if value == 0 {
		value = 0
	}

	return PriceState{
		Status: PriceFormatted,
		Value:  value,
		Text:   strconv.FormatFloat(value, 'f', 2, 64),
	}
}

// ClassifyName returns the trimmed name, or UnknownName when there is nothing to show.
func ClassifyName(raw any) string {
	name, ok := raw.(string)
	if !ok {
		return UnknownName
	}

	name = trimSpace(name)
	if name == "" {
		return UnknownName
	}

	return name
}

// coerceNumber converts loosely typed JSON values to a float64, NaN when impossible.
func coerceNumber(raw any) float64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		return parseNumeric(string(v))
	case string:
		return parseNumeric(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case []any:
		switch len(v) {
		case 0:
			return 0
		case 1:
			return coerceArrayElement(v[0])
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

// coerceArrayElement follows the array-to-string-to-number path: booleans and
// objects stringify to non-numeric text, null stringifies to "".
func coerceArrayElement(raw any) float64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case bool, map[string]any:
		return math.NaN()
	default:
		return coerceNumber(v)
	}
}

func parseNumeric(s string) float64 {
	s = trimSpace(s)
	if s == "" {
		return 0
	}

	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	if v, err := parseRadixLiteral(s); err == nil {
		return v
	} else if !errors.Is(err, errNotANumber) {
		return math.NaN()
	}

	if !decimalLiteral.MatchString(s) {
		return math.NaN()
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return v
}

// parseRadixLiteral handles unsigned 0x, 0o and 0b integer literals.
// It returns errNotANumber when s has no radix prefix at all.
func parseRadixLiteral(s string) (float64, error) {
	if len(s) < 3 || s[0] != '0' {
		return 0, errNotANumber
	}

	var base int
	switch s[1] {
	case 'x', 'X':
		base = 16
	case 'o', 'O':
		base = 8
	case 'b', 'B':
		base = 2
	default:
		return 0, errNotANumber
	}

	digits := s[2:]
	if strings.ContainsAny(digits, "_+-") {
		return 0, strconv.ErrSyntax
	}

	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return math.Inf(1), nil
		}
		return 0, err
	}
	return float64(v), nil
}

// trimSpace also strips the byte order mark, which strings.TrimSpace keeps
func trimSpace(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}
