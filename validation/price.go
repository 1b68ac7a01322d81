// Package validation checks the add-medicine form before it reaches the backend.
package validation

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// leadingDecimal matches the longest numeric prefix ParsePrice accepts.
// Hex, octal and binary prefixes are not part of it: "0x10" parses as 0.
var leadingDecimal = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)

// ParsePrice reads the leading number of a form value, ignoring any trailing text.
// "12.5 EUR" is 12.5, "abc" and "" are NaN.
func ParsePrice(input string) float64 {
	input = strings.TrimLeftFunc(input, isFormSpace)

	prefix := leadingDecimal.FindString(input)
	if prefix == "" {
		return math.NaN()
	}

	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return v
}

// FormatPrice writes a parsed price the way it is sent in the request body:
// the shortest decimal that reads back to the same value, "NaN" and "Infinity"
// for the non-finite values, and exponent notation for very large or small magnitudes.
func FormatPrice(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		return "0"
	}

	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	// shortest round-trip digits as d.ddde±x
	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(v, 'e', -1, 64), "e")
	digits := strings.Replace(mantissa, ".", "", 1)
	e, _ := strconv.Atoi(exp)

	k := len(digits)
	n := e + 1 // position of the decimal point relative to the digits

	switch {
	case k <= n && n <= 21:
		return sign + digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		return sign + digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		return sign + "0." + strings.Repeat("0", -n) + digits
	}

	expSign := "+"
	if n-1 < 0 {
		expSign = "-"
	}
	expDigits := strconv.Itoa(int(math.Abs(float64(n - 1))))
	if k == 1 {
		return sign + digits + "e" + expSign + expDigits
	}
	return sign + digits[:1] + "." + digits[1:] + "e" + expSign + expDigits
}

func isFormSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
