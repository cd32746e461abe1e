// Package coerce converts untyped spreadsheet cells to typed values and back.
//
// Cells arrive as strings (locale formatted, as a spreadsheet renders them),
// as native numbers or booleans, or as nil for an absent cell. Textual
// numbers use a comma as the decimal separator and dots for thousands, with
// an optional trailing currency glyph or percent sign.
package coerce

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/investtrack/pkg/types"
)

// DateTimeLayout is the canonical cell format for timestamps (dd/MM/yyyy HH:mm:ss).
const DateTimeLayout = "02/01/2006 15:04:05"

// dateTimeLayouts are tried in order when parsing. The hour verb accepts one
// or two digits, so the padded and unpadded hour variants of each day form
// share a layout.
var dateTimeLayouts = []string{
	DateTimeLayout,       // dd/MM/yyyy HH:mm:ss, dd/MM/yyyy H:mm:ss
	"2/01/2006 15:04:05", // d/MM/yyyy HH:mm:ss, d/MM/yyyy H:mm:ss
}

// Location is the zone timestamps are read in and written from. Spreadsheet
// cells carry wall-clock time without a zone.
var Location = time.Local

const currencyGlyph = "€"

var hundred = decimal.NewFromInt(100)

// String returns the textual form of a cell. nil reads as "".
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// Long parses a base-10 integer cell.
func Long(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case float64:
		if x == float64(int64(x)) {
			return int64(x), nil
		}
	}
	s := String(v)
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: long %q", types.ErrFormat, s)
	}
	return n, nil
}

// CurrencyDouble parses an amount such as "3.147,21 €" into 3147.21.
// Thousands dots and the currency glyph are stripped and the decimal comma
// becomes a point.
func CurrencyDouble(v any) (float64, error) {
	if f, ok := native(v); ok {
		return f, nil
	}
	s := String(v)
	clean := strings.ReplaceAll(s, ".", "")
	clean = strings.ReplaceAll(clean, currencyGlyph, "")
	d, err := parseDecimal(clean)
	if err != nil {
		return 0, fmt.Errorf("%w: currency %q", types.ErrFormat, s)
	}
	return d.InexactFloat64(), nil
}

// PercentageDouble parses a ratio. With a percent sign the number is divided
// by 100 ("23.45%" is 0.2345); without one it is taken as is, so "0,23" is
// 0.23 and "23" is 23.
func PercentageDouble(v any) (float64, error) {
	if f, ok := native(v); ok {
		return f, nil
	}
	s := String(v)
	clean, scaled := s, false
	if strings.Contains(clean, "%") {
		clean = strings.ReplaceAll(clean, "%", "")
		scaled = true
	}
	d, err := parseDecimal(clean)
	if err != nil {
		return 0, fmt.Errorf("%w: percentage %q", types.ErrFormat, s)
	}
	if scaled {
		d = d.Div(hundred)
	}
	return d.InexactFloat64(), nil
}

// DateTime parses a timestamp cell. An empty cell is absent and returns nil.
func DateTime(v any) (*time.Time, error) {
	s := strings.TrimSpace(String(v))
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateTimeLayouts {
		t, err := time.ParseInLocation(layout, s, Location)
		if err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: date-time %q", types.ErrFormat, s)
}

// Boolean reports whether the cell reads "true", ignoring case. Anything
// else, including an empty cell, is false.
func Boolean(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return strings.EqualFold(String(v), "true")
}

// Mandatory returns v unchanged, or ErrValidation when it is absent or empty.
func Mandatory(v any) (any, error) {
	if v == nil || String(v) == "" {
		return nil, types.ErrValidation
	}
	return v, nil
}

// FormatDateTime renders t in DateTimeLayout, or "" when t is nil.
func FormatDateTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(Location).Format(DateTimeLayout)
}

// native returns numeric cells as float64 without textual sanitizing.
func native(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

// parseDecimal parses s after turning the decimal comma into a point.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	return decimal.NewFromString(s)
}
