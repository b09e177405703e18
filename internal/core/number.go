// Package core holds the fund domain types and the small amount of
// arithmetic the ranking needs.
//
// The upstream API is loose about numeric types: the same field may come
// back as a JSON number, a numeric string, an empty string or null. Number
// absorbs all of those.
package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a float that decodes from JSON numbers and numeric strings.
// Empty strings and null decode to an unset Number.
type Number struct {
	Value float64
	Valid bool
}

// NewNumber returns a set Number.
func NewNumber(v float64) Number {
	return Number{Value: v, Valid: true}
}

// Float64 returns the value, or 0 when unset.
func (n Number) Float64() float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

// IsZero reports whether the number is unset or exactly zero.
func (n Number) IsZero() bool {
	return !n.Valid || n.Value == 0
}

// ParseNumber converts a decimal string to a float.
//
// It accepts dot (12.34) and, when no dot is present, comma (12,34) decimal
// separators. Surrounding whitespace and a trailing percent sign are ignored.
//
// Examples:
//
//	ParseNumber("0.82")   -> 0.82, nil
//	ParseNumber("0,82")   -> 0.82, nil
//	ParseNumber(" 1.1% ") -> 1.1, nil
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidNumber
	}
	if !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidNumber
	}
	return v, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*n = Number{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
		v, err := ParseNumber(s)
		if err != nil {
			// Non-numeric text is treated as unset rather than failing the whole payload.
			return nil
		}
		*n = NewNumber(v)
		return nil
	}
	if data[0] == 't' || data[0] == 'f' {
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = NewNumber(v)
	return nil
}

// MarshalJSON implements json.Marshaler. Unset numbers encode as null.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// String formats the number for display; unset numbers are empty.
func (n Number) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}
