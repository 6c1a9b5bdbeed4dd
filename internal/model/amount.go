package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a decimal that decodes leniently from JSON: numbers and numeric
// strings are accepted, anything else (null, "", "n/a") becomes zero.
type Amount struct {
	decimal.Decimal
}

// NewAmount parses s, returning zero when s is not a number.
func NewAmount(s string) Amount {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}
	}
	return Amount{d}
}

// AmountOf wraps a decimal.
func AmountOf(d decimal.Decimal) Amount {
	return Amount{d}
}

// UnmarshalJSON never fails; unparseable input yields zero.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		a.Decimal = decimal.Zero
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			a.Decimal = decimal.Zero
			return nil
		}
		*a = NewAmount(s)
		return nil
	}
	*a = NewAmount(string(data))
	return nil
}

// MarshalJSON writes the amount as a JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}
