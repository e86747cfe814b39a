package declaration

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value. It is sent as a JSON number, as the backend expects,
// and accepts either a number or a numeric string when decoding.
type Amount struct {
	decimal.Decimal
}

// NewAmount parses a decimal string such as "1500.25".
func NewAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount{Decimal: d}, nil
}

// AmountFromFloat converts f without rounding beyond float precision.
func AmountFromFloat(f float64) Amount {
	return Amount{Decimal: decimal.NewFromFloat(f)}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) >= 2 && data[0] == '"' {
		data = data[1 : len(data)-1]
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
	}

	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", data, err)
	}
	a.Decimal = d
	return nil
}

// Float64 is used by input validation; it is never used for arithmetic.
func (a Amount) Float64() float64 {
	f, _ := a.Decimal.Float64()
	return f
}
