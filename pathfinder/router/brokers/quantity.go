package brokers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
)

// Quantity is an integer that aggregators encode either as a JSON number or as a decimal
// string. It always marshals back as a string so large values survive JavaScript clients.
type Quantity struct {
	*big.Int
}

// NewQuantity wraps v.
func NewQuantity(v int64) Quantity {
	return Quantity{big.NewInt(v)}
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		q.Int = nil
		return nil
	}
	data = bytes.Trim(data, `"`)
	if len(data) == 0 {
		q.Int = nil
		return nil
	}
	v, ok := new(big.Int).SetString(string(data), 10)
	if !ok {
		// some providers send integral values as floats, e.g. 1.5e5
		f, _, err := big.ParseFloat(string(data), 10, 256, big.ToZero)
		if err != nil {
			return fmt.Errorf("invalid quantity %q", data)
		}
		v, _ = f.Int(nil)
	}
	q.Int = v
	return nil
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.Int == nil {
		return []byte("null"), nil
	}
	return json.Marshal(q.Int.String())
}

// Value returns the integer, zero when absent.
func (q Quantity) Value() *big.Int {
	if q.Int == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(q.Int)
}

// IsSet reports whether the field was present.
func (q Quantity) IsSet() bool {
	return q.Int != nil
}
