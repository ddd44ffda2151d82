package mboum

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// flexNumber tolerates the screener's mixed numeric encodings: some fields
// arrive as JSON numbers, others as quoted strings, and absent fields as
// null. Conversion failures surface when the record is parsed, at which
// point the record is dropped.
type flexNumber string

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var unquoted string
		if err := json.Unmarshal(b, &unquoted); err != nil {
			return err
		}
		*n = flexNumber(strings.TrimSpace(unquoted))
		return nil
	}
	*n = flexNumber(s)
	return nil
}

// Decimal parses the value, treating absent as zero.
func (n flexNumber) Decimal() (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(string(n))
}

// Float64 parses the value, treating absent as zero.
func (n flexNumber) Float64() (float64, error) {
	if n == "" {
		return 0, nil
	}
	return strconv.ParseFloat(string(n), 64)
}

// Int64 parses the value, truncating fractional encodings like "100.0".
func (n flexNumber) Int64() (int64, error) {
	if n == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
