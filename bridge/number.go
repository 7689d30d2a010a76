package bridge

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// number is an integer supplied by the host as a JSON number or a numeric string.
// Fractions are truncated toward zero. A JSON null leaves the value unchanged.
type number int64

// UnmarshalJSON implements json.Unmarshaler.
func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	s := string(b)

	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return errors.Wrap(err, "invalid numeric string")
		}

		s = strings.TrimSpace(s)
	}

	v, err := parseNumber(s)
	if err != nil {
		return err
	}

	*n = number(v)

	return nil
}

func parseNumber(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, errors.Errorf("invalid number %q", s)
	}

	return int64(f), nil
}

// uint32Value converts an optional host number to an optional parameter value.
func uint32Value(n *number) (*uint32, error) {
	if n == nil {
		return nil, nil //nolint:nilnil
	}

	if *n < 0 || *n > math.MaxUint32 {
		return nil, errors.Errorf("%v is not a valid non-negative integer", int64(*n))
	}

	v := uint32(*n)

	return &v, nil
}
