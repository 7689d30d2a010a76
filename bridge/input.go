package bridge

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Input is a passphrase or salt supplied by the host, either as a string (its UTF-8 bytes)
// or as an array of numbers, each truncated to an integer and then to a byte.
// Array elements may also be numeric strings.
// A JSON null leaves the input nil, which is distinct from an empty input.
type Input []byte

// UnmarshalJSON implements json.Unmarshaler.
func (in *Input) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string

		if err := json.Unmarshal(b, &s); err != nil {
			return errors.Wrap(err, "invalid string input")
		}

		out := make([]byte, len(s))
		copy(out, s)
		*in = out

		return nil
	}

	var values []number

	if err := json.Unmarshal(b, &values); err != nil {
		return errors.New("input must be a string or an array of integers")
	}

	out := make([]byte, len(values))
	for i, v := range values {
		out[i] = byte(v) //nolint:gosec
	}

	clear(values)

	*in = out

	return nil
}

// MarshalJSON implements json.Marshaler, encoding the input as an array of integers.
func (in Input) MarshalJSON() ([]byte, error) {
	if in == nil {
		return []byte("null"), nil
	}

	values := make([]int, len(in))
	for i, v := range in {
		values[i] = int(v)
	}

	//nolint:wrapcheck
	return json.Marshal(values)
}

// Wipe zeroes the input.
func (in Input) Wipe() {
	clear(in)
}
