package bridge

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/kopia/scryptkdf/scrypt"
)

// Options are the numeric derivation parameters supplied by the host.
// Absent, null and zero values fall back to scrypt defaults. When decoded from JSON, values
// may be numbers with fractions or numeric strings, which are truncated toward zero.
type Options struct {
	N     *uint32 `json:"N,omitempty"`
	R     *uint32 `json:"r,omitempty"`
	P     *uint32 `json:"p,omitempty"`
	DKLen *uint32 `json:"dkLen,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Options) UnmarshalJSON(b []byte) error {
	var raw struct {
		N     *number `json:"N"`
		R     *number `json:"r"`
		P     *number `json:"p"`
		DKLen *number `json:"dkLen"`
	}

	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.Wrap(err, "invalid options")
	}

	var res Options

	for _, f := range []struct {
		name string
		src  *number
		dst  **uint32
	}{
		{"N", raw.N, &res.N},
		{"r", raw.R, &res.R},
		{"p", raw.P, &res.P},
		{"dkLen", raw.DKLen, &res.DKLen},
	} {
		v, err := uint32Value(f.src)
		if err != nil {
			return errors.Wrapf(err, "invalid %v", f.name)
		}

		*f.dst = v
	}

	*o = res

	return nil
}

// DefaultOptions returns options with every parameter set to its default.
func DefaultOptions() Options {
	return OptionsFromParams(scrypt.DefaultParams)
}

// OptionsFromParams returns options carrying the provided parameters.
func OptionsFromParams(p scrypt.Params) Options {
	return Options{
		N:     &p.N,
		R:     &p.R,
		P:     &p.P,
		DKLen: &p.KeyLength,
	}
}

// Params returns engine parameters with defaults applied.
func (o Options) Params() scrypt.Params {
	return scrypt.Params{
		N:         valueOrDefault(o.N, scrypt.DefaultN),
		R:         valueOrDefault(o.R, scrypt.DefaultR),
		P:         valueOrDefault(o.P, scrypt.DefaultP),
		KeyLength: valueOrDefault(o.DKLen, scrypt.DefaultKeyLength),
	}
}

func valueOrDefault(v *uint32, def uint32) uint32 {
	if v == nil || *v == 0 {
		return def
	}

	return *v
}
