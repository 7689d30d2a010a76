package scrypt

import (
	"time"

	"github.com/pkg/errors"

	"github.com/kopia/scryptkdf/internal/timetrack"
)

const calibrationMinN = 16

// measureFunc returns how long a single derivation with the given parameters takes.
type measureFunc func(p Params, maxMemory uint64) (time.Duration, error)

// Calibrate returns parameters whose derivation takes at most target on this machine and
// needs at most maxMemory bytes (zero means DefaultMaxMemory()).
//
// N is doubled for as long as both limits allow. When memory stops N from growing while time
// remains, p is raised instead. r and the key length are taken from base, zero values default.
func Calibrate(target time.Duration, maxMemory uint64, base Params) (Params, error) {
	return calibrate(target, maxMemory, base, measureDerivation)
}

func calibrate(target time.Duration, maxMemory uint64, base Params, measure measureFunc) (Params, error) {
	if target <= 0 {
		return Params{}, errors.New("calibration target must be positive")
	}

	if maxMemory == 0 {
		maxMemory = DefaultMaxMemory()
	}

	p := Params{N: calibrationMinN, R: base.R, P: 1, KeyLength: base.KeyLength}
	if p.R == 0 {
		p.R = DefaultR
	}

	if p.KeyLength == 0 {
		p.KeyLength = DefaultKeyLength
	}

	if err := p.Validate(); err != nil {
		return Params{}, err
	}

	if p.MemoryRequired(1) > maxMemory {
		return Params{}, ErrInsufficientMemory
	}

	elapsed, err := measure(p, maxMemory)
	if err != nil {
		return Params{}, errors.Wrapf(err, "error measuring %v", p)
	}

	// each doubling of N doubles the time.
	for 2*elapsed <= target {
		next := p
		next.N *= 2

		if next.N == 0 || next.MemoryRequired(1) > maxMemory {
			break
		}

		if elapsed, err = measure(next, maxMemory); err != nil {
			return Params{}, errors.Wrapf(err, "error measuring %v", next)
		}

		if elapsed > target {
			return p, nil
		}

		p = next
	}

	if elapsed <= 0 {
		return p, nil
	}

	// sequential derivation time grows linearly with p.
	for extra := p; ; {
		extra.P++

		if time.Duration(extra.P)*elapsed > target || extra.Validate() != nil || extra.MemoryRequired(1) > maxMemory {
			return p, nil
		}

		p = extra
	}
}

func measureDerivation(p Params, maxMemory uint64) (time.Duration, error) {
	var passphrase, salt [16]byte

	t := timetrack.StartTimer()

	key, err := KeyWithOptions(passphrase[:], salt[:], p, Options{MaxMemory: maxMemory})
	if err != nil {
		return 0, err
	}

	clear(key)

	return t.Elapsed(), nil
}
