package crypto

import (
	"math/bits"

	"github.com/pkg/errors"

	"github.com/kopia/scryptkdf/scrypt"
)

const (
	// InteractiveAlgorithm is the scrypt preset with default cost parameters (16 MiB).
	InteractiveAlgorithm = "scrypt-16384-8-1"

	// ModerateAlgorithm doubles the cost of InteractiveAlgorithm (32 MiB).
	ModerateAlgorithm = "scrypt-32768-8-1"

	// StrongAlgorithm quadruples the cost of InteractiveAlgorithm (64 MiB).
	StrongAlgorithm = "scrypt-65536-8-1"

	// Scrypt32BitAlgorithm uses reduced parameters that fit 32-bit address spaces (8 MiB).
	Scrypt32BitAlgorithm = "scrypt-16384-4-1"

	// The recommended minimum size for a salt to be used for scrypt (128 bits).
	scryptMinSaltLength = 16

	// block size used when sizing N from a memory budget.
	scryptMemoryR = 8
)

func init() {
	for _, p := range []scrypt.Params{
		{N: 16384, R: 8, P: 1},
		{N: 32768, R: 8, P: 1},
		{N: 65536, R: 8, P: 1},
		{N: 16384, R: 4, P: 1},
	} {
		registerPBKeyDeriver(p.String(), &scryptKeyDeriver{p, scryptMinSaltLength})
	}
}

// NewScryptKeyDeriverWithMemory registers (if needed) and returns the name of a scrypt algorithm with r=8, p=1
// whose table V uses at most the given number of MiB. N is rounded down to a power of two, minimum 2.
func NewScryptKeyDeriverWithMemory(mib int) string {
	n := uint64(2) //nolint:mnd

	if mib > 0 {
		perBlock := uint64(128 * scryptMemoryR) //nolint:mnd
		if want := uint64(mib) << 20 / perBlock; want > n {
			n = 1 << (bits.Len64(want) - 1)
		}
	}

	if n > 1<<31 {
		n = 1 << 31
	}

	p := scrypt.Params{N: uint32(n), R: scryptMemoryR, P: 1}
	name := p.String()

	registerPBKeyDeriverIfAbsent(name, &scryptKeyDeriver{p, scryptMinSaltLength})

	return name
}

type scryptKeyDeriver struct {
	params        scrypt.Params
	minSaltLength int
}

func (s *scryptKeyDeriver) costParams() scrypt.Params {
	return s.params
}

func (s *scryptKeyDeriver) deriveKeyFromPassword(password string, salt []byte, keySize int) ([]byte, error) {
	if len(salt) < s.minSaltLength {
		return nil, errors.Errorf("required salt size is at least %d bytes", s.minSaltLength)
	}

	if keySize <= 0 || uint64(keySize) > uint64(^uint32(0)) {
		return nil, errors.Errorf("invalid key size: %v", keySize)
	}

	p := s.params
	p.KeyLength = uint32(keySize)

	pass := []byte(password)
	defer clear(pass)

	key, err := scrypt.Key(pass, salt, p)
	if err != nil {
		return nil, errors.Wrap(err, "unable to derive key")
	}

	return key, nil
}
