package scrypt

import (
	"fmt"
	"math"
)

// Default cost parameters.
const (
	DefaultN         = 16384
	DefaultR         = 8
	DefaultP         = 1
	DefaultKeyLength = 32
)

// maxBlocksSize is the exclusive upper bound of 128*r*p.
const maxBlocksSize = 1 << 30

// DefaultParams are the parameters used when the caller does not choose any.
//
//nolint:gochecknoglobals
var DefaultParams = Params{
	N:         DefaultN,
	R:         DefaultR,
	P:         DefaultP,
	KeyLength: DefaultKeyLength,
}

// Params describes scrypt cost parameters and the length of the derived key.
type Params struct {
	N         uint32 `json:"N"`
	R         uint32 `json:"r"`
	P         uint32 `json:"p"`
	KeyLength uint32 `json:"dkLen"`
}

// Validate returns an *InvalidParameterError describing the first parameter that cannot be used.
func (p Params) Validate() error {
	switch {
	case p.N <= 1 || p.N&(p.N-1) != 0:
		return invalidParameter(reasonBadN)
	case p.R == 0:
		return invalidParameter(reasonBadR)
	case p.P == 0:
		return invalidParameter(reasonBadP)
	case uint64(p.R)*uint64(p.P) >= maxBlocksSize/128:
		return invalidParameter(reasonTooLarge)
	case p.KeyLength == 0:
		return invalidParameter(reasonBadKeyLength)
	}

	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("scrypt-%v-%v-%v", p.N, p.R, p.P)
}

// blockSize returns the size of a single ROMix block (128*r).
func (p Params) blockSize() uint64 {
	return 128 * uint64(p.R) //nolint:mnd
}

// blocksSize returns the size of the PBKDF2 output that is split into p blocks (128*r*p).
func (p Params) blocksSize() uint64 {
	return p.blockSize() * uint64(p.P)
}

// tableSize returns the size of the ROMix table V (128*r*N).
func (p Params) tableSize() uint64 {
	return p.blockSize() * uint64(p.N)
}

// scratchSize returns the size of the per-worker X/Y scratch (256*r).
func (p Params) scratchSize() uint64 {
	return 2 * p.blockSize() //nolint:mnd
}

// MemoryRequired returns the number of bytes of working memory needed by a derivation
// that runs ROMix on the given number of workers. The worker count is clamped to [1, p].
func (p Params) MemoryRequired(workers int) uint64 {
	if workers < 1 {
		workers = 1
	}

	if uint64(workers) > uint64(p.P) && p.P > 0 {
		workers = int(p.P)
	}

	return p.blocksSize() + uint64(workers)*(p.tableSize()+p.scratchSize())
}

// fitsAddressSpace determines whether a single worker's buffers can be addressed by this process.
func (p Params) fitsAddressSpace() bool {
	return p.tableSize() <= math.MaxInt && p.scratchSize() <= math.MaxInt
}
