package scrypt

import (
	"runtime"
	"strings"

	"github.com/kopia/scryptkdf/internal/releasable"
)

// BufferKind identifies sensitive working buffers in internal/releasable.
const BufferKind releasable.ItemKind = "scrypt-buffer"

// wordBuffer holds sensitive words that are wiped on release.
type wordBuffer struct {
	w []uint32
}

func (b *wordBuffer) release() {
	if b == nil || b.w == nil {
		return
	}

	clear(b.w)
	b.w = nil

	releasable.Released(BufferKind, b)
}

// allocWords allocates a wiped-on-release buffer of n words, reporting allocations the runtime
// refuses as ErrInsufficientMemory.
func allocWords(n int) (b *wordBuffer, err error) {
	defer func() {
		if r := recover(); r != nil {
			if !isAllocationPanic(r) {
				panic(r)
			}

			b, err = nil, ErrInsufficientMemory
		}
	}()

	b = &wordBuffer{w: make([]uint32, n)}

	releasable.Created(BufferKind, b)

	return b, nil
}

func isAllocationPanic(r any) bool {
	re, ok := r.(runtime.Error)

	return ok && strings.Contains(re.Error(), "makeslice")
}

// byteBuffer holds the PBKDF2 output B.
type byteBuffer struct {
	b []byte
}

func trackBytes(b []byte) *byteBuffer {
	bb := &byteBuffer{b: b}

	releasable.Created(BufferKind, bb)

	return bb
}

func (b *byteBuffer) release() {
	if b == nil || b.b == nil {
		return
	}

	clear(b.b)
	b.b = nil

	releasable.Released(BufferKind, b)
}

// scratch is the working memory of a single ROMix worker: the table V and the X/Y pair.
type scratch struct {
	v  *wordBuffer
	xy *wordBuffer
}

// newScratch allocates X/Y before V so that a failed V allocation leaves only the small buffer to release.
func newScratch(r, n int) (*scratch, error) {
	xy, err := allocWords(64 * r) //nolint:mnd
	if err != nil {
		return nil, err
	}

	v, err := allocWords(32 * r * n) //nolint:mnd
	if err != nil {
		xy.release()
		return nil, err
	}

	return &scratch{v: v, xy: xy}, nil
}

func (s *scratch) release() {
	s.v.release()
	s.xy.release()
}
