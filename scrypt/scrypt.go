// Package scrypt implements the scrypt password-based key derivation function (RFC 7914).
//
// Every call owns its working memory. Buffers holding passphrase-dependent state are wiped
// before the call returns, whether it succeeds or fails, and no state is shared between calls.
package scrypt

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"

	"github.com/kopia/scryptkdf/internal/workshare"
)

// Options control how a derivation executes. They never influence the derived key.
type Options struct {
	// Parallelism is the maximum number of blocks processed concurrently when p > 1.
	// Values <= 1 run sequentially.
	Parallelism int

	// MaxMemory limits the working memory of the call in bytes. Zero means DefaultMaxMemory().
	// Limits above the memory available to the process are lowered to it.
	MaxMemory uint64
}

// Key derives a key of p.KeyLength bytes from the passphrase and salt, sequentially and
// within the default memory limit.
func Key(passphrase, salt []byte, p Params) ([]byte, error) {
	return KeyWithOptions(passphrase, salt, p, Options{})
}

// KeyWithOptions derives a key of p.KeyLength bytes from the passphrase and salt.
//
// When the memory limit cannot accommodate opt.Parallelism workers, fewer workers are used.
// ErrInsufficientMemory is returned only when a single worker does not fit.
func KeyWithOptions(passphrase, salt []byte, p Params, opt Options) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	workers, err := p.workers(opt)
	if err != nil {
		return nil, err
	}

	r, n := int(p.R), int(p.N)

	scratches := make([]*scratch, 0, workers)

	defer func() {
		for _, s := range scratches {
			s.release()
		}
	}()

	for range workers {
		s, err := newScratch(r, n)
		if err != nil {
			return nil, err
		}

		scratches = append(scratches, s)
	}

	b := trackBytes(pbkdf2.Key(passphrase, salt, 1, int(p.blocksSize()), sha256.New))
	defer b.release()

	blockLen := int(p.blockSize())

	if len(scratches) == 1 {
		for i := range int(p.P) {
			roMix(b.b[i*blockLen:(i+1)*blockLen], scratches[0], r, n)
		}
	} else {
		roMixParallel(b.b, blockLen, scratches, r, n)
	}

	return pbkdf2.Key(passphrase, b.b, 1, int(p.KeyLength), sha256.New), nil
}

// workers returns the number of ROMix workers that fit in the memory limit.
func (p Params) workers(opt Options) (int, error) {
	if !p.fitsAddressSpace() {
		return 0, ErrInsufficientMemory
	}

	limit := memoryLimit(opt.MaxMemory, availableMemory())

	w := opt.Parallelism
	if w < 1 {
		w = 1
	}

	if uint64(w) > uint64(p.P) {
		w = int(p.P)
	}

	for w > 1 && p.MemoryRequired(w) > limit {
		w--
	}

	if p.MemoryRequired(w) > limit {
		return 0, ErrInsufficientMemory
	}

	return w, nil
}

type blockTask struct {
	block []byte
	free  chan *scratch
	r, n  int
}

func processBlock(_ *workshare.Pool[*blockTask], t *blockTask) {
	s := <-t.free
	roMix(t.block, s, t.r, t.n)
	t.free <- s
}

// roMixParallel runs ROMix over every block of b, sharing blocks with idle workers.
// The calling goroutine is one of the workers, so len(scratches)-1 goroutines are started.
func roMixParallel(b []byte, blockLen int, scratches []*scratch, r, n int) {
	free := make(chan *scratch, len(scratches))
	for _, s := range scratches {
		free <- s
	}

	pool := workshare.NewPool[*blockTask](len(scratches) - 1)
	defer pool.Close()

	var ag workshare.AsyncGroup[*blockTask]

	for off := 0; off < len(b); off += blockLen {
		t := &blockTask{block: b[off : off+blockLen], free: free, r: r, n: n}

		if ag.CanShareWork(pool) {
			ag.RunAsync(pool, processBlock, t)
		} else {
			processBlock(nil, t)
		}
	}

	ag.Wait()
}
