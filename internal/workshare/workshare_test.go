package workshare_test

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kopia/scryptkdf/internal/workshare"
)

type digestRequest struct {
	block  []byte
	rounds int
}

// digestInPlace repeatedly hashes the block and writes the result back into it.
func digestInPlace(w *workshare.Pool[*digestRequest], req *digestRequest) {
	if w != nil && w.ActiveWorkers() == 0 {
		panic("unexpected worker count")
	}

	for range req.rounds {
		h := sha256.Sum256(req.block)
		copy(req.block, h[:])
	}
}

func makeBlocks(n int) [][]byte {
	var blocks [][]byte

	for i := range n {
		b := make([]byte, sha256.Size)
		b[0] = byte(i)
		blocks = append(blocks, b)
	}

	return blocks
}

func digestAll(w *workshare.Pool[*digestRequest], blocks [][]byte) {
	var ag workshare.AsyncGroup[*digestRequest]

	for _, b := range blocks {
		req := &digestRequest{block: b, rounds: 100}

		if ag.CanShareWork(w) {
			ag.RunAsync(w, digestInPlace, req)
		} else {
			digestInPlace(nil, req)
		}
	}

	ag.Wait()
}

func TestSharedWorkMatchesInline(t *testing.T) {
	for _, numWorkers := range []int{-1, 0, 1, 4, 16} {
		want := makeBlocks(32)
		digestAll(workshare.NewPool[*digestRequest](0), want)

		w := workshare.NewPool[*digestRequest](numWorkers)

		got := makeBlocks(32)
		digestAll(w, got)

		w.Close()

		require.Equal(t, want, got, "workers: %v", numWorkers)
	}
}

func TestWaitReturnsAsyncRequests(t *testing.T) {
	w := workshare.NewPool[*digestRequest](2)
	defer w.Close()

	var ag workshare.AsyncGroup[*digestRequest]

	require.True(t, ag.CanShareWork(w))

	req := &digestRequest{block: make([]byte, sha256.Size), rounds: 1}
	ag.RunAsync(w, digestInPlace, req)

	require.Equal(t, []*digestRequest{req}, ag.Wait())
	require.NotEqual(t, make([]byte, sha256.Size), req.block)
}

func TestDisallowed_DoubleWait(t *testing.T) {
	var ag workshare.AsyncGroup[int]

	ag.Wait()
	require.Panics(t, func() {
		ag.Wait()
	})
}

func TestDisallowed_WaitAfterClose(t *testing.T) {
	var ag workshare.AsyncGroup[int]

	ag.Close()
	require.Panics(t, func() {
		ag.Wait()
	})

	ag.Close() // no-op
}

func TestDisallowed_UseAfterPoolClose(t *testing.T) {
	w := workshare.NewPool[int](1)

	var ag workshare.AsyncGroup[int]

	w.Close()
	w.Close() // no-op

	require.Panics(t, func() {
		ag.CanShareWork(w)
	})

	require.Panics(t, func() {
		ag.RunAsync(w, func(c *workshare.Pool[int], request int) {
			t.Fatal("should not be called")
		}, 33)
	})
}

func BenchmarkDigestAll(b *testing.B) {
	w := workshare.NewPool[*digestRequest](4)
	defer w.Close()

	blocks := makeBlocks(64)

	b.ResetTimer()

	for range b.N {
		digestAll(w, blocks)
	}
}
