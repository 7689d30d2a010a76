package scrypt

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kopia/scryptkdf/internal/testutil"
)

func TestSalsaCore(t *testing.T) {
	in := testutil.MustDecodeHex(t, "7e879a214f3ec9867ca940e641718f26baee555b8c61c1b50df846116dcd3b1dee24f319df9b3d8514121e4b5ac5aa3276021d2909c74829edebc68db8b8c25e")
	want := testutil.MustDecodeHex(t, "a41f859c6608cc993b81cacb020cef05044b2181a2fd337dfd7b1c6396682f29b4393168e3c9e6bcfe6bc5b7a06d96bae424cc102c91745c24ad673dc7618f81")

	var block [64]byte

	copy(block[:], in)

	got := salsaCore(&block)
	require.Equal(t, want, got[:])
	require.Equal(t, in, block[:], "input must not be modified")
}

func TestBlockMixMatchesReference(t *testing.T) {
	for _, r := range []int{1, 2, 3, 8} {
		in := testutil.PatternBytes(128*r, byte(r))

		var x [salsaWords]uint32

		out := make([]uint32, 32*r)
		blockMix(&x, toWords(in), out, r)

		require.Equal(t, referenceBlockMix(in, r), fromWords(out), "r=%v", r)
	}
}

func TestROMixMatchesReference(t *testing.T) {
	cases := []struct {
		r, n int
	}{
		{1, 2},
		{1, 16},
		{2, 64},
		{3, 32},
		{8, 128},
	}

	for _, tc := range cases {
		block := testutil.PatternBytes(128*tc.r, byte(tc.n))
		want := referenceROMix(block, tc.r, tc.n)

		s, err := newScratch(tc.r, tc.n)
		require.NoError(t, err)

		roMix(block, s, tc.r, tc.n)
		s.release()

		require.Equal(t, want, block, "r=%v N=%v", tc.r, tc.n)
	}
}

func TestIntegerify(t *testing.T) {
	b := make([]uint32, 64)
	b[48] = 0x04030201
	b[49] = 0x08070605

	require.Equal(t, uint64(0x0807060504030201), integerify(b, 2))
}

func TestScratchReleaseWipes(t *testing.T) {
	s, err := newScratch(1, 16)
	require.NoError(t, err)

	v, xy := s.v.w, s.xy.w
	require.Len(t, v, 32*16)
	require.Len(t, xy, 64)

	for i := range v {
		v[i] = 0xffffffff
	}

	for i := range xy {
		xy[i] = 0xffffffff
	}

	s.release()

	require.Equal(t, make([]uint32, len(v)), v)
	require.Equal(t, make([]uint32, len(xy)), xy)
	require.Nil(t, s.v.w)

	// releasing twice is harmless.
	s.release()

	b := trackBytes([]byte{1, 2, 3})
	raw := b.b

	b.release()
	b.release()
	require.Equal(t, []byte{0, 0, 0}, raw)
}

func TestWorkers(t *testing.T) {
	p := Params{N: 1024, R: 8, P: 4, KeyLength: 32}

	cases := []struct {
		parallelism int
		maxMemory   uint64
		want        int
	}{
		{0, 1 << 40, 1},
		{1, 1 << 40, 1},
		{2, 1 << 40, 2},
		{16, 1 << 40, 4},
		{4, p.MemoryRequired(2), 2},
		{4, p.MemoryRequired(2) - 1, 1},
		{4, p.MemoryRequired(1), 1},
	}

	for _, tc := range cases {
		got, err := p.workers(Options{Parallelism: tc.parallelism, MaxMemory: tc.maxMemory})
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "parallelism=%v maxMemory=%v", tc.parallelism, tc.maxMemory)
	}

	_, err := p.workers(Options{MaxMemory: p.MemoryRequired(1) - 1})
	require.ErrorIs(t, err, ErrInsufficientMemory)
}

func TestMemoryLimit(t *testing.T) {
	cases := []struct {
		requested, available, want uint64
	}{
		{0, 0, DefaultMaxMemory()},
		{0, 1 << 20, DefaultMaxMemory()},
		{1 << 20, 0, 1 << 20},
		{1 << 20, 1 << 30, 1 << 20},
		{1 << 30, 1 << 20, 1 << 20},
		{math.MaxUint64, 4 << 30, 4 << 30},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, memoryLimit(tc.requested, tc.available), "requested=%v available=%v", tc.requested, tc.available)
	}
}

func TestLimitAboveAvailableMemory(t *testing.T) {
	avail := availableMemory()
	if avail == 0 {
		t.Skip("available memory is unknown")
	}

	if bits.UintSize < 64 {
		t.Skip("table cannot exceed memory on 32-bit")
	}

	// smallest table that does not fit in memory.
	p := Params{N: 2, R: 1 << 10, P: 1, KeyLength: 32}
	for p.tableSize() <= avail && p.N < 1<<31 {
		p.N <<= 1
	}

	if p.tableSize() <= avail {
		t.Skip("available memory exceeds the largest table")
	}

	require.NoError(t, p.Validate())

	_, err := KeyWithOptions([]byte("p"), []byte("s"), p, Options{MaxMemory: math.MaxUint64})
	require.ErrorIs(t, err, ErrInsufficientMemory)

	_, err = p.workers(Options{MaxMemory: math.MaxUint64})
	require.ErrorIs(t, err, ErrInsufficientMemory)
}

func referenceBlockMix(b []byte, r int) []byte {
	var x [64]byte

	copy(x[:], b[(2*r-1)*64:])

	y := make([]byte, len(b))

	for i := range 2 * r {
		var t [64]byte

		for k := range t {
			t[k] = x[k] ^ b[i*64+k]
		}

		x = salsaCore(&t)
		copy(y[i*64:], x[:])
	}

	out := make([]byte, len(b))

	for i := range r {
		copy(out[i*64:(i+1)*64], y[2*i*64:(2*i+1)*64])
		copy(out[(r+i)*64:(r+i+1)*64], y[(2*i+1)*64:(2*i+2)*64])
	}

	return out
}

func referenceROMix(b []byte, r, n int) []byte {
	x := bytes.Clone(b)
	v := make([][]byte, n)

	for i := range n {
		v[i] = bytes.Clone(x)
		x = referenceBlockMix(x, r)
	}

	for range n {
		j := binary.LittleEndian.Uint64(x[(2*r-1)*64:]) % uint64(n)

		for k := range x {
			x[k] ^= v[j][k]
		}

		x = referenceBlockMix(x, r)
	}

	return x
}

func toWords(b []byte) []uint32 {
	w := make([]uint32, len(b)/4)
	for i := range w {
		w[i] = binary.LittleEndian.Uint32(b[i*4:])
	}

	return w
}

func fromWords(w []uint32) []byte {
	b := make([]byte, len(w)*4)
	for i, v := range w {
		binary.LittleEndian.PutUint32(b[i*4:], v)
	}

	return b
}
