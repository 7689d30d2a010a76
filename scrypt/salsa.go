package scrypt

import (
	"encoding/binary"
	"math/bits"
)

const salsaWords = 16

// salsa208 applies the Salsa20/8 core to b in place: 4 double rounds followed by
// the word-wise addition of the input.
func salsa208(b *[salsaWords]uint32) {
	x := *b

	for range 4 {
		// columns
		quarterRound(&x, 0, 4, 8, 12)
		quarterRound(&x, 5, 9, 13, 1)
		quarterRound(&x, 10, 14, 2, 6)
		quarterRound(&x, 15, 3, 7, 11)

		// rows
		quarterRound(&x, 0, 1, 2, 3)
		quarterRound(&x, 5, 6, 7, 4)
		quarterRound(&x, 10, 11, 8, 9)
		quarterRound(&x, 15, 12, 13, 14)
	}

	for i := range b {
		b[i] += x[i]
	}

	clear(x[:])
}

func quarterRound(x *[salsaWords]uint32, a, b, c, d int) {
	x[b] ^= bits.RotateLeft32(x[a]+x[d], 7)
	x[c] ^= bits.RotateLeft32(x[b]+x[a], 9)
	x[d] ^= bits.RotateLeft32(x[c]+x[b], 13)
	x[a] ^= bits.RotateLeft32(x[d]+x[c], 18)
}

// salsaCore is the byte-oriented Salsa20/8 core over a 64-byte block of little-endian words.
func salsaCore(in *[64]byte) [64]byte {
	var (
		w   [salsaWords]uint32
		out [64]byte
	)

	for i := range w {
		w[i] = binary.LittleEndian.Uint32(in[i*4:])
	}

	salsa208(&w)

	for i, v := range w {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}

	clear(w[:])

	return out
}
