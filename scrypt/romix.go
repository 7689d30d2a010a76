package scrypt

import (
	"encoding/binary"
)

// roMix runs ROMix with cost n on a single 128*r byte block in place, using s for V and X/Y.
func roMix(block []byte, s *scratch, r, n int) {
	var t [salsaWords]uint32

	words := 32 * r //nolint:mnd
	x := s.xy.w[:words]
	y := s.xy.w[words:]
	v := s.v.w

	for i := range x {
		x[i] = binary.LittleEndian.Uint32(block[i*4:])
	}

	for i := range n {
		copy(v[i*words:(i+1)*words], x)
		blockMix(&t, x, y, r)
		x, y = y, x
	}

	mask := uint64(n - 1)

	for range n {
		j := int(integerify(x, r) & mask)

		vj := v[j*words : (j+1)*words]
		for k := range x {
			x[k] ^= vj[k]
		}

		blockMix(&t, x, y, r)
		x, y = y, x
	}

	for i, w := range x {
		binary.LittleEndian.PutUint32(block[i*4:], w)
	}

	clear(t[:])
}
