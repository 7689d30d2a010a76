package scrypt

// blockMix computes BlockMix of in (2*r sub-blocks of 16 words) into out.
// x carries the running Salsa20/8 state and is left holding the last sub-block.
// Outputs of even-indexed sub-blocks fill the first half of out, odd ones the second half.
func blockMix(x *[salsaWords]uint32, in, out []uint32, r int) {
	copy(x[:], in[(2*r-1)*salsaWords:])

	for i := range 2 * r {
		sub := in[i*salsaWords : (i+1)*salsaWords]
		for k := range x {
			x[k] ^= sub[k]
		}

		salsa208(x)

		dst := (i / 2) * salsaWords
		if i%2 == 1 {
			dst += r * salsaWords
		}

		copy(out[dst:dst+salsaWords], x[:])
	}
}

// integerify interprets the first 8 bytes of the last 64-byte sub-block of b as a little-endian integer.
func integerify(b []uint32, r int) uint64 {
	j := (2*r - 1) * salsaWords

	return uint64(b[j]) | uint64(b[j+1])<<32 //nolint:mnd
}
