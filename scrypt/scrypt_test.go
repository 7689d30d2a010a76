package scrypt_test

import (
	"encoding/hex"
	"math"
	"math/bits"
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	xscrypt "golang.org/x/crypto/scrypt"

	"github.com/kopia/scryptkdf/internal/releasable"
	"github.com/kopia/scryptkdf/internal/testutil"
	"github.com/kopia/scryptkdf/scrypt"
)

func TestRFC7914Vectors(t *testing.T) {
	cases := []struct {
		passphrase, salt string
		params           scrypt.Params
		want             string
	}{
		{
			"", "",
			scrypt.Params{N: 16, R: 1, P: 1, KeyLength: 64},
			"77d6576238657b203b19ca42c18a0497f16b4844e3074ae8dfdffa3fede21442fcd0069ded0948f8326a753a0fc81f17e8d3e0fb2e0d3628cf35e20c38d18906",
		},
		{
			"password", "NaCl",
			scrypt.Params{N: 1024, R: 8, P: 16, KeyLength: 64},
			"fdbabe1c9d3472007856e7190d01e9fe7c6ad7cbc8237830e77376634b3731622eaf30d92e22a3886ff109279d9830dac727afb94a83ee6d8360cbdfa2cc0640",
		},
		{
			"pleaseletmein", "SodiumChloride",
			scrypt.Params{N: 16384, R: 8, P: 1, KeyLength: 64},
			"7023bdcb3afd7348461c06cd81fd38ebfda8fbba904f8e3ea9b543f6545da1f2d5432955613f0fcf62d49705242a9af9e61e85dc0d651e40dfcf017b45575887",
		},
	}

	for _, tc := range cases {
		t.Run(tc.params.String(), func(t *testing.T) {
			for _, parallelism := range []int{1, 4} {
				key, err := scrypt.KeyWithOptions([]byte(tc.passphrase), []byte(tc.salt), tc.params, scrypt.Options{Parallelism: parallelism})
				require.NoError(t, err)
				require.Equal(t, tc.want, hex.EncodeToString(key), "parallelism=%v", parallelism)
			}
		})
	}
}

func TestRFC7914LargeVector(t *testing.T) {
	testutil.SkipIfReducedComplexity(t)

	p := scrypt.Params{N: 1048576, R: 8, P: 1, KeyLength: 64}
	if scrypt.DefaultMaxMemory() < p.MemoryRequired(1) {
		t.Skip("not enough memory")
	}

	key, err := scrypt.Key([]byte("pleaseletmein"), []byte("SodiumChloride"), p)
	require.NoError(t, err)
	require.Equal(t, testutil.MustDecodeHex(t, "2101cb9b6a511aaeaddbbe09cf70f881ec568d574a2ffd4dabe5ee9820adaa478e56fd8f4ba5d09ffa1c6d927c40f4c337304049e8a952fbcbf45c6fa77a41a4"), key)
}

func TestKeyIsDeterministic(t *testing.T) {
	p := scrypt.Params{N: 64, R: 2, P: 3, KeyLength: 48}

	k1, err := scrypt.Key([]byte("correct horse"), []byte("battery staple"), p)
	require.NoError(t, err)

	k2, err := scrypt.Key([]byte("correct horse"), []byte("battery staple"), p)
	require.NoError(t, err)

	require.Equal(t, k1, k2)

	k3, err := scrypt.Key([]byte("correct horse"), []byte("battery staplf"), p)
	require.NoError(t, err)
	require.NotEqual(t, k1, k3)
}

func TestKeyLength(t *testing.T) {
	prev := []byte{}

	for _, dkLen := range []uint32{1, 16, 32, 64, 255} {
		key, err := scrypt.Key([]byte("passphrase"), []byte("salt"), scrypt.Params{N: 16, R: 1, P: 1, KeyLength: dkLen})
		require.NoError(t, err)
		require.Len(t, key, int(dkLen))

		// PBKDF2 output is a prefix of any longer output with the same parameters.
		require.Equal(t, prev, key[:len(prev)])

		prev = key
	}
}

func TestCostParameterN(t *testing.T) {
	for _, n := range []uint32{0, 1, 3, 15} {
		_, err := scrypt.Key([]byte("p"), []byte("s"), scrypt.Params{N: n, R: 1, P: 1, KeyLength: 32})
		require.ErrorIs(t, err, scrypt.ErrInvalidParameter, "N=%v", n)
		require.Equal(t, "N must be a power of 2 greater than 1.", scrypt.Reason(err))
	}

	for _, n := range []uint32{2, 4, 16384} {
		key, err := scrypt.Key([]byte("p"), []byte("s"), scrypt.Params{N: n, R: 1, P: 1, KeyLength: 32})
		require.NoError(t, err, "N=%v", n)
		require.Len(t, key, 32)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		params scrypt.Params
		reason string
	}{
		{scrypt.DefaultParams, ""},
		{scrypt.Params{N: 2, R: 1, P: 1, KeyLength: 1}, ""},
		{scrypt.Params{N: 0, R: 0, P: 0, KeyLength: 0}, "N must be a power of 2 greater than 1."},
		{scrypt.Params{N: 1 << 31, R: 1, P: 1, KeyLength: 1}, ""},
		{scrypt.Params{N: 1<<31 + 1, R: 1, P: 1, KeyLength: 1}, "N must be a power of 2 greater than 1."},
		{scrypt.Params{N: 16, R: 0, P: 1, KeyLength: 32}, "r must be greater than 0."},
		{scrypt.Params{N: 16, R: 1, P: 0, KeyLength: 32}, "p must be greater than 0."},
		{scrypt.Params{N: 16, R: 1 << 23, P: 1, KeyLength: 32}, "parameters are too large: 128 * r * p must be less than 2^30."},
		{scrypt.Params{N: 16, R: 1 << 22, P: 2, KeyLength: 32}, "parameters are too large: 128 * r * p must be less than 2^30."},
		{scrypt.Params{N: 16, R: math.MaxUint32, P: math.MaxUint32, KeyLength: 32}, "parameters are too large: 128 * r * p must be less than 2^30."},
		{scrypt.Params{N: 16, R: 1<<23 - 1, P: 1, KeyLength: 32}, ""},
		{scrypt.Params{N: 16, R: 1, P: 1, KeyLength: 0}, "dkLen must be greater than 0."},
	}

	for _, tc := range cases {
		err := tc.params.Validate()
		if tc.reason == "" {
			require.NoError(t, err, "%+v", tc.params)
			continue
		}

		require.ErrorIs(t, err, scrypt.ErrInvalidParameter, "%+v", tc.params)
		require.NotErrorIs(t, err, scrypt.ErrInsufficientMemory)
		require.Equal(t, tc.reason, scrypt.Reason(err), "%+v", tc.params)

		var ipe *scrypt.InvalidParameterError

		require.ErrorAs(t, errors.Wrap(err, "wrapped"), &ipe)
		require.Equal(t, tc.reason, ipe.Reason)
	}
}

func TestAvalanche(t *testing.T) {
	p := scrypt.Params{N: 16, R: 1, P: 1, KeyLength: 64}
	passphrase := []byte("avalanche passphrase")

	base, err := scrypt.Key(passphrase, []byte("salt"), p)
	require.NoError(t, err)

	for bit := range 16 {
		flipped := append([]byte(nil), passphrase...)
		flipped[bit/8] ^= 1 << (bit % 8)

		key, err := scrypt.Key(flipped, []byte("salt"), p)
		require.NoError(t, err)

		distance := 0
		for i := range key {
			distance += bits.OnesCount8(key[i] ^ base[i])
		}

		// expect roughly half of the 512 output bits to change.
		require.Greater(t, distance, 512*3/10, "bit %v", bit)
		require.Less(t, distance, 512*7/10, "bit %v", bit)
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	for _, p := range []uint32{2, 3, 8} {
		params := scrypt.Params{N: 256, R: 2, P: p, KeyLength: 32}

		want, err := scrypt.Key([]byte("parallel"), []byte("salt"), params)
		require.NoError(t, err)

		for _, parallelism := range []int{2, 4, 16} {
			got, err := scrypt.KeyWithOptions([]byte("parallel"), []byte("salt"), params, scrypt.Options{Parallelism: parallelism})
			require.NoError(t, err)
			require.Equal(t, want, got, "p=%v parallelism=%v", p, parallelism)
		}
	}
}

func TestMatchesXCrypto(t *testing.T) {
	cases := []scrypt.Params{
		{N: 2, R: 1, P: 1, KeyLength: 1},
		{N: 4, R: 3, P: 2, KeyLength: 33},
		{N: 32, R: 5, P: 3, KeyLength: 100},
		{N: 1024, R: 1, P: 1, KeyLength: 32},
		{N: 128, R: 16, P: 4, KeyLength: 64},
	}

	for _, p := range cases {
		passphrase := []byte("passphrase " + p.String())
		salt := []byte("salt " + strconv.Itoa(int(p.KeyLength)))

		want, err := xscrypt.Key(passphrase, salt, int(p.N), int(p.R), int(p.P), int(p.KeyLength))
		require.NoError(t, err)

		got, err := scrypt.KeyWithOptions(passphrase, salt, p, scrypt.Options{Parallelism: 2})
		require.NoError(t, err)
		require.Equal(t, want, got, "%v", p)
	}
}

func TestInsufficientMemory(t *testing.T) {
	releasable.EnableTracking(scrypt.BufferKind)
	defer releasable.DisableTracking(scrypt.BufferKind)

	_, err := scrypt.KeyWithOptions([]byte("p"), []byte("s"), scrypt.DefaultParams, scrypt.Options{MaxMemory: 1 << 20})
	require.ErrorIs(t, err, scrypt.ErrInsufficientMemory)
	require.NotErrorIs(t, err, scrypt.ErrInvalidParameter)
	require.Equal(t, "Insufficient memory available.", scrypt.Reason(err))

	require.NoError(t, releasable.Verify())
}

func TestParallelismReducedToFitMemory(t *testing.T) {
	releasable.EnableTracking(scrypt.BufferKind)
	defer releasable.DisableTracking(scrypt.BufferKind)

	p := scrypt.Params{N: 1024, R: 8, P: 4, KeyLength: 32}

	want, err := scrypt.Key([]byte("p"), []byte("s"), p)
	require.NoError(t, err)

	got, err := scrypt.KeyWithOptions([]byte("p"), []byte("s"), p, scrypt.Options{Parallelism: 8, MaxMemory: p.MemoryRequired(2)})
	require.NoError(t, err)
	require.Equal(t, want, got)

	require.NoError(t, releasable.Verify())
}

func TestAllocationFailureReleasesBuffers(t *testing.T) {
	testutil.SkipIfReducedComplexity(t)

	releasable.EnableTracking(scrypt.BufferKind)
	defer releasable.DisableTracking(scrypt.BufferKind)

	// V would need 2^54 bytes, which the runtime refuses to allocate.
	p := scrypt.Params{N: 1 << 31, R: 1 << 16, P: 1, KeyLength: 32}
	require.NoError(t, p.Validate())

	_, err := scrypt.KeyWithOptions([]byte("p"), []byte("s"), p, scrypt.Options{MaxMemory: math.MaxUint64})
	require.ErrorIs(t, err, scrypt.ErrInsufficientMemory)
	require.Equal(t, "Insufficient memory available.", scrypt.Reason(err))

	require.NoError(t, releasable.Verify())
}

func TestSuccessfulDerivationReleasesBuffers(t *testing.T) {
	releasable.EnableTracking(scrypt.BufferKind)
	defer releasable.DisableTracking(scrypt.BufferKind)

	_, err := scrypt.KeyWithOptions([]byte("p"), []byte("s"), scrypt.Params{N: 16, R: 1, P: 4, KeyLength: 16}, scrypt.Options{Parallelism: 4})
	require.NoError(t, err)

	require.NoError(t, releasable.Verify())

	for _, items := range releasable.Active() {
		require.Empty(t, items)
	}
}

func TestReason(t *testing.T) {
	require.Empty(t, scrypt.Reason(nil))
	require.Equal(t, "some failure", scrypt.Reason(errors.New("some failure")))
	require.Equal(t, "Insufficient memory available.", scrypt.Reason(errors.Wrap(scrypt.ErrInsufficientMemory, "wrapped")))
}

func TestMemoryRequired(t *testing.T) {
	p := scrypt.Params{N: 16384, R: 8, P: 4}

	require.Equal(t, uint64(128*8*4+128*8*16384+256*8), p.MemoryRequired(1))
	require.Equal(t, uint64(128*8*4+2*(128*8*16384+256*8)), p.MemoryRequired(2))
	require.Equal(t, p.MemoryRequired(1), p.MemoryRequired(0))
	require.Equal(t, p.MemoryRequired(4), p.MemoryRequired(100))
}

func TestParamsString(t *testing.T) {
	require.Equal(t, "scrypt-16384-8-1", scrypt.DefaultParams.String())
	require.Equal(t, uint32(32), scrypt.DefaultParams.KeyLength)
}

func TestDefaultMaxMemory(t *testing.T) {
	require.Positive(t, scrypt.DefaultMaxMemory())
	require.Equal(t, scrypt.DefaultMaxMemory(), scrypt.DefaultMaxMemory())
}

func BenchmarkKeyDefault(b *testing.B) {
	for range b.N {
		if _, err := scrypt.Key([]byte("password"), []byte("salt"), scrypt.DefaultParams); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkKeyParallel(b *testing.B) {
	p := scrypt.Params{N: 16384, R: 8, P: 4, KeyLength: 32}

	for range b.N {
		if _, err := scrypt.KeyWithOptions([]byte("password"), []byte("salt"), p, scrypt.Options{Parallelism: 4}); err != nil {
			b.Fatal(err)
		}
	}
}
