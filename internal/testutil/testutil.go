// Package testutil contains test helpers shared across packages.
package testutil

import (
	"encoding/hex"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSkipUnlessCI skips the current test with a provided message, except when running
// in CI environment, in which case it causes hard failure.
func TestSkipUnlessCI(t *testing.T, msg string, args ...interface{}) {
	t.Helper()

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	if os.Getenv("CI") != "" {
		t.Fatal(msg)
	} else {
		t.Skip(msg)
	}
}

// ShouldReduceTestComplexity returns true if test complexity should be reduced on the current machine.
func ShouldReduceTestComplexity() bool {
	return testing.Short() || strings.Contains(runtime.GOARCH, "arm") || strconv.IntSize < 64
}

// SkipIfReducedComplexity skips tests that need gigabytes of memory or minutes of CPU.
func SkipIfReducedComplexity(t *testing.T) {
	t.Helper()

	if ShouldReduceTestComplexity() {
		t.Skip("expensive test skipped on this machine")
	}
}

// MustDecodeHex decodes the provided hex string or fails the test.
func MustDecodeHex(t *testing.T, s string) []byte {
	t.Helper()

	b, err := hex.DecodeString(s)
	require.NoError(t, err)

	return b
}

// PatternBytes returns n deterministic, seed-dependent bytes.
func PatternBytes(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*31) ^ seed
	}

	return b
}
