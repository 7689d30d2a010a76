//go:build 386 || arm || mips || mipsle

package crypto

// DefaultKeyDerivationAlgorithm is the key derivation algorithm used when none is specified.
// 32-bit address spaces get the 8 MiB preset.
const DefaultKeyDerivationAlgorithm = Scrypt32BitAlgorithm
