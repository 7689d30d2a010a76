//go:build !(386 || arm || mips || mipsle)

package crypto

// DefaultKeyDerivationAlgorithm is the key derivation algorithm used when none is specified.
const DefaultKeyDerivationAlgorithm = InteractiveAlgorithm
