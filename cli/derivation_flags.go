package cli

import (
	"runtime"
	"strconv"

	"github.com/alecthomas/kingpin/v2"
	"github.com/alecthomas/units"
	"github.com/pkg/errors"

	"github.com/kopia/scryptkdf/internal/crypto"
	"github.com/kopia/scryptkdf/scrypt"
)

// memoryFlags control how derivations use CPU and memory. They never influence derived keys.
type memoryFlags struct {
	maxMemory units.Base2Bytes
	parallel  int
}

func (c *memoryFlags) setup(svc appServices, cmd *kingpin.CmdClause) {
	cmd.Flag("max-memory", "Working memory limit, e.g. 512MiB (default: half of available memory)").Envar(svc.EnvName("SCRYPTKDF_MAX_MEMORY")).BytesVar(&c.maxMemory)
	cmd.Flag("parallel", "Maximum number of blocks mixed concurrently").Default(strconv.Itoa(runtime.NumCPU())).IntVar(&c.parallel)
}

func (c *memoryFlags) maxMemoryBytes() uint64 {
	if c.maxMemory <= 0 {
		return scrypt.DefaultMaxMemory()
	}

	return uint64(c.maxMemory)
}

func (c *memoryFlags) options() scrypt.Options {
	return scrypt.Options{
		Parallelism: c.parallel,
		MaxMemory:   c.maxMemoryBytes(),
	}
}

// paramFlags select cost parameters, starting from a named preset.
type paramFlags struct {
	preset    string
	memoryMiB int
	n         uint32
	r         uint32
	p         uint32
	keyLength uint32
}

func (c *paramFlags) setup(cmd *kingpin.CmdClause) {
	cmd.Flag("preset", "Named parameter preset").Default(crypto.DefaultKeyDerivationAlgorithm).StringVar(&c.preset)
	cmd.Flag("memory-mib", "Use a preset whose table fits the given number of MiB (replaces --preset)").IntVar(&c.memoryMiB)
	cmd.Flag("N", "CPU/memory cost, a power of two (overrides preset)").Uint32Var(&c.n)
	cmd.Flag("r", "Block size factor (overrides preset)").Uint32Var(&c.r)
	cmd.Flag("p", "Parallelization factor (overrides preset)").Uint32Var(&c.p)
	cmd.Flag("dk-len", "Derived key length in bytes").Default(strconv.Itoa(scrypt.DefaultKeyLength)).Uint32Var(&c.keyLength)
}

// params returns the preset parameters with non-zero flags applied.
func (c *paramFlags) params() (scrypt.Params, error) {
	if c.memoryMiB < 0 {
		return scrypt.Params{}, errors.New("--memory-mib must not be negative")
	}

	if c.memoryMiB > 0 {
		c.preset = crypto.NewScryptKeyDeriverWithMemory(c.memoryMiB)
	}

	p, err := crypto.ParamsForAlgorithm(c.preset)
	if err != nil {
		return scrypt.Params{}, errors.Wrapf(err, "invalid preset %q (supported: %v)", c.preset, crypto.SupportedAlgorithms())
	}

	override(&p.N, c.n)
	override(&p.R, c.r)
	override(&p.P, c.p)
	override(&p.KeyLength, c.keyLength)

	return p, nil
}

func override(target *uint32, v uint32) {
	if v != 0 {
		*target = v
	}
}
