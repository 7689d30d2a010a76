package cli

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/kopia/scryptkdf/internal/crypto"
	"github.com/kopia/scryptkdf/internal/timetrack"
	"github.com/kopia/scryptkdf/internal/units"
	"github.com/kopia/scryptkdf/scrypt"
)

const benchmarkSaltLength = 16

type commandBenchmark struct {
	presets  []string
	repeat   int
	parallel int

	out  jsonOutput
	text textOutput
}

type benchmarkResult struct {
	Preset         string        `json:"preset"`
	Params         scrypt.Params `json:"params"`
	PerDerivation  time.Duration `json:"perDerivation"`
	DerivationsPS  float64       `json:"derivationsPerSecond"`
	MemoryRequired uint64        `json:"memoryRequired"`
}

func (c *commandBenchmark) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("benchmark", "Measure key derivation speed of the parameter presets.")
	cmd.Flag("preset", "Preset to benchmark (default: all)").StringsVar(&c.presets)
	cmd.Flag("repeat", "Number of derivations per goroutine").Default("3").IntVar(&c.repeat)
	cmd.Flag("goroutines", "Number of concurrent derivations").Default("1").IntVar(&c.parallel)

	c.out.setup(svc, cmd)
	c.text.setup(svc)

	cmd.Action(svc.baseActionWithContext(c.run))
}

func (c *commandBenchmark) run(ctx context.Context) error {
	if c.repeat < 1 || c.parallel < 1 {
		return errors.New("--repeat and --goroutines must be positive")
	}

	presets := c.presets
	if len(presets) == 0 {
		presets = crypto.SupportedAlgorithms()
	}

	var results []benchmarkResult

	for _, name := range presets {
		r, err := c.benchmarkPreset(ctx, name)
		if err != nil {
			return err
		}

		results = append(results, r)
	}

	if c.out.jsonOutput {
		c.out.emit(results)
		return nil
	}

	c.text.printStdout("     %-20v %-14v %-12v %v\n", "Preset", "Derivation", "Per second", "Memory")
	c.text.printStdout("-----------------------------------------------------------------\n")

	for ndx, r := range results {
		c.text.printStdout("%3d. %-20v %-14v %-12.2f %v\n", ndx, r.Preset, r.PerDerivation.Round(time.Microsecond), r.DerivationsPS, units.BytesString(int64(r.MemoryRequired))) //nolint:gosec
	}

	c.text.printStdout("-----------------------------------------------------------------\n")

	return nil
}

func (c *commandBenchmark) benchmarkPreset(ctx context.Context, name string) (benchmarkResult, error) {
	p, err := crypto.ParamsForAlgorithm(name)
	if err != nil {
		return benchmarkResult{}, errors.Wrapf(err, "invalid preset %q", name)
	}

	log(ctx).Infof("Benchmarking %v... (%v x %v goroutines)", name, c.repeat, c.parallel)

	const passphrase = "benchmark passphrase"

	salt := make([]byte, benchmarkSaltLength)

	tt := timetrack.Start()

	var eg errgroup.Group

	for range c.parallel {
		eg.Go(func() error {
			for range c.repeat {
				key, err := crypto.DeriveKeyFromPassword(passphrase, salt, int(p.KeyLength), name)
				if err != nil {
					return errors.Wrapf(err, "unable to derive with %v", name)
				}

				clear(key)
			}

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return benchmarkResult{}, err //nolint:wrapcheck
	}

	total := c.repeat * c.parallel
	elapsed, perSecond := tt.Completed(float64(total))

	return benchmarkResult{
		Preset:         name,
		Params:         p,
		PerDerivation:  elapsed / time.Duration(total),
		DerivationsPS:  perSecond,
		MemoryRequired: p.MemoryRequired(1),
	}, nil
}
