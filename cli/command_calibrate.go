package cli

import (
	"context"
	"strconv"
	"time"

	"github.com/alecthomas/units"
	"github.com/pkg/errors"

	"github.com/kopia/scryptkdf/internal/timetrack"
	kdfunits "github.com/kopia/scryptkdf/internal/units"
	"github.com/kopia/scryptkdf/scrypt"
)

type commandCalibrate struct {
	target    time.Duration
	maxMemory units.Base2Bytes
	r         uint32
	keyLength uint32

	out  jsonOutput
	text textOutput
}

type calibrateResult struct {
	Params         scrypt.Params `json:"params"`
	MemoryRequired uint64        `json:"memoryRequired"`
}

func (c *commandCalibrate) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("calibrate", "Find the most expensive parameters that fit a time and memory budget.")
	cmd.Flag("target", "Maximum time of a single derivation").Default("100ms").DurationVar(&c.target)
	cmd.Flag("max-memory", "Maximum working memory of a single derivation (default: half of physical memory)").Envar(svc.EnvName("SCRYPTKDF_MAX_MEMORY")).BytesVar(&c.maxMemory)
	cmd.Flag("r", "Block size factor").Default(strconv.Itoa(scrypt.DefaultR)).Uint32Var(&c.r)
	cmd.Flag("dk-len", "Derived key length in bytes").Default(strconv.Itoa(scrypt.DefaultKeyLength)).Uint32Var(&c.keyLength)

	c.out.setup(svc, cmd)
	c.text.setup(svc)

	cmd.Action(svc.baseActionWithContext(c.run))
}

func (c *commandCalibrate) run(ctx context.Context) error {
	var maxMemory uint64
	if c.maxMemory > 0 {
		maxMemory = uint64(c.maxMemory)
	}

	log(ctx).Infof("Calibrating for %v...", c.target)

	timer := timetrack.StartTimer()

	p, err := scrypt.Calibrate(c.target, maxMemory, scrypt.Params{R: c.r, KeyLength: c.keyLength})
	if err != nil {
		return errors.Wrap(err, "calibration failed")
	}

	log(ctx).Debugw("calibration finished", "params", p.String(), "elapsed", timer.Elapsed())

	res := calibrateResult{
		Params:         p,
		MemoryRequired: p.MemoryRequired(1),
	}

	if c.out.jsonOutput {
		c.out.emit(res)
		return nil
	}

	c.text.printStdout("Parameters: %v (memory %v)\n", p, kdfunits.BytesString(int64(res.MemoryRequired))) //nolint:gosec
	c.text.printStdout("To use them: --N=%v --r=%v --p=%v --dk-len=%v\n", p.N, p.R, p.P, p.KeyLength)

	return nil
}
