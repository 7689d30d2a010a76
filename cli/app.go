// Package cli implements the scryptkdf command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/kopia/scryptkdf/internal/metrics"
	"github.com/kopia/scryptkdf/logging"
)

var log = logging.Module("scryptkdf/cli")

var errorColor = color.New(color.FgHiRed)

// appServices are the methods of *App that command handles are allowed to call.
type appServices interface {
	stdout() io.Writer
	Stderr() io.Writer
	stdin() io.Reader
	EnvName(s string) string
	metricsRegistry() *metrics.Registry
	baseActionWithContext(act func(ctx context.Context) error) func(ctx *kingpin.ParseContext) error
}

// commandParent is implemented by app and commands that can have sub-commands.
type commandParent interface {
	Command(name, help string) *kingpin.CmdClause
}

// App contains per-invocation flags and state of the command-line application.
type App struct {
	derive    commandDerive
	benchmark commandBenchmark
	calibrate commandCalibrate
	selftest  commandSelfTest
	server    commandServer

	observability observabilityFlags

	loggerFactory logging.LoggerFactory
	registry      *metrics.Registry
	rootctx       context.Context //nolint:containedctx
	envNamePrefix string

	// testability hooks
	osExit       func(int)
	stdinReader  io.Reader
	stdoutWriter io.Writer
	stderrWriter io.Writer
}

// NewApp creates a new instance of App.
func NewApp() *App {
	return &App{
		osExit:       os.Exit,
		stdinReader:  os.Stdin,
		stdoutWriter: color.Output,
		stderrWriter: color.Error,
		rootctx:      context.Background(),
	}
}

// SetLoggerFactory sets the logger factory to be used throughout the app.
func (c *App) SetLoggerFactory(loggerForModule logging.LoggerFactory) {
	c.loggerFactory = loggerForModule
}

// Stderr returns the stderr writer.
func (c *App) Stderr() io.Writer {
	return c.stderrWriter
}

func (c *App) stdout() io.Writer {
	return c.stdoutWriter
}

func (c *App) stdin() io.Reader {
	return c.stdinReader
}

// EnvName overrides the provided environment variable name for testability.
func (c *App) EnvName(n string) string {
	return c.envNamePrefix + n
}

func (c *App) metricsRegistry() *metrics.Registry {
	return c.registry
}

// Attach attaches the CLI parser to the application.
func (c *App) Attach(app *kingpin.Application) {
	c.setup(app)
}

func (c *App) setup(app *kingpin.Application) {
	c.observability.setup(c, app)

	c.derive.setup(c, app)
	c.benchmark.setup(c, app)
	c.calibrate.setup(c, app)
	c.selftest.setup(c, app)
	c.server.setup(c, app)
}

func (c *App) rootContext() context.Context {
	ctx := c.rootctx

	if c.loggerFactory != nil {
		ctx = logging.WithLogger(ctx, c.loggerFactory)
	}

	return ctx
}

func (c *App) baseActionWithContext(act func(ctx context.Context) error) func(ctx *kingpin.ParseContext) error {
	return func(_ *kingpin.ParseContext) error {
		ctx := c.rootContext()

		if err := c.run(ctx, act); err != nil {
			c.printStderr("%v\n", errorColor.Sprintf("ERROR: %v", err))
			c.osExit(1)
		}

		return nil
	}
}

func (c *App) run(ctx context.Context, act func(ctx context.Context) error) error {
	c.registry = metrics.NewRegistry()

	if err := c.observability.startMetrics(ctx); err != nil {
		return errors.Wrap(err, "unable to start metrics")
	}

	err := act(ctx)

	if cerr := c.registry.Close(ctx); cerr != nil {
		log(ctx).Warnf("unable to log metrics: %v", cerr)
	}

	c.observability.stopMetrics(ctx)

	return err
}

func (c *App) printStderr(msg string, args ...interface{}) {
	fmt.Fprintf(c.Stderr(), msg, args...) //nolint:errcheck
}

// RunSubcommand executes the command with the given arguments using the provided streams
// and returns the exit code. The kingpin application must have been attached to c.
func (c *App) RunSubcommand(ctx context.Context, kpapp *kingpin.Application, stdin io.Reader, stdout, stderr io.Writer, argsAndFlags []string) int {
	exitCode := 0

	c.rootctx = ctx
	c.stdinReader = stdin
	c.stdoutWriter = stdout
	c.stderrWriter = stderr
	c.osExit = func(code int) {
		exitCode = code
	}

	kpapp.Terminate(nil)
	kpapp.UsageWriter(stdout)
	kpapp.ErrorWriter(stderr)

	if _, err := kpapp.Parse(argsAndFlags); err != nil {
		c.printStderr("%v\n", err)
		return 1
	}

	return exitCode
}
