// Package logfile manages console and file logging of the command-line application.
package logfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kopia/scryptkdf/cli"
	"github.com/kopia/scryptkdf/logging"
)

const logsDirMode = 0o700

var logLevels = []string{"debug", "info", "warning", "error"}

type loggingFlags struct {
	logFile              string
	logLevel             string
	fileLogLevel         string
	jsonLogFile          bool
	jsonLogConsole       bool
	forceColor           bool
	disableColor         bool
	consoleLogTimestamps bool

	cliApp *cli.App
}

func (c *loggingFlags) setup(cliApp *cli.App, app *kingpin.Application) {
	app.Flag("log-file", "Write logs to the provided file.").Envar(cliApp.EnvName("SCRYPTKDF_LOG_FILE")).StringVar(&c.logFile)
	app.Flag("log-level", "Console log level").Default("info").EnumVar(&c.logLevel, logLevels...)
	app.Flag("json-log-console", "JSON log file").Hidden().BoolVar(&c.jsonLogConsole)
	app.Flag("json-log-file", "JSON log file").Hidden().BoolVar(&c.jsonLogFile)
	app.Flag("file-log-level", "File log level").Default("debug").EnumVar(&c.fileLogLevel, logLevels...)
	app.Flag("force-color", "Force color output").Hidden().Envar(cliApp.EnvName("SCRYPTKDF_FORCE_COLOR")).BoolVar(&c.forceColor)
	app.Flag("disable-color", "Disable color output").Hidden().Envar(cliApp.EnvName("SCRYPTKDF_DISABLE_COLOR")).BoolVar(&c.disableColor)
	app.Flag("console-timestamps", "Log timestamps to stderr.").Hidden().Default("false").Envar(cliApp.EnvName("SCRYPTKDF_CONSOLE_TIMESTAMPS")).BoolVar(&c.consoleLogTimestamps)

	app.PreAction(c.initialize)
	c.cliApp = cliApp
}

// Attach attaches logging flags to the provided application.
func Attach(cliApp *cli.App, app *kingpin.Application) {
	lf := &loggingFlags{}
	lf.setup(cliApp, app)
}

// initialize is invoked as part of command execution to set up loggers just before they are needed.
func (c *loggingFlags) initialize(_ *kingpin.ParseContext) error {
	switch {
	case c.disableColor:
		color.NoColor = true
	case c.forceColor:
		color.NoColor = false
	default:
		color.NoColor = !isTerminal(c.cliApp.Stderr())
	}

	cores := []zapcore.Core{c.setupConsoleCore()}

	if c.logFile != "" {
		core, err := c.setupLogFileCore()
		if err != nil {
			return err
		}

		cores = append(cores, core)
	}

	rootLogger := zap.New(zapcore.NewTee(cores...))

	c.cliApp.SetLoggerFactory(func(module string) logging.Logger {
		return rootLogger.Named(module).Sugar()
	})

	return nil
}

func (c *loggingFlags) setupConsoleCore() zapcore.Core {
	ec := &zapcore.EncoderConfig{
		LevelKey:         "l",
		MessageKey:       "m",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: " ",
	}

	if c.consoleLogTimestamps {
		ec.TimeKey = "t"

		if !c.jsonLogConsole {
			// always log local timestamps to the console, not UTC
			ec.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
				enc.AppendString(t.Local().Format("15:04:05.000"))
			}
		}
	}

	if c.jsonLogConsole {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder

		ec.NameKey = "n"
		ec.EncodeName = zapcore.FullNameEncoder
	} else {
		ec.EncodeLevel = func(l zapcore.Level, pae zapcore.PrimitiveArrayEncoder) {
			if l == zap.InfoLevel {
				// info log does not have a prefix.
				return
			}

			if color.NoColor {
				zapcore.CapitalLevelEncoder(l, pae)
			} else {
				zapcore.CapitalColorLevelEncoder(l, pae)
			}
		}
	}

	return zapcore.NewCore(
		jsonOrConsoleEncoder(ec, c.jsonLogConsole),
		zapcore.AddSync(c.cliApp.Stderr()),
		logLevelFromFlag(c.logLevel),
	)
}

func (c *loggingFlags) setupLogFileCore() (zapcore.Core, error) {
	logFileName, err := filepath.Abs(c.logFile)
	if err != nil {
		return nil, errors.Wrap(err, "unable to resolve log file path")
	}

	return zapcore.NewCore(
		jsonOrConsoleEncoder(&zapcore.EncoderConfig{
			TimeKey:          "t",
			MessageKey:       "m",
			NameKey:          "n",
			LevelKey:         "l",
			EncodeName:       zapcore.FullNameEncoder,
			EncodeLevel:      zapcore.CapitalLevelEncoder,
			EncodeTime:       preciseTimeEncoder,
			EncodeDuration:   zapcore.StringDurationEncoder,
			LineEnding:       zapcore.DefaultLineEnding,
			ConsoleSeparator: " ",
		}, c.jsonLogFile),
		&onDemandFile{fileName: logFileName},
		logLevelFromFlag(c.fileLogLevel),
	), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// preciseTimeEncoder writes UTC timestamps with microsecond precision.
func preciseTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format("2006-01-02T15:04:05.000000Z"))
}

func jsonOrConsoleEncoder(ec *zapcore.EncoderConfig, isJSON bool) zapcore.Encoder {
	if isJSON {
		return zapcore.NewJSONEncoder(*ec)
	}

	return zapcore.NewConsoleEncoder(*ec)
}

func logLevelFromFlag(levelString string) zapcore.LevelEnabler {
	switch levelString {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.FatalLevel
	}
}

// onDemandFile creates the log file on first write.
type onDemandFile struct {
	fileName string

	f *os.File

	once sync.Once
}

func (w *onDemandFile) Sync() error {
	if w.f == nil {
		return nil
	}

	//nolint:wrapcheck
	return w.f.Sync()
}

func (w *onDemandFile) Write(b []byte) (int, error) {
	w.once.Do(func() {
		if err := os.MkdirAll(filepath.Dir(w.fileName), logsDirMode); err != nil {
			fmt.Fprintln(os.Stderr, "Unable to create logs directory:", err) //nolint:errcheck
			return
		}

		f, err := os.Create(w.fileName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "unable to open log file: %v\n", err) //nolint:errcheck
			return
		}

		w.f = f
	})

	if w.f == nil {
		return 0, nil
	}

	//nolint:wrapcheck
	return w.f.Write(b)
}
