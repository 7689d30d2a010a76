package cli

import (
	"context"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"path/filepath"
	"runtime"
	rpprof "runtime/pprof"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/kopia/scryptkdf/internal/clock"
)

// DirMode is the directory mode for output directories.
const DirMode = 0o700

const metricsReadHeaderTimeout = 10 * time.Second

type observabilityFlags struct {
	enablePProf         bool
	metricsListenAddr   string
	metricsPushAddr     string
	metricsJob          string
	metricsPushInterval time.Duration
	metricsGroupings    []string
	metricsPushUsername string
	metricsPushPassword string
	metricsOutputDir    string
	outputFilePrefix    string
	pprofDir            string

	otlpTraceEndpoint string
	otlpInsecure      bool

	listener   *http.Server
	stopPusher chan struct{}
	pusherWG   sync.WaitGroup

	traceProvider *trace.TracerProvider
}

func (c *observabilityFlags) setup(svc appServices, app *kingpin.Application) {
	app.Flag("metrics-listen-addr", "Expose Prometheus metrics on a given host:port").Envar(svc.EnvName("SCRYPTKDF_METRICS_LISTEN_ADDR")).StringVar(&c.metricsListenAddr)
	app.Flag("enable-pprof", "Expose pprof handlers").Hidden().BoolVar(&c.enablePProf)

	// push gateway parameters
	app.Flag("metrics-push-addr", "Address of push gateway").Envar(svc.EnvName("SCRYPTKDF_METRICS_PUSH_ADDR")).Hidden().StringVar(&c.metricsPushAddr)
	app.Flag("metrics-push-interval", "Frequency of metrics push").Envar(svc.EnvName("SCRYPTKDF_METRICS_PUSH_INTERVAL")).Hidden().Default("5s").DurationVar(&c.metricsPushInterval)
	app.Flag("metrics-push-job", "Job ID for to push gateway").Envar(svc.EnvName("SCRYPTKDF_METRICS_JOB")).Hidden().Default("scryptkdf").StringVar(&c.metricsJob)
	app.Flag("metrics-push-grouping", "Grouping for push gateway").Envar(svc.EnvName("SCRYPTKDF_METRICS_PUSH_GROUPING")).Hidden().StringsVar(&c.metricsGroupings)
	app.Flag("metrics-push-username", "Username for push gateway").Envar(svc.EnvName("SCRYPTKDF_METRICS_PUSH_USERNAME")).Hidden().StringVar(&c.metricsPushUsername)
	app.Flag("metrics-push-password", "Password for push gateway").Envar(svc.EnvName("SCRYPTKDF_METRICS_PUSH_PASSWORD")).Hidden().StringVar(&c.metricsPushPassword)

	app.Flag("metrics-directory", "Directory where the metrics should be saved when the command exits. A file per process execution will be created in this directory").StringVar(&c.metricsOutputDir)

	//nolint:lll
	app.Flag("pprof-directory", "Directory to dump pprof data at the end of the process execution. The profiling settings can be modified using the default GODEBUG environment variable mechanism.").Hidden().StringVar(&c.pprofDir)

	app.Flag("otlp-trace-endpoint", "Emit OpenTelemetry traces to the OTLP/gRPC collector at host:port").Envar(svc.EnvName("SCRYPTKDF_OTLP_TRACE_ENDPOINT")).StringVar(&c.otlpTraceEndpoint)
	app.Flag("otlp-insecure", "Connect to the OTLP collector without TLS").Envar(svc.EnvName("SCRYPTKDF_OTLP_INSECURE")).Hidden().BoolVar(&c.otlpInsecure)

	app.PreAction(c.initialize)
}

func (c *observabilityFlags) initialize(ctx *kingpin.ParseContext) error {
	if c.metricsOutputDir == "" && c.pprofDir == "" {
		return nil
	}

	// write to a separate file per command and process execution to avoid
	// conflicts with previously created files
	command := "unknown"
	if cmd := ctx.SelectedCommand; cmd != nil {
		command = strings.ReplaceAll(cmd.FullCommand(), " ", "-")
	}

	c.outputFilePrefix = clock.Now().Format("20060102-150405-") + command

	return nil
}

func (c *observabilityFlags) startMetrics(ctx context.Context) error {
	if err := c.maybeStartListener(ctx); err != nil {
		return err
	}

	if err := c.maybeStartMetricsPusher(ctx); err != nil {
		return err
	}

	if c.metricsOutputDir != "" {
		c.metricsOutputDir = filepath.Clean(c.metricsOutputDir)

		// ensure the metrics output dir can be created
		if err := os.MkdirAll(c.metricsOutputDir, DirMode); err != nil {
			return errors.Wrapf(err, "could not create metrics output directory: %s", c.metricsOutputDir)
		}
	}

	if err := c.maybeStartPprofDumper(); err != nil {
		return err
	}

	return c.maybeStartTraceExporter(ctx)
}

func initPrometheus(m *mux.Router) {
	m.Handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))
}

// Starts observability listener when a listener address is specified.
func (c *observabilityFlags) maybeStartListener(ctx context.Context) error {
	if c.metricsListenAddr == "" {
		return nil
	}

	m := mux.NewRouter()
	initPrometheus(m)

	if c.enablePProf {
		m.HandleFunc("/debug/pprof/", pprof.Index)
		m.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		m.HandleFunc("/debug/pprof/profile", pprof.Profile)
		m.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		m.HandleFunc("/debug/pprof/trace", pprof.Trace)
		m.HandleFunc("/debug/pprof/{cmd}", pprof.Index)
	}

	l, err := net.Listen("tcp", c.metricsListenAddr)
	if err != nil {
		return errors.Wrap(err, "unable to listen for metrics")
	}

	log(ctx).Infof("starting prometheus metrics on %v", l.Addr())

	c.listener = &http.Server{
		Handler:           m,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	go c.listener.Serve(l) //nolint:errcheck

	return nil
}

func (c *observabilityFlags) maybeStartMetricsPusher(ctx context.Context) error {
	if c.metricsPushAddr == "" {
		return nil
	}

	pusher := push.New(c.metricsPushAddr, c.metricsJob)

	pusher.Gatherer(prometheus.DefaultGatherer)

	for _, g := range c.metricsGroupings {
		const nParts = 2

		parts := strings.SplitN(g, ":", nParts)
		if len(parts) != nParts {
			return errors.New("grouping must be name:value")
		}

		pusher.Grouping(parts[0], parts[1])
	}

	if c.metricsPushUsername != "" {
		pusher.BasicAuth(c.metricsPushUsername, c.metricsPushPassword)
	}

	c.stopPusher = make(chan struct{})
	c.pusherWG.Add(1)

	log(ctx).Infof("starting prometheus pusher on %v every %v", c.metricsPushAddr, c.metricsPushInterval)
	c.pushOnce(ctx, "initial", pusher)

	go c.pushPeriodically(ctx, pusher)

	return nil
}

func (c *observabilityFlags) maybeStartTraceExporter(ctx context.Context) error {
	if c.otlpTraceEndpoint == "" {
		return nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(c.otlpTraceEndpoint)}
	if c.otlpInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	se, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return errors.Wrap(err, "unable to create OTLP exporter")
	}

	r := resource.NewSchemaless(
		attribute.String("service.name", "scryptkdf"),
	)

	tp := trace.NewTracerProvider(
		trace.WithBatcher(se),
		trace.WithResource(r),
	)

	otel.SetTracerProvider(tp)

	c.traceProvider = tp

	return nil
}

func (c *observabilityFlags) maybeStartPprofDumper() error {
	if c.pprofDir == "" {
		return nil
	}

	// ensure upfront that the pprof output dir can be created
	c.pprofDir = filepath.Clean(c.pprofDir)
	if err := os.MkdirAll(c.pprofDir, DirMode); err != nil {
		return errors.Wrapf(err, "could not create pprof output directory: %s", c.pprofDir)
	}

	return nil
}

func (c *observabilityFlags) stopMetrics(ctx context.Context) {
	if c.stopPusher != nil {
		close(c.stopPusher)

		c.pusherWG.Wait()

		c.stopPusher = nil
	}

	if c.listener != nil {
		if err := c.listener.Shutdown(ctx); err != nil {
			log(ctx).Warnf("unable to shut down metrics listener: %v", err)
		}

		c.listener = nil
	}

	if c.traceProvider != nil {
		if err := c.traceProvider.Shutdown(ctx); err != nil {
			log(ctx).Warnf("unable to shutdown trace provider: %v", err)
		}

		c.traceProvider = nil
	}

	if c.metricsOutputDir != "" {
		filename := filepath.Join(c.metricsOutputDir, c.outputFilePrefix+".prom")

		if err := prometheus.WriteToTextfile(filename, prometheus.DefaultGatherer); err != nil {
			log(ctx).Warnf("unable to write metrics file '%s': %v", filename, err)
		}
	}

	if c.pprofDir != "" {
		c.dumpProfiles(ctx)
	}
}

func (c *observabilityFlags) dumpProfiles(ctx context.Context) {
	runtime.GC() // get up-to-date statistics

	for _, p := range rpprof.Profiles() {
		fname := filepath.Clean(filepath.Join(c.pprofDir, c.outputFilePrefix+"-"+p.Name()+".pprof"))

		f, err := os.Create(fname)
		if err != nil {
			log(ctx).Warnf("unable to create profile output file '%s': %v", fname, err)
			continue
		}

		if err := p.WriteTo(f, 0); err != nil {
			log(ctx).Warnf("unable to write profile to file '%s': %v", fname, err)
		}

		if err := f.Close(); err != nil {
			log(ctx).Warnf("unable to close profile output file '%s': %v", fname, err)
		}
	}
}

func (c *observabilityFlags) pushPeriodically(ctx context.Context, p *push.Pusher) {
	defer c.pusherWG.Done()

	ticker := time.NewTicker(c.metricsPushInterval)

	for {
		select {
		case <-ticker.C:
			c.pushOnce(ctx, "periodic", p)

		case <-c.stopPusher:
			ticker.Stop()
			c.pushOnce(ctx, "final", p)

			return
		}
	}
}

func (c *observabilityFlags) pushOnce(ctx context.Context, kind string, p *push.Pusher) {
	log(ctx).Debugw("pushing prometheus metrics", "kind", kind)

	if err := p.Push(); err != nil {
		log(ctx).Debugw("error pushing prometheus metrics", "kind", kind, "err", err)
	}
}
