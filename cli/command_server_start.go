package cli

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/kopia/scryptkdf/bridge"
	"github.com/kopia/scryptkdf/internal/server"
)

const (
	serverReadHeaderTimeout = 10 * time.Second
	serverShutdownTimeout   = 30 * time.Second
)

type commandServerStart struct {
	sf          serverFlags
	logRequests bool
	metrics     bool

	memory memoryFlags
	text   textOutput

	svc appServices
}

func (c *commandServerStart) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("start", "Start the HTTP API server").Default()
	cmd.Flag("address", "Server address").Envar(svc.EnvName("SCRYPTKDF_SERVER_ADDRESS")).Default("http://127.0.0.1:51516").StringVar(&c.sf.serverAddress)
	cmd.Flag("log-requests", "Log server requests").BoolVar(&c.logRequests)
	cmd.Flag("metrics", "Expose Prometheus metrics on the server address").Default("true").BoolVar(&c.metrics)

	c.memory.setup(svc, cmd)
	c.text.setup(svc)

	c.svc = svc

	cmd.Action(svc.baseActionWithContext(c.run))
}

func (c *commandServerStart) newHandler(b *bridge.Bridge) http.Handler {
	srv := server.New(b, server.Options{
		LogRequests: c.logRequests,
	})

	m := mux.NewRouter()
	m.PathPrefix("/api/").Handler(srv.APIHandlers())

	if c.metrics {
		initPrometheus(m)
	}

	return m
}

func (c *commandServerStart) run(ctx context.Context) error {
	b := bridge.New(bridge.Config{
		MaxMemory:   c.memory.maxMemoryBytes(),
		Parallelism: c.memory.parallel,
		Metrics:     c.svc.metricsRegistry(),
	})
	defer b.Close()

	l, err := net.Listen("tcp", stripProtocol(c.sf.serverAddress))
	if err != nil {
		return errors.Wrap(err, "unable to listen")
	}

	httpServer := &http.Server{
		Handler:           c.newHandler(b),
		ReadHeaderTimeout: serverReadHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	sigctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownDone := make(chan struct{})

	go func() {
		defer close(shutdownDone)

		<-sigctx.Done()

		log(ctx).Infof("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), serverShutdownTimeout)
		defer cancel()

		if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
			log(ctx).Warnf("unable to shut down: %v", serr)
		}
	}()

	c.text.printStderr("SERVER ADDRESS: http://%v\n", l.Addr())

	if err := httpServer.Serve(l); !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-shutdownDone

		return errors.Wrap(err, "server failed")
	}

	// wait for in-flight requests
	<-shutdownDone

	return nil
}
