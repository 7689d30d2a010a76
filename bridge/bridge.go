// Package bridge exposes the scrypt engine to hosts that pass loosely-typed arguments and
// expect results through callbacks, applying parameter defaults and translating errors.
package bridge

import (
	"context"
	"math"
	"sync"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/kopia/scryptkdf/internal/metrics"
	"github.com/kopia/scryptkdf/internal/timetrack"
	"github.com/kopia/scryptkdf/logging"
	"github.com/kopia/scryptkdf/scrypt"
)

var log = logging.Module("scryptkdf/bridge")

var tracer = otel.Tracer("scryptkdf/bridge")

// Config configures a Bridge.
type Config struct {
	// MaxMemory is the working memory shared by all concurrent derivations.
	// Zero means scrypt.DefaultMaxMemory().
	MaxMemory uint64

	// Parallelism is passed to each derivation, see scrypt.Options.
	Parallelism int

	// Metrics receives derivation metrics, may be nil.
	Metrics *metrics.Registry
}

// Bridge runs derivations on behalf of a host.
type Bridge struct {
	parallelism int
	maxMemory   int64
	memory      *semaphore.Weighted

	// mu guards closed and additions to asyncWork.
	mu        sync.Mutex
	closed    bool
	asyncWork sync.WaitGroup

	succeeded     *metrics.Counter
	failed        *metrics.Counter
	duration      *metrics.DurationDistribution
	workingMemory *metrics.Gauge
}

// New creates a Bridge.
func New(cfg Config) *Bridge {
	maxMemory := cfg.MaxMemory
	if maxMemory == 0 {
		maxMemory = scrypt.DefaultMaxMemory()
	}

	if maxMemory > math.MaxInt64 {
		maxMemory = math.MaxInt64
	}

	mr := cfg.Metrics

	return &Bridge{
		parallelism:   cfg.Parallelism,
		maxMemory:     int64(maxMemory),
		memory:        semaphore.NewWeighted(int64(maxMemory)),
		succeeded:     mr.CounterInt64("derivations", "Number of key derivations", map[string]string{"result": "success"}),
		failed:        mr.CounterInt64("derivations", "Number of key derivations", map[string]string{"result": "error"}),
		duration:      mr.DurationDistribution("derivation_duration", "Duration of successful key derivations", metrics.DerivationLatencyThresholds, nil),
		workingMemory: mr.Gauge("working_memory_bytes", "Working memory reserved by in-flight derivations", nil),
	}
}

// Scrypt derives a key from the passphrase and salt. Errors are always of type *Error,
// except when ctx is canceled while waiting for memory.
func (b *Bridge) Scrypt(ctx context.Context, passphrase, salt []byte, opt Options) ([]byte, error) {
	p := opt.Params()

	ctx, span := tracer.Start(ctx, "Bridge.Scrypt", trace.WithAttributes(
		attribute.Int64("scrypt.N", int64(p.N)),
		attribute.Int64("scrypt.r", int64(p.R)),
		attribute.Int64("scrypt.p", int64(p.P)),
		attribute.Int64("scrypt.dkLen", int64(p.KeyLength)),
	))
	defer span.End()

	key, err := b.derive(ctx, passphrase, salt, p)
	if err != nil {
		b.failed.Add(1)

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		return nil, translateError(err)
	}

	b.succeeded.Add(1)

	return key, nil
}

func (b *Bridge) derive(ctx context.Context, passphrase, salt []byte, p scrypt.Params) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	reserve, err := b.reservation(p)
	if err != nil {
		return nil, err
	}

	if err := b.memory.Acquire(ctx, reserve); err != nil {
		return nil, errors.Wrap(err, "error waiting for memory")
	}

	defer b.memory.Release(reserve)

	defer b.workingMemory.Hold(reserve)()

	log(ctx).Debugw("deriving key", "params", p.String(), "reservedMemory", reserve)

	t := timetrack.StartTimer()

	key, err := scrypt.KeyWithOptions(passphrase, salt, p, scrypt.Options{
		Parallelism: b.parallelism,
		MaxMemory:   uint64(reserve),
	})
	if err != nil {
		return nil, errors.Wrap(err, "scrypt")
	}

	b.duration.Observe(t.Elapsed())

	log(ctx).Debugw("derived key", "params", p.String(), "elapsed", t.Elapsed())

	return key, nil
}

// reservation returns the number of bytes of the shared memory budget a derivation reserves.
// Parallel derivations reserve what their workers need, up to the whole budget.
func (b *Bridge) reservation(p scrypt.Params) (int64, error) {
	if p.MemoryRequired(1) > uint64(b.maxMemory) {
		return 0, scrypt.ErrInsufficientMemory
	}

	need := p.MemoryRequired(b.parallelism)
	if need > uint64(b.maxMemory) {
		need = uint64(b.maxMemory)
	}

	return int64(need), nil
}

// Close waits for asynchronous work started by Execute and rejects further requests.
func (b *Bridge) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	b.asyncWork.Wait()
}
