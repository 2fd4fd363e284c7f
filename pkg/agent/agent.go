package agent

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mfs-exporter/pkg/collector"
	"github.com/mfs-exporter/pkg/logger"
	"github.com/mfs-exporter/pkg/metrics"
)

const name = "agent"

// registered is a collector plus whether its failure fails the cycle.
type registered struct {
	collector collector.Collector
	required  bool
}

// Agent runs every registered collector on a fixed interval and publishes
// the combined result as one snapshot.
type Agent struct {
	store   *metrics.Store
	metrics *metrics.AgentMetrics

	mu         sync.Mutex
	collectors []registered
	interval   time.Duration
	intervalCh chan time.Duration // resets the ticker of a running loop
	started    bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	now    func() time.Time
}

// New creates an agent publishing into store. interval must be positive.
func New(store *metrics.Store, m *metrics.AgentMetrics, interval time.Duration) *Agent {
	ctx, cancel := context.WithCancel(context.Background())
	return &Agent{
		store:      store,
		metrics:    m,
		interval:   interval,
		intervalCh: make(chan time.Duration, 1),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		now:        time.Now,
	}
}

// Register adds a collector. A failing required collector fails the whole
// cycle; a failing optional one only loses its own samples.
func (a *Agent) Register(c collector.Collector, required bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.collectors = append(a.collectors, registered{collector: c, required: required})
}

// Collectors returns the registered collectors in registration order.
func (a *Agent) Collectors() []collector.Collector {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]collector.Collector, len(a.collectors))
	for i, r := range a.collectors {
		out[i] = r.collector
	}
	return out
}

// Interval returns the current collection interval.
func (a *Agent) Interval() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.interval
}

func (a *Agent) registered() []registered {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]registered, len(a.collectors))
	copy(out, a.collectors)
	return out
}

// InitAll initializes every collector. A required collector's failure is
// returned; an optional one is logged and removed from the loop.
func (a *Agent) InitAll() error {
	var dropped []collector.Collector
	for _, r := range a.registered() {
		if err := r.collector.Init(); err != nil {
			if r.required {
				return fmt.Errorf("collector %s init failed: %w", r.collector.Name(), err)
			}
			logger.Warn("optional collector init failed, disabling it",
				zap.String("name", r.collector.Name()), zap.Error(err))
			dropped = append(dropped, r.collector)
			continue
		}
		logger.Debug("collector initialized successfully", zap.String("name", r.collector.Name()))
	}
	if len(dropped) > 0 {
		a.unregister(dropped)
	}
	return nil
}

func (a *Agent) unregister(drop []collector.Collector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.collectors[:0:0]
	for _, r := range a.collectors {
		if !slices.Contains(drop, r.collector) {
			kept = append(kept, r)
		}
	}
	a.collectors = kept
}

// Start initializes the collectors and launches the collection loop: one
// cycle right away, then one per tick. It returns once the loop is running.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return errors.New("agent already started")
	}
	a.started = true
	interval := a.interval
	a.mu.Unlock()

	if err := a.InitAll(); err != nil {
		close(a.done)
		return err
	}
	count := len(a.registered())

	logger.Info("collection loop started", zap.String("name", name),
		zap.Duration("interval", interval),
		zap.Int("registered-collectors-count", count))

	// a cycle in flight is cancelled by either the caller or Shutdown
	runCtx, cancelRun := context.WithCancel(ctx)
	context.AfterFunc(a.ctx, cancelRun)

	go a.loop(runCtx, cancelRun, interval)
	return nil
}

func (a *Agent) loop(ctx context.Context, cancel context.CancelFunc, interval time.Duration) {
	defer close(a.done)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := a.CollectAll(ctx); err != nil {
		logger.Warn("first collection failed", zap.String("name", name), zap.Error(err))
	}

	for {
		select {
		case <-ticker.C:
			if err := a.CollectAll(ctx); err != nil {
				logger.Error("collection failed, keeping previous snapshot", zap.String("name", name), zap.Error(err))
			}
		case d := <-a.intervalCh:
			ticker.Reset(d)
			logger.Info("collection interval changed", zap.String("name", name), zap.Duration("interval", d))
		case <-ctx.Done():
			logger.Info("collection loop stopped", zap.String("name", name), zap.Error(ctx.Err()))
			return
		}
	}
}

// SetInterval changes the collection interval of a running loop without
// restarting it. Non-positive values are ignored.
func (a *Agent) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	a.mu.Lock()
	if a.interval == d {
		a.mu.Unlock()
		return
	}
	a.interval = d
	a.mu.Unlock()

	// keep only the latest pending value
	for {
		select {
		case a.intervalCh <- d:
			return
		default:
			select {
			case <-a.intervalCh:
			default:
			}
		}
	}
}

// CollectAll runs one cycle. On success the store holds a new snapshot;
// on a required failure the previous snapshot stays and an error is returned.
func (a *Agent) CollectAll(ctx context.Context) error {
	var (
		samples []metrics.Sample
		errs    []error
	)
	for _, r := range a.registered() {
		c := r.collector
		start := time.Now()
		s, err := c.Collect(ctx)
		a.metrics.CollectDuration.WithLabelValues(c.Name()).Observe(time.Since(start).Seconds())
		if err != nil {
			a.metrics.CollectErrors.WithLabelValues(c.Name()).Inc()
			if r.required {
				errs = append(errs, fmt.Errorf("collector %s: %w", c.Name(), err))
				continue
			}
			logger.Warn("optional collector failed, omitting its samples", zap.String("name", c.Name()), zap.Error(err))
			continue
		}
		samples = append(samples, s...)
	}

	if len(errs) > 0 {
		a.metrics.Up.Set(0)
		return errors.Join(errs...)
	}

	snap, err := metrics.NewSnapshot(samples, a.now())
	if err != nil {
		a.metrics.Up.Set(0)
		return fmt.Errorf("build snapshot: %w", err)
	}
	a.store.Replace(snap)

	a.metrics.Up.Set(1)
	a.metrics.LastSuccess.Set(float64(snap.CollectedAt().UnixNano()) / 1e9)
	a.metrics.SnapshotSamples.Set(float64(snap.Len()))
	logger.Debug("snapshot replaced", zap.String("name", name), zap.Int("samples", snap.Len()))
	return nil
}

// Shutdown stops the loop, waits for a running cycle to end (bounded by
// ctx) and closes every collector.
func (a *Agent) Shutdown(ctx context.Context) error {
	logger.Info("starting to shutdown collection loop", zap.String("name", name))
	a.cancel()

	a.mu.Lock()
	started := a.started
	a.mu.Unlock()
	if started {
		select {
		case <-a.done:
		case <-ctx.Done():
			logger.Warn("collection loop did not stop in time", zap.String("name", name), zap.Error(ctx.Err()))
		}
	}
	return a.CloseAll()
}

// CloseAll closes every collector and returns the last error.
func (a *Agent) CloseAll() error {
	var lastErr error
	for _, r := range a.registered() {
		c := r.collector
		if err := c.Close(); err != nil {
			logger.Error("failed to close collector", zap.String("name", c.Name()), zap.Error(err))
			lastErr = err
			continue
		}
		logger.Debug("collector closed successfully", zap.String("name", c.Name()))
	}
	return lastErr
}
