// Package metrics exports pool statistics to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/aryankumar/taskpool/internal/pool"
	"github.com/aryankumar/taskpool/internal/util"
)

const namespace = "taskpool"

// StatsProvider is implemented by *pool.Pool for every result type
type StatsProvider interface {
	Name() string
	Stats() pool.Stats
	State() pool.State
}

// Collector reads pool snapshots at scrape time
type Collector struct {
	mu    sync.RWMutex
	pools map[string]StatsProvider

	dispatched *prom.Desc
	succeeded  *prom.Desc
	failed     *prom.Desc
	running    *prom.Desc
	state      *prom.Desc
}

var _ prom.Collector = (*Collector)(nil)

// NewCollector creates a collector and registers it with reg (the default registerer when nil)
func NewCollector(reg prom.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	c := &Collector{
		pools: make(map[string]StatsProvider),
		dispatched: prom.NewDesc(prom.BuildFQName(namespace, "tasks", "dispatched_total"),
			"Tasks handed to the pool.", []string{"pool"}, nil),
		succeeded: prom.NewDesc(prom.BuildFQName(namespace, "tasks", "succeeded_total"),
			"Tasks that settled successfully.", []string{"pool"}, nil),
		failed: prom.NewDesc(prom.BuildFQName(namespace, "tasks", "failed_total"),
			"Tasks that settled with an error.", []string{"pool"}, nil),
		running: prom.NewDesc(prom.BuildFQName(namespace, "tasks", "running"),
			"Tasks currently in flight.", []string{"pool"}, nil),
		state: prom.NewDesc(prom.BuildFQName(namespace, "pool", "state"),
			"Lifecycle state of the pool (1 for the current state).", []string{"pool", "state"}, nil),
	}

	c, err := registerCollector(reg, c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Add adds or replaces a pool by its name
func (c *Collector) Add(p StatsProvider) {
	if c == nil || p == nil {
		return
	}
	c.mu.Lock()
	c.pools[normalizeLabel(p.Name(), "pool")] = p
	c.mu.Unlock()
}

// Remove stops exporting the named pool
func (c *Collector) Remove(name string) {
	c.mu.Lock()
	delete(c.pools, name)
	c.mu.Unlock()
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prom.Desc) {
	ch <- c.dispatched
	ch <- c.succeeded
	ch <- c.failed
	ch <- c.running
	ch <- c.state
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prom.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for name, p := range c.pools {
		s := p.Stats()
		current := p.State()

		ch <- prom.MustNewConstMetric(c.dispatched, prom.CounterValue, float64(s.Dispatched), name)
		ch <- prom.MustNewConstMetric(c.succeeded, prom.CounterValue, float64(s.Succeeded), name)
		ch <- prom.MustNewConstMetric(c.failed, prom.CounterValue, float64(s.Failed), name)
		ch <- prom.MustNewConstMetric(c.running, prom.GaugeValue, float64(s.Running), name)

		for _, st := range states {
			v := 0.0
			if st == current {
				v = 1
			}
			ch <- prom.MustNewConstMetric(c.state, prom.GaugeValue, v, name, st.String())
		}
	}
}

var states = []pool.State{
	pool.StateIdle,
	pool.StateRunning,
	pool.StateDraining,
	pool.StateCompleted,
	pool.StateCancelled,
	pool.StateFailed,
}

// Recorder counts task failures by exception status
type Recorder struct {
	pool     string
	failures *prom.CounterVec
}

// NewRecorder creates a recorder for the named pool and registers it with reg
func NewRecorder(poolName string, reg prom.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	failures := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_failures_total",
		Help:      "Task failures by HTTP status of the exception (0 when none).",
	}, []string{"pool", "status"})

	failures, err := registerCollector(reg, failures)
	if err != nil {
		return nil, err
	}
	return &Recorder{pool: normalizeLabel(poolName, "pool"), failures: failures}, nil
}

// OnSettle matches pool.SettleFunc
func (r *Recorder) OnSettle(_ int, err error, _ pool.Stats) {
	if r == nil || err == nil {
		return
	}
	r.failures.WithLabelValues(r.pool, strconv.Itoa(util.StatusOf(err))).Inc()
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
