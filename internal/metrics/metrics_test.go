package metrics

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/aryankumar/taskpool/internal/logger"
	"github.com/aryankumar/taskpool/internal/pool"
	"github.com/aryankumar/taskpool/internal/util"
)

type poolStub struct {
	name  string
	stats pool.Stats
	state pool.State
}

func (s poolStub) Name() string      { return s.name }
func (s poolStub) Stats() pool.Stats { return s.stats }
func (s poolStub) State() pool.State { return s.state }

func TestCollector_ExportsSnapshot(t *testing.T) {
	reg := prom.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector failed: %v", err)
	}

	c.Add(poolStub{
		name:  "jobs",
		stats: pool.Stats{Dispatched: 5, Running: 2, Succeeded: 2, Failed: 1},
		state: pool.StateDraining,
	})

	expected := `
# HELP taskpool_tasks_dispatched_total Tasks handed to the pool.
# TYPE taskpool_tasks_dispatched_total counter
taskpool_tasks_dispatched_total{pool="jobs"} 5
# HELP taskpool_tasks_failed_total Tasks that settled with an error.
# TYPE taskpool_tasks_failed_total counter
taskpool_tasks_failed_total{pool="jobs"} 1
# HELP taskpool_tasks_running Tasks currently in flight.
# TYPE taskpool_tasks_running gauge
taskpool_tasks_running{pool="jobs"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"taskpool_tasks_dispatched_total", "taskpool_tasks_failed_total", "taskpool_tasks_running"); err != nil {
		t.Error(err)
	}

	// one series per state
	if got := testutil.CollectAndCount(c, "taskpool_pool_state"); got != len(states) {
		t.Errorf("expected %d state series, got %d", len(states), got)
	}

	c.Remove("jobs")
	if got := testutil.CollectAndCount(c); got != 0 {
		t.Errorf("expected no metrics after Remove, got %d", got)
	}
}

func TestCollector_LivePool(t *testing.T) {
	reg := prom.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector failed: %v", err)
	}

	tasks := []pool.Task[int]{
		func(context.Context) (int, error) { return 1, nil },
		func(context.Context) (int, error) { return 0, errors.New("boom") },
	}
	p, err := pool.New(pool.FromSlice(tasks), 2, pool.WithName("live"))
	if err != nil {
		t.Fatalf("pool.New failed: %v", err)
	}
	c.Add(p)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `
# HELP taskpool_tasks_succeeded_total Tasks that settled successfully.
# TYPE taskpool_tasks_succeeded_total counter
taskpool_tasks_succeeded_total{pool="live"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "taskpool_tasks_succeeded_total"); err != nil {
		t.Error(err)
	}
}

func TestNewCollector_AlreadyRegistered(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector failed: %v", err)
	}
	second, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second NewCollector failed: %v", err)
	}
	if first != second {
		t.Error("expected the existing collector to be reused")
	}
}

func TestRecorder_OnSettle(t *testing.T) {
	reg := prom.NewRegistry()
	r, err := NewRecorder("jobs", reg)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}

	exc, _ := util.ExceptionFor("conflict", nil)
	r.OnSettle(0, nil, pool.Stats{})
	r.OnSettle(1, exc, pool.Stats{})
	r.OnSettle(2, exc, pool.Stats{})
	r.OnSettle(3, errors.New("plain"), pool.Stats{})

	if got := testutil.ToFloat64(r.failures.WithLabelValues("jobs", "409")); got != 2 {
		t.Errorf("409 failures = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.failures.WithLabelValues("jobs", "0")); got != 1 {
		t.Errorf("plain failures = %v, want 1", got)
	}

	var nilRecorder *Recorder
	nilRecorder.OnSettle(0, exc, pool.Stats{})
}

func TestServer(t *testing.T) {
	reg := prom.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector failed: %v", err)
	}
	c.Add(poolStub{name: "srv", state: pool.StateRunning})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	base := "http://" + ln.Addr().String()

	s := NewServer(ln.Addr().String(), reg)
	served := make(chan error, 1)
	go func() { served <- s.Serve(ln) }()

	body := get(t, base+"/metrics", http.StatusOK)
	if !strings.Contains(body, `taskpool_pool_state{pool="srv",state="running"} 1`) {
		t.Errorf("metrics output missing state series:\n%s", body)
	}
	if get(t, base+"/healthz", http.StatusOK) != "ok" {
		t.Error("expected healthy response")
	}

	if s.IsShuttingDown() {
		t.Fatal("server should not be shutting down yet")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if !s.IsShuttingDown() {
		t.Error("expected IsShuttingDown after Shutdown")
	}
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("second Shutdown should be a no-op, got %v", err)
	}

	select {
	case err := <-served:
		if err != nil {
			t.Errorf("Serve returned %v after clean shutdown", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}

// lockedBuffer is written by server goroutines and read by the test
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestServer_Logging(t *testing.T) {
	appOut := &lockedBuffer{}
	accessOut := &lockedBuffer{}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	base := "http://" + ln.Addr().String()

	s := NewServer(ln.Addr().String(), prom.NewRegistry(),
		WithServerLogger(logger.New("taskpool", logger.LevelInfo, appOut)),
		WithAccessLogger(logger.NewAccessLogger("taskpool", accessOut)),
	)
	served := make(chan error, 1)
	go func() { served <- s.Serve(ln) }()

	get(t, base+"/metrics", http.StatusOK)
	get(t, base+"/missing", http.StatusNotFound)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	select {
	case <-served:
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}

	app := appOut.String()
	for _, want := range []string{"metrics server listening", "metrics server shutting down", ln.Addr().String()} {
		if !strings.Contains(app, want) {
			t.Errorf("app log missing %q:\n%s", want, app)
		}
	}

	access := accessOut.String()
	for _, want := range []string{`"path":"/metrics"`, `"path":"/missing"`, `"status":404`, `"request_id":`} {
		if !strings.Contains(access, want) {
			t.Errorf("access log missing %q:\n%s", want, access)
		}
	}
	if strings.Contains(access, "metrics server") {
		t.Errorf("lifecycle events leaked into the access log:\n%s", access)
	}
}

func get(t *testing.T, url string, wantStatus int) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body failed: %v", err)
	}
	return string(b)
}
