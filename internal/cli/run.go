package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/aryankumar/taskpool/internal/config"
	"github.com/aryankumar/taskpool/internal/metrics"
	"github.com/aryankumar/taskpool/internal/output"
	"github.com/aryankumar/taskpool/internal/pool"
	"github.com/aryankumar/taskpool/internal/util"
	"github.com/aryankumar/taskpool/internal/workload"
)

const (
	shutdownTimeout = 5 * time.Second
	statsInterval   = time.Second
)

// runOptions holds the workload flags of the run command
type runOptions struct {
	tasks    int
	delay    time.Duration
	fail     []int
	failKind string
	progress bool
	wide     bool
}

// newRunCmd creates the run command
func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a workload through the pool",
		Long: `Run a synthetic workload with bounded concurrency.

Tasks come from a plan file (--plan) or are generated from flags: --tasks
identical tasks sleeping --delay each, where the indices listed in --fail
fail with --fail-kind. Use --tasks -1 for an endless stream and stop it with
Ctrl-C; a second Ctrl-C exits without waiting for running tasks.

The command exits with status 1 when the run fails and 130 when it is cancelled.`,
		Example: `  # 20 tasks, 4 at a time
  taskpool run --tasks 20 --concurrency 4 --delay 200ms

  # stop at the first failure
  taskpool run --tasks 10 --fail 3 --stop-on-error

  # endless stream, throttled, with Prometheus metrics
  taskpool run --tasks -1 --rate 50 --metrics-addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, root, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.tasks, "tasks", 10, "number of tasks to generate (-1 for endless)")
	flags.DurationVar(&opts.delay, "delay", 100*time.Millisecond, "how long each generated task runs")
	flags.IntSliceVar(&opts.fail, "fail", nil, "indices of generated tasks that fail")
	flags.StringVar(&opts.failKind, "fail-kind", "bad-request", "exception kind of failing tasks")
	flags.BoolVar(&opts.progress, "progress", false, "show a progress bar on stderr")
	flags.BoolVar(&opts.wide, "wide", false, "show task values and errors in table output")

	flags.IntP("concurrency", "c", config.DefaultConcurrency, "maximum number of tasks in flight")
	flags.Bool("stop-on-error", false, "stop dispatching after the first task failure")
	flags.Duration("task-timeout", 0, "per-task timeout (0 disables)")
	flags.Float64("rate", 0, "maximum task pulls per second (0 disables)")
	flags.Int("burst", 1, "rate limiter burst size")
	flags.String("plan", "", "workload plan file (YAML)")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")

	_ = cmd.RegisterFlagCompletionFunc("fail-kind", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return util.ExceptionKinds(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// resolveRunConfig layers defaults, the selected profile and explicitly set flags
func resolveRunConfig(cmd *cobra.Command, root *rootOptions) (config.RunConfig, error) {
	cfg, err := root.manager.Profile(root.profile)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("concurrency") {
		cfg.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("stop-on-error") {
		cfg.StopOnError, _ = flags.GetBool("stop-on-error")
	}
	if flags.Changed("task-timeout") {
		cfg.TaskTimeout, _ = flags.GetDuration("task-timeout")
	}
	if flags.Changed("rate") {
		cfg.Rate, _ = flags.GetFloat64("rate")
	}
	if flags.Changed("burst") {
		cfg.Burst, _ = flags.GetInt("burst")
	}
	if flags.Changed("plan") {
		cfg.Plan, _ = flags.GetString("plan")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
	if flags.Changed("output") {
		cfg.OutputFormat, _ = flags.GetString("output")
	}
	if flags.Changed("no-color") {
		cfg.NoColor, _ = flags.GetBool("no-color")
	}

	return cfg, cfg.Validate()
}

func runRun(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	cfg, err := resolveRunConfig(cmd, root)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(cfg.OutputFormat)
	if err != nil {
		return err
	}

	plan := workload.FromFlags(opts.tasks, opts.delay, opts.fail, opts.failKind)
	if cfg.Plan != "" {
		if plan, err = workload.LoadPlan(cfg.Plan); err != nil {
			return err
		}
	}
	if err := plan.Validate(); err != nil {
		return err
	}

	var src pool.Source[string] = plan.Source(cfg.TaskTimeout)
	if cfg.Rate > 0 {
		burst := max(cfg.Burst, 1)
		src = pool.RateLimited(src, rate.NewLimiter(rate.Limit(cfg.Rate), burst))
	}

	requestID := root.log.GenerateRequestID()
	reqLog := root.log.Request(requestID)

	reg := prom.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return err
	}
	recorder, err := metrics.NewRecorder(requestID, reg)
	if err != nil {
		return err
	}

	var bar *output.Progress
	if opts.progress {
		bar = output.NewProgress(os.Stderr, plan.Len(), "running", cfg.NoColor)
	}

	p, err := pool.New(src, cfg.Concurrency,
		pool.WithName(requestID),
		pool.WithLogger(root.log),
		pool.WithStopOnError(cfg.StopOnError),
		pool.WithOnSettle(func(index int, err error, stats pool.Stats) {
			recorder.OnSettle(index, err, stats)
			if bar != nil {
				bar.OnSettle(index, err, stats)
			}
		}),
	)
	if err != nil {
		return err
	}
	collector.Add(p)

	reqLog.Info("starting run", []string{"run"}, map[string]any{
		"plan":          plan.Name,
		"tasks":         plan.Len(),
		"concurrency":   cfg.Concurrency,
		"stop_on_error": cfg.StopOnError,
		"rate":          cfg.Rate,
	})

	res, err := execute(cmd.Context(), root, p, cfg, reg)
	if err != nil {
		return err
	}

	if bar != nil {
		_ = bar.Stop(res.State)
	}

	formatter := output.NewFormatter(format, output.WithNoColor(cfg.NoColor), output.WithWide(opts.wide))
	if err := formatter.FormatReport(cmd.OutOrStdout(), res.Report()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	switch res.State {
	case pool.StateFailed:
		return &ExitError{Code: 1, Err: res.Err}
	case pool.StateCancelled:
		return &ExitError{Code: 130, Err: res.Err}
	default:
		return nil
	}
}

// execute runs the pool alongside the optional metrics server and a stats ticker
// A metrics server failure cancels the run
func execute(ctx context.Context, root *rootOptions, p *pool.Pool[string], cfg config.RunConfig, reg *prom.Registry) (*pool.Result[string], error) {
	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	var server *metrics.Server
	if cfg.MetricsAddr != "" {
		reg.MustRegister(collectors.NewGoCollector())
		server = metrics.NewServer(cfg.MetricsAddr, reg,
			metrics.WithServerLogger(root.log),
			metrics.WithAccessLogger(root.log.Access()),
		)
		g.Go(func() error {
			if err := server.ListenAndServe(); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	var res *pool.Result[string]
	g.Go(func() error {
		defer close(done)

		fut, err := p.Start(gctx)
		if err != nil {
			return err
		}
		res, _ = fut.Wait()

		if server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				root.log.Warn("metrics server shutdown failed", p.Name(), []string{"metrics"}, err.Error())
			}
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				root.log.Verbose("progress", p.Name(), []string{"run", "stats"}, p.Stats())
			}
		}
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}
