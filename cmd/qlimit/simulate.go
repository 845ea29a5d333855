package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/influxdata/tdigest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"k8s.io/utils/clock"

	"github.com/ajiwo/qlimit"
	"github.com/ajiwo/qlimit/metrics"
	"github.com/ajiwo/qlimit/quota"
	"github.com/ajiwo/qlimit/utils"
)

var simulateFlags struct {
	limiter     string
	tasks       int
	work        time.Duration
	weight      float64
	metricsAddr string
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Push synthetic tasks through a configured limiter",
	Long: `Build one limiter from the quota file and submit a burst of synthetic
tasks to it. Each task sleeps for --work once admitted. The outcome and
start offset of every task are printed, followed by a summary.

Examples:
  # 20 tasks of 300ms through the "api" limiter
  qlimit simulate --config quotas.yaml --limiter api --tasks 20 --work 300ms

  # Heavier tasks, with metrics exposed while the run lasts
  qlimit simulate --limiter api --weight 2 --metrics-addr :9090`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simulateFlags.limiter, "limiter", "l", qlimit.DefaultName, "limiter name in the quota file")
	simulateCmd.Flags().IntVarP(&simulateFlags.tasks, "tasks", "n", 10, "number of tasks to submit")
	simulateCmd.Flags().DurationVar(&simulateFlags.work, "work", 100*time.Millisecond, "how long each task runs")
	simulateCmd.Flags().Float64Var(&simulateFlags.weight, "weight", qlimit.DefaultWeight, "weight of each task")
	simulateCmd.Flags().StringVar(&simulateFlags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the run")
}

// simulation is one configured run
type simulation struct {
	limiter *qlimit.Limiter
	tasks   int
	work    time.Duration
	weight  float64
}

// taskResult is the outcome of one synthetic task
type taskResult struct {
	id      string
	state   qlimit.State
	err     error
	started time.Duration // offset from the start of the run, -1 if never started
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if simulateFlags.tasks <= 0 {
		return fmt.Errorf("--tasks must be positive, got %d", simulateFlags.tasks)
	}

	f, err := quota.Load(cfgFile)
	if err != nil {
		return err
	}
	q, err := f.Lookup(simulateFlags.limiter)
	if err != nil {
		return err
	}

	logger := newLogger()
	reg := prometheus.NewRegistry()

	l, err := qlimit.New(
		qlimit.WithName(simulateFlags.limiter),
		qlimit.WithQuota(q),
		qlimit.WithLogger(logger),
		qlimit.WithMetrics(metrics.New(reg)),
	)
	if err != nil {
		return err
	}
	defer l.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if simulateFlags.metricsAddr != "" {
		shutdown := serveMetrics(logger, simulateFlags.metricsAddr, reg)
		defer shutdown()
	}

	sim := simulation{
		limiter: l,
		tasks:   simulateFlags.tasks,
		work:    simulateFlags.work,
		weight:  simulateFlags.weight,
	}
	results := sim.run(ctx)
	printResults(cmd.OutOrStdout(), results)
	return nil
}

// run submits every task at once and waits for all of them to settle
func (s simulation) run(ctx context.Context) []taskResult {
	start := time.Now()
	clk := clock.RealClock{}

	var mu sync.Mutex
	results := make([]taskResult, s.tasks)
	handles := make([]*qlimit.Task, s.tasks)

	for i := range s.tasks {
		results[i].started = -1
		handles[i] = s.limiter.Submit(ctx, func(ctx context.Context) error {
			mu.Lock()
			results[i].started = time.Since(start)
			mu.Unlock()
			return utils.SleepOrWait(ctx, clk, s.work, 10*time.Millisecond)
		}, qlimit.WithWeight(s.weight))
	}

	for _, t := range handles {
		// Interrupts end the run; the limiter rejects what is still queued on Close
		if err := t.Wait(ctx); err != nil && ctx.Err() != nil {
			break
		}
	}
	if ctx.Err() != nil {
		_ = s.limiter.Close()
		for _, t := range handles {
			<-t.Done()
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for i, t := range handles {
		results[i].id = t.ID()
		results[i].state = t.State()
		results[i].err = t.Err()
	}
	return results
}

// printResults writes one line per task, then a per-state summary
func printResults(w io.Writer, results []taskResult) {
	counts := make(map[qlimit.State]int)
	for i, r := range results {
		counts[r.state]++

		started := "never started"
		if r.started >= 0 {
			started = "started +" + r.started.Round(time.Millisecond).String()
		}

		line := fmt.Sprintf("%3d %s %-9s %s", i, r.id[:8], r.state, started)
		if r.err != nil {
			line += ": " + r.err.Error()
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	for _, s := range []qlimit.State{
		qlimit.StateSucceeded, qlimit.StateFailed, qlimit.StateTimedOut, qlimit.StateRejected,
	} {
		if counts[s] > 0 {
			fmt.Fprintf(w, "  %-9s %d\n", s, counts[s])
		}
	}

	if td := startDigest(results); td.Count() > 0 {
		fmt.Fprintf(w, "  wait p50=%v p90=%v p99=%v\n",
			quantile(td, 0.5), quantile(td, 0.9), quantile(td, 0.99))
	}
}

// startDigest summarizes the start offsets of tasks that ran.
// Every task is submitted at the start of the run, so an offset is a queue wait.
func startDigest(results []taskResult) *tdigest.TDigest {
	td := tdigest.NewWithCompression(100)
	for _, r := range results {
		if r.started >= 0 {
			td.Add(float64(r.started), 1)
		}
	}
	return td
}

func quantile(td *tdigest.TDigest, q float64) time.Duration {
	return time.Duration(td.Quantile(q)).Round(time.Millisecond)
}

// serveMetrics exposes reg over HTTP and returns a function that stops it
func serveMetrics(logger logr.Logger, addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(err, "Metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
