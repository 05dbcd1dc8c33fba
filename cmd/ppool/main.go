// Command ppool runs batches of primality checks through a priority pool.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	pp "github.com/azargarov/prioritypool"
	"github.com/azargarov/prioritypool/internal/config"
	"github.com/azargarov/prioritypool/internal/primality"
	"github.com/azargarov/prioritypool/prommetrics"
)

var version = "dev"

func main() {
	var (
		configFile  = flag.String("config", "", "config file path (YAML/JSON)")
		workers     = flag.Int("workers", 0, "number of workers (0 = number of CPUs)")
		metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
		linger      = flag.Duration("linger", 0, "keep the metrics endpoint up this long after the run")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `ppool - priority worker pool demo

Usage:
  ppool [options]

Options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Signals:
  SIGINT/SIGTERM once   graceful shutdown (queued checks still run)
  SIGINT/SIGTERM twice  immediate shutdown (queued checks are cancelled)
`)
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("ppool version %s\n", version)
		return
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Pool.Workers = *workers
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	if err := run(context.Background(), cfg, *linger); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	f, err := config.LoadFile(path)
	if err != nil {
		return config.Config{}, err
	}
	return f.ToConfig()
}

func run(ctx context.Context, cfg config.Config, linger time.Duration) error {
	logger := lg.FromContext(ctx)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := cfg.Pool
	opts.LogContext = ctx
	opts.Metrics = prommetrics.New(reg, cfg.Namespace, "primality")
	p := pp.NewPoolFromOptions(opts)

	var srv *http.Server
	if cfg.MetricsAddr != "" {
		srv = serveMetrics(ctx, cfg.MetricsAddr, reg)
	}

	stopSignals := handleSignals(ctx, p, cfg.ShutdownTimeout)
	defer stopSignals()

	batches, err := submitJobs(p, cfg.Jobs)
	if err != nil && !errors.Is(err, pp.ErrPoolStopped) {
		return err
	}

	if err := p.Wait(); err != nil {
		return err
	}
	for _, b := range batches {
		b.report()
	}

	shCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := p.Shutdown(shCtx, true); err != nil {
		logger.Error("shutdown failed", lg.Any("error", err))
	}

	if srv != nil {
		if linger > 0 {
			logger.Info("metrics endpoint lingering", lg.String("for", linger.String()))
			time.Sleep(linger)
		}
		_ = srv.Shutdown(shCtx)
	}
	return nil
}

// batch tracks the futures of one job.
type batch struct {
	job     config.Job
	numbers []uint64
	futures []*pp.Future[bool]
}

func submitJobs(p *pp.Pool, jobs []config.Job) ([]*batch, error) {
	batches := make([]*batch, 0, len(jobs))
	for _, job := range jobs {
		b := &batch{job: job}
		batches = append(batches, b)
		for n := job.From; ; n++ {
			fut, err := pp.Submit(p, job.Priority, func() (bool, error) {
				return primality.IsPrime(n, job.Method), nil
			}, pp.WithTag(job.Name))
			if err != nil {
				return batches, fmt.Errorf("submit %s: %w", job.Name, err)
			}
			b.numbers = append(b.numbers, n)
			b.futures = append(b.futures, fut)
			if n == job.To {
				break
			}
		}
	}
	return batches, nil
}

func (b *batch) report() {
	var primes, cancelled, failed int
	var largest uint64
	for i, f := range b.futures {
		ok, err := f.Get()
		switch {
		case errors.Is(err, pp.ErrCancelled):
			cancelled++
		case err != nil:
			failed++
		case ok:
			primes++
			largest = max(largest, b.numbers[i])
		}
	}
	fmt.Printf("%-12s prio=%-4d method=%-13s range=[%d,%d] primes=%d largest=%d cancelled=%d failed=%d\n",
		b.job.Name, b.job.Priority, b.job.Method, b.job.From, b.job.To, primes, largest, cancelled, failed)
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		lg.FromContext(ctx).Info("serving metrics", lg.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.FromContext(ctx).Error("metrics server failed", lg.Any("error", err))
		}
	}()
	return srv
}

// handleSignals shuts p down gracefully on the first signal and immediately
// on the second. The returned func stops listening.
func handleSignals(ctx context.Context, p *pp.Pool, timeout time.Duration) func() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		graceful := true
		for {
			select {
			case sig := <-sigCh:
				lg.FromContext(ctx).Info("signal received", lg.String("signal", sig.String()), lg.Any("graceful", graceful))
				g := graceful
				go func() {
					shCtx, cancel := context.WithTimeout(ctx, timeout)
					defer cancel()
					if err := p.Shutdown(shCtx, g); err != nil {
						lg.FromContext(ctx).Error("shutdown failed", lg.Any("error", err))
					}
				}()
				graceful = false
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
