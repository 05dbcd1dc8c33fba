package prioritypool_test

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	pp "github.com/azargarov/prioritypool"
)

const testTimeout = 2 * time.Second

func newTestPool(t *testing.T, workers int) *pp.Pool {
	t.Helper()
	return pp.NewPoolFromOptions(pp.Options{Workers: workers})
}

func newMeteredPool(t *testing.T, workers int) (*pp.Pool, *pp.AtomicMetrics) {
	t.Helper()
	m := &pp.AtomicMetrics{}
	return pp.NewPoolFromOptions(pp.Options{Workers: workers, Metrics: m}), m
}

// stopPool shuts p down immediately and fails the test if the workers do
// not exit in time.
func stopPool(t *testing.T, p *pp.Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	if err := p.Shutdown(ctx, false); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

// blockWorker occupies one worker until release is called. It returns once
// the blocking task is running.
func blockWorker(t *testing.T, p *pp.Pool) (release func(), fut *pp.Future[struct{}]) {
	t.Helper()

	started := make(chan struct{})
	gate := make(chan struct{})
	fut, err := p.Enqueue(1_000_000, func() error {
		close(started)
		<-gate
		return nil
	}, pp.WithTag("blocker"))
	if err != nil {
		t.Fatalf("submit blocker: %v", err)
	}

	select {
	case <-started:
	case <-time.After(testTimeout):
		t.Fatal("blocker did not start")
	}

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }, fut
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		runtime.Gosched()
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not satisfied before timeout")
}

func getWithin[T any](t *testing.T, f *pp.Future[T]) (T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	v, err := f.GetContext(ctx)
	if err == context.DeadlineExceeded {
		t.Fatalf("future %s not resolved in time (state %s)", f.ID(), f.State())
	}
	return v, err
}

// waitErr runs p.Wait in a goroutine and returns its result channel.
func waitErr(p *pp.Pool) <-chan error {
	ch := make(chan error, 1)
	go func() { ch <- p.Wait() }()
	return ch
}
