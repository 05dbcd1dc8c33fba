package prioritypool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestFutureResolvesOnce(t *testing.T) {
	f := newFuture[int]("t1")
	if f.IsReady() || f.State() != Pending {
		t.Fatalf("new future state = %s", f.State())
	}

	if !f.complete(5) {
		t.Fatal("first resolve should win")
	}
	if f.cancel() || f.fail(errors.New("late")) || f.complete(6) {
		t.Fatal("second resolve must be ignored")
	}

	v, err := f.Get()
	if v != 5 || err != nil || f.State() != Ready {
		t.Fatalf("Get = (%d, %v) state %s", v, err, f.State())
	}
}

func TestFutureManyReaders(t *testing.T) {
	f := newFuture[string]("t2")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.Get(); !errors.Is(err, ErrCancelled) {
				errs <- err
			}
		}()
	}

	f.cancel()
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("reader got %v; want ErrCancelled", err)
	}
}

func TestFutureGetContext(t *testing.T) {
	f := newFuture[int]("t3")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := f.GetContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("GetContext err = %v; want deadline exceeded", err)
	}
	if f.State() != Pending {
		t.Fatal("GetContext timeout must not resolve the future")
	}

	f.complete(1)
	select {
	case <-f.Done():
	default:
		t.Fatal("Done not closed after resolve")
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		Pending:   "Pending",
		Ready:     "Ready",
		Failed:    "Failed",
		Cancelled: "Cancelled",
		State(42): "Unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q; want %q", s, got, want)
		}
	}
}
