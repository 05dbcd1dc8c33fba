//go:build debug

package prioritypool_test

import (
	"errors"
	"testing"

	pp "github.com/azargarov/prioritypool"
)

func TestSelfJoinAbortsInDebug(t *testing.T) {
	p := newTestPool(t, 1)
	defer stopPool(t, p)

	fut, _ := p.Enqueue(0, func() error { return p.Wait() })

	_, err := getWithin(t, fut)
	var pe *pp.PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v; want the self-join to panic", err)
	}
	perr, ok := pe.Value.(error)
	if !ok || !errors.Is(perr, pp.ErrSelfJoinDeadlock) {
		t.Fatalf("panic value = %v; want ErrSelfJoinDeadlock", pe.Value)
	}
}
