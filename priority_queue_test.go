package prioritypool

import (
	"math/rand"
	"testing"
)

func TestTaskQueueOrdersByPriority(t *testing.T) {
	q := newTaskQueue()
	r := rand.New(rand.NewSource(1))

	const n = 500
	for i := range n {
		q.push(workItem{priority: r.Intn(20) - 10, id: string(rune('a' + i%26))})
	}
	if q.Len() != n {
		t.Fatalf("Len = %d; want %d", q.Len(), n)
	}

	prev, ok := q.popHighest()
	if !ok {
		t.Fatal("expected an item")
	}
	for q.Len() > 0 {
		it, _ := q.popHighest()
		if it.priority > prev.priority {
			t.Fatalf("priority %d dequeued after %d", it.priority, prev.priority)
		}
		if it.priority == prev.priority && it.seq < prev.seq {
			t.Fatalf("equal priority out of submission order: seq %d after %d", it.seq, prev.seq)
		}
		prev = it
	}

	if _, ok := q.popHighest(); ok {
		t.Fatal("pop on empty queue returned an item")
	}
}

func TestTaskQueueDrain(t *testing.T) {
	q := newTaskQueue()
	if items := q.drain(); items != nil {
		t.Fatalf("drain on empty queue = %v; want nil", items)
	}

	for i := range 5 {
		q.push(workItem{priority: i})
	}
	items := q.drain()
	if len(items) != 5 || q.Len() != 0 {
		t.Fatalf("drained %d, left %d; want 5, 0", len(items), q.Len())
	}

	// the queue stays usable after a drain
	q.push(workItem{priority: 3})
	if it, ok := q.popHighest(); !ok || it.priority != 3 {
		t.Fatalf("pop after drain = (%+v, %v)", it, ok)
	}
}

func TestRetryPolicyMerge(t *testing.T) {
	base := DefaultRetryPolicy()

	var nilPolicy *RetryPolicy
	if got := nilPolicy.merge(base); got != base {
		t.Fatalf("nil merge = %+v; want %+v", got, base)
	}

	over := &RetryPolicy{Attempts: 4}
	got := over.merge(base)
	if got.Attempts != 4 || got.Initial != base.Initial || got.Max != base.Max {
		t.Fatalf("merge = %+v", got)
	}

	inverted := &RetryPolicy{Initial: 2 * base.Max}
	if got := inverted.merge(base); got.Max < got.Initial {
		t.Fatalf("merge left Max < Initial: %+v", got)
	}
}
