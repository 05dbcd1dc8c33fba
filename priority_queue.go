package prioritypool

import (
	"container/heap"
)

const (
	prioCap = 64
)

// workItem is one queued unit of work. The typed payload and its future
// are captured by run and cancel, so the heap stays non-generic.
type workItem struct {
	priority int
	// seq is the submission order, used to keep equal priorities FIFO.
	seq uint64
	id  string
	// run executes the payload and resolves the future.
	run func()
	// cancel resolves the future to Cancelled; false if it was already resolved.
	cancel  func() bool
	cleanup func()
}

// itemHeap is a max-heap by priority, then by lowest seq.
// Items are stored by value.
type itemHeap []workItem

func (h itemHeap) Len() int { return len(h) }
func (h itemHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) { *h = append(*h, x.(workItem)) }

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = workItem{} // drop references to the payload
	*h = old[:n-1]
	return it
}

// taskQueue is the pool's pending work. It is not safe for concurrent use;
// every method is called with the pool lock held.
type taskQueue struct {
	h   itemHeap
	seq uint64
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{h: make(itemHeap, 0, prioCap)}
	heap.Init(&q.h)
	return q
}

// push inserts it in O(log n) and stamps its submission sequence.
func (q *taskQueue) push(it workItem) {
	q.seq++
	it.seq = q.seq
	heap.Push(&q.h, it)
}

// popHighest removes the highest priority item.
// If the queue is empty it returns false.
func (q *taskQueue) popHighest() (workItem, bool) {
	if q.h.Len() == 0 {
		return workItem{}, false
	}
	return heap.Pop(&q.h).(workItem), true
}

// drain empties the queue and hands the removed items to the caller, who is
// responsible for cancelling them.
func (q *taskQueue) drain() []workItem {
	if len(q.h) == 0 {
		return nil
	}
	items := q.h
	q.h = make(itemHeap, 0, prioCap)
	return items
}

// Len returns the number of items currently stored in the queue.
func (q *taskQueue) Len() int { return q.h.Len() }
