package autograd

import "container/heap"

// nodeIDHeap is a max-heap of node ids: container/heap gives a min-heap by
// default, so Less is inverted to yield "higher id first" — the total order
// the deterministic scheduler's ready queue requires.
type nodeIDHeap []int

func (h nodeIDHeap) Len() int            { return len(h) }
func (h nodeIDHeap) Less(i, j int) bool  { return h[i] > h[j] }
func (h nodeIDHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeIDHeap) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *nodeIDHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// readyQueue is the max-priority-by-id ready queue the scheduler drains
// nodes from, instrumented with the push/pop/max-length counters the
// telemetry surfaces.
type readyQueue struct {
	h      nodeIDHeap
	pushes int
	pops   int
	maxLen int
}

func newReadyQueue(capacityHint int) *readyQueue {
	q := &readyQueue{h: make(nodeIDHeap, 0, capacityHint)}
	heap.Init(&q.h)
	return q
}

func (q *readyQueue) push(node int) {
	heap.Push(&q.h, node)
	q.pushes++
	if q.h.Len() > q.maxLen {
		q.maxLen = q.h.Len()
	}
}

func (q *readyQueue) pop() (int, bool) {
	if q.h.Len() == 0 {
		return 0, false
	}
	v := heap.Pop(&q.h).(int)
	q.pops++
	return v, true
}
