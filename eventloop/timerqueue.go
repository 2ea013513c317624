package eventloop

import "container/heap"

type timer struct {
	id      TimerID
	time    VTimeInSec
	seq     uint64
	cb      func()
	cleared bool
}

// timerQueue orders timers by due time. Timers that are due at the same time
// keep the order in which they were created.
type timerQueue struct {
	timers timerHeap
}

func newTimerQueue() *timerQueue {
	q := new(timerQueue)
	q.timers = make([]*timer, 0)
	heap.Init(&q.timers)

	return q
}

func (q *timerQueue) Push(t *timer) {
	heap.Push(&q.timers, t)
}

func (q *timerQueue) Pop() *timer {
	return heap.Pop(&q.timers).(*timer)
}

func (q *timerQueue) Peek() *timer {
	return q.timers[0]
}

func (q *timerQueue) Len() int {
	return q.timers.Len()
}

type timerHeap []*timer

func (h timerHeap) Len() int {
	return len(h)
}

func (h timerHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}

	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *timerHeap) Push(x any) {
	*h = append(*h, x.(*timer))
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]

	return t
}
