// Implements the ReadyQueue, which holds every parsed program until the
// Dispatcher selects it.

package sim

import (
	"container/heap"
	"fmt"
	"strings"
)

type readyItem struct {
	pcb *PCB
	seq uint64 // insertion order, the final tie-breaker
}

// ReadyQueue is a priority queue of programs with deterministic ordering:
// Scheduler.Less first, then insertion order.
type ReadyQueue struct {
	items     []readyItem
	scheduler Scheduler
	nextSeq   uint64
}

// NewReadyQueue creates an empty queue ordered by scheduler.
func NewReadyQueue(scheduler Scheduler) *ReadyQueue {
	if scheduler == nil {
		panic("NewReadyQueue: scheduler must not be nil")
	}
	q := &ReadyQueue{items: make([]readyItem, 0), scheduler: scheduler}
	heap.Init(q)
	return q
}

// Len implements heap.Interface
func (q *ReadyQueue) Len() int {
	return len(q.items)
}

// Less implements heap.Interface
func (q *ReadyQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if q.scheduler.Less(a.pcb, b.pcb) {
		return true
	}
	if q.scheduler.Less(b.pcb, a.pcb) {
		return false
	}
	return a.seq < b.seq
}

// Swap implements heap.Interface
func (q *ReadyQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

// Push implements heap.Interface
func (q *ReadyQueue) Push(x interface{}) {
	q.items = append(q.items, x.(readyItem))
}

// Pop implements heap.Interface
func (q *ReadyQueue) Pop() interface{} {
	old := q.items
	n := len(old)
	item := old[n-1]
	q.items = old[0 : n-1]
	return item
}

// Enqueue adds a program. Its counters must be final: the queue does not
// reorder on later mutation.
func (q *ReadyQueue) Enqueue(p *PCB) {
	heap.Push(q, readyItem{pcb: p, seq: q.nextSeq})
	q.nextSeq++
}

// Dequeue removes and returns the next program, or nil when empty.
func (q *ReadyQueue) Dequeue() *PCB {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(readyItem).pcb
}

// Peek returns the next program without removing it.
func (q *ReadyQueue) Peek() *PCB {
	if q.Len() == 0 {
		return nil
	}
	return q.items[0].pcb
}

func (q *ReadyQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, it := range q.items {
		sb.WriteString(fmt.Sprint(it.pcb.ID))
		if i < len(q.items)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
