package balancer

import "container/heap"

// Needed is one symbol's outstanding demand in the buy phase
type Needed struct {
	Symbol          string
	CashDelta       float64 // dollars still wanted
	PercentageDelta float64 // CashDelta / target value of the symbol
}

// Before reports whether n should be served before other.
// Higher relative need first, ties by symbol so the order is total and reproducible.
func (n Needed) Before(other Needed) bool {
	if n.PercentageDelta != other.PercentageDelta {
		return n.PercentageDelta > other.PercentageDelta
	}
	return n.Symbol < other.Symbol
}

// needHeap implements heap.Interface over Needed
type needHeap []Needed

func (h needHeap) Len() int           { return len(h) }
func (h needHeap) Less(i, j int) bool { return h[i].Before(h[j]) }
func (h needHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *needHeap) Push(x any) {
	*h = append(*h, x.(Needed))
}

func (h *needHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// NeedQueue is a max-priority queue of Needed
type NeedQueue struct {
	items needHeap
}

// NewNeedQueue creates an empty queue
func NewNeedQueue() *NeedQueue {
	return &NeedQueue{items: make(needHeap, 0)}
}

// Push adds a need
func (q *NeedQueue) Push(n Needed) {
	heap.Push(&q.items, n)
}

// Pop removes and returns the most underweight need
func (q *NeedQueue) Pop() Needed {
	return heap.Pop(&q.items).(Needed)
}

// Len returns the number of queued needs
func (q *NeedQueue) Len() int {
	return q.items.Len()
}
