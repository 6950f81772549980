package scheduler

import (
	"container/heap"

	"github.com/qlp-hq/production-scheduler/internal/model"
)

// readyItem is one node waiting on the ready heap. seq is a monotonic
// insertion counter used as the tiebreaker so that nodes of equal
// priority come out in a stable, deterministic order (§5, §9's "stable
// tiebreaker" note) instead of whatever order container/heap happens
// to leave them in.
type readyItem struct {
	key       model.Key
	priority  float64
	seq       int
	failCount int
	index     int
}

type readyHeap []*readyItem

func (h readyHeap) Len() int { return len(h) }

func (h readyHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h readyHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *readyHeap) Push(x interface{}) {
	item := x.(*readyItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *readyHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

var _ heap.Interface = (*readyHeap)(nil)
