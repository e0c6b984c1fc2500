// Package batch buffers resolved outcomes so rating updates can be applied
// in groups rather than one at a time. Outcomes are drained in priority
// order: high-impact results first, then results touching uncertain items,
// then arrival order.
package batch

import (
	"container/heap"
	"context"
	"sort"
	"sync"

	"github.com/okian/duelrank/internal/domain/model"
	"github.com/okian/duelrank/pkg/logger"
	"github.com/okian/duelrank/pkg/metrics"
)

const defaultCapacity = 1024

// item wraps a queued outcome with its priority inputs.
type item struct {
	event       model.ComparisonEvent
	uncertainty float64 // max uncertainty over the two participants at enqueue time
	order       uint64  // arrival tiebreak
}

// eventHeap orders items by descending priority.
type eventHeap []*item

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.event.HighImpact != b.event.HighImpact {
		return a.event.HighImpact
	}
	if a.uncertainty != b.uncertainty {
		return a.uncertainty > b.uncertainty
	}
	return a.order < b.order
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(*item)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// Queue is an in-memory priority buffer of comparison outcomes.
type Queue struct {
	mu       sync.Mutex
	events   eventHeap
	counter  uint64
	capacity int
	log      logger.Logger
}

// NewQueue creates an empty outcome queue.
func NewQueue(opts ...Option) *Queue {
	q := &Queue{
		capacity: defaultCapacity,
		log:      logger.Named("batch"),
	}
	for _, opt := range opts {
		opt(q)
	}
	heap.Init(&q.events)
	metrics.UpdateQueueDepth(0)
	return q
}

// Enqueue buffers one resolved outcome. The uncertainty argument is the
// larger of the two participants' rating uncertainties at resolution time.
func (q *Queue) Enqueue(ctx context.Context, event model.ComparisonEvent, uncertainty float64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) >= q.capacity {
		q.log.Error(ctx, "outcome queue full",
			logger.Int("capacity", q.capacity),
			logger.String("event_id", event.EventID))
		return ErrQueueFull
	}

	q.counter++
	heap.Push(&q.events, &item{
		event:       event,
		uncertainty: uncertainty,
		order:       q.counter,
	})
	metrics.UpdateQueueDepth(len(q.events))
	return nil
}

// Len returns the number of buffered outcomes.
func (q *Queue) Len(ctx context.Context) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Pending returns a copy of every buffered outcome in arrival order
// without removing anything. Undo snapshots use this to record which
// outcomes a store snapshot does not yet reflect.
func (q *Queue) Pending(ctx context.Context) []model.ComparisonEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil
	}
	items := make([]*item, len(q.events))
	copy(items, q.events)
	sort.Slice(items, func(i, j int) bool { return items[i].order < items[j].order })

	out := make([]model.ComparisonEvent, len(items))
	for i, it := range items {
		out[i] = it.event
	}
	return out
}

// Drain removes and returns every buffered outcome in priority order.
func (q *Queue) Drain(ctx context.Context) []model.ComparisonEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil
	}

	out := make([]model.ComparisonEvent, 0, len(q.events))
	for q.events.Len() > 0 {
		it := heap.Pop(&q.events).(*item)
		out = append(out, it.event)
	}
	metrics.UpdateQueueDepth(0)
	metrics.RecordBatchFlush(len(out))
	return out
}

// RemoveSeq drops every buffered outcome belonging to the given resolution
// sequence and returns how many were removed. Undoing a resolution that has
// not been flushed yet must not leave its outcomes behind.
func (q *Queue) RemoveSeq(ctx context.Context, seq int) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.events[:0]
	removed := 0
	for _, it := range q.events {
		if it.event.Seq == seq {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	for i := len(kept); i < len(q.events); i++ {
		q.events[i] = nil
	}
	q.events = kept
	if removed > 0 {
		heap.Init(&q.events)
		metrics.UpdateQueueDepth(len(q.events))
	}
	return removed
}

// Reset discards all buffered outcomes.
func (q *Queue) Reset(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = nil
	metrics.UpdateQueueDepth(0)
}
