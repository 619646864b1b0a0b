package notify

import (
	"sync"
	"time"
)

// queueEntry wraps an event with its enqueue time, kept for FIFO ordering
// and for diagnosing starvation.
type queueEntry struct {
	ev         Event
	enqueuedAt time.Time
}

// deliveryQueue is a bounded FIFO for events that arrived faster than the
// rate limit allows. It is drained by a single cooperative worker; the
// draining flag makes duplicate drain starts a no-op.
type deliveryQueue struct {
	mu       sync.Mutex
	max      int
	entries  []queueEntry
	draining bool
}

func newDeliveryQueue(max int) *deliveryQueue {
	return &deliveryQueue{max: max}
}

// push appends ev. When the queue is full the oldest entry is dropped and
// returned so the caller can log the overflow; never an error to producers.
func (q *deliveryQueue) push(ev Event, now time.Time) (dropped Event, overflowed bool, startWorker bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, queueEntry{ev: ev, enqueuedAt: now})
	if len(q.entries) > q.max {
		dropped = q.entries[0].ev
		overflowed = true
		q.entries = append(q.entries[:0], q.entries[1:]...)
	}
	if !q.draining {
		q.draining = true
		startWorker = true
	}
	return dropped, overflowed, startWorker
}

// popOrStop removes the head entry. When the queue is empty it clears the
// draining flag under the same lock, so a concurrent push either sees the
// worker still running or knows to start a new one — an entry can never be
// stranded between the two.
func (q *deliveryQueue) popOrStop() (queueEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		q.draining = false
		return queueEntry{}, false
	}
	head := q.entries[0]
	q.entries = append(q.entries[:0], q.entries[1:]...)
	return head, true
}

// stopDraining force-clears the flag; used when the worker exits on
// cancellation with entries still queued.
func (q *deliveryQueue) stopDraining() {
	q.mu.Lock()
	q.draining = false
	q.mu.Unlock()
}

// idle reports whether the fast path may deliver inline: nothing queued and
// no worker mid-drain, so FIFO order cannot be violated.
func (q *deliveryQueue) idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries) == 0 && !q.draining
}

func (q *deliveryQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// clear empties the queue and reports how many entries were discarded.
func (q *deliveryQueue) clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.entries)
	q.entries = q.entries[:0]
	return n
}
