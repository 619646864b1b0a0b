package notify

import (
	"sync"
	"time"
)

// dedupRegistry answers "have I already handled this?" two ways: by event id
// over the last maxIDs insertions, and by exact (title, body) match against
// the most recent deliveries inside a short window.
//
// The id registry is deliberately weak: once it overflows it is halved to
// the most recent maxIDs/2 entries, so a very old id may be reported unseen
// again. Re-delivering a stale notification is a low-risk failure mode and
// a fair trade against unbounded memory.
type dedupRegistry struct {
	mu sync.Mutex

	maxIDs int
	order  []string
	seen   map[string]struct{}

	recentMax int
	window    time.Duration
	recent    []deliveredEntry
}

type deliveredEntry struct {
	title string
	body  string
	at    time.Time
}

func newDedupRegistry(maxIDs, recentMax int, window time.Duration) *dedupRegistry {
	return &dedupRegistry{
		maxIDs:    maxIDs,
		seen:      make(map[string]struct{}, maxIDs),
		recentMax: recentMax,
		window:    window,
	}
}

func (r *dedupRegistry) Seen(id string) bool {
	r.mu.Lock()
	_, ok := r.seen[id]
	r.mu.Unlock()
	return ok
}

func (r *dedupRegistry) MarkSeen(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[id]; ok {
		return
	}
	r.seen[id] = struct{}{}
	r.order = append(r.order, id)

	// Batched eviction: halve to the newest entries instead of evicting one
	// per insert, so a hot producer doesn't thrash the registry.
	if len(r.order) > r.maxIDs {
		keep := r.maxIDs / 2
		drop := r.order[:len(r.order)-keep]
		for _, old := range drop {
			delete(r.seen, old)
		}
		r.order = append(r.order[:0], r.order[len(r.order)-keep:]...)
	}
}

// SeenContent reports whether an identical (title, body) pair was delivered
// within the window. Guards against independent producers describing the
// same real-world occurrence under different ids.
func (r *dedupRegistry) SeenContent(title, body string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.recent {
		if d.title == title && d.body == body && now.Sub(d.at) <= r.window {
			return true
		}
	}
	return false
}

// MarkDelivered records a delivered (title, body) pair for content dedup.
func (r *dedupRegistry) MarkDelivered(title, body string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recent = append(r.recent, deliveredEntry{title: title, body: body, at: at})
	if len(r.recent) > r.recentMax {
		r.recent = append(r.recent[:0], r.recent[len(r.recent)-r.recentMax:]...)
	}
}

// Len reports the current id registry size (for tests and /healthz).
func (r *dedupRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
