package notify

import "time"

// Config controls the dispatch middleware.
type Config struct {
	// ActorID identifies the user this process dispatches for. Events whose
	// OriginatorID equals ActorID are classified as self-originated.
	ActorID string

	// MinInterval is the global floor between two deliveries.
	MinInterval time.Duration

	// QueueSize caps the delivery queue; on overflow the oldest entry is
	// dropped with a logged warning.
	QueueSize int

	// DedupIDs caps the id registry. On overflow the registry is halved to
	// the most recent DedupIDs/2 entries (batched eviction, not per-insert).
	DedupIDs int

	// DedupRecent and DedupWindow control content-based dedup: an event whose
	// (title, body) matches one of the last DedupRecent deliveries within
	// DedupWindow is dropped even when its id differs.
	DedupRecent int
	DedupWindow time.Duration

	MaxTitle int
	MaxBody  int
	MaxMeta  int
}

func (c Config) withDefaults() Config {
	if c.MinInterval <= 0 {
		c.MinInterval = 2 * time.Second
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 1000
	}
	if c.DedupIDs <= 0 {
		c.DedupIDs = 100
	}
	if c.DedupRecent <= 0 {
		c.DedupRecent = 10
	}
	if c.DedupWindow <= 0 {
		c.DedupWindow = 5 * time.Second
	}
	if c.MaxTitle <= 0 {
		c.MaxTitle = 120
	}
	if c.MaxBody <= 0 {
		c.MaxBody = 500
	}
	if c.MaxMeta <= 0 {
		c.MaxMeta = 300
	}
	return c
}

// Bus event types published by the dispatcher. Subscribers (tests, the
// in-app feed, metrics) observe outcomes here instead of return values.
const (
	EvtQueued      = "notify.queued"
	EvtSent        = "notify.sent"
	EvtDeduped     = "notify.deduped"
	EvtSuppressed  = "notify.suppressed"
	EvtDropped     = "notify.dropped"
	EvtPushSkipped = "notify.push_skipped"
)

// Outcome is the bus payload for dispatcher lifecycle events.
type Outcome struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"kind"`
	Priority Priority  `json:"priority"`
	State    string    `json:"state,omitempty"` // selector classification
	Reason   string    `json:"reason,omitempty"`
	At       time.Time `json:"at"`
	Error    string    `json:"error,omitempty"`
}
