package notify

import (
	"context"
	"sync"
	"time"

	"github.com/redlitmus-in/metersquare-notify/internal/eventbus"
	logx "github.com/redlitmus-in/metersquare-notify/pkg/logx"
)

// channel adapter calls are bounded so a stuck backend can't hang the worker
const callTimeout = 10 * time.Second

// Deps are the dispatcher's boundary collaborators. Any of them may be nil;
// the dispatcher degrades rather than fails.
type Deps struct {
	Log       logx.Logger
	Bus       eventbus.Bus
	Store     Store
	Presenter Presenter
	Push      PushChannel
	Probe     VisibilityProbe
}

// Dispatcher is the process-wide notification middleware. It receives events
// from many producers and decides, per event, whether and how to deliver:
// at most once per logical event, no two deliveries closer than MinInterval,
// FIFO within a producer's sequence.
//
// Delivery is best-effort throughout: nothing here propagates a failure back
// to the producer, so a missed notification can never fail the business
// action that triggered it.
type Dispatcher struct {
	mu   sync.Mutex
	cfg  Config
	gate *gate

	log       logx.Logger
	bus       eventbus.Bus
	store     Store
	presenter Presenter
	push      PushChannel
	sel       *selector

	dedup *dedupRegistry
	queue *deliveryQueue

	runCtx    context.Context
	runCancel context.CancelFunc
	workerWG  sync.WaitGroup
}

// New builds a Dispatcher. Construct exactly one per process and keep it for
// the process lifetime; call Init once before the first Send.
func New(cfg Config, deps Deps) *Dispatcher {
	cfg = cfg.withDefaults()
	log := deps.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	runCtx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		cfg:       cfg,
		gate:      newGate(cfg.MinInterval),
		log:       log.With(logx.String("comp", "dispatcher")),
		bus:       deps.Bus,
		store:     deps.Store,
		presenter: deps.Presenter,
		push:      deps.Push,
		sel:       &selector{probe: deps.Probe, push: deps.Push},
		dedup:     newDedupRegistry(cfg.DedupIDs, cfg.DedupRecent, cfg.DedupWindow),
		queue:     newDeliveryQueue(cfg.QueueSize),
		runCtx:    runCtx,
		runCancel: cancel,
	}
}

// Init probes the push channel's availability and permission state, and
// warms the content-dedup window from the store so a just-restarted process
// doesn't replay what it delivered moments ago. Failures here are logged,
// never fatal.
func (d *Dispatcher) Init(ctx context.Context) {
	if d.push != nil {
		if !d.push.HasPermission(ctx) {
			perm := d.push.RequestPermission(ctx)
			d.log.Info("push permission probed", logx.String("permission", string(perm)))
		} else {
			d.log.Debug("push channel available")
		}
	}

	if d.store != nil {
		cfg := d.cfgSnapshot()
		recent, err := d.store.ListRecent(ctx, cfg.DedupRecent)
		if err != nil {
			d.log.Warn("dedup warm-up from store failed", logx.Err(err))
			return
		}
		for _, ev := range recent {
			d.dedup.MarkSeen(ev.ID)
			d.dedup.MarkDelivered(ev.Title, ev.Body, ev.CreatedAt)
		}
		if len(recent) > 0 {
			d.log.Debug("dedup window warmed", logx.Int("events", len(recent)))
		}
	}
}

// Apply swaps the tunable config at runtime. The delivery gate is rebuilt
// with the new interval; queued entries and dedup history are kept.
func (d *Dispatcher) Apply(cfg Config) {
	cfg = cfg.withDefaults()
	d.mu.Lock()
	d.cfg = cfg
	d.gate = newGate(cfg.MinInterval)
	d.mu.Unlock()
	d.log.Debug("dispatcher config applied", logx.Duration("min_interval", cfg.MinInterval))
}

// Send sanitizes and dispatches ev: delivered now when the rate gate is open
// and nothing is queued ahead of it, otherwise deferred into the delivery
// queue. Duplicates are absorbed silently; producers never see an error.
func (d *Dispatcher) Send(ctx context.Context, ev Event) {
	now := time.Now()
	cfg := d.cfgSnapshot()
	ev = sanitized(ev, cfg, now)

	// Fast path: queue idle and a slot open. Duplicates are checked before
	// committing the slot so a drop doesn't delay the next real delivery.
	g := d.gateSnapshot()
	if d.queue.idle() && g.Ready() {
		if reason, dup := d.isDuplicate(ev, now); dup {
			d.dropDuplicate(ev, reason)
			return
		}
		if g.Allow() {
			d.dispatch(ctx, ev)
			return
		}
		// lost the slot to a concurrent sender; fall through to the queue
	}

	dropped, overflowed, start := d.queue.push(ev, now)
	if overflowed {
		d.log.Warn("delivery queue overflow; oldest entry dropped",
			logx.String("dropped_id", dropped.ID), logx.Int("cap", cfg.QueueSize))
		metricDropped.Inc()
		d.publish(EvtDropped, Outcome{ID: dropped.ID, Kind: dropped.Kind, Priority: dropped.Priority, Reason: "queue_overflow"})
	}
	metricQueued.Inc()
	d.publish(EvtQueued, Outcome{ID: ev.ID, Kind: ev.Kind, Priority: ev.Priority})
	if start {
		d.workerWG.Add(1)
		go d.drainLoop()
	}
}

// SendSystem is a convenience wrapper for process-generated notices. The
// priority follows the kind: error is urgent, warning is high, rest medium.
func (d *Dispatcher) SendSystem(ctx context.Context, kind Kind, title, body string) {
	d.Send(ctx, Event{
		Kind:     kind,
		Title:    title,
		Body:     body,
		Priority: priorityForKind(kind),
	})
}

// MarkRead flips the read flag on one stored notification.
func (d *Dispatcher) MarkRead(ctx context.Context, id string) error {
	if d.store == nil {
		return nil
	}
	return d.store.MarkRead(ctx, id)
}

// MarkAllRead flips the read flag on every stored notification.
func (d *Dispatcher) MarkAllRead(ctx context.Context) error {
	if d.store == nil {
		return nil
	}
	return d.store.MarkAllRead(ctx)
}

// ClearAll empties the store and the delivery queue. The dedup registry is
// deliberately kept: already-seen ids stay suppressed so a clear isn't
// immediately followed by duplicate replays.
func (d *Dispatcher) ClearAll(ctx context.Context) error {
	if n := d.queue.clear(); n > 0 {
		d.log.Info("delivery queue cleared", logx.Int("discarded", n))
	}
	if d.store == nil {
		return nil
	}
	return d.store.Clear(ctx)
}

// QueueLen reports the number of deferred events (for /healthz).
func (d *Dispatcher) QueueLen() int { return d.queue.len() }

// DedupLen reports the id registry size (for /healthz and tests).
func (d *Dispatcher) DedupLen() int { return d.dedup.Len() }

// Close stops the drain worker. Queued events that haven't reached their
// delivery slot are abandoned; the store remains the recovery mechanism.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.runCancel()
	done := make(chan struct{})
	go func() {
		d.workerWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drainLoop is the single cooperative consumer of the delivery queue. It
// exits when the queue empties (popOrStop clears the draining flag) or when
// the dispatcher is closed.
func (d *Dispatcher) drainLoop() {
	defer d.workerWG.Done()
	for {
		entry, ok := d.queue.popOrStop()
		if !ok {
			return
		}
		// Duplicates are dropped before waiting so they never consume a
		// delivery slot nor delay the entries behind them.
		if reason, dup := d.isDuplicate(entry.ev, time.Now()); dup {
			d.dropDuplicate(entry.ev, reason)
			continue
		}
		if err := d.gateSnapshot().Wait(d.runCtx); err != nil {
			d.queue.stopDraining()
			return
		}
		d.dispatch(d.runCtx, entry.ev)
	}
}

// isDuplicate applies both dedup checks: id registry first, then the
// content window.
func (d *Dispatcher) isDuplicate(ev Event, now time.Time) (string, bool) {
	if d.dedup.Seen(ev.ID) {
		return "id", true
	}
	if d.dedup.SeenContent(ev.Title, ev.Body, now) {
		return "content", true
	}
	return "", false
}

func (d *Dispatcher) dropDuplicate(ev Event, reason string) {
	metricDeduped.WithLabelValues(reason).Inc()
	d.log.Debug("duplicate absorbed", logx.String("id", ev.ID), logx.String("reason", reason))
	d.publish(EvtDeduped, Outcome{ID: ev.ID, Kind: ev.Kind, Priority: ev.Priority, Reason: reason})
}

// dispatch classifies ev and invokes the selected channel adapters. Every
// adapter call is independent and best-effort: a push failure still leaves
// the panel entry in place, and vice versa.
func (d *Dispatcher) dispatch(ctx context.Context, ev Event) {
	now := time.Now()
	r := d.sel.classify(ctx, ev, d.cfgSnapshot().ActorID)

	if r.state == stateSelfConfirmed {
		// The originator's own UI already confirmed the action; recording
		// the id keeps an echoed copy of this event from delivering later.
		d.dedup.MarkSeen(ev.ID)
		metricSuppressed.Inc()
		d.publish(EvtSuppressed, Outcome{ID: ev.ID, Kind: ev.Kind, Priority: ev.Priority, State: string(r.state)})
		return
	}

	if d.store != nil {
		cctx, cancel := context.WithTimeout(ctx, callTimeout)
		err := d.store.Append(cctx, ev)
		cancel()
		if err != nil {
			metricChannelErrors.WithLabelValues("store").Inc()
			d.log.Warn("store append failed", logx.String("id", ev.ID), logx.Err(err))
		}
	}

	if r.presenter && d.presenter != nil {
		d.presenter.Show(ctx, ev)
	}

	if r.push && d.push != nil {
		cctx, cancel := context.WithTimeout(ctx, callTimeout)
		err := d.push.Show(cctx, ev.Title, ev.Body, PushOptions{
			Priority:   ev.Priority,
			DocumentID: ev.DocumentID,
			ActionURL:  ev.ActionURL,
		})
		cancel()
		if err != nil {
			metricChannelErrors.WithLabelValues("push").Inc()
			d.log.Warn("push delivery failed", logx.String("id", ev.ID), logx.Err(err))
		}
	}
	if r.pushSkipped {
		metricPushSkipped.Inc()
		d.log.Info("push omitted: permission not granted", logx.String("id", ev.ID))
		d.publish(EvtPushSkipped, Outcome{ID: ev.ID, Kind: ev.Kind, Priority: ev.Priority, State: string(r.state)})
	}

	d.dedup.MarkSeen(ev.ID)
	d.dedup.MarkDelivered(ev.Title, ev.Body, now)
	metricSent.WithLabelValues(string(r.state)).Inc()
	d.publish(EvtSent, Outcome{ID: ev.ID, Kind: ev.Kind, Priority: ev.Priority, State: string(r.state)})
}

func (d *Dispatcher) publish(typ string, out Outcome) {
	if d.bus == nil {
		return
	}
	if out.At.IsZero() {
		out.At = time.Now()
	}
	d.bus.Publish(eventbus.Event{Type: typ, Time: out.At, Data: out})
}

func (d *Dispatcher) cfgSnapshot() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

func (d *Dispatcher) gateSnapshot() *gate {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gate
}
