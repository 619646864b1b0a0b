// Package notify is the notification dispatch middleware.
//
// Producers (user actions, inbound server events) hand events to a single
// process-wide Dispatcher, which guarantees at-most-once delivery per
// logical event, enforces a global minimum interval between deliveries, and
// picks the delivery channels per event: the originator of an action gets
// nothing (their own UI already confirmed it), a receiver watching the
// surface gets the in-app presenter, and a receiver who is away gets the
// presenter plus an out-of-app push alert when permission allows.
//
// # Delivery is best-effort
//
// Nothing in this package returns an error to a producer. Channel failures
// are logged and counted; the persisted store is the recovery mechanism for
// anything missed. This is deliberate: notification delivery must never fail
// the business action that triggered it.
//
// # Observing outcomes
//
// The dispatcher publishes its decisions (sent, deduped, queued, dropped,
// suppressed, push skipped) on the event bus and as Prometheus counters, so
// consumers and tests assert on signals rather than on control flow.
package notify
