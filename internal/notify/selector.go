package notify

import "context"

// classification is the per-event delivery state.
type classification string

const (
	// stateSelfConfirmed: the originator matches the current actor. The
	// acting UI already showed its own feedback, so no receiver-side
	// delivery happens here.
	stateSelfConfirmed classification = "self_confirmed"
	// stateReceiverVisible: the surface is foregrounded; the in-app
	// presenter alone is enough to be noticed.
	stateReceiverVisible classification = "receiver_visible"
	// stateReceiverHidden: the surface is backgrounded; the presenter still
	// runs (so the panel is populated for the user's return) and the push
	// channel is added to get their attention now.
	stateReceiverHidden classification = "receiver_hidden"
)

// route is the channel set chosen for one event.
type route struct {
	state       classification
	presenter   bool
	push        bool
	pushSkipped bool // hidden receiver downgraded because permission is missing
}

// selector decides sender vs receiver and the delivery channels per event.
// Inputs are re-evaluated on every call; visibility is never cached.
type selector struct {
	probe VisibilityProbe
	push  PushChannel
}

func (s *selector) classify(ctx context.Context, ev Event, actorID string) route {
	if ev.OriginatorID != "" && ev.OriginatorID == actorID {
		return route{state: stateSelfConfirmed}
	}

	foregrounded := s.probe != nil && s.probe.IsForegrounded()
	if foregrounded {
		return route{state: stateReceiverVisible, presenter: true}
	}

	r := route{state: stateReceiverHidden, presenter: true}
	if s.push != nil && s.push.HasPermission(ctx) {
		r.push = true
	} else {
		// Degraded delivery, not an error: the panel item is still written.
		r.pushSkipped = true
	}
	return r
}
