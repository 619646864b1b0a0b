package notify

import (
	"context"
	"testing"
)

type stubProbe struct{ foregrounded bool }

func (p stubProbe) IsForegrounded() bool { return p.foregrounded }

type stubPush struct {
	permitted bool
}

func (p *stubPush) HasPermission(context.Context) bool { return p.permitted }
func (p *stubPush) RequestPermission(context.Context) Permission {
	if p.permitted {
		return PermissionGranted
	}
	return PermissionDenied
}
func (p *stubPush) Show(context.Context, string, string, PushOptions) error { return nil }

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		originator   string
		actor        string
		foregrounded bool
		permitted    bool
		wantState    classification
		wantPres     bool
		wantPush     bool
		wantSkipped  bool
	}{
		{
			name: "self originated", originator: "u1", actor: "u1",
			wantState: stateSelfConfirmed,
		},
		{
			name: "receiver visible", originator: "u2", actor: "u1", foregrounded: true, permitted: true,
			wantState: stateReceiverVisible, wantPres: true,
		},
		{
			name: "receiver hidden with permission", originator: "u2", actor: "u1", permitted: true,
			wantState: stateReceiverHidden, wantPres: true, wantPush: true,
		},
		{
			name: "receiver hidden without permission", originator: "u2", actor: "u1",
			wantState: stateReceiverHidden, wantPres: true, wantSkipped: true,
		},
		{
			name: "no originator counts as receiver", foregrounded: true, actor: "u1",
			wantState: stateReceiverVisible, wantPres: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s := &selector{
				probe: stubProbe{foregrounded: tt.foregrounded},
				push:  &stubPush{permitted: tt.permitted},
			}
			r := s.classify(context.Background(), Event{OriginatorID: tt.originator}, tt.actor)
			if r.state != tt.wantState {
				t.Fatalf("state = %q, want %q", r.state, tt.wantState)
			}
			if r.presenter != tt.wantPres {
				t.Fatalf("presenter = %v, want %v", r.presenter, tt.wantPres)
			}
			if r.push != tt.wantPush {
				t.Fatalf("push = %v, want %v", r.push, tt.wantPush)
			}
			if r.pushSkipped != tt.wantSkipped {
				t.Fatalf("pushSkipped = %v, want %v", r.pushSkipped, tt.wantSkipped)
			}
		})
	}
}

func TestClassifyWithoutPushChannel(t *testing.T) {
	t.Parallel()
	s := &selector{probe: stubProbe{foregrounded: false}}
	r := s.classify(context.Background(), Event{OriginatorID: "u2"}, "u1")
	if r.state != stateReceiverHidden || r.push || !r.pushSkipped {
		t.Fatalf("unexpected route without push channel: %+v", r)
	}
}
