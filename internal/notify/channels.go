package notify

import "context"

// Presenter renders an in-app transient notice. Implementations must not
// block the caller; delivery is best-effort.
type Presenter interface {
	Show(ctx context.Context, ev Event)
}

// Permission is the push channel's authorization state.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// PushOptions carries the metadata a push backend may surface alongside
// the alert text.
type PushOptions struct {
	Priority   Priority
	DocumentID string
	ActionURL  string
}

// PushChannel delivers out-of-app alerts. Errors are absorbed by the
// dispatcher; a failed push never blocks the other channels.
type PushChannel interface {
	HasPermission(ctx context.Context) bool
	RequestPermission(ctx context.Context) Permission
	Show(ctx context.Context, title, body string, opt PushOptions) error
}

// VisibilityProbe reports whether the consuming surface is currently being
// observed. It is queried per event, never cached, since visibility can
// change between events.
type VisibilityProbe interface {
	IsForegrounded() bool
}

// Store is the persisted notification list. It is an external collaborator:
// the dispatcher appends, flips read flags, and seeds the content-dedup
// window from ListRecent at startup.
type Store interface {
	Append(ctx context.Context, ev Event) error
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Clear(ctx context.Context) error
	ListRecent(ctx context.Context, n int) ([]Event, error)
}
