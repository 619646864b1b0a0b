package notify

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind classifies what a notification is about.
type Kind string

const (
	KindInfo       Kind = "info"
	KindWarning    Kind = "warning"
	KindError      Kind = "error"
	KindSuccess    Kind = "success"
	KindApproval   Kind = "approval"
	KindRejection  Kind = "rejection"
	KindAssignment Kind = "assignment"
)

func (k Kind) valid() bool {
	switch k {
	case KindInfo, KindWarning, KindError, KindSuccess, KindApproval, KindRejection, KindAssignment:
		return true
	}
	return false
}

// Priority drives channel behavior and on-screen duration.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Weight maps a priority to a comparable rank (low=1 .. urgent=4).
func (p Priority) Weight() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Event is the unit of work flowing through the dispatcher.
//
// ID is the dedup key and is immutable once assigned. The recognized
// metadata fields are typed rather than an open map so misspelled keys
// fail at compile time.
type Event struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Priority  Priority  `json:"priority"`
	CreatedAt time.Time `json:"created_at"`

	// OriginatorID identifies the acting user; an event whose originator
	// matches the dispatcher's actor is never re-delivered to that actor.
	OriginatorID string `json:"originator_id,omitempty"`
	TargetRole   string `json:"target_role,omitempty"`
	TargetUserID string `json:"target_user_id,omitempty"`

	DocumentID   string `json:"document_id,omitempty"`
	ActionURL    string `json:"action_url,omitempty"`
	WorkflowStep string `json:"workflow_step,omitempty"`

	Read   bool      `json:"read,omitempty"`
	ReadAt time.Time `json:"read_at,omitempty"`
}

// sanitized returns a normalized copy of ev: missing fields are
// default-filled and string fields are clamped to the configured maxima.
// The original event is never mutated.
func sanitized(ev Event, cfg Config, now time.Time) Event {
	out := ev
	if strings.TrimSpace(out.ID) == "" {
		out.ID = uuid.NewString()
	}
	if !out.Kind.valid() {
		out.Kind = KindInfo
	}
	if !out.Priority.valid() {
		out.Priority = PriorityMedium
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.Title = clamp(strings.TrimSpace(out.Title), cfg.MaxTitle)
	out.Body = clamp(strings.TrimSpace(out.Body), cfg.MaxBody)
	out.DocumentID = clamp(out.DocumentID, cfg.MaxMeta)
	out.ActionURL = clamp(out.ActionURL, cfg.MaxMeta)
	out.WorkflowStep = clamp(out.WorkflowStep, cfg.MaxMeta)
	return out
}

// clamp truncates s to at most max runes. Rune-based so multi-byte input
// never gets split mid-character.
func clamp(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// priorityForKind picks the default priority used by SendSystem.
func priorityForKind(k Kind) Priority {
	switch k {
	case KindError:
		return PriorityUrgent
	case KindWarning:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}
