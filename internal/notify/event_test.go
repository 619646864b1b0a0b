package notify

import (
	"strings"
	"testing"
	"time"
)

func TestSanitizedDefaults(t *testing.T) {
	t.Parallel()
	cfg := Config{}.withDefaults()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ev := sanitized(Event{Title: "budget revised"}, cfg, now)
	if ev.ID == "" {
		t.Fatal("expected generated id")
	}
	if ev.Kind != KindInfo {
		t.Fatalf("Kind = %q, want %q", ev.Kind, KindInfo)
	}
	if ev.Priority != PriorityMedium {
		t.Fatalf("Priority = %q, want %q", ev.Priority, PriorityMedium)
	}
	if !ev.CreatedAt.Equal(now) {
		t.Fatalf("CreatedAt = %v, want %v", ev.CreatedAt, now)
	}
}

func TestSanitizedDoesNotMutateOriginal(t *testing.T) {
	t.Parallel()
	cfg := Config{MaxTitle: 5}.withDefaults()
	orig := Event{ID: "n1", Title: "a very long title"}
	_ = sanitized(orig, cfg, time.Now())
	if orig.Title != "a very long title" {
		t.Fatalf("original mutated: %q", orig.Title)
	}
}

func TestSanitizedClampsLengths(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		title string
		max   int
		want  int // rune count after clamp
	}{
		{name: "under limit", title: "short", max: 10, want: 5},
		{name: "at limit", title: "exactly10!", max: 10, want: 10},
		{name: "over limit", title: strings.Repeat("x", 40), max: 10, want: 10},
		{name: "multibyte over limit", title: strings.Repeat("é", 40), max: 10, want: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{MaxTitle: tt.max}.withDefaults()
			ev := sanitized(Event{ID: "n", Title: tt.title}, cfg, time.Now())
			if got := len([]rune(ev.Title)); got != tt.want {
				t.Fatalf("title rune length = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSanitizedKeepsAssignedID(t *testing.T) {
	t.Parallel()
	cfg := Config{}.withDefaults()
	ev := sanitized(Event{ID: "boq-42", Title: "t"}, cfg, time.Now())
	if ev.ID != "boq-42" {
		t.Fatalf("ID = %q, want boq-42", ev.ID)
	}
}

func TestPriorityForKind(t *testing.T) {
	t.Parallel()
	tests := []struct {
		kind Kind
		want Priority
	}{
		{KindError, PriorityUrgent},
		{KindWarning, PriorityHigh},
		{KindInfo, PriorityMedium},
		{KindApproval, PriorityMedium},
		{KindAssignment, PriorityMedium},
	}
	for _, tt := range tests {
		if got := priorityForKind(tt.kind); got != tt.want {
			t.Fatalf("priorityForKind(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
