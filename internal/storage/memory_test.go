package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redlitmus-in/metersquare-notify/internal/notify"
	logx "github.com/redlitmus-in/metersquare-notify/pkg/logx"
)

func TestMemoryAppendAndListRecent(t *testing.T) {
	t.Parallel()
	s := NewMemory()
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		err := s.Append(ctx, notify.Event{
			ID:        fmt.Sprintf("e%d", i),
			Title:     fmt.Sprintf("t%d", i),
			Body:      "b",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Append e%d: %v", i, err)
		}
	}

	got, err := s.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListRecent returned %d events, want 3", len(got))
	}
	// newest first
	for i, want := range []string{"e4", "e3", "e2"} {
		if got[i].ID != want {
			t.Fatalf("ListRecent[%d] = %q, want %q", i, got[i].ID, want)
		}
	}
}

func TestMemoryAppendIgnoresDuplicateID(t *testing.T) {
	t.Parallel()
	s := NewMemory()
	ctx := context.Background()

	ev := notify.Event{ID: "dup", Title: "t", Body: "b"}
	if err := s.Append(ctx, ev); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(ctx, ev); err != nil {
		t.Fatalf("second Append: %v", err)
	}
	got, _ := s.ListRecent(ctx, 0)
	if len(got) != 1 {
		t.Fatalf("store holds %d events, want 1", len(got))
	}
}

func TestMemoryMarkRead(t *testing.T) {
	t.Parallel()
	s := NewMemory()
	ctx := context.Background()
	_ = s.Append(ctx, notify.Event{ID: "a", Title: "t", Body: "b"})
	_ = s.Append(ctx, notify.Event{ID: "b", Title: "t2", Body: "b"})

	if err := s.MarkRead(ctx, "a"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	got, _ := s.ListRecent(ctx, 0)
	for _, e := range got {
		switch e.ID {
		case "a":
			if !e.Read || e.ReadAt.IsZero() {
				t.Fatalf("a not marked read: %+v", e)
			}
		case "b":
			if e.Read {
				t.Fatal("b marked read without request")
			}
		}
	}
}

func TestMemoryMarkAllReadAndClear(t *testing.T) {
	t.Parallel()
	s := NewMemory()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_ = s.Append(ctx, notify.Event{ID: fmt.Sprintf("e%d", i), Title: "t", Body: "b"})
	}

	if err := s.MarkAllRead(ctx); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	got, _ := s.ListRecent(ctx, 0)
	for _, e := range got {
		if !e.Read {
			t.Fatalf("event %s still unread", e.ID)
		}
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, _ = s.ListRecent(ctx, 0)
	if len(got) != 0 {
		t.Fatalf("store holds %d events after Clear", len(got))
	}
}

func TestMemoryPruneRead(t *testing.T) {
	t.Parallel()
	s := NewMemory()
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	fresh := time.Now()
	_ = s.Append(ctx, notify.Event{ID: "old-read", Title: "a", Body: "b", CreatedAt: old})
	_ = s.Append(ctx, notify.Event{ID: "old-unread", Title: "c", Body: "d", CreatedAt: old})
	_ = s.Append(ctx, notify.Event{ID: "fresh-read", Title: "e", Body: "f", CreatedAt: fresh})
	_ = s.MarkRead(ctx, "old-read")
	_ = s.MarkRead(ctx, "fresh-read")

	removed, err := s.PruneRead(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneRead: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	got, _ := s.ListRecent(ctx, 0)
	ids := map[string]bool{}
	for _, e := range got {
		ids[e.ID] = true
	}
	if ids["old-read"] {
		t.Fatal("old read notification survived pruning")
	}
	if !ids["old-unread"] || !ids["fresh-read"] {
		t.Fatalf("wrong survivors: %v", ids)
	}
}

func TestOpenDisabledDriver(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none"} {
		s, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil {
			t.Fatalf("Open(%q): %v", driver, err)
		}
		if s != nil {
			t.Fatalf("Open(%q) returned a store, want nil", driver)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "etcd"}, logx.Nop()); err == nil {
		t.Fatal("Open accepted an unknown driver")
	}
}
