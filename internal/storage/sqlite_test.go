package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/redlitmus-in/metersquare-notify/internal/notify"
	logx "github.com/redlitmus-in/metersquare-notify/pkg/logx"
)

func openTestSQLite(t *testing.T) Store {
	t.Helper()
	s, err := Open(Config{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "notify.db"),
		BusyTimeout: time.Second,
	}, logx.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()
	s := openTestSQLite(t)
	ctx := context.Background()

	ev := notify.Event{
		ID:           "ev-1",
		Kind:         notify.KindApproval,
		Title:        "Change request approved",
		Body:         "CR-104 moved to execution",
		Priority:     notify.PriorityHigh,
		CreatedAt:    time.Now().Add(-time.Minute),
		OriginatorID: "u-2",
		DocumentID:   "CR-104",
		ActionURL:    "/requests/104",
		WorkflowStep: "execution",
	}
	if err := s.Append(ctx, ev); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListRecent returned %d events, want 1", len(got))
	}
	e := got[0]
	if e.ID != ev.ID || e.Kind != ev.Kind || e.Title != ev.Title || e.Body != ev.Body {
		t.Fatalf("round trip mismatch: %+v", e)
	}
	if e.Priority != ev.Priority || e.OriginatorID != "u-2" || e.DocumentID != "CR-104" {
		t.Fatalf("round trip mismatch: %+v", e)
	}
	if e.WorkflowStep != "execution" || e.ActionURL != "/requests/104" {
		t.Fatalf("round trip mismatch: %+v", e)
	}
	if e.Read || !e.ReadAt.IsZero() {
		t.Fatalf("fresh event already read: %+v", e)
	}
}

func TestSQLiteAppendConflictIgnored(t *testing.T) {
	t.Parallel()
	s := openTestSQLite(t)
	ctx := context.Background()

	ev := notify.Event{ID: "dup", Title: "first", Body: "b"}
	if err := s.Append(ctx, ev); err != nil {
		t.Fatalf("Append: %v", err)
	}
	ev.Title = "second"
	if err := s.Append(ctx, ev); err != nil {
		t.Fatalf("conflicting Append: %v", err)
	}

	got, _ := s.ListRecent(ctx, 0)
	if len(got) != 1 || got[0].Title != "first" {
		t.Fatalf("conflict not ignored: %+v", got)
	}
}

func TestSQLiteMarkReadAndPrune(t *testing.T) {
	t.Parallel()
	s := openTestSQLite(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	for i, created := range []time.Time{old, old, time.Now()} {
		err := s.Append(ctx, notify.Event{
			ID: fmt.Sprintf("e%d", i), Title: fmt.Sprintf("t%d", i), Body: "b", CreatedAt: created,
		})
		if err != nil {
			t.Fatalf("Append e%d: %v", i, err)
		}
	}

	if err := s.MarkRead(ctx, "e0"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	removed, err := s.PruneRead(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneRead: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1 (only old read rows)", removed)
	}

	if err := s.MarkAllRead(ctx); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	got, _ := s.ListRecent(ctx, 0)
	if len(got) != 2 {
		t.Fatalf("%d rows after prune, want 2", len(got))
	}
	for _, e := range got {
		if !e.Read || e.ReadAt.IsZero() {
			t.Fatalf("row %s not marked read: %+v", e.ID, e)
		}
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, _ = s.ListRecent(ctx, 0)
	if len(got) != 0 {
		t.Fatalf("%d rows after Clear", len(got))
	}
}

func TestSQLiteRequiresPath(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "sqlite"}, logx.Nop()); err == nil {
		t.Fatal("Open accepted an empty sqlite path")
	}
}
