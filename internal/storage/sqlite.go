package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/redlitmus-in/metersquare-notify/internal/notify"
	logx "github.com/redlitmus-in/metersquare-notify/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Append(ctx context.Context, ev notify.Event) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications(id, kind, title, body, priority, created_at, originator_id, target_role, target_user_id, document_id, action_url, workflow_step, read, read_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,0,NULL)
		 ON CONFLICT(id) DO NOTHING`,
		ev.ID, string(ev.Kind), ev.Title, ev.Body, string(ev.Priority),
		ev.CreatedAt.UTC().Format(time.RFC3339Nano),
		nullStr(ev.OriginatorID), nullStr(ev.TargetRole), nullStr(ev.TargetUserID),
		nullStr(ev.DocumentID), nullStr(ev.ActionURL), nullStr(ev.WorkflowStep),
	)
	return err
}

func (s *sqliteStore) MarkRead(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read=1, read_at=? WHERE id=? AND read=0`,
		time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	return err
}

func (s *sqliteStore) MarkAllRead(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read=1, read_at=? WHERE read=0`,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *sqliteStore) Clear(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM notifications`)
	return err
}

func (s *sqliteStore) ListRecent(ctx context.Context, n int) ([]notify.Event, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if n <= 0 {
		n = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, title, body, priority, created_at, originator_id, target_role, target_user_id, document_id, action_url, workflow_step, read, read_at
		 FROM notifications ORDER BY created_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []notify.Event
	for rows.Next() {
		var ev notify.Event
		var kind, priority, createdAt string
		var origin, role, user, doc, url, step, readAt sql.NullString
		var read int
		if err := rows.Scan(&ev.ID, &kind, &ev.Title, &ev.Body, &priority, &createdAt,
			&origin, &role, &user, &doc, &url, &step, &read, &readAt); err != nil {
			return nil, err
		}
		ev.Kind = notify.Kind(kind)
		ev.Priority = notify.Priority(priority)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			ev.CreatedAt = t
		}
		ev.OriginatorID = origin.String
		ev.TargetRole = role.String
		ev.TargetUserID = user.String
		ev.DocumentID = doc.String
		ev.ActionURL = url.String
		ev.WorkflowStep = step.String
		ev.Read = read != 0
		if readAt.Valid {
			if t, err := time.Parse(time.RFC3339Nano, readAt.String); err == nil {
				ev.ReadAt = t
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *sqliteStore) PruneRead(ctx context.Context, olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, ErrDisabled
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE read=1 AND created_at < ?`,
		olderThan.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
