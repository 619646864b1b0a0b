package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redlitmus-in/metersquare-notify/internal/notify"
	logx "github.com/redlitmus-in/metersquare-notify/pkg/logx"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures the notification store.
//
// Driver values:
//   - "memory": in-process only (lost on restart)
//   - "sqlite": SQLite database file
//   - "redis":  Redis-backed (shared across processes)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Store is the persisted notification list plus the maintenance hooks the
// retention sweeper needs. It embeds the collaborator contract the
// dispatcher consumes.
type Store interface {
	notify.Store

	// PruneRead deletes read notifications created before olderThan and
	// reports how many were removed.
	PruneRead(ctx context.Context, olderThan time.Time) (int, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "memory":
		return NewMemory(), nil
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	case "redis":
		return openRedis(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
