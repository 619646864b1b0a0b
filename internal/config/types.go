package config

// Config is the full notifyd configuration.
//
// YAML and JSON are both accepted; unknown fields are rejected so typos
// surface at startup instead of silently using defaults.
type Config struct {
	Logging LoggingConfig `json:"logging"`
	Notify  NotifyConfig  `json:"notify"`
	Storage StorageConfig `json:"storage"`
	Push    PushConfig    `json:"push,omitempty"`
	HTTP    HTTPConfig    `json:"http,omitempty"`
}

type LoggingConfig struct {
	Level   string `json:"level,omitempty"`
	Console bool   `json:"console"`
	File    struct {
		Enabled bool   `json:"enabled"`
		Path    string `json:"path,omitempty"`
	} `json:"file,omitempty"`
}

// NotifyConfig controls the dispatch middleware.
//
// All durations are Go duration strings (e.g. "500ms", "2s", "1m").
//
// Defaults (when fields are omitted/zero):
//   - min_interval: "2s"
//   - queue_size: 1000
//   - dedup_ids: 100
//   - dedup_recent: 10
//   - dedup_window: "5s"
//   - max_title: 120
//   - max_body: 500
//   - max_meta: 300
type NotifyConfig struct {
	ActorID     string `json:"actor_id,omitempty"`
	MinInterval string `json:"min_interval,omitempty"`
	QueueSize   int    `json:"queue_size,omitempty"`
	DedupIDs    int    `json:"dedup_ids,omitempty"`
	DedupRecent int    `json:"dedup_recent,omitempty"`
	DedupWindow string `json:"dedup_window,omitempty"`
	MaxTitle    int    `json:"max_title,omitempty"`
	MaxBody     int    `json:"max_body,omitempty"`
	MaxMeta     int    `json:"max_meta,omitempty"`
}

// StorageConfig selects the notification store backend.
//
// Driver values: "sqlite", "redis", "memory". Empty or "none" disables
// persistence (the middleware still dispatches, nothing is retained).
type StorageConfig struct {
	Driver      string      `json:"driver"`
	Path        string      `json:"path,omitempty"`         // sqlite file path
	BusyTimeout string      `json:"busy_timeout,omitempty"` // sqlite; Go duration string
	Redis       RedisConfig `json:"redis,omitempty"`
	Retention   Retention   `json:"retention,omitempty"`
}

type RedisConfig struct {
	Addr     string `json:"addr,omitempty"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db,omitempty"`
}

// Retention prunes old read notifications on a cron schedule.
type Retention struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule,omitempty"` // cron expression; default "@hourly"
	MaxAge   string `json:"max_age,omitempty"`  // Go duration string; default "720h"
}

// PushConfig controls the out-of-app alert channel (Telegram).
type PushConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token,omitempty"`
	ChatID  int64  `json:"chat_id,omitempty"`
}

type HTTPConfig struct {
	Addr string `json:"addr,omitempty"` // default "127.0.0.1:8737"
}
