package config

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "github.com/redlitmus-in/metersquare-notify/pkg/logx"
)

// Watch re-reads the config file whenever it changes and calls onReload with
// the parsed result. Writes are debounced so editors that emit several events
// per save trigger a single reload; unchanged content is skipped.
//
// Watch blocks until ctx is cancelled. Parse failures are logged and the
// previous config stays in effect.
func Watch(ctx context.Context, path string, log logx.Logger, onReload func(*Config)) error {
	dir := filepath.Dir(path)
	file := filepath.Base(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Debug("config watcher started", logx.String("dir", dir), logx.String("file", file))

	var (
		timerMu  sync.Mutex
		timer    *time.Timer
		lastHash [32]byte
	)
	if b, err := os.ReadFile(path); err == nil {
		lastHash = sha256.Sum256(b)
	}

	// debounce to avoid reloading on partial writes
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(250*time.Millisecond, func() {
			b, err := os.ReadFile(path)
			if err != nil {
				log.Warn("config read failed", logx.String("path", path), logx.Err(err))
				return
			}
			h := sha256.Sum256(b)
			timerMu.Lock()
			unchanged := h == lastHash
			if !unchanged {
				lastHash = h
			}
			timerMu.Unlock()
			if unchanged {
				return
			}

			cfg, err := Load(path)
			if err != nil {
				log.Warn("config parse failed; keeping previous", logx.String("path", path), logx.Err(err))
				return
			}
			log.Info("config reloaded", logx.String("path", path))
			onReload(cfg)
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			// Compare by basename; editors often rename-and-replace.
			if strings.EqualFold(filepath.Base(ev.Name), file) {
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Chmod) != 0 {
					debounce()
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				log.Warn("config watch error", logx.Err(err), logx.String("dir", dir))
			}
		}
	}
}
