package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/redlitmus-in/metersquare-notify/internal/config"
	"github.com/redlitmus-in/metersquare-notify/internal/eventbus"
	"github.com/redlitmus-in/metersquare-notify/internal/notify"
	"github.com/redlitmus-in/metersquare-notify/internal/presenter/wshub"
	"github.com/redlitmus-in/metersquare-notify/internal/push/telegram"
	"github.com/redlitmus-in/metersquare-notify/internal/storage"
	logx "github.com/redlitmus-in/metersquare-notify/pkg/logx"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./notifyd.yaml", "path to config yaml")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfgPath); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, logCloser := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	defer logCloser.Close()

	storeCfg, err := buildStorageConfig(cfg.Storage)
	if err != nil {
		return err
	}
	store, err := storage.Open(storeCfg, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	var sweeper *storage.Sweeper
	if store != nil && cfg.Storage.Retention.Enabled {
		maxAge, err := config.ParseDurationOrDefault("storage.retention.max_age", cfg.Storage.Retention.MaxAge, 30*24*time.Hour)
		if err != nil {
			return err
		}
		sweeper = storage.NewSweeper(store, cfg.Storage.Retention.Schedule, maxAge, log)
		if err := sweeper.Start(); err != nil {
			return fmt.Errorf("start retention sweeper: %w", err)
		}
		defer sweeper.Stop()
	}

	var push notify.PushChannel
	if cfg.Push.Enabled {
		tg, err := telegram.New(telegram.Config{Token: cfg.Push.Token, ChatID: cfg.Push.ChatID}, log)
		if err != nil {
			// Degraded, not fatal: hidden receivers fall back to presenter-only.
			log.Warn("push channel unavailable", logx.Err(err))
		} else {
			push = tg
		}
	}

	hub := wshub.New(log)
	bus := eventbus.New()

	notifyCfg, err := buildNotifyConfig(cfg.Notify)
	if err != nil {
		return err
	}
	var dispatchStore notify.Store
	if store != nil {
		dispatchStore = store
	}
	dispatcher := notify.New(notifyCfg, notify.Deps{
		Log:       log,
		Bus:       bus,
		Store:     dispatchStore,
		Presenter: hub,
		Push:      push,
		Probe:     hub,
	})
	dispatcher.Init(ctx)

	// Hot-reload the middleware tunables on config file changes.
	go func() {
		err := config.Watch(ctx, cfgPath, log, func(next *config.Config) {
			nc, err := buildNotifyConfig(next.Notify)
			if err != nil {
				log.Warn("reloaded config rejected", logx.Err(err))
				return
			}
			dispatcher.Apply(nc)
		})
		if err != nil {
			log.Warn("config watch stopped", logx.Err(err))
		}
	}()

	addr := cfg.HTTP.Addr
	if addr == "" {
		addr = "127.0.0.1:8737"
	}
	srv := &http.Server{
		Addr:        addr,
		Handler:     newRouter(dispatcher, store, hub),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", logx.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	log.Info("notifyd ready",
		logx.String("storage", cfg.Storage.Driver),
		logx.Bool("push", push != nil),
		logx.Duration("min_interval", notifyCfg.MinInterval))

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	if err := dispatcher.Close(shutCtx); err != nil {
		log.Warn("dispatcher close timed out", logx.Err(err))
	}
	log.Info("notifyd stopped")
	return nil
}

func buildNotifyConfig(nc config.NotifyConfig) (notify.Config, error) {
	minInterval, err := config.ParseDurationOrDefault("notify.min_interval", nc.MinInterval, 2*time.Second)
	if err != nil {
		return notify.Config{}, err
	}
	dedupWindow, err := config.ParseDurationOrDefault("notify.dedup_window", nc.DedupWindow, 5*time.Second)
	if err != nil {
		return notify.Config{}, err
	}
	return notify.Config{
		ActorID:     nc.ActorID,
		MinInterval: minInterval,
		QueueSize:   nc.QueueSize,
		DedupIDs:    nc.DedupIDs,
		DedupRecent: nc.DedupRecent,
		DedupWindow: dedupWindow,
		MaxTitle:    nc.MaxTitle,
		MaxBody:     nc.MaxBody,
		MaxMeta:     nc.MaxMeta,
	}, nil
}

func buildStorageConfig(sc config.StorageConfig) (storage.Config, error) {
	busy, err := config.ParseDurationField("storage.busy_timeout", sc.BusyTimeout)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Driver:        sc.Driver,
		Path:          sc.Path,
		BusyTimeout:   busy,
		RedisAddr:     sc.Redis.Addr,
		RedisPassword: sc.Redis.Password,
		RedisDB:       sc.Redis.DB,
	}, nil
}
