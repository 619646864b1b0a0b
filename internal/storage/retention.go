package storage

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	logx "github.com/redlitmus-in/metersquare-notify/pkg/logx"
)

// Sweeper prunes old read notifications on a cron schedule so the persisted
// panel list doesn't grow forever.
type Sweeper struct {
	store    Store
	log      logx.Logger
	schedule string
	maxAge   time.Duration
	c        *cron.Cron
}

// NewSweeper builds a sweeper. schedule defaults to "@hourly" and maxAge to
// 30 days when zero.
func NewSweeper(store Store, schedule string, maxAge time.Duration, log logx.Logger) *Sweeper {
	if schedule == "" {
		schedule = "@hourly"
	}
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Sweeper{store: store, log: log, schedule: schedule, maxAge: maxAge}
}

func (s *Sweeper) Start() error {
	if s.store == nil {
		return nil
	}
	s.c = cron.New()
	_, err := s.c.AddFunc(s.schedule, s.sweep)
	if err != nil {
		return err
	}
	s.c.Start()
	s.log.Debug("retention sweeper started", logx.String("schedule", s.schedule), logx.Duration("max_age", s.maxAge))
	return nil
}

func (s *Sweeper) Stop() {
	if s.c != nil {
		<-s.c.Stop().Done()
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := s.store.PruneRead(ctx, time.Now().Add(-s.maxAge))
	if err != nil {
		s.log.Warn("retention sweep failed", logx.Err(err))
		return
	}
	if n > 0 {
		s.log.Info("retention sweep removed read notifications", logx.Int("removed", n))
	}
}
