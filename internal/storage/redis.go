package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/redlitmus-in/metersquare-notify/internal/notify"
	logx "github.com/redlitmus-in/metersquare-notify/pkg/logx"
)

const (
	redisKeyPrefix = "notify:ev:"
	redisIndexKey  = "notify:index"
)

// redisStore keeps each notification as a JSON value under notify:ev:<id>
// and a sorted set notify:index scored by creation time for recency queries.
type redisStore struct {
	rdb *redis.Client
	log logx.Logger
}

func openRedis(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil, errors.New("redis addr is required")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisStore{rdb: rdb, log: log}, nil
}

func (s *redisStore) Close() error { return s.rdb.Close() }

func (s *redisStore) Append(ctx context.Context, ev notify.Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.SetNX(ctx, redisKeyPrefix+ev.ID, b, 0)
	pipe.ZAdd(ctx, redisIndexKey, redis.Z{
		Score:  float64(ev.CreatedAt.UnixMilli()),
		Member: ev.ID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *redisStore) MarkRead(ctx context.Context, id string) error {
	ev, err := s.get(ctx, id)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}
	if ev.Read {
		return nil
	}
	ev.Read = true
	ev.ReadAt = time.Now()
	return s.put(ctx, ev)
}

func (s *redisStore) MarkAllRead(ctx context.Context) error {
	ids, err := s.rdb.ZRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.MarkRead(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *redisStore) Clear(ctx context.Context) error {
	ids, err := s.rdb.ZRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, redisKeyPrefix+id)
	}
	pipe.Del(ctx, redisIndexKey)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *redisStore) ListRecent(ctx context.Context, n int) ([]notify.Event, error) {
	if n <= 0 {
		n = 50
	}
	ids, err := s.rdb.ZRevRange(ctx, redisIndexKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]notify.Event, 0, len(ids))
	for _, id := range ids {
		ev, err := s.get(ctx, id)
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// index entry outlived the value; skip and let prune clean it
				continue
			}
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *redisStore) PruneRead(ctx context.Context, olderThan time.Time) (int, error) {
	ids, err := s.rdb.ZRangeByScore(ctx, redisIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", olderThan.UnixMilli()),
	}).Result()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, id := range ids {
		ev, err := s.get(ctx, id)
		if err != nil {
			if errors.Is(err, redis.Nil) {
				_, _ = s.rdb.ZRem(ctx, redisIndexKey, id).Result()
				continue
			}
			return removed, err
		}
		if !ev.Read {
			continue
		}
		pipe := s.rdb.TxPipeline()
		pipe.Del(ctx, redisKeyPrefix+id)
		pipe.ZRem(ctx, redisIndexKey, id)
		if _, err := pipe.Exec(ctx); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (s *redisStore) get(ctx context.Context, id string) (notify.Event, error) {
	var ev notify.Event
	b, err := s.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		return ev, err
	}
	if err := json.Unmarshal(b, &ev); err != nil {
		return ev, err
	}
	return ev, nil
}

func (s *redisStore) put(ctx context.Context, ev notify.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, redisKeyPrefix+ev.ID, b, 0).Err()
}
