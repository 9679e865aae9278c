package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	applog "shopfront/internal/log"

	"go.uber.org/zap"
)

const ClearChannel = "shopfront:session:clear"

// RedisBus broadcasts clear signals to every instance sharing a Redis.
type RedisBus struct {
	rdb     *redis.Client
	channel string
}

func NewRedisBus(ctx context.Context, redisURL string) (*RedisBus, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("session: invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("session: redis ping: %w", err)
	}
	return &RedisBus{rdb: rdb, channel: ClearChannel}, nil
}

func (b *RedisBus) Publish(ctx context.Context, sig Signal) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, fn func(Signal)) error {
	ps := b.rdb.Subscribe(ctx, b.channel)
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("session: subscribe %s: %w", b.channel, err)
	}
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var sig Signal
			if err := json.Unmarshal([]byte(m.Payload), &sig); err != nil {
				applog.L().Warn("session.bus.bad_payload", zap.String("payload", m.Payload))
				continue
			}
			fn(sig)
		}
	}
}

func (b *RedisBus) Close() error { return b.rdb.Close() }
