package broadcast

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"advert/pkg/logx"
)

const defaultPublishTimeout = 2 * time.Second

// Redis publishes chat lines on a pub/sub channel.
type Redis struct {
	log     logx.Logger
	client  *redis.Client
	channel string
	timeout time.Duration
}

// NewRedis creates the client and pings the server once. An unreachable
// server is logged, not fatal: publishes fail (and are logged) until it is up.
func NewRedis(cfg RedisConfig, log logx.Logger) (*Redis, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("chat.redis.addr is required for redis driver")
	}
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		return nil, errors.New("chat.redis.channel is required for redis driver")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		WriteTimeout: timeout,
		ReadTimeout:  timeout,
	})

	r := &Redis{log: log, client: client, channel: channel, timeout: timeout}
	fields := []logx.Field{logx.String("addr", addr), logx.Int("db", cfg.DB), logx.String("channel", channel)}
	if err := r.Ping(context.Background()); err != nil {
		log.Warn("redis unreachable at startup; publishes will fail until it is up", append(fields, logx.Err(err))...)
	} else {
		log.Info("redis chat sink ready", fields...)
	}
	return r, nil
}

func (r *Redis) SendChat(msg string) {
	if err := r.Publish(context.Background(), msg); err != nil {
		r.log.Warn("chat publish failed", logx.String("channel", r.channel), logx.Err(err))
	}
}

// Publish sends msg on the channel. Having no subscribers is not an error.
func (r *Redis) Publish(ctx context.Context, msg string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	n, err := r.client.Publish(ctx, r.channel, msg).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		r.log.Debug("chat published with no subscribers", logx.String("channel", r.channel))
	}
	return nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error { return r.client.Close() }
