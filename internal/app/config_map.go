package app

import (
	"advert/internal/broadcast"
	"advert/internal/config"
	"advert/pkg/logx"
)

func mapLogConfig(cfg *config.Config) logx.Config {
	if cfg == nil {
		return logx.Config{Level: "info", Console: true}
	}
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapChatConfig(cfg *config.Config) (broadcast.Config, error) {
	if cfg == nil {
		return broadcast.Config{}, nil
	}
	c := cfg.Chat
	timeout, err := c.Redis.PublishTimeout()
	if err != nil {
		return broadcast.Config{}, err
	}
	return broadcast.Config{
		Driver:     c.Driver,
		RatePerSec: c.RatePerSec,
		Burst:      c.Burst,
		Redis: broadcast.RedisConfig{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Channel:  c.Redis.Channel,
			Timeout:  timeout,
		},
	}, nil
}
