package broadcast

import (
	"fmt"
	"strings"

	"advert/pkg/logx"
)

// Open builds the configured sink, wrapped in a rate limiter when
// cfg.RatePerSec > 0.
func Open(cfg Config, log logx.Logger) (Sink, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))

	var (
		sink Sink
		err  error
	)
	switch driver {
	case "", "console":
		sink = NewConsole(logx.Stdout())
	case "redis":
		sink, err = NewRedis(cfg.Redis, log.With(logx.String("driver", "redis")))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RatePerSec > 0 {
		sink = NewLimited(sink, cfg.RatePerSec, cfg.Burst, log)
	}
	return sink, nil
}
