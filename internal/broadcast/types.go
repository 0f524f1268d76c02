package broadcast

import (
	"errors"
	"time"

	"advert/internal/host"
)

var ErrUnknownDriver = errors.New("unknown chat driver")

// Sink is a host.Chat that owns resources.
type Sink interface {
	host.Chat
	Close() error
}

// Config configures Open.
//
// If Driver is empty, "console" is used.
type Config struct {
	Driver     string
	RatePerSec int // 0 disables rate limiting
	Burst      int // defaults to RatePerSec
	Redis      RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
	Timeout  time.Duration // per publish; 0 means 2s
}
