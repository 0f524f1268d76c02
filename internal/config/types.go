package config

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Config is the whole host configuration document.
//
// Only Main belongs to the advert plugin; Logging and Chat configure the host
// runtime the plugin is loaded into.
type Config struct {
	Main    Main          `json:"Main"`
	Logging LoggingConfig `json:"Logging"`
	Chat    ChatConfig    `json:"Chat"`
}

// Main is the advert plugin's configuration model.
type Main struct {
	ChatPrefix string `json:"ChatPrefix"`
	// AdInterval is the delay between two ads, in seconds.
	AdInterval float64  `json:"AdInterval"`
	Ads        []string `json:"Ads"`
}

// MaxAdInterval is the longest interval, in seconds, a time.Duration can hold.
const MaxAdInterval = float64(math.MaxInt64 / int64(time.Second))

// Interval converts AdInterval to a time.Duration. Values outside
// (0, MaxAdInterval] map to 0.
func (m Main) Interval() time.Duration {
	if m.AdInterval <= 0 || m.AdInterval > MaxAdInterval || math.IsNaN(m.AdInterval) {
		return 0
	}
	return time.Duration(m.AdInterval * float64(time.Second))
}

// Equal reports whether two Main sections would produce the same rotation.
func (m Main) Equal(o Main) bool {
	if m.ChatPrefix != o.ChatPrefix || m.AdInterval != o.AdInterval || len(m.Ads) != len(o.Ads) {
		return false
	}
	for i := range m.Ads {
		if m.Ads[i] != o.Ads[i] {
			return false
		}
	}
	return true
}

type LoggingConfig struct {
	Level   string      `json:"Level"`
	Console bool        `json:"Console"`
	File    LoggingFile `json:"File"`
}

type LoggingFile struct {
	Enabled bool   `json:"Enabled"`
	Path    string `json:"Path"`
}

// ChatConfig selects how the host delivers chat messages.
//
// Driver values:
//   - "console" (default): print to stdout with ANSI colors
//   - "redis": PUBLISH to Redis.Channel for an external game bridge
type ChatConfig struct {
	Driver string `json:"Driver"`
	// RatePerSec caps outgoing chat messages. 0 disables the limiter.
	RatePerSec int         `json:"RatePerSec"`
	Burst      int         `json:"Burst,omitempty"`
	Redis      RedisConfig `json:"Redis"`
}

type RedisConfig struct {
	Addr     string `json:"Addr"`
	Password string `json:"Password,omitempty"` // never logged
	DB       int    `json:"DB"`
	Channel  string `json:"Channel"`
	// Timeout is a Go duration string applied to each publish (default "2s").
	Timeout string `json:"Timeout,omitempty"`
}

// PublishTimeout parses Timeout. Empty means 0 (driver default).
func (r RedisConfig) PublishTimeout() (time.Duration, error) {
	s := strings.TrimSpace(r.Timeout)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be > 0, got %s", s)
	}
	return d, nil
}
