package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/text/unicode/norm"
)

// Parse reads path and binds it on top of Default().
//
// Any failure (missing file, malformed content, unknown keys, invalid values)
// is returned as *ParseError.
func Parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	cfg, err := decode(path, b)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return cfg, nil
}

func decode(path string, b []byte) (*Config, error) {
	jb, _, err := coerceToJSONBytes(path, b)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, errors.New("invalid config: trailing data")
		}
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	normalize(&cfg)
	return &cfg, nil
}

// Validate checks the values the binder is responsible for.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	iv := cfg.Main.AdInterval
	if math.IsNaN(iv) || math.IsInf(iv, 0) || iv <= 0 {
		return fmt.Errorf("Main.AdInterval: must be > 0, got %v", iv)
	}
	if iv > MaxAdInterval {
		return fmt.Errorf("Main.AdInterval: must be <= %v, got %v", MaxAdInterval, iv)
	}
	if cfg.Chat.RatePerSec < 0 {
		return fmt.Errorf("Chat.RatePerSec: must be >= 0, got %d", cfg.Chat.RatePerSec)
	}
	if cfg.Chat.Burst < 0 {
		return fmt.Errorf("Chat.Burst: must be >= 0, got %d", cfg.Chat.Burst)
	}
	if _, err := cfg.Chat.Redis.PublishTimeout(); err != nil {
		return fmt.Errorf("Chat.Redis.Timeout: %w", err)
	}
	return nil
}

// normalize puts chat text into NFC so game clients get composed glyphs.
func normalize(cfg *Config) {
	cfg.Main.ChatPrefix = norm.NFC.String(cfg.Main.ChatPrefix)
	if cfg.Main.Ads == nil {
		cfg.Main.Ads = []string{}
	}
	for i, ad := range cfg.Main.Ads {
		cfg.Main.Ads[i] = norm.NFC.String(ad)
	}
}
