package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseDefaultsWhenKeysAbsent(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.toml", "[Main]\n")

	cfg, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Main.ChatPrefix != DefaultChatPrefix {
		t.Fatalf("ChatPrefix = %q, want %q", cfg.Main.ChatPrefix, DefaultChatPrefix)
	}
	if cfg.Main.AdInterval != DefaultAdInterval {
		t.Fatalf("AdInterval = %v, want %v", cfg.Main.AdInterval, DefaultAdInterval)
	}
	if !reflect.DeepEqual(cfg.Main.Ads, DefaultAds()) {
		t.Fatalf("Ads = %q, want defaults", cfg.Main.Ads)
	}
	if cfg.Chat.Driver != DefaultChatDriver {
		t.Fatalf("Chat.Driver = %q", cfg.Chat.Driver)
	}
}

func TestParseFormats(t *testing.T) {
	t.Parallel()
	want := Main{ChatPrefix: "[S]", AdInterval: 30, Ads: []string{"A", "B"}}
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name:    "toml",
			file:    "config.toml",
			content: "[Main]\nChatPrefix = \"[S]\"\nAdInterval = 30\nAds = [\"A\", \"B\"]\n",
		},
		{
			name:    "toml float interval",
			file:    "config.toml",
			content: "[Main]\nChatPrefix = \"[S]\"\nAdInterval = 30.0\nAds = [\"A\", \"B\"]\n",
		},
		{
			name:    "yaml",
			file:    "config.yaml",
			content: "Main:\n  ChatPrefix: \"[S]\"\n  AdInterval: 30\n  Ads:\n    - A\n    - B\n",
		},
		{
			name:    "json",
			file:    "config.json",
			content: `{"Main": {"ChatPrefix": "[S]", "AdInterval": 30, "Ads": ["A", "B"]}}`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := Parse(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if !cfg.Main.Equal(want) {
				t.Fatalf("Main = %+v, want %+v", cfg.Main, want)
			}
		})
	}
}

func TestParseExplicitEmptyAds(t *testing.T) {
	t.Parallel()
	cfg, err := Parse(writeFile(t, "config.toml", "[Main]\nAds = []\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Main.Ads == nil || len(cfg.Main.Ads) != 0 {
		t.Fatalf("Ads = %#v, want empty non-nil", cfg.Main.Ads)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "malformed toml", file: "config.toml", content: "[Main\nAds = \n"},
		{name: "malformed yaml", file: "config.yaml", content: "Main: [\n"},
		{name: "malformed json", file: "config.json", content: `{"Main": `},
		{name: "trailing json", file: "config.json", content: `{} {}`},
		{name: "unknown key", file: "config.toml", content: "[Main]\nInterval = 5\n"},
		{name: "zero interval", file: "config.toml", content: "[Main]\nAdInterval = 0\n"},
		{name: "negative interval", file: "config.toml", content: "[Main]\nAdInterval = -1.5\n"},
		{name: "interval overflows duration", file: "config.toml", content: "[Main]\nAdInterval = 1e11\n"},
		{name: "wrong type", file: "config.toml", content: "[Main]\nAds = \"A\"\n"},
		{name: "negative rate", file: "config.toml", content: "[Chat]\nRatePerSec = -1\n"},
		{name: "bad redis timeout", file: "config.toml", content: "[Chat.Redis]\nTimeout = \"soon\"\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, tt.file, tt.content)
			_, err := Parse(path)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse error = %v, want *ParseError", err)
			}
			if pe.Path != path {
				t.Fatalf("ParseError.Path = %q, want %q", pe.Path, path)
			}
		})
	}
}

func TestParseMissingFile(t *testing.T) {
	t.Parallel()
	_, err := Parse(filepath.Join(t.TempDir(), "nope.toml"))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("ParseError should wrap os.ErrNotExist, got %v", err)
	}
}

func TestParseNormalizesNFC(t *testing.T) {
	t.Parallel()
	// "e" + combining acute accent composes to U+00E9.
	cfg, err := Parse(writeFile(t, "config.json", `{"Main": {"Ads": ["Cafe\u0301"]}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Main.Ads[0] != "Caf\u00e9" {
		t.Fatalf("Ads[0] = %q, want NFC form", cfg.Main.Ads[0])
	}
}

func TestMainInterval(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   float64
		want time.Duration
	}{
		{60, time.Minute},
		{0.5, 500 * time.Millisecond},
		{0, 0},
		{-3, 0},
		{MaxAdInterval, time.Duration(MaxAdInterval) * time.Second},
		{1e11, 0},
	}
	for _, tt := range tests {
		if got := (Main{AdInterval: tt.in}).Interval(); got != tt.want {
			t.Fatalf("Interval(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()
	oldCfg := Default()
	newCfg := Default()
	newCfg.Main.Ads = []string{"only"}
	newCfg.Chat.Redis.Password = "secret"

	changed, attrs := SummarizeConfigChange(&oldCfg, &newCfg)
	if !reflect.DeepEqual(changed, []string{"chat", "main"}) {
		t.Fatalf("changed = %v", changed)
	}
	if len(attrs) == 0 {
		t.Fatal("expected attrs for changed sections")
	}

	changed, _ = SummarizeConfigChange(&oldCfg, &oldCfg)
	if len(changed) != 0 {
		t.Fatalf("identical configs reported changes: %v", changed)
	}
}
