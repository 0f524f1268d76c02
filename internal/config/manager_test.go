package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestManagerLoadAndGet(t *testing.T) {
	t.Parallel()
	m := NewConfigManager(writeFile(t, "config.toml", "[Main]\nAds = [\"A\"]\n"))
	if m.Get() != nil {
		t.Fatal("Get before Load should be nil")
	}
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Get() != cfg {
		t.Fatal("Get should return the committed config")
	}
}

func TestManagerReloadSkipsUnchanged(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.toml", "[Main]\nAds = [\"A\"]\n")
	m := NewConfigManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	published, err := m.Reload(context.Background())
	if err != nil || published {
		t.Fatalf("Reload unchanged = (%v, %v), want (false, nil)", published, err)
	}

	if err := os.WriteFile(path, []byte("[Main]\nAds = [\"B\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	published, err = m.Reload(context.Background())
	if err != nil || !published {
		t.Fatalf("Reload changed = (%v, %v), want (true, nil)", published, err)
	}
	select {
	case cfg := <-ch:
		if cfg.Main.Ads[0] != "B" {
			t.Fatalf("published Ads = %q", cfg.Main.Ads)
		}
	default:
		t.Fatal("expected a published config")
	}
}

func TestManagerReloadValidatorRejects(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.toml", "[Main]\nAds = [\"A\"]\n")
	m := NewConfigManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	boom := errors.New("boom")
	m.SetValidator(func(ctx context.Context, cfg *Config) error { return boom })

	if err := os.WriteFile(path, []byte("[Main]\nAds = [\"B\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Reload(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Reload error = %v, want validator error", err)
	}
	if got := m.Get().Main.Ads[0]; got != "A" {
		t.Fatalf("rejected config was committed: Ads[0] = %q", got)
	}
}

func TestManagerPublishKeepsLatest(t *testing.T) {
	t.Parallel()
	m := NewConfigManager("unused.toml")
	ch := m.Subscribe(1)
	first, second := &Config{}, &Config{}
	m.publish(first)
	m.publish(second)
	if got := <-ch; got != second {
		t.Fatal("slow subscriber should receive the latest config")
	}

	m.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatal("Unsubscribe should close the channel")
	}
	m.publish(first) // must not panic after unsubscribe
}

func TestManagerWatchPublishesOnWrite(t *testing.T) {
	path := writeFile(t, "config.toml", "[Main]\nAds = [\"A\"]\n")
	m := NewConfigManager(path)
	m.debounce = 20 * time.Millisecond
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	ch := m.Subscribe(4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Watch returned %v", err)
		}
	}()

	// Give the watcher a moment to register, then keep rewriting until the
	// change is observed (fsnotify setup time varies across platforms).
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case cfg := <-ch:
			if cfg.Main.Ads[0] != "B" {
				t.Fatalf("published Ads = %q, want [B]", cfg.Main.Ads)
			}
			return
		case <-tick.C:
			if err := os.WriteFile(path, []byte("[Main]\nAds = [\"B\"]\n"), 0o644); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatal("timed out waiting for watched reload")
		}
	}
}

func TestManagerWatchReportsBrokenWatch(t *testing.T) {
	t.Parallel()
	m := NewConfigManager(filepath.Join(t.TempDir(), "missing", "config.toml"))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Watch(ctx); err == nil {
		t.Fatal("Watch on a missing directory should fail so the caller can restart it")
	}
}

func TestManagerWatchReturnsNilOnCancel(t *testing.T) {
	t.Parallel()
	m := NewConfigManager(writeFile(t, "config.toml", "[Main]\n"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Watch(ctx); err != nil {
		t.Fatalf("Watch after cancel = %v, want nil", err)
	}
}
