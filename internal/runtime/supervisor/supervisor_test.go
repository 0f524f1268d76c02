package supervisor

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func stopCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestGoStopsOnCancel(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	started := make(chan struct{})
	s.Go("config.watch", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started
	if got := s.Running(); !reflect.DeepEqual(got, []string{"config.watch"}) {
		t.Fatalf("Running = %v", got)
	}
	if err := s.Stop(stopCtx(t)); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(s.Running()) != 0 {
		t.Fatalf("Running after Stop = %v", s.Running())
	}
}

func TestGoRecordsFirstErrorAndCancels(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	s := New(context.Background(), WithCancelOnError(true))
	s.Go("a", func(context.Context) error { return boom })

	select {
	case <-s.Context().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled on error")
	}
	err := s.Wait(stopCtx(t))
	if !errors.Is(err, boom) {
		t.Fatalf("Wait error = %v, want boom", err)
	}
}

func TestGoRecoversPanic(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	s.Go0("panicky", func(context.Context) { panic("bad tick") })
	if err := s.Wait(stopCtx(t)); err == nil {
		t.Fatal("expected panic to surface as error")
	}
	if s.Panics() != 1 {
		t.Fatalf("Panics = %d", s.Panics())
	}
}

func TestGoRestartRetriesUntilSuccess(t *testing.T) {
	t.Parallel()
	s := New(context.Background())
	var runs atomic.Int32
	s.GoRestart("flaky", time.Millisecond, 5*time.Millisecond, func(context.Context) error {
		if runs.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err := s.Wait(stopCtx(t)); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if runs.Load() != 3 {
		t.Fatalf("runs = %d, want 3", runs.Load())
	}
}

func TestGoRestartStopsCleanlyOnCancel(t *testing.T) {
	t.Parallel()
	s := New(context.Background(), WithCancelOnError(true))
	var runs atomic.Int32
	s.GoRestart("config.watch", time.Millisecond, 2*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return errors.New("watcher broken")
	})
	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("runs = %d, want restarts", runs.Load())
		}
		time.Sleep(time.Millisecond)
	}
	if got := s.Running(); len(got) != 1 || got[0] != "config.watch" {
		t.Fatalf("Running = %v", got)
	}
	// Restart errors never cancel the supervisor.
	if err := s.Stop(stopCtx(t)); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
