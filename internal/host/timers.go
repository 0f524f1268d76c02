package host

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"advert/pkg/logx"
)

// constantDelay fires every d, without the whole-second rounding of cron.Every.
type constantDelay struct {
	d time.Duration
}

func (s constantDelay) Next(t time.Time) time.Time { return t.Add(s.d) }

type timerEntry struct {
	handle    Handle
	cronID    cron.EntryID
	every     time.Duration
	added     time.Time
	cancelled atomic.Bool
	fires     atomic.Uint64
}

// EntryInfo is a snapshot of one registered timer.
type EntryInfo struct {
	Handle Handle
	Every  time.Duration
	Added  time.Time
	Next   time.Time
	Prev   time.Time
	Fires  uint64
}

// Timers is the host's Scheduler.
type Timers struct {
	mu      sync.Mutex
	log     logx.Logger
	c       *cron.Cron
	entries map[Handle]*timerEntry
}

var _ Scheduler = (*Timers)(nil)

func NewTimers(log logx.Logger) *Timers {
	return &Timers{log: log, entries: map[Handle]*timerEntry{}}
}

// Start launches the cron loop. Calling Start twice is a no-op.
func (t *Timers) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.c != nil {
		return
	}
	cl := cronLogger{log: t.log}
	t.c = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl)))
	t.c.Start()
	t.log.Info("timers started")
}

// Stop cancels every entry and waits, bounded by ctx, for running callbacks
// to return.
func (t *Timers) Stop(ctx context.Context) error {
	t.mu.Lock()
	c := t.c
	t.c = nil
	for h, e := range t.entries {
		e.cancelled.Store(true)
		delete(t.entries, h)
	}
	t.mu.Unlock()

	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		t.log.Info("timers stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Timers) RepeatEverySeconds(seconds float64, fn func()) (Handle, error) {
	if fn == nil {
		return Handle{}, fmt.Errorf("repeat: nil callback")
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return Handle{}, fmt.Errorf("repeat every %v: %w", seconds, ErrInvalidInterval)
	}
	if seconds > MaxIntervalSeconds {
		return Handle{}, fmt.Errorf("repeat every %v: %w", seconds, ErrIntervalTooLong)
	}
	every := time.Duration(seconds * float64(time.Second))
	if every <= 0 {
		return Handle{}, fmt.Errorf("repeat every %v: %w", seconds, ErrInvalidInterval)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.c == nil {
		return Handle{}, ErrNotStarted
	}

	e := &timerEntry{handle: NewHandle(), every: every, added: time.Now()}
	job := cron.NewChain(cron.SkipIfStillRunning(cronLogger{log: t.log})).Then(cron.FuncJob(func() {
		// A tick dispatched just before Cancel must not run.
		if e.cancelled.Load() {
			return
		}
		e.fires.Add(1)
		fn()
	}))
	e.cronID = t.c.Schedule(constantDelay{d: every}, job)
	t.entries[e.handle] = e

	t.log.Debug("timer registered", logx.String("handle", e.handle.String()), logx.Duration("every", every))
	return e.handle, nil
}

func (t *Timers) Cancel(h Handle) {
	if !h.Valid() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[h]
	if !ok {
		return
	}
	e.cancelled.Store(true)
	delete(t.entries, h)
	if t.c != nil {
		t.c.Remove(e.cronID)
	}
	t.log.Debug("timer cancelled", logx.String("handle", h.String()), logx.Uint64("fires", e.fires.Load()))
}

// Active returns the number of live timers.
func (t *Timers) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Entries returns a snapshot of live timers, oldest first.
func (t *Timers) Entries() []EntryInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]EntryInfo, 0, len(t.entries))
	for _, e := range t.entries {
		info := EntryInfo{Handle: e.handle, Every: e.every, Added: e.added, Fires: e.fires.Load()}
		if t.c != nil {
			ce := t.c.Entry(e.cronID)
			info.Next, info.Prev = ce.Next, ce.Prev
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Added.Before(out[j].Added) })
	return out
}

// cronLogger adapts logx to cron.Logger. cron's info messages are chatty, so
// they go to debug.
type cronLogger struct {
	log logx.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if !l.log.Enabled(logx.LevelDebug) {
		return
	}
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(kvFields(keysAndValues), logx.Err(err))...)
}

func kvFields(kv []interface{}) []logx.Field {
	out := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			k = fmt.Sprint(kv[i])
		}
		out = append(out, logx.Any(k, kv[i+1]))
	}
	return out
}
