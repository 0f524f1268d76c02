package advert

import (
	"errors"
	"sync"

	"advert/internal/host"
)

// fakeScheduler records registrations and fires them on demand.
type fakeScheduler struct {
	mu        sync.Mutex
	active    map[host.Handle]func()
	intervals []float64
	cancels   int
	order     []host.Handle
	fail      error
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{active: map[host.Handle]func(){}}
}

func (f *fakeScheduler) RepeatEverySeconds(seconds float64, fn func()) (host.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return host.Handle{}, f.fail
	}
	if seconds <= 0 {
		return host.Handle{}, host.ErrInvalidInterval
	}
	h := host.NewHandle()
	f.active[h] = fn
	f.order = append(f.order, h)
	f.intervals = append(f.intervals, seconds)
	return h, nil
}

func (f *fakeScheduler) Cancel(h host.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.active[h]; ok {
		delete(f.active, h)
		f.cancels++
	}
}

func (f *fakeScheduler) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.active)
}

// fire runs every live callback once, like one timer period elapsing.
func (f *fakeScheduler) fire() {
	f.mu.Lock()
	fns := make([]func(), 0, len(f.active))
	for _, h := range f.order {
		if fn, ok := f.active[h]; ok {
			fns = append(fns, fn)
		}
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// callback returns the i-th registered callback while it is still live.
func (f *fakeScheduler) callback(i int) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.order) {
		return nil
	}
	return f.active[f.order[i]]
}

type fakeChat struct {
	mu   sync.Mutex
	sent []string
}

func (c *fakeChat) SendChat(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
}

func (c *fakeChat) lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

var errRefused = errors.New("refused")
