package advert

import (
	"fmt"
	"sync"

	"advert/internal/chat"
	"advert/internal/config"
	"advert/internal/eventbus"
	"advert/internal/host"
	"advert/pkg/logx"
)

// Scheduler owns at most one repeating timer and the rotation position.
//
// Idle: no handle. Running: a live handle and a non-empty ad list.
type Scheduler struct {
	mu sync.Mutex

	timers host.Scheduler
	out    host.Chat
	format *chat.Formatter
	log    logx.Logger
	bus    eventbus.Bus

	prefix string
	ads    []string
	index  int
	handle host.Handle
	// gen invalidates ticks registered by a previous Start.
	gen uint64
}

type SchedulerOption func(*Scheduler)

func WithLogger(log logx.Logger) SchedulerOption {
	return func(s *Scheduler) { s.log = log }
}

func WithBus(bus eventbus.Bus) SchedulerOption {
	return func(s *Scheduler) { s.bus = bus }
}

func WithFormatter(f *chat.Formatter) SchedulerOption {
	return func(s *Scheduler) { s.format = f }
}

func NewScheduler(timers host.Scheduler, out host.Chat, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{timers: timers, out: out, log: logx.Nop()}
	for _, o := range opts {
		o(s)
	}
	if s.format == nil {
		s.format = chat.NewFormatter(nil)
	}
	return s
}

// Start (re)starts the rotation from the first ad. Any running timer is
// cancelled first. An empty ad list leaves the scheduler idle.
func (s *Scheduler) Start(settings config.Main) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.prefix = settings.ChatPrefix
	s.ads = append([]string(nil), settings.Ads...)
	s.index = 0

	if len(s.ads) == 0 {
		s.log.Info("no ads configured; advert timer not started")
		return nil
	}

	gen := s.gen
	h, err := s.timers.RepeatEverySeconds(settings.AdInterval, func() { s.tick(gen) })
	if err != nil {
		return fmt.Errorf("start advert timer: %w", err)
	}
	s.handle = h
	s.log.Debug("advert timer started",
		logx.String("handle", h.String()),
		logx.Duration("interval", settings.Interval()),
		logx.Int("ads", len(s.ads)))
	return nil
}

// Stop cancels the timer if one is running. Safe to call at any time.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	s.gen++
	if !s.handle.Valid() {
		return
	}
	s.timers.Cancel(s.handle)
	s.log.Debug("advert timer stopped", logx.String("handle", s.handle.String()))
	s.handle = host.Handle{}
}

// Tick broadcasts the current ad and advances the rotation. It does nothing
// while the scheduler is idle.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickLocked()
}

func (s *Scheduler) tick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.tickLocked()
}

func (s *Scheduler) tickLocked() {
	if !s.handle.Valid() || len(s.ads) == 0 {
		return
	}
	i := s.index
	msg := s.format.Format(s.prefix, s.ads[i])
	s.out.SendChat(msg)
	s.index = (i + 1) % len(s.ads)

	if s.bus != nil {
		s.bus.Publish(eventbus.Event{
			Type: eventbus.TypeAdvertSent,
			Data: eventbus.AdvertSent{Index: i, Total: len(s.ads), Message: msg},
		})
	}
	if s.log.Enabled(logx.LevelTrace) {
		s.log.Trace("advert sent", logx.Int("index", i), logx.String("message", chat.Strip(msg)))
	}
}

// Index returns the position of the next ad to send.
func (s *Scheduler) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Running reports whether a timer is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle.Valid()
}
