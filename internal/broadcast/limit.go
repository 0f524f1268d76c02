package broadcast

import (
	"sync/atomic"

	"golang.org/x/time/rate"

	"advert/pkg/logx"
)

// Limited drops chat lines that exceed a token-bucket rate. It never blocks:
// a tick must not stall the timer it runs on.
type Limited struct {
	next    Sink
	lim     *rate.Limiter
	log     logx.Logger
	dropped atomic.Uint64
}

func NewLimited(next Sink, perSec, burst int, log logx.Logger) *Limited {
	if perSec <= 0 {
		perSec = 1
	}
	if burst <= 0 {
		burst = perSec
	}
	return &Limited{next: next, lim: rate.NewLimiter(rate.Limit(perSec), burst), log: log}
}

func (l *Limited) SendChat(msg string) {
	if !l.lim.Allow() {
		n := l.dropped.Add(1)
		l.log.Warn("chat rate limited; message dropped", logx.Uint64("dropped_total", n))
		return
	}
	l.next.SendChat(msg)
}

// Dropped returns how many lines were dropped so far.
func (l *Limited) Dropped() uint64 { return l.dropped.Load() }

func (l *Limited) Close() error { return l.next.Close() }
