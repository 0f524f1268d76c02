package host

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotStarted      = errors.New("timers not started")
	ErrInvalidInterval = errors.New("interval must be > 0 seconds")
	ErrIntervalTooLong = fmt.Errorf("interval must be <= %v seconds", MaxIntervalSeconds)
)

// MaxIntervalSeconds is the longest interval a time.Duration can hold.
const MaxIntervalSeconds = float64(math.MaxInt64 / int64(time.Second))

// Handle identifies one repeating timer. The zero Handle is never returned
// by a successful registration and cancelling it is a no-op.
type Handle struct {
	id uuid.UUID
}

// NewHandle returns a fresh handle for Scheduler implementations.
func NewHandle() Handle { return Handle{id: uuid.New()} }

// Valid reports whether h came from a successful registration.
func (h Handle) Valid() bool { return h.id != uuid.Nil }

func (h Handle) String() string {
	if !h.Valid() {
		return "none"
	}
	return h.id.String()
}

// Scheduler is the repeating-timer capability.
type Scheduler interface {
	// RepeatEverySeconds calls fn every seconds, measured from registration,
	// until the returned handle is cancelled.
	RepeatEverySeconds(seconds float64, fn func()) (Handle, error)
	// Cancel stops h from firing again. Unknown or already cancelled handles
	// are ignored.
	Cancel(h Handle)
}

// Chat is the chat-delivery capability. SendChat broadcasts to every
// connected player; it is fire-and-forget.
type Chat interface {
	SendChat(msg string)
}
