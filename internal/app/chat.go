package app

import (
	"context"
	"sync/atomic"
	"time"

	"advert/internal/broadcast"
	"advert/internal/host"
)

// sinkRetireGrace is how long a replaced sink stays open for sends that
// were already in flight when it was swapped out.
const sinkRetireGrace = 2 * time.Second

// chatRef is the host.Chat handed to plugins. The sink behind it can be
// replaced on config reload without reloading plugins.
type chatRef struct {
	cur atomic.Pointer[sinkBox]
}

type sinkBox struct{ s broadcast.Sink }

var _ host.Chat = (*chatRef)(nil)

func newChatRef(s broadcast.Sink) *chatRef {
	r := &chatRef{}
	r.cur.Store(&sinkBox{s: s})
	return r
}

func (r *chatRef) SendChat(msg string) {
	if b := r.cur.Load(); b != nil && b.s != nil {
		b.s.SendChat(msg)
	}
}

// swap installs s and returns the previous sink, which the caller closes.
func (r *chatRef) swap(s broadcast.Sink) broadcast.Sink {
	old := r.cur.Swap(&sinkBox{s: s})
	if old == nil {
		return nil
	}
	return old.s
}

func (r *chatRef) Close() error {
	old := r.swap(nil)
	if old == nil {
		return nil
	}
	return old.Close()
}

// retire closes old after grace, or at once when ctx is done.
func retire(ctx context.Context, old broadcast.Sink, grace time.Duration) error {
	t := time.NewTimer(grace)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
	return old.Close()
}
