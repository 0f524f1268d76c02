package broadcast

import (
	"fmt"
	"io"
	"sync"
	"time"

	"advert/internal/chat"
)

// Console prints chat lines to w, one per line, with ANSI colors.
type Console struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w, now: time.Now}
}

func (c *Console) SendChat(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.w, "%s [chat] %s\n", c.now().Format("15:04:05"), chat.ANSI(msg))
}

func (c *Console) Close() error { return nil }
