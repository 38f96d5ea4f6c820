package display

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const DefaultBorder = "default"

var ansi = map[string]string{
	"red":   "\x1b[31m",
	"green": "\x1b[32m",
	"blue":  "\x1b[34m",
	"gold":  "\x1b[33m",
}

const ansiReset = "\x1b[0m"

// Console is a terminal display surface: one status line framed by a border
// marker whose color pulses and then reverts.
type Console struct {
	w      io.Writer
	pulse  time.Duration
	color  bool
	mu     sync.Mutex
	status string
	border string
	gen    uint64
	timer  *time.Timer
}

type Option func(*Console)

// WithANSI enables terminal color codes for the border marker.
func WithANSI(on bool) Option {
	return func(c *Console) { c.color = on }
}

func NewConsole(w io.Writer, pulse time.Duration, opts ...Option) *Console {
	if pulse <= 0 {
		pulse = 600 * time.Millisecond
	}
	c := &Console{w: w, pulse: pulse, border: DefaultBorder}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Console) SetStatus(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = text
	c.renderLocked()
}

// Flash sets the border color and reverts it after the pulse duration. A new
// flash restarts the pulse.
func (c *Console) Flash(color string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.border = color
	c.timer = time.AfterFunc(c.pulse, func() { c.revert(gen) })
}

func (c *Console) revert(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.border = DefaultBorder
	c.timer = nil
}

func (c *Console) Border() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.border
}

func (c *Console) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Console) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	c.border = DefaultBorder
}

func (c *Console) renderLocked() {
	if c.w == nil {
		return
	}
	marker := "|"
	if c.border != DefaultBorder {
		marker = "#"
		if code, ok := ansi[c.border]; ok && c.color {
			marker = code + "#" + ansiReset
		}
	}
	fmt.Fprintf(c.w, "%s %s\n", marker, c.status)
}
