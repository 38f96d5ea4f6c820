package display

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func waitBorder(t *testing.T, c *Console, want string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for c.Border() != want {
		if time.Now().After(deadline) {
			t.Fatalf("border %q never became %q", c.Border(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFlashRevertsToDefault(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, 200*time.Millisecond)
	c.Flash("red")
	if c.Border() != "red" {
		t.Fatalf("expected red border, got %q", c.Border())
	}
	c.SetStatus("Illegal move: E2 to E5")
	if !strings.HasPrefix(buf.String(), "# Illegal move") {
		t.Fatalf("unexpected render %q", buf.String())
	}
	waitBorder(t, c, DefaultBorder)
}

func TestNewFlashRestartsPulse(t *testing.T) {
	c := NewConsole(nil, 200*time.Millisecond)
	c.Flash("red")
	time.Sleep(120 * time.Millisecond)
	c.Flash("green")
	time.Sleep(120 * time.Millisecond)
	// the first pulse would have expired by now
	if c.Border() != "green" {
		t.Fatalf("expected green border, got %q", c.Border())
	}
	waitBorder(t, c, DefaultBorder)
}

func TestStatusRender(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, time.Second, WithANSI(true))
	c.SetStatus("Your turn!")
	if got := buf.String(); got != "| Your turn!\n" {
		t.Fatalf("unexpected %q", got)
	}
	c.Flash("blue")
	c.SetStatus("Hint")
	if !strings.Contains(buf.String(), ansi["blue"]) {
		t.Fatalf("expected ANSI marker in %q", buf.String())
	}
	c.Close()
	if c.Border() != DefaultBorder || c.Status() != "Hint" {
		t.Fatalf("unexpected state after close: %q %q", c.Border(), c.Status())
	}
}
