package msgcat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedMessagesRender(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("move.ai.speech", map[string]any{"From": "e7", "To": "e5"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "AI plays e7 to e5" {
		t.Fatalf("unexpected %q", got)
	}
	if _, err := c.Render("move.illegal.status", map[string]any{"From": "e2"}); err == nil {
		t.Fatalf("expected missing field error")
	}
	if _, err := c.Render("no.such.key", nil); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestOverrideDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("status:\n  your_turn:\n    status: \"Go!\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("status.your_turn.status", nil)
	if err != nil || got != "Go!" {
		t.Fatalf("override not applied: %q %v", got, err)
	}
	if got, _ := c.Render("status.thinking.status", nil); got != "AI is thinking..." {
		t.Fatalf("embedded value lost: %q", got)
	}
}

func TestOverrideDuplicateKeysRejected(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("hint:\n  exhausted:\n    speech: \"none\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestOverrideBadTemplateRejected(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("move:\n  ai:\n    speech: \"{{.From\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected template parse error")
	}
}

func TestKeysIncludeFeedbackMessages(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := map[string]bool{"status.listening.status": false, "hint.exhausted.speech": false, "engine.unresponsive.status": false}
	for _, k := range c.Keys() {
		if _, ok := want[k]; ok {
			want[k] = true
		}
	}
	for k, found := range want {
		if !found {
			t.Fatalf("missing key %s", k)
		}
	}
}
