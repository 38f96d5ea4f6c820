package rules

import (
	"strings"
	"testing"
)

func TestOpeningNamesRuyLopez(t *testing.T) {
	g := NewGame()
	if g.Opening().Known() {
		t.Fatalf("no opening before the first move, got %v", g.Opening())
	}
	play(t, g, "e2e4", "e7e5", "g1f3", "b8c6", "f1b5")
	o := g.Opening()
	if !strings.HasPrefix(o.Code, "C6") || !strings.Contains(o.Title, "Ruy Lopez") {
		t.Fatalf("unexpected opening %+v", o)
	}
}

func TestOpeningIgnoredForCustomPositions(t *testing.T) {
	g, err := FromFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	play(t, g, "e2e4")
	if g.Opening().Known() {
		t.Fatalf("custom start should not be classified, got %v", g.Opening())
	}
}
