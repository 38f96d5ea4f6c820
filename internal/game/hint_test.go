package game

import (
	"context"
	"errors"
	"testing"

	"github.com/park285/voice-chess/internal/chess/uci"
	"github.com/park285/voice-chess/internal/feedback"
)

func TestHintBudgetIsMonotonic(t *testing.T) {
	h := startHarness(t, "", Config{Hints: 2, HintDepth: 5})
	before := h.snapshot(t)

	for i, move := range []string{"g1f3", "e2e4"} {
		if err := h.ctrl.RequestHint(context.Background()); err != nil {
			t.Fatal(err)
		}
		call := h.engine.next(t)
		if call.req.SkillLevel != uci.MaxSkillLevel || call.req.Limits.Depth != 5 {
			t.Fatalf("hint should search at full strength and fixed depth, got %+v", call.req)
		}
		call.answer(t, move)
		ev := h.events.waitFor(t, feedback.HintSuggested)
		if want := 1 - i; ev.HintsLeft != want {
			t.Fatalf("hint %d: expected %d left, got %d", i, want, ev.HintsLeft)
		}
		if i == 0 && (ev.SAN != "Nf3" || ev.From != "g1" || ev.To != "f3") {
			t.Fatalf("unexpected suggestion %+v", ev)
		}
	}

	if err := h.ctrl.RequestHint(context.Background()); err != nil {
		t.Fatal(err)
	}
	ev := h.events.waitFor(t, feedback.HintsExhausted)
	if !errors.Is(ev.Err, ErrNoHints) {
		t.Fatalf("unexpected error %v", ev.Err)
	}
	h.engine.expectIdle(t)

	s := h.snapshot(t)
	if s.HintsLeft != 0 {
		t.Fatalf("expected budget 0, got %d", s.HintsLeft)
	}
	if s.Position != before.Position || len(s.History) != 0 {
		t.Fatalf("a hint changed the game: %+v", s)
	}
}

func TestHintCannotBeSpentTwiceWhilePending(t *testing.T) {
	h := startHarness(t, "", Config{Hints: 3})
	h.say(t, "give me a hint")
	call := h.engine.next(t)

	if err := h.ctrl.RequestHint(context.Background()); err != nil {
		t.Fatal(err)
	}
	h.events.waitFor(t, feedback.HintBusy)
	h.engine.expectIdle(t)

	call.answer(t, "d2d4")
	ev := h.events.waitFor(t, feedback.HintSuggested)
	if ev.HintsLeft != 2 {
		t.Fatalf("expected 2 hints left, got %d", ev.HintsLeft)
	}
}

func TestHintFailureKeepsBudgetSpent(t *testing.T) {
	h := startHarness(t, "", Config{Hints: 1})
	if err := h.ctrl.RequestHint(context.Background()); err != nil {
		t.Fatal(err)
	}
	h.engine.next(t).fail(uci.ErrClosed)
	ev := h.events.waitFor(t, feedback.HintUnavailable)
	if !errors.Is(ev.Err, ErrHintUnavailable) {
		t.Fatalf("unexpected error %v", ev.Err)
	}
	if s := h.snapshot(t); s.HintsLeft != 0 {
		t.Fatalf("expected budget 0, got %d", s.HintsLeft)
	}
}

func TestHintSupersededByMoveIsDropped(t *testing.T) {
	h := startHarness(t, "", Config{Hints: 2})
	if err := h.ctrl.RequestHint(context.Background()); err != nil {
		t.Fatal(err)
	}
	hint := h.engine.next(t)

	h.say(t, "e2 e4")
	h.events.waitFor(t, feedback.HumanMoved)
	ai := h.engine.next(t)

	hint.answer(t, "d2d4")
	ai.answer(t, "e7e5")
	h.events.waitFor(t, feedback.YourTurn)

	// drain: no suggestion for the stale position may have been emitted
	for {
		select {
		case ev := <-h.events.ch:
			if ev.Kind == feedback.HintSuggested {
				t.Fatalf("stale hint announced: %+v", ev)
			}
			continue
		default:
		}
		break
	}
	if s := h.snapshot(t); s.HintsLeft != 1 {
		t.Fatalf("expected 1 hint left, got %d", s.HintsLeft)
	}
}
