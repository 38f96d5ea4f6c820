package material

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/park285/voice-chess/internal/domain"
	"github.com/park285/voice-chess/internal/rules"
)

func playAll(t *testing.T, moves ...string) *rules.Game {
	t.Helper()
	g := rules.NewGame()
	for _, mv := range moves {
		cmd, err := domain.NewMoveCommand(mv[:2], mv[2:4])
		if err != nil {
			t.Fatalf("NewMoveCommand(%s): %v", mv, err)
		}
		if _, err := g.AttemptMove(cmd); err != nil {
			t.Fatalf("move %s: %v", mv, err)
		}
	}
	return g
}

func TestRecomputeInitialIsEmpty(t *testing.T) {
	tally := Recompute(rules.NewGame().Composition())
	if !tally.IsEmpty() || tally.Score != 0 {
		t.Fatalf("expected empty tally, got %+v", tally)
	}
}

func TestRecomputeAfterCaptures(t *testing.T) {
	g := playAll(t, "e2e4", "d7d5", "e4d5", "d8d5", "b1c3", "d5a2", "a1a2")
	tally := Recompute(g.Composition())

	wantWhite := map[domain.PieceKind]int{domain.Pawn: 1, domain.Queen: 1}
	wantBlack := map[domain.PieceKind]int{domain.Pawn: 2}
	if diff := cmp.Diff(wantWhite, tally.CapturedByWhite); diff != "" {
		t.Fatalf("captured by white (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantBlack, tally.CapturedByBlack); diff != "" {
		t.Fatalf("captured by black (-want +got):\n%s", diff)
	}
	if tally.Score != 8 {
		t.Fatalf("expected score 8, got %d", tally.Score)
	}
	if tally.Score != tally.CapturedValue(domain.White)-tally.CapturedValue(domain.Black) {
		t.Fatalf("score is not the difference of captured values")
	}
	if diff := cmp.Diff([]domain.PieceKind{domain.Queen, domain.Pawn}, tally.Pieces(domain.White)); diff != "" {
		t.Fatalf("white pieces order (-want +got):\n%s", diff)
	}
}

func TestRecomputeOrderIndependent(t *testing.T) {
	a := playAll(t, "g1f3", "b8c6", "b1c3", "g8f6")
	b := playAll(t, "b1c3", "g8f6", "g1f3", "b8c6")
	if a.Position() == "" || b.Composition() == nil {
		t.Fatalf("unexpected empty game")
	}
	if diff := cmp.Diff(Recompute(a.Composition()), Recompute(b.Composition())); diff != "" {
		t.Fatalf("tally depends on move order:\n%s", diff)
	}
}

func TestRecomputeSymmetry(t *testing.T) {
	comp := domain.Composition{
		"e1": {Color: domain.White, Kind: domain.King},
		"e8": {Color: domain.Black, Kind: domain.King},
		"a1": {Color: domain.White, Kind: domain.Rook},
		"d1": {Color: domain.White, Kind: domain.Queen},
		"h8": {Color: domain.Black, Kind: domain.Rook},
		"c8": {Color: domain.Black, Kind: domain.Bishop},
	}
	tally := Recompute(comp)
	if got := tally.CapturedValue(domain.White) - tally.CapturedValue(domain.Black); got != tally.Score {
		t.Fatalf("score %d != %d", tally.Score, got)
	}
	// White lost 8P 2N 2B 1R (= 8+6+6+5 = 25); black lost 8P 2N 1B 1R 1Q (= 8+6+3+5+9 = 31).
	if tally.Score != 31-25 {
		t.Fatalf("expected score 6, got %d", tally.Score)
	}
	if first := Recompute(comp); first.Score != Recompute(comp).Score {
		t.Fatalf("recompute is not deterministic")
	}
}

func TestPromotedPiecesNeverGoNegative(t *testing.T) {
	comp := rules.NewGame().Composition()
	delete(comp, "a2")
	comp["b3"] = domain.Piece{Color: domain.White, Kind: domain.Queen}
	tally := Recompute(comp)
	if n := tally.CapturedByBlack[domain.Queen]; n != 0 {
		t.Fatalf("extra queen must not count as negative capture, got %d", n)
	}
	if n := tally.CapturedByBlack[domain.Pawn]; n != 1 {
		t.Fatalf("expected one missing pawn, got %d", n)
	}
}
