package material

import (
	"github.com/park285/voice-chess/internal/domain"
)

var (
	initialPieceCounts = map[domain.PieceKind]int{
		domain.Pawn:   8,
		domain.Knight: 2,
		domain.Bishop: 2,
		domain.Rook:   2,
		domain.Queen:  1,
	}
	pieceValues = map[domain.PieceKind]int{
		domain.Pawn:   1,
		domain.Knight: 3,
		domain.Bishop: 3,
		domain.Rook:   5,
		domain.Queen:  9,
	}
	// Display order, most valuable first.
	kindOrder = []domain.PieceKind{domain.Queen, domain.Rook, domain.Bishop, domain.Knight, domain.Pawn}
)

// Tally is derived entirely from a board composition; it is never patched.
type Tally struct {
	CapturedByWhite map[domain.PieceKind]int
	CapturedByBlack map[domain.PieceKind]int
	// Score is positive when white has captured more material.
	Score int
}

func Value(k domain.PieceKind) int { return pieceValues[k] }

// Recompute derives captures and score from the pieces still on the board.
func Recompute(comp domain.Composition) Tally {
	counts := map[domain.Color]map[domain.PieceKind]int{
		domain.White: {},
		domain.Black: {},
	}
	for _, piece := range comp {
		if piece.Kind == domain.King || pieceValues[piece.Kind] == 0 {
			continue
		}
		if m, ok := counts[piece.Color]; ok {
			m[piece.Kind]++
		}
	}

	tally := Tally{
		CapturedByWhite: missing(counts[domain.Black]),
		CapturedByBlack: missing(counts[domain.White]),
	}
	tally.Score = sumValues(tally.CapturedByWhite) - sumValues(tally.CapturedByBlack)
	return tally
}

func missing(current map[domain.PieceKind]int) map[domain.PieceKind]int {
	out := map[domain.PieceKind]int{}
	for kind, initial := range initialPieceCounts {
		if lost := initial - current[kind]; lost > 0 {
			out[kind] = lost
		}
	}
	return out
}

func sumValues(m map[domain.PieceKind]int) int {
	total := 0
	for kind, n := range m {
		total += pieceValues[kind] * n
	}
	return total
}

// CapturedValue is the material value captured by color.
func (t Tally) CapturedValue(color domain.Color) int {
	switch color {
	case domain.White:
		return sumValues(t.CapturedByWhite)
	case domain.Black:
		return sumValues(t.CapturedByBlack)
	default:
		return 0
	}
}

// Pieces lists the pieces captured by color, most valuable first.
func (t Tally) Pieces(color domain.Color) []domain.PieceKind {
	var src map[domain.PieceKind]int
	switch color {
	case domain.White:
		src = t.CapturedByWhite
	case domain.Black:
		src = t.CapturedByBlack
	default:
		return nil
	}
	var out []domain.PieceKind
	for _, kind := range kindOrder {
		for i := 0; i < src[kind]; i++ {
			out = append(out, kind)
		}
	}
	return out
}

func (t Tally) IsEmpty() bool {
	return len(t.CapturedByWhite) == 0 && len(t.CapturedByBlack) == 0
}
