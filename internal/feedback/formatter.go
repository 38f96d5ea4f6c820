package feedback

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/park285/voice-chess/internal/domain"
	"github.com/park285/voice-chess/internal/material"
)

const capturedRecentLimit = 3

// formatMaterial renders "White +4 (R) / Black +1 (P)" or "Material even".
func formatMaterial(t material.Tally) string {
	white := t.CapturedValue(domain.White)
	black := t.CapturedValue(domain.Black)

	var parts []string
	if white > 0 {
		parts = append(parts, sideLine("White", white, t.Pieces(domain.White)))
	}
	if black > 0 {
		parts = append(parts, sideLine("Black", black, t.Pieces(domain.Black)))
	}
	if len(parts) == 0 {
		return "Material even"
	}
	return strings.Join(parts, " / ")
}

func sideLine(side string, value int, pieces []domain.PieceKind) string {
	line := fmt.Sprintf("%s +%d", side, value)
	if seq := formatCapturedSequence(topPieces(pieces, capturedRecentLimit)); seq != "" {
		line += " (" + seq + ")"
	}
	return line
}

func formatCapturedSequence(order []domain.PieceKind) string {
	if len(order) == 0 {
		return ""
	}
	tokens := make([]string, 0, len(order))
	for _, kind := range order {
		if symbol := capturedSymbol(kind); symbol != "" {
			tokens = append(tokens, symbol)
		}
	}
	return strings.Join(tokens, " ")
}

func capturedSymbol(kind domain.PieceKind) string {
	switch kind {
	case domain.Queen:
		return "Q"
	case domain.Rook:
		return "R"
	case domain.Bishop:
		return "B"
	case domain.Knight:
		return "N"
	case domain.Pawn:
		return "P"
	default:
		return ""
	}
}

// Pieces arrive most valuable first; keep the head.
func topPieces(order []domain.PieceKind, limit int) []domain.PieceKind {
	if len(order) == 0 || limit <= 0 {
		return nil
	}
	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

func colorName(c domain.Color) string {
	if c == domain.NoColor {
		return ""
	}
	// Casers keep state; one per call.
	return cases.Title(language.English).String(c.String())
}

// squareName spells a square for display, "e4" -> "E4".
func squareName(s domain.Square) string {
	return strings.ToUpper(string(s))
}
