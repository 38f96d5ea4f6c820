package chess

import (
	"github.com/park285/voice-chess/internal/chess/uci"
)

// SearchRequest builds the engine request for a position at this profile.
func (p DifficultyProfile) SearchRequest(fen string) uci.SearchRequest {
	return uci.SearchRequest{
		FEN:        fen,
		SkillLevel: p.SkillLevel,
		Limits:     uci.Limits{Depth: p.SearchDepth},
	}
}

// HintRequest asks for the strongest move at a fixed depth, regardless of the
// opponent's difficulty.
func HintRequest(fen string, depth int) uci.SearchRequest {
	return uci.SearchRequest{
		FEN:        fen,
		SkillLevel: uci.MaxSkillLevel,
		Limits:     uci.Limits{Depth: depth},
	}
}
