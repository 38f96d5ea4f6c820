package rules

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/voice-chess/internal/domain"
)

// Game is the rules engine: it owns the one position of a session and is the
// only thing that changes it.
type Game struct {
	game *nchess.Game
	// openings are only classified for games played from the initial position
	fromStart bool
}

func NewGame() *Game {
	return &Game{game: nchess.NewGame(), fromStart: true}
}

// FromFEN starts from an arbitrary position.
func FromFEN(fen string) (*Game, error) {
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen: %w", err)
	}
	return &Game{game: nchess.NewGame(opt)}, nil
}

// AttemptMove applies cmd if legal. On rejection the position is untouched.
func (g *Game) AttemptMove(cmd domain.MoveCommand) (domain.AppliedMove, error) {
	if !cmd.From.Valid() || !cmd.To.Valid() {
		return domain.AppliedMove{}, &domain.RejectedMove{Command: cmd, Reason: "invalid square"}
	}
	if g.game.Outcome() != nchess.NoOutcome {
		return domain.AppliedMove{}, &domain.RejectedMove{Command: cmd, Reason: "game is over"}
	}

	pos := g.game.Position()
	text := cmd.String()
	if g.promotes(pos, cmd) {
		text += promotionSuffix(cmd.Promotion)
	}

	notationUCI := nchess.UCINotation{}
	move, err := notationUCI.Decode(pos, text)
	if err != nil {
		return domain.AppliedMove{}, &domain.RejectedMove{Command: cmd, Reason: err.Error()}
	}
	san := nchess.AlgebraicNotation{}.Encode(pos, move)
	if err := g.game.Move(move, nil); err != nil {
		return domain.AppliedMove{}, &domain.RejectedMove{Command: cmd, Reason: err.Error()}
	}
	g.claimDraw()

	return domain.AppliedMove{
		Command:  cmd,
		UCI:      strings.ToLower(move.String()),
		SAN:      san,
		Position: g.game.FEN(),
	}, nil
}

// claimDraw ends the game on threefold repetition or the fifty-move rule.
// The library only ends it by itself at fivefold repetition or 75 moves.
func (g *Game) claimDraw() {
	if g.game.Outcome() != nchess.NoOutcome {
		return
	}
	for _, method := range g.game.EligibleDraws() {
		switch method {
		case nchess.ThreefoldRepetition, nchess.FiftyMoveRule:
			if err := g.game.Draw(method); err == nil {
				return
			}
		}
	}
}

func (g *Game) promotes(pos *nchess.Position, cmd domain.MoveCommand) bool {
	piece := pos.Board().Piece(toSquare(cmd.From))
	if piece == nchess.NoPiece || piece.Type() != nchess.Pawn {
		return false
	}
	rank := cmd.To.Rank()
	return rank == 0 || rank == 7
}

func promotionSuffix(k domain.PieceKind) string {
	switch k {
	case domain.Rook:
		return "r"
	case domain.Bishop:
		return "b"
	case domain.Knight:
		return "n"
	default:
		return "q"
	}
}

// Position returns the FEN of the current position.
func (g *Game) Position() string {
	return g.game.FEN()
}

func (g *Game) Turn() domain.Color {
	return fromColor(g.game.Position().Turn())
}

func (g *Game) Termination() domain.Termination {
	outcome := g.game.Outcome()
	if outcome == nchess.NoOutcome {
		return domain.Termination{}
	}
	t := domain.Termination{Kind: domain.Draw, Method: g.game.Method().String()}
	if g.game.Method() == nchess.Checkmate {
		t.Kind = domain.Checkmate
	}
	switch outcome {
	case nchess.WhiteWon:
		t.Winner = domain.White
	case nchess.BlackWon:
		t.Winner = domain.Black
	}
	return t
}

// History lists the played moves in UCI notation, oldest first.
func (g *Game) History() []string {
	moves := g.game.Moves()
	out := make([]string, 0, len(moves))
	for _, mv := range moves {
		out = append(out, strings.ToLower(mv.String()))
	}
	return out
}

func (g *Game) Composition() domain.Composition {
	comp := make(domain.Composition, 32)
	board := g.game.Position().Board()
	for file := nchess.FileA; file <= nchess.FileH; file++ {
		for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
			piece := board.Piece(nchess.NewSquare(file, rank))
			if piece == nchess.NoPiece {
				continue
			}
			sq := domain.Square(string(rune('a'+int(file))) + string(rune('1'+int(rank))))
			comp[sq] = domain.Piece{Color: fromColor(piece.Color()), Kind: fromPieceType(piece.Type())}
		}
	}
	return comp
}

// Describe renders a UCI move in SAN against the current position, for
// announcing suggestions that are not played.
func (g *Game) Describe(uci string) (string, bool) {
	pos := g.game.Position()
	move, err := nchess.UCINotation{}.Decode(pos, strings.ToLower(strings.TrimSpace(uci)))
	if err != nil {
		return "", false
	}
	return nchess.AlgebraicNotation{}.Encode(pos, move), true
}

func toSquare(s domain.Square) nchess.Square {
	return nchess.NewSquare(nchess.File(s.File()), nchess.Rank(s.Rank()))
}

func fromColor(c nchess.Color) domain.Color {
	switch c {
	case nchess.White:
		return domain.White
	case nchess.Black:
		return domain.Black
	default:
		return domain.NoColor
	}
}

func fromPieceType(pt nchess.PieceType) domain.PieceKind {
	switch pt {
	case nchess.Pawn:
		return domain.Pawn
	case nchess.Knight:
		return domain.Knight
	case nchess.Bishop:
		return domain.Bishop
	case nchess.Rook:
		return domain.Rook
	case nchess.Queen:
		return domain.Queen
	case nchess.King:
		return domain.King
	default:
		return domain.NoPieceKind
	}
}
