package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidSquare = errors.New("invalid square")

// ErrIllegalMove is matched by every rejection the rules engine reports.
var ErrIllegalMove = errors.New("illegal move")

// Square is a board coordinate such as "e4".
type Square string

func ParseSquare(s string) (Square, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if len(v) != 2 || v[0] < 'a' || v[0] > 'h' || v[1] < '1' || v[1] > '8' {
		return "", fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	return Square(v), nil
}

func (s Square) Valid() bool {
	_, err := ParseSquare(string(s))
	return err == nil
}

// File returns 0 for the a-file through 7 for the h-file.
func (s Square) File() int { return int(s[0] - 'a') }

// Rank returns 0 for the first rank through 7 for the eighth.
func (s Square) Rank() int { return int(s[1] - '1') }

type Color int8

const (
	NoColor Color = iota
	White
	Black
)

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "none"
	}
}

func (c Color) Other() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoColor
	}
}

func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	default:
		return NoColor, fmt.Errorf("unknown color %q", s)
	}
}

type PieceKind int8

const (
	NoPieceKind PieceKind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

func (k PieceKind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return ""
	}
}

type Piece struct {
	Color Color
	Kind  PieceKind
}

// Composition maps every occupied square to its piece. Empty squares are absent.
type Composition map[Square]Piece

// MoveCommand is a fully resolved move request. Promotion is always Queen.
type MoveCommand struct {
	From      Square
	To        Square
	Promotion PieceKind
}

func NewMoveCommand(from, to string) (MoveCommand, error) {
	f, err := ParseSquare(from)
	if err != nil {
		return MoveCommand{}, err
	}
	t, err := ParseSquare(to)
	if err != nil {
		return MoveCommand{}, err
	}
	return MoveCommand{From: f, To: t, Promotion: Queen}, nil
}

func (m MoveCommand) String() string {
	return string(m.From) + string(m.To)
}

// AppliedMove is the success side of a move attempt.
type AppliedMove struct {
	Command  MoveCommand
	UCI      string
	SAN      string
	Position string
}

// RejectedMove is the rejection side of a move attempt.
type RejectedMove struct {
	Command MoveCommand
	Reason  string
}

func (r *RejectedMove) Error() string {
	if r.Reason == "" {
		return fmt.Sprintf("illegal move %s to %s", r.Command.From, r.Command.To)
	}
	return fmt.Sprintf("illegal move %s to %s: %s", r.Command.From, r.Command.To, r.Reason)
}

func (r *RejectedMove) Is(target error) bool { return target == ErrIllegalMove }

type TerminalKind int8

const (
	NotTerminal TerminalKind = iota
	Checkmate
	Draw
)

func (k TerminalKind) String() string {
	switch k {
	case Checkmate:
		return "checkmate"
	case Draw:
		return "draw"
	default:
		return "none"
	}
}

// Termination describes how (and whether) the game ended. Method carries the
// rules engine's own name for the ending, e.g. "Stalemate".
type Termination struct {
	Kind   TerminalKind
	Method string
	Winner Color
}

func (t Termination) Over() bool { return t.Kind != NotTerminal }

// Opening is a catalogued opening line by ECO code.
type Opening struct {
	Code  string
	Title string
}

func (o Opening) Known() bool { return o.Code != "" }

func (o Opening) String() string {
	if !o.Known() {
		return ""
	}
	return o.Code + " " + o.Title
}
