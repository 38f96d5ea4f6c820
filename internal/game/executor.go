package game

import (
	"github.com/park285/voice-chess/internal/domain"
	"github.com/park285/voice-chess/internal/material"
)

// Rules is the rules engine the controller plays through.
type Rules interface {
	AttemptMove(cmd domain.MoveCommand) (domain.AppliedMove, error)
	Position() string
	Turn() domain.Color
	Termination() domain.Termination
	History() []string
	Composition() domain.Composition
	Describe(uci string) (string, bool)
	Opening() domain.Opening
}

// executor is the only writer of the game state. Every accepted move is
// followed by a full recompute of the capture tally.
type executor struct {
	rules Rules
	tally material.Tally
	// opening keeps the last named line once play leaves the catalogue
	opening domain.Opening
}

func newExecutor(r Rules) *executor {
	return &executor{rules: r, tally: material.Recompute(r.Composition())}
}

func (e *executor) attempt(cmd domain.MoveCommand) (domain.AppliedMove, error) {
	applied, err := e.rules.AttemptMove(cmd)
	if err != nil {
		return domain.AppliedMove{}, err
	}
	e.tally = material.Recompute(e.rules.Composition())
	return applied, nil
}

// updateOpening reports whether the move just played named a new opening.
func (e *executor) updateOpening() bool {
	o := e.rules.Opening()
	if !o.Known() || o == e.opening {
		return false
	}
	e.opening = o
	return true
}

func (e *executor) termination() domain.Termination {
	return e.rules.Termination()
}
