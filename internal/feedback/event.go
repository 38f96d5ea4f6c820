package feedback

import (
	"github.com/park285/voice-chess/internal/domain"
	"github.com/park285/voice-chess/internal/material"
)

type Kind int

const (
	Listening Kind = iota
	Heard
	Interim
	ParseFailure
	IllegalMove
	HumanMoved
	Thinking
	AIMoved
	YourTurn
	NotYourTurn
	GameOver
	GameAlreadyOver
	HintSuggested
	HintsExhausted
	HintUnavailable
	HintBusy
	EngineUnresponsive
	EngineRetrying
	NewGame
)

var kindNames = map[Kind]string{
	Listening:          "listening",
	Heard:              "heard",
	Interim:            "interim",
	ParseFailure:       "parse_failure",
	IllegalMove:        "illegal_move",
	HumanMoved:         "human_moved",
	Thinking:           "thinking",
	AIMoved:            "ai_moved",
	YourTurn:           "your_turn",
	NotYourTurn:        "not_your_turn",
	GameOver:           "game_over",
	GameAlreadyOver:    "game_already_over",
	HintSuggested:      "hint_suggested",
	HintsExhausted:     "hints_exhausted",
	HintUnavailable:    "hint_unavailable",
	HintBusy:           "hint_busy",
	EngineUnresponsive: "engine_unresponsive",
	EngineRetrying:     "engine_retrying",
	NewGame:            "new_game",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Event is one user-visible outcome of the turn controller. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind        Kind
	Transcript  string
	From        domain.Square
	To          domain.Square
	SAN         string
	Termination domain.Termination
	HintsLeft   int
	Tally       material.Tally
	Human       domain.Color
	Difficulty  string
	Err         error
}
