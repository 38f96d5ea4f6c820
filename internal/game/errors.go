package game

import "errors"

var (
	ErrEngineUnresponsive = errors.New("engine did not reply in time")
	ErrGameOver           = errors.New("game is over")
	ErrNotYourTurn        = errors.New("not the human's turn")
	ErrNoHints            = errors.New("no hints left")
	ErrHintUnavailable    = errors.New("hint unavailable")
	ErrStopped            = errors.New("controller stopped")
)
