package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/voice-chess/internal/chess"
	"github.com/park285/voice-chess/internal/chess/uci"
	"github.com/park285/voice-chess/internal/domain"
	"github.com/park285/voice-chess/internal/feedback"
)

// requestHint spends one hint and asks the engine for the best move at full
// strength. The suggestion is announced, never played. The budget is checked
// and spent here on the control goroutine, so it cannot be spent twice.
func (c *Controller) requestHint() {
	switch {
	case c.state == GameOver:
		c.notify(feedback.Event{Kind: feedback.GameAlreadyOver, Err: ErrGameOver})
		return
	case c.checkTerminal():
		return
	case c.hints <= 0:
		c.notify(feedback.Event{Kind: feedback.HintsExhausted, Err: ErrNoHints})
		return
	case c.state != HumanToMove, c.hintSeq != 0, c.exec.rules.Turn() != c.cfg.Human:
		c.notify(feedback.Event{Kind: feedback.HintBusy, HintsLeft: c.hints})
		return
	}

	c.hints--
	seq := c.nextSeq()
	c.hintSeq = seq
	c.logger.Debug("hint request", zap.Uint64("seq", seq), zap.Int("left", c.hints))
	c.query(seq, chess.HintRequest(c.exec.rules.Position(), c.cfg.HintDepth), c.onHintReply)
}

func (c *Controller) onHintReply(seq uint64, mv uci.BestMove, err error) {
	if seq != c.hintSeq || seq != c.seq {
		c.logger.Debug("stale hint reply discarded", zap.Uint64("seq", seq), zap.Uint64("latest", c.seq))
		return
	}
	c.hintSeq = 0
	if c.state != HumanToMove {
		return
	}
	if err != nil {
		c.logger.Warn("hint request failed", zap.Uint64("seq", seq), zap.Error(err))
		c.notify(feedback.Event{Kind: feedback.HintUnavailable, HintsLeft: c.hints, Err: fmt.Errorf("%w: %w", ErrHintUnavailable, err)})
		return
	}
	san, ok := c.exec.rules.Describe(mv.UCI())
	if !ok {
		c.notify(feedback.Event{Kind: feedback.HintUnavailable, HintsLeft: c.hints, Err: ErrHintUnavailable})
		return
	}
	c.notify(feedback.Event{
		Kind:      feedback.HintSuggested,
		From:      domain.Square(mv.From),
		To:        domain.Square(mv.To),
		SAN:       san,
		HintsLeft: c.hints,
	})
}
