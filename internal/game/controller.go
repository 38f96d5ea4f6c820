package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/park285/voice-chess/internal/chess"
	"github.com/park285/voice-chess/internal/chess/uci"
	"github.com/park285/voice-chess/internal/domain"
	"github.com/park285/voice-chess/internal/feedback"
	"github.com/park285/voice-chess/internal/material"
	"github.com/park285/voice-chess/internal/speech"
	"github.com/park285/voice-chess/internal/voice"
)

type State int

const (
	HumanToMove State = iota
	AIThinking
	GameOver
)

func (s State) String() string {
	switch s {
	case HumanToMove:
		return "human_to_move"
	case AIThinking:
		return "ai_thinking"
	case GameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Searcher asks the engine for a move and waits for the reply.
type Searcher interface {
	Query(ctx context.Context, req uci.SearchRequest) (uci.BestMove, error)
}

type Notifier interface {
	Notify(ev feedback.Event)
}

type Config struct {
	Human   domain.Color
	Profile chess.DifficultyProfile
	// Pause between an accepted human move and the engine request.
	VoiceDelay time.Duration
	DropDelay  time.Duration
	// Zero derives the bound from the search limits.
	EngineTimeout time.Duration
	Hints         int
	HintDepth     int
}

const defaultHintDepth = 15

// Controller is the turn state machine. All state below the channel fields is
// owned by the goroutine running Run; public methods post events to it.
type Controller struct {
	cfg        Config
	exec       *executor
	engine     Searcher
	translator *voice.Translator
	notifier   Notifier
	logger     *zap.Logger

	events  chan func()
	done    chan struct{}
	running atomic.Bool

	ctx     context.Context
	state   State
	hints   int
	seq     uint64
	aiSeq   uint64
	hintSeq uint64
}

func NewController(rules Rules, engine Searcher, translator *voice.Translator, notifier Notifier, cfg Config, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Human == domain.NoColor {
		cfg.Human = domain.White
	}
	if cfg.Profile.SearchDepth <= 0 {
		cfg.Profile = chess.DefaultProfiles["medium"]
	}
	if cfg.HintDepth <= 0 {
		cfg.HintDepth = defaultHintDepth
	}
	if cfg.Hints < 0 {
		cfg.Hints = 0
	}
	return &Controller{
		cfg:        cfg,
		exec:       newExecutor(rules),
		engine:     engine,
		translator: translator,
		notifier:   notifier,
		logger:     logger,
		events:     make(chan func(), 64),
		done:       make(chan struct{}),
		ctx:        context.Background(),
		state:      HumanToMove,
		hints:      cfg.Hints,
	}
}

// Run processes events until ctx ends. It may be called once.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("controller already running")
	}
	defer close(c.done)
	c.ctx = ctx
	c.start()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-c.events:
			fn()
		}
	}
}

// HandleTranscript feeds one recognition result. Interim results are only
// displayed; final ones are parsed as a move or a hint/retry command.
func (c *Controller) HandleTranscript(ctx context.Context, tr speech.Transcript) error {
	return c.post(ctx, func() { c.onTranscript(tr) })
}

// HandleDrop feeds a drag-and-drop gesture from the board.
func (c *Controller) HandleDrop(ctx context.Context, from, to string) error {
	return c.post(ctx, func() { c.onDrop(from, to) })
}

func (c *Controller) RequestHint(ctx context.Context) error {
	return c.post(ctx, c.requestHint)
}

// RetryEngine re-issues the engine request after an unresponsive engine.
func (c *Controller) RetryEngine(ctx context.Context) error {
	return c.post(ctx, c.retryEngine)
}

type Snapshot struct {
	State       State
	Position    string
	Turn        domain.Color
	History     []string
	HintsLeft   int
	Tally       material.Tally
	Termination domain.Termination
	Opening     domain.Opening
	Seq         uint64
}

// Snapshot is served in order with other events, so it observes every event
// posted before it.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	out := make(chan Snapshot, 1)
	if err := c.post(ctx, func() { out <- c.snapshot() }); err != nil {
		return Snapshot{}, err
	}
	select {
	case s := <-out:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-c.done:
		return Snapshot{}, ErrStopped
	}
}

func (c *Controller) snapshot() Snapshot {
	return Snapshot{
		State:       c.state,
		Position:    c.exec.rules.Position(),
		Turn:        c.exec.rules.Turn(),
		History:     c.exec.rules.History(),
		HintsLeft:   c.hints,
		Tally:       c.exec.tally,
		Termination: c.exec.termination(),
		Opening:     c.exec.opening,
		Seq:         c.seq,
	}
}

func (c *Controller) post(ctx context.Context, fn func()) error {
	select {
	case <-c.done:
		return ErrStopped
	default:
	}
	select {
	case c.events <- fn:
		return nil
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) notify(ev feedback.Event) {
	if c.notifier != nil {
		c.notifier.Notify(ev)
	}
}

func (c *Controller) start() {
	c.notify(feedback.Event{Kind: feedback.NewGame, Human: c.cfg.Human, Difficulty: c.cfg.Profile.Name})
	if c.checkTerminal() {
		return
	}
	if c.exec.rules.Turn() != c.cfg.Human {
		c.state = AIThinking
		c.notify(feedback.Event{Kind: feedback.Thinking})
		c.scheduleAI(0)
		return
	}
	c.notify(feedback.Event{Kind: feedback.Listening})
}

func (c *Controller) onTranscript(tr speech.Transcript) {
	text := strings.TrimSpace(tr.Text)
	if text == "" {
		return
	}
	if !tr.Final {
		c.notify(feedback.Event{Kind: feedback.Interim, Transcript: text})
		return
	}
	c.notify(feedback.Event{Kind: feedback.Heard, Transcript: text})

	switch keyword(text) {
	case "hint":
		c.requestHint()
		return
	case "retry":
		c.retryEngine()
		return
	}

	cmd, err := c.translator.Translate(text)
	if err != nil {
		c.logger.Debug("transcript not understood", zap.String("transcript", text))
		c.notify(feedback.Event{Kind: feedback.ParseFailure, Transcript: text, Err: err})
		return
	}
	c.submitHuman(cmd, c.cfg.VoiceDelay)
}

func (c *Controller) onDrop(from, to string) {
	cmd, err := domain.NewMoveCommand(from, to)
	if err != nil {
		c.notify(feedback.Event{
			Kind: feedback.IllegalMove,
			From: domain.Square(strings.ToLower(from)),
			To:   domain.Square(strings.ToLower(to)),
			Err:  err,
		})
		return
	}
	c.submitHuman(cmd, c.cfg.DropDelay)
}

// keyword spots the spoken control words that are not moves.
func keyword(text string) string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		switch w {
		case "hint", "retry":
			return w
		}
	}
	return ""
}

func (c *Controller) submitHuman(cmd domain.MoveCommand, delay time.Duration) {
	if c.state == GameOver {
		c.notify(feedback.Event{Kind: feedback.GameAlreadyOver, Err: ErrGameOver})
		return
	}
	if c.checkTerminal() {
		return
	}
	if c.state == AIThinking || c.exec.rules.Turn() != c.cfg.Human {
		c.notify(feedback.Event{Kind: feedback.NotYourTurn, From: cmd.From, To: cmd.To, Err: ErrNotYourTurn})
		return
	}

	applied, err := c.exec.attempt(cmd)
	if err != nil {
		c.logger.Info("human move rejected", zap.String("move", cmd.String()), zap.Error(err))
		c.notify(feedback.Event{Kind: feedback.IllegalMove, From: cmd.From, To: cmd.To, Err: err})
		return
	}
	c.logger.Info("human move", zap.String("uci", applied.UCI), zap.String("san", applied.SAN))
	c.logOpening("human")
	// an outstanding hint no longer fits the position
	c.hintSeq = 0
	c.notify(feedback.Event{Kind: feedback.HumanMoved, From: cmd.From, To: cmd.To, SAN: applied.SAN, Tally: c.exec.tally})

	c.state = AIThinking
	c.notify(feedback.Event{Kind: feedback.Thinking})
	c.scheduleAI(delay)
}

// checkTerminal moves to GameOver when the rules engine reports an ending.
func (c *Controller) checkTerminal() bool {
	if c.state == GameOver {
		return true
	}
	term := c.exec.termination()
	if !term.Over() {
		return false
	}
	c.state = GameOver
	c.aiSeq, c.hintSeq = 0, 0
	c.logger.Info("game over",
		zap.Stringer("result", term.Kind),
		zap.String("method", term.Method),
		zap.Stringer("winner", term.Winner),
	)
	c.notify(feedback.Event{Kind: feedback.GameOver, Termination: term, Tally: c.exec.tally})
	return true
}

func (c *Controller) scheduleAI(delay time.Duration) {
	time.AfterFunc(delay, func() {
		_ = c.post(context.Background(), c.requestAI)
	})
}

func (c *Controller) requestAI() {
	if c.state != AIThinking || c.aiSeq != 0 {
		return
	}
	if c.checkTerminal() {
		return
	}
	req := c.cfg.Profile.SearchRequest(c.exec.rules.Position())
	seq := c.nextSeq()
	c.aiSeq = seq
	c.logger.Debug("engine request", zap.Uint64("seq", seq), zap.String("profile", c.cfg.Profile.Name))
	c.query(seq, req, c.onAIReply)
}

func (c *Controller) onAIReply(seq uint64, mv uci.BestMove, err error) {
	if seq != c.aiSeq || seq != c.seq {
		c.logger.Debug("stale engine reply discarded", zap.Uint64("seq", seq), zap.Uint64("latest", c.seq))
		return
	}
	c.aiSeq = 0
	if c.state != AIThinking {
		return
	}

	if err != nil {
		if errors.Is(err, uci.ErrNoBestMove) && c.checkTerminal() {
			return
		}
		c.engineFailed(seq, err)
		return
	}
	if c.checkTerminal() {
		return
	}

	cmd, err := domain.NewMoveCommand(mv.From, mv.To)
	if err != nil {
		c.engineFailed(seq, err)
		return
	}
	if mv.Promotion != "" && mv.Promotion != "q" {
		c.logger.Debug("engine under-promotion played as queen", zap.String("move", mv.UCI()))
	}
	applied, err := c.exec.attempt(cmd)
	if err != nil {
		c.engineFailed(seq, err)
		return
	}
	c.logger.Info("engine move", zap.Uint64("seq", seq), zap.String("uci", applied.UCI), zap.Int("eval_cp", mv.EvalCP))
	c.logOpening("engine")
	c.notify(feedback.Event{Kind: feedback.AIMoved, From: cmd.From, To: cmd.To, SAN: applied.SAN, Tally: c.exec.tally})

	if c.checkTerminal() {
		return
	}
	c.state = HumanToMove
	c.notify(feedback.Event{Kind: feedback.YourTurn})
}

func (c *Controller) engineFailed(seq uint64, err error) {
	c.logger.Warn("engine request failed", zap.Uint64("seq", seq), zap.Error(err))
	c.state = HumanToMove
	if !errors.Is(err, ErrEngineUnresponsive) {
		err = fmt.Errorf("%w: %w", ErrEngineUnresponsive, err)
	}
	c.notify(feedback.Event{Kind: feedback.EngineUnresponsive, Err: err})
}

func (c *Controller) retryEngine() {
	switch {
	case c.state == GameOver:
		c.notify(feedback.Event{Kind: feedback.GameAlreadyOver, Err: ErrGameOver})
	case c.checkTerminal():
	case c.state == AIThinking:
		c.notify(feedback.Event{Kind: feedback.Thinking})
	case c.exec.rules.Turn() == c.cfg.Human:
		c.notify(feedback.Event{Kind: feedback.YourTurn})
	default:
		c.state = AIThinking
		c.notify(feedback.Event{Kind: feedback.EngineRetrying})
		c.requestAI()
	}
}

func (c *Controller) logOpening(source string) {
	if !c.exec.updateOpening() {
		return
	}
	c.logger.Info("opening",
		zap.String("eco_code", c.exec.opening.Code),
		zap.String("eco_title", c.exec.opening.Title),
		zap.String("source", source),
		zap.Int("ply", len(c.exec.rules.History())),
	)
}

func (c *Controller) nextSeq() uint64 {
	c.seq++
	return c.seq
}

// query runs one engine request off the control goroutine and posts its reply
// back, or ErrEngineUnresponsive once the timeout elapses. A late delivery is
// dropped by the sequence check in done.
func (c *Controller) query(seq uint64, req uci.SearchRequest, done func(uint64, uci.BestMove, error)) {
	timeout := c.cfg.EngineTimeout
	if timeout <= 0 {
		timeout = uci.SearchTimeout(req.Limits)
	}
	ctx, cancel := context.WithTimeout(c.ctx, timeout)
	timer := time.AfterFunc(timeout, func() {
		_ = c.post(context.Background(), func() { done(seq, uci.BestMove{}, ErrEngineUnresponsive) })
	})
	go func() {
		defer cancel()
		mv, err := c.engine.Query(ctx, req)
		if errors.Is(err, context.DeadlineExceeded) {
			// the timer reports this one
			return
		}
		timer.Stop()
		_ = c.post(context.Background(), func() { done(seq, mv, err) })
	}()
}
