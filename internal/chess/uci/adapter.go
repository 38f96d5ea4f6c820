package uci

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrStaleReply resolves a request that was superseded before its reply came.
	ErrStaleReply = errors.New("stale engine reply")
	// ErrEngineBusy rejects a search while too many earlier ones are unanswered.
	ErrEngineBusy = errors.New("engine has too many unanswered searches")
)

// maxOutstanding bounds the requests awaiting a bestmove. An engine that
// stops answering would otherwise grow the queue by one per retry.
const maxOutstanding = 4

// Adapter issues searches to one engine and matches each bestmove reply to
// the request that caused it. The engine answers every go with exactly one
// bestmove, in order, so replies resolve outstanding requests oldest first.
// Only the most recently issued request may receive a move; older ones are
// resolved with ErrStaleReply.
type Adapter struct {
	transport Transport
	logger    *zap.Logger

	mu      sync.Mutex
	seq     uint64
	pending []*Pending
	closed  bool

	done chan struct{}
}

// NewAdapter performs the protocol handshake on t and starts dispatching
// replies.
func NewAdapter(ctx context.Context, t Transport, opt Options, logger *zap.Logger) (*Adapter, error) {
	if t == nil {
		return nil, fmt.Errorf("engine transport is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := handshake(ctx, t, opt); err != nil {
		return nil, err
	}
	a := &Adapter{transport: t, logger: logger, done: make(chan struct{})}
	go a.dispatch()
	return a, nil
}

// Pending is one issued search.
type Pending struct {
	Seq     uint64
	Request SearchRequest
	Issued  time.Time

	result chan pendingResult
	info   infoLine
}

type pendingResult struct {
	move BestMove
	err  error
}

func (p *Pending) resolve(mv BestMove, err error) {
	select {
	case p.result <- pendingResult{move: mv, err: err}:
	default:
	}
}

// Wait blocks until the reply arrives or ctx ends.
func (p *Pending) Wait(ctx context.Context) (BestMove, error) {
	select {
	case <-ctx.Done():
		return BestMove{}, ctx.Err()
	case res := <-p.result:
		return res.move, res.err
	}
}

// Search sends position, skill and go for req and returns the request handle.
// An unresolved earlier search is told to stop first; its reply will be stale.
// It fails with ErrEngineBusy while maxOutstanding searches are unanswered.
func (a *Adapter) Search(ctx context.Context, req SearchRequest) (*Pending, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	goTokens, err := buildGoTokens(req.Limits)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrClosed
	}
	if len(a.pending) >= maxOutstanding {
		return nil, ErrEngineBusy
	}

	if len(a.pending) > 0 {
		if err := a.transport.Send("stop"); err != nil {
			return nil, fmt.Errorf("send stop: %w", err)
		}
	}

	cmds := []string{buildPositionCommand(req.FEN, req.Moves)}
	if req.SkillLevel != NoSkillLevel {
		cmds = append(cmds, buildSkillCommand(req.SkillLevel))
	}
	cmds = append(cmds, strings.Join(goTokens, " "))
	for _, cmd := range cmds {
		if err := a.transport.Send(cmd); err != nil {
			return nil, fmt.Errorf("send %q: %w", cmd, err)
		}
	}

	a.seq++
	p := &Pending{
		Seq:     a.seq,
		Request: req,
		Issued:  time.Now(),
		result:  make(chan pendingResult, 1),
	}
	a.pending = append(a.pending, p)
	a.logger.Debug("uci search issued",
		zap.Uint64("seq", p.Seq),
		zap.Int("depth", req.Limits.Depth),
		zap.Int("skill", req.SkillLevel),
		zap.Int("outstanding", len(a.pending)),
	)
	return p, nil
}

// Query issues req and waits for its reply.
func (a *Adapter) Query(ctx context.Context, req SearchRequest) (BestMove, error) {
	p, err := a.Search(ctx, req)
	if err != nil {
		return BestMove{}, err
	}
	return p.Wait(ctx)
}

// Latest returns the sequence number of the most recent request.
func (a *Adapter) Latest() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.seq
}

func (a *Adapter) dispatch() {
	defer close(a.done)
	for line := range a.transport.Lines() {
		switch {
		case strings.HasPrefix(line, "info "):
			a.recordInfo(line)
		case strings.HasPrefix(line, bestMovePrefix):
			a.resolveHead(line)
		}
	}

	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.closed = true
	a.mu.Unlock()
	for _, p := range pending {
		p.resolve(BestMove{}, ErrClosed)
	}
}

// recordInfo keeps the score for the newest request, the only one whose reply
// is used. Lines from a superseded search are cleared again when its bestmove
// arrives.
func (a *Adapter) recordInfo(line string) {
	info, ok := parseInfo(line)
	if !ok || info.MultiPV != 1 {
		return
	}
	a.mu.Lock()
	if n := len(a.pending); n > 0 {
		a.pending[n-1].info = info
	}
	a.mu.Unlock()
}

func (a *Adapter) resolveHead(line string) {
	a.mu.Lock()
	if len(a.pending) == 0 {
		a.mu.Unlock()
		a.logger.Warn("uci bestmove without outstanding request", zap.String("line", line))
		return
	}
	p := a.pending[0]
	a.pending = a.pending[1:]
	latest := a.seq
	if n := len(a.pending); n > 0 {
		a.pending[n-1].info = infoLine{}
	}
	a.mu.Unlock()

	if p.Seq != latest {
		a.logger.Debug("uci stale reply discarded",
			zap.Uint64("seq", p.Seq),
			zap.Uint64("latest", latest),
			zap.String("line", line),
		)
		p.resolve(BestMove{}, ErrStaleReply)
		return
	}

	mv, err := ParseBestMove(line)
	if err == nil {
		mv.EvalCP = p.info.EvalCP
		mv.Principal = p.info.Principal
	}
	a.logger.Debug("uci reply",
		zap.Uint64("seq", p.Seq),
		zap.String("move", mv.UCI()),
		zap.Duration("elapsed", time.Since(p.Issued)),
		zap.Error(err),
	)
	p.resolve(mv, err)
}

func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()
	return a.transport.Close()
}
