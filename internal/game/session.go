package game

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/park285/voice-chess/internal/voice"
)

// SessionDeps are the collaborators one game is played through. Closers are
// released when the session closes, in order.
type SessionDeps struct {
	Rules      Rules
	Engine     Searcher
	Translator *voice.Translator
	Notifier   Notifier
	Closers    []io.Closer
}

// Session is one game: a single rules state, its controller and the engine
// resources it holds. A reset closes the session and builds a new one.
type Session struct {
	ID         string
	StartedAt  time.Time
	Controller *Controller

	logger  *zap.Logger
	closers []io.Closer

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan error
	closed bool
}

func NewSession(deps SessionDeps, cfg Config, logger *zap.Logger) (*Session, error) {
	if deps.Rules == nil || deps.Engine == nil || deps.Translator == nil {
		return nil, errors.New("session requires rules, engine and translator")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	logger = logger.With(zap.String("session_id", id))
	return &Session{
		ID:         id,
		StartedAt:  time.Now(),
		Controller: NewController(deps.Rules, deps.Engine, deps.Translator, deps.Notifier, cfg, logger),
		logger:     logger,
		closers:    deps.Closers,
	}, nil
}

// Start runs the controller in the background until Close or ctx ends.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil || s.closed {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan error, 1)
	s.logger.Info("session started")
	go func() { s.done <- s.Controller.Run(runCtx) }()
}

func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	var err error
	if cancel != nil {
		cancel()
		if runErr := <-done; runErr != nil && !errors.Is(runErr, context.Canceled) {
			err = multierr.Append(err, runErr)
		}
	}
	for _, c := range s.closers {
		if c != nil {
			err = multierr.Append(err, c.Close())
		}
	}
	s.logger.Info("session closed", zap.Duration("duration", time.Since(s.StartedAt)), zap.Error(err))
	return err
}
