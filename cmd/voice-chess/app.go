package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/voice-chess/internal/game"
	"github.com/park285/voice-chess/internal/speech"
)

type commandKind int

const (
	cmdSay commandKind = iota
	cmdDrop
	cmdReset
	cmdStatus
	cmdQuit
)

type command struct {
	kind     commandKind
	text     string
	from, to string
}

// parseCommand recognises the console commands. Anything else is treated as
// a spoken transcript, which also covers "hint" and "retry".
func parseCommand(line string) command {
	text := strings.TrimSpace(line)
	fields := strings.Fields(strings.ToLower(text))
	switch {
	case len(fields) == 0:
		return command{kind: cmdSay}
	case len(fields) == 3 && fields[0] == "drop":
		return command{kind: cmdDrop, from: fields[1], to: fields[2]}
	case len(fields) == 1 && (fields[0] == "quit" || fields[0] == "exit"):
		return command{kind: cmdQuit}
	case len(fields) == 1 && fields[0] == "reset",
		len(fields) == 2 && fields[0] == "new" && fields[1] == "game":
		return command{kind: cmdReset}
	case len(fields) == 1 && fields[0] == "status":
		return command{kind: cmdStatus}
	}
	return command{kind: cmdSay, text: text}
}

type sessionFactory interface {
	NewSession(ctx context.Context, extra ...io.Closer) (*game.Session, error)
}

// app owns the current game session and routes input to it.
type app struct {
	factory sessionFactory
	out     io.Writer
	logger  *zap.Logger

	mu      sync.Mutex
	session *game.Session
}

func newApp(factory sessionFactory, out io.Writer, logger *zap.Logger) *app {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &app{factory: factory, out: out, logger: logger}
}

// reset discards the current game, including its engine, and starts a new one.
func (a *app) reset(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session != nil {
		if err := a.session.Close(); err != nil {
			a.logger.Warn("closing previous session", zap.Error(err))
		}
		a.session = nil
	}
	s, err := a.factory.NewSession(ctx)
	if err != nil {
		return err
	}
	s.Start(ctx)
	a.session = s
	return nil
}

func (a *app) current() *game.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

func (a *app) close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return nil
	}
	err := a.session.Close()
	a.session = nil
	return err
}

// handle routes one transcript. It reports true when the user asked to quit.
func (a *app) handle(ctx context.Context, tr speech.Transcript) (bool, error) {
	cmd := command{kind: cmdSay, text: tr.Text}
	if tr.Final {
		cmd = parseCommand(tr.Text)
	}
	switch cmd.kind {
	case cmdQuit:
		return true, nil
	case cmdReset:
		return false, a.reset(ctx)
	}

	s := a.current()
	if s == nil {
		return false, fmt.Errorf("no game in progress")
	}
	switch cmd.kind {
	case cmdDrop:
		return false, s.Controller.HandleDrop(ctx, cmd.from, cmd.to)
	case cmdStatus:
		snap, err := s.Controller.Snapshot(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(a.out, "%s  %s to move  hints %d  [%s]\n", snap.Position, snap.Turn, snap.HintsLeft, strings.Join(snap.History, " "))
		if snap.Opening.Known() {
			fmt.Fprintf(a.out, "opening: %s\n", snap.Opening)
		}
		return false, nil
	}
	if cmd.text == "" {
		return false, nil
	}
	return false, s.Controller.HandleTranscript(ctx, speech.Transcript{Text: cmd.text, Final: tr.Final})
}

// run reads both transcript sources until ctx ends, the local source closes
// or the user quits. remote may be nil.
func (a *app) run(ctx context.Context, local, remote <-chan speech.Transcript) {
	for {
		var (
			tr speech.Transcript
			ok bool
		)
		select {
		case <-ctx.Done():
			return
		case tr, ok = <-local:
			if !ok {
				return
			}
		case tr, ok = <-remote:
			if !ok {
				remote = nil
				continue
			}
		}
		quit, err := a.handle(ctx, tr)
		if err != nil {
			a.logger.Warn("input rejected", zap.String("text", tr.Text), zap.Error(err))
		}
		if quit {
			return
		}
	}
}
