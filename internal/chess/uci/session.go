package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const (
	defaultReadyTimeout = 4 * time.Second
	processExitTimeout  = 3 * time.Second
)

var ErrClosed = errors.New("engine transport closed")

// Transport carries protocol lines to and from a search engine. Lines is
// closed when the engine goes away.
type Transport interface {
	Send(line string) error
	Lines() <-chan string
	Close() error
}

type Options struct {
	Threads int
	HashMB  int
}

func (o Options) commands() []string {
	threads := o.Threads
	if threads <= 0 {
		threads = 1
	}
	hash := o.HashMB
	if hash <= 0 {
		hash = 16
	}
	return []string{
		fmt.Sprintf("setoption name Threads value %d", threads),
		fmt.Sprintf("setoption name Hash value %d", hash),
	}
}

// Process runs an engine binary and speaks to it over stdin/stdout.
type Process struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string

	mu     sync.Mutex
	closed bool
}

func StartProcess(ctx context.Context, binaryPath string) (*Process, error) {
	if strings.TrimSpace(binaryPath) == "" {
		return nil, fmt.Errorf("binary path required")
	}
	if _, err := os.Stat(binaryPath); err != nil {
		return nil, fmt.Errorf("engine binary check: %w", err)
	}

	cmd := exec.CommandContext(ctx, binaryPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdoutPipe.Close()
		return nil, fmt.Errorf("start engine: %w", err)
	}

	p := &Process{cmd: cmd, stdin: stdin, lines: make(chan string, 64)}
	go p.pump(stdoutPipe)
	return p, nil
}

func (p *Process) pump(r io.Reader) {
	defer close(p.lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.lines <- strings.TrimSpace(scanner.Text())
	}
}

func (p *Process) Lines() <-chan string { return p.lines }

func (p *Process) Send(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	_, err := io.WriteString(p.stdin, line)
	return err
}

func (p *Process) Close() error {
	_ = p.Send("quit")

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.stdin.Close()
	p.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- p.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(processExitTimeout):
		_ = p.cmd.Process.Kill()
		return errors.New("engine did not exit in time")
	}
}

// handshake runs uci/uciok, applies options and waits for readyok. It must
// finish before anything else reads the transport.
func handshake(ctx context.Context, t Transport, opt Options) error {
	initCtx, cancel := context.WithTimeout(ctx, defaultReadyTimeout)
	defer cancel()

	if err := t.Send("uci"); err != nil {
		return fmt.Errorf("send uci: %w", err)
	}
	if err := awaitToken(initCtx, t, "uciok"); err != nil {
		return fmt.Errorf("wait uciok: %w", err)
	}
	for _, cmd := range opt.commands() {
		if err := t.Send(cmd); err != nil {
			return fmt.Errorf("apply options: %w", err)
		}
	}
	if err := t.Send("ucinewgame"); err != nil {
		return fmt.Errorf("send ucinewgame: %w", err)
	}
	if err := t.Send("isready"); err != nil {
		return fmt.Errorf("send isready: %w", err)
	}
	if err := awaitToken(initCtx, t, "readyok"); err != nil {
		return fmt.Errorf("wait readyok: %w", err)
	}
	return nil
}

func awaitToken(ctx context.Context, t Transport, token string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-t.Lines():
			if !ok {
				return ErrClosed
			}
			if strings.Contains(line, token) {
				return nil
			}
		}
	}
}
