package speech

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

// Transcript is one recognition result. Interim results have Final=false and
// are only shown, never parsed.
type Transcript struct {
	Text  string
	Final bool
}

type Config struct {
	Language   string
	Continuous bool
	Interim    bool
}

// Capture produces transcripts. Listen arms recognition; when Continuous is
// off a capture delivers at most one final result per Listen.
type Capture interface {
	Listen(ctx context.Context) error
	Transcripts() <-chan Transcript
	Close() error
}

// LineCapture treats every input line as a final transcript. It backs the
// console front-end and tests.
type LineCapture struct {
	r   io.Reader
	out chan Transcript

	startOnce sync.Once
	closeOnce sync.Once
	stop      chan struct{}
}

func NewLineCapture(r io.Reader) *LineCapture {
	return &LineCapture{r: r, out: make(chan Transcript, 16), stop: make(chan struct{})}
}

// Listen starts reading on first call; later calls are no-ops since a line
// reader is always listening.
func (l *LineCapture) Listen(ctx context.Context) error {
	l.startOnce.Do(func() { go l.read(ctx) })
	return nil
}

func (l *LineCapture) read(ctx context.Context) {
	defer close(l.out)
	scanner := bufio.NewScanner(l.r)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		select {
		case l.out <- Transcript{Text: text, Final: true}:
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		}
	}
}

func (l *LineCapture) Transcripts() <-chan Transcript { return l.out }

func (l *LineCapture) Close() error {
	l.closeOnce.Do(func() { close(l.stop) })
	return nil
}
