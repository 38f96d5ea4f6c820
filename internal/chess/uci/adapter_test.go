package uci

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type fakeTransport struct {
	mu     sync.Mutex
	sent   []string
	lines  chan string
	closed bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{lines: make(chan string, 64)}
}

func (f *fakeTransport) Send(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.sent = append(f.sent, line)
	switch line {
	case "uci":
		f.lines <- "id name Fake"
		f.lines <- "uciok"
	case "isready":
		f.lines <- "readyok"
	}
	return nil
}

func (f *fakeTransport) Lines() <-chan string { return f.lines }

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.lines)
	}
	return nil
}

func (f *fakeTransport) push(line string) { f.lines <- line }

func (f *fakeTransport) sentSince(n int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent[n:]...)
}

func (f *fakeTransport) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestAdapter(t *testing.T) (*Adapter, *fakeTransport) {
	t.Helper()
	tr := newFakeTransport()
	a, err := NewAdapter(context.Background(), tr, Options{}, nil)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a, tr
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestHandshakeOrder(t *testing.T) {
	_, tr := newTestAdapter(t)
	want := []string{
		"uci",
		"setoption name Threads value 1",
		"setoption name Hash value 16",
		"ucinewgame",
		"isready",
	}
	if diff := cmp.Diff(want, tr.sentSince(0)); diff != "" {
		t.Fatalf("handshake (-want +got):\n%s", diff)
	}
}

func TestSearchCommandOrder(t *testing.T) {
	a, tr := newTestAdapter(t)
	n := tr.sentCount()
	fen := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	p, err := a.Search(context.Background(), SearchRequest{FEN: fen, SkillLevel: 10, Limits: Limits{Depth: 8}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []string{
		"position fen " + fen,
		"setoption name Skill Level value 10",
		"go depth 8",
	}
	if diff := cmp.Diff(want, tr.sentSince(n)); diff != "" {
		t.Fatalf("commands (-want +got):\n%s", diff)
	}

	tr.push("info depth 8 seldepth 10 multipv 1 score cp -25 nodes 1000 pv e7e5 g1f3")
	tr.push("bestmove e7e5 ponder g1f3")
	mv, err := p.Wait(waitCtx(t))
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if mv.From != "e7" || mv.To != "e5" || mv.Ponder != "g1f3" {
		t.Fatalf("unexpected move %+v", mv)
	}
	if mv.EvalCP != -25 || len(mv.Principal) != 2 {
		t.Fatalf("expected info attached, got %+v", mv)
	}
}

func TestSearchOmitsSkillWhenUnset(t *testing.T) {
	a, tr := newTestAdapter(t)
	n := tr.sentCount()
	if _, err := a.Search(context.Background(), SearchRequest{SkillLevel: NoSkillLevel, Limits: Limits{Depth: 3}}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []string{"position startpos", "go depth 3"}
	if diff := cmp.Diff(want, tr.sentSince(n)); diff != "" {
		t.Fatalf("commands (-want +got):\n%s", diff)
	}
}

func TestStaleReplyDiscarded(t *testing.T) {
	a, tr := newTestAdapter(t)
	first, err := a.Search(context.Background(), SearchRequest{FEN: "startpos", Limits: Limits{Depth: 12}})
	if err != nil {
		t.Fatalf("Search#1: %v", err)
	}
	n := tr.sentCount()
	second, err := a.Search(context.Background(), SearchRequest{FEN: "startpos", Moves: []string{"e2e4"}, Limits: Limits{Depth: 4}})
	if err != nil {
		t.Fatalf("Search#2: %v", err)
	}
	if second.Seq <= first.Seq || a.Latest() != second.Seq {
		t.Fatalf("sequence numbers not increasing: %d, %d", first.Seq, second.Seq)
	}
	if got := tr.sentSince(n); len(got) == 0 || got[0] != "stop" {
		t.Fatalf("expected stop before superseding search, got %v", got)
	}

	tr.push("bestmove d2d4")
	tr.push("bestmove c7c5")

	if _, err := first.Wait(waitCtx(t)); !errors.Is(err, ErrStaleReply) {
		t.Fatalf("expected first reply to be stale, got %v", err)
	}
	mv, err := second.Wait(waitCtx(t))
	if err != nil {
		t.Fatalf("Wait#2: %v", err)
	}
	if mv.UCI() != "c7c5" {
		t.Fatalf("expected c7c5 for latest request, got %s", mv.UCI())
	}
}

func TestOutstandingSearchesAreCapped(t *testing.T) {
	a, tr := newTestAdapter(t)
	req := SearchRequest{Limits: Limits{Depth: 20}}
	var issued []*Pending
	for i := 0; i < maxOutstanding; i++ {
		p, err := a.Search(context.Background(), req)
		if err != nil {
			t.Fatalf("Search#%d: %v", i+1, err)
		}
		issued = append(issued, p)
	}

	n := tr.sentCount()
	if _, err := a.Search(context.Background(), req); !errors.Is(err, ErrEngineBusy) {
		t.Fatalf("expected ErrEngineBusy, got %v", err)
	}
	if got := tr.sentSince(n); len(got) != 0 {
		t.Fatalf("a rejected search reached the engine: %v", got)
	}

	tr.push("bestmove a2a3")
	if _, err := issued[0].Wait(waitCtx(t)); !errors.Is(err, ErrStaleReply) {
		t.Fatalf("expected stale reply for the oldest search, got %v", err)
	}
	if _, err := a.Search(context.Background(), req); err != nil {
		t.Fatalf("Search after a reply: %v", err)
	}
}

func TestInfoFollowsNewestSearch(t *testing.T) {
	a, tr := newTestAdapter(t)
	if _, err := a.Search(context.Background(), SearchRequest{Limits: Limits{Depth: 20}}); err != nil {
		t.Fatalf("Search#1: %v", err)
	}
	if _, err := a.Search(context.Background(), SearchRequest{Limits: Limits{Depth: 4}}); err != nil {
		t.Fatalf("Search#2: %v", err)
	}

	// the first search never answers; scores keep arriving for the second
	tr.push("info depth 4 multipv 1 score cp 40 pv d2d4")
	deadline := time.Now().Add(2 * time.Second)
	for {
		a.mu.Lock()
		head, tail := a.pending[0].info, a.pending[len(a.pending)-1].info
		a.mu.Unlock()
		if tail.EvalCP == 40 {
			if head.EvalCP != 0 || len(head.Principal) != 0 {
				t.Fatalf("score attached to the superseded search: %+v", head)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("score never attached to the newest search")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStaleScoreIsNotReported(t *testing.T) {
	a, tr := newTestAdapter(t)
	if _, err := a.Search(context.Background(), SearchRequest{Limits: Limits{Depth: 20}}); err != nil {
		t.Fatalf("Search#1: %v", err)
	}
	second, err := a.Search(context.Background(), SearchRequest{Limits: Limits{Depth: 4}})
	if err != nil {
		t.Fatalf("Search#2: %v", err)
	}

	tr.push("info depth 18 multipv 1 score cp 90 pv d2d4 d7d5")
	tr.push("bestmove d2d4")
	tr.push("bestmove e2e4")
	mv, err := second.Wait(waitCtx(t))
	if err != nil {
		t.Fatalf("Wait#2: %v", err)
	}
	if mv.UCI() != "e2e4" || mv.EvalCP != 0 || len(mv.Principal) != 0 {
		t.Fatalf("stale score leaked into %+v", mv)
	}
}

func TestWaitHonoursContext(t *testing.T) {
	a, _ := newTestAdapter(t)
	p, err := a.Search(context.Background(), SearchRequest{Limits: Limits{Depth: 1}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := p.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNoBestMove(t *testing.T) {
	a, tr := newTestAdapter(t)
	p, err := a.Search(context.Background(), SearchRequest{Limits: Limits{Depth: 1}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	tr.push("bestmove (none)")
	if _, err := p.Wait(waitCtx(t)); !errors.Is(err, ErrNoBestMove) {
		t.Fatalf("expected ErrNoBestMove, got %v", err)
	}
}

func TestCloseResolvesPending(t *testing.T) {
	a, _ := newTestAdapter(t)
	p, err := a.Search(context.Background(), SearchRequest{Limits: Limits{Depth: 1}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := p.Wait(waitCtx(t)); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := a.Search(context.Background(), SearchRequest{Limits: Limits{Depth: 1}}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected search after close to fail, got %v", err)
	}
}

func TestSearchValidation(t *testing.T) {
	a, _ := newTestAdapter(t)
	if _, err := a.Search(context.Background(), SearchRequest{}); err == nil {
		t.Fatalf("expected error without limits")
	}
	if _, err := a.Search(context.Background(), SearchRequest{SkillLevel: 25, Limits: Limits{Depth: 1}}); err == nil {
		t.Fatalf("expected error for skill level 25")
	}
}

func TestParseBestMove(t *testing.T) {
	cases := []struct {
		line string
		want BestMove
		err  error
	}{
		{line: "bestmove e2e4", want: BestMove{From: "e2", To: "e4"}},
		{line: "bestmove e7e8q ponder a2a3", want: BestMove{From: "e7", To: "e8", Promotion: "q", Ponder: "a2a3"}},
		{line: "bestmove (none)", err: ErrNoBestMove},
		{line: "bestmove", err: ErrBadBestMove},
		{line: "bestmove e9e4", err: ErrBadBestMove},
		{line: "bestmove e7e8k", err: ErrBadBestMove},
		{line: "info depth 1", err: ErrBadBestMove},
	}
	for _, tc := range cases {
		got, err := ParseBestMove(tc.line)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q: expected %v, got %v", tc.line, tc.err, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.line, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("%q (-want +got):\n%s", tc.line, diff)
		}
	}
}

func TestSearchTimeoutBounds(t *testing.T) {
	if got := SearchTimeout(Limits{Depth: 1}); got != 6*time.Second {
		t.Fatalf("shallow depth timeout %v", got)
	}
	if got := SearchTimeout(Limits{Depth: 200}); got != 20*time.Second {
		t.Fatalf("deep timeout %v", got)
	}
	if got := SearchTimeout(Limits{MoveTimeMillis: 1000}); got != 9*time.Second {
		t.Fatalf("movetime timeout %v", got)
	}
}

const fakeEngineScript = `#!/bin/sh
while read line; do
  case "$line" in
    uci) echo "id name scripted"; echo "uciok" ;;
    isready) echo "readyok" ;;
    go*) echo "info depth 1 score cp 31 pv g8f6"; echo "bestmove g8f6" ;;
    quit) exit 0 ;;
  esac
done
`

func TestProcessTransportAgainstScriptedEngine(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("needs /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "engine.sh")
	if err := os.WriteFile(path, []byte(fakeEngineScript), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	ctx := waitCtx(t)
	proc, err := StartProcess(ctx, path)
	if err != nil {
		t.Fatalf("StartProcess: %v", err)
	}
	a, err := NewAdapter(ctx, proc, Options{Threads: 1, HashMB: 8}, nil)
	if err != nil {
		_ = proc.Close()
		t.Fatalf("NewAdapter: %v", err)
	}
	defer a.Close()

	p, err := a.Search(ctx, SearchRequest{FEN: "startpos", Moves: []string{"e2e4"}, SkillLevel: 5, Limits: Limits{Depth: 2}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	mv, err := p.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if mv.UCI() != "g8f6" || mv.EvalCP != 31 {
		t.Fatalf("unexpected reply %+v", mv)
	}
	if !strings.HasPrefix(mv.From, "g") {
		t.Fatalf("unexpected from %q", mv.From)
	}
}

func TestStartProcessMissingBinary(t *testing.T) {
	if _, err := StartProcess(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing binary")
	}
	if _, err := StartProcess(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
