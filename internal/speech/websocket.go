package speech

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

var ErrNotConnected = errors.New("speech service not connected")

// wire messages
type startMessage struct {
	Type           string `json:"type"`
	Lang           string `json:"lang"`
	Continuous     bool   `json:"continuous"`
	InterimResults bool   `json:"interimResults"`
}

type resultMessage struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"isFinal"`
}

// WebSocketCapture streams recognition results from a speech service over a
// websocket. It reconnects with backoff and keeps the link alive with pings.
type WebSocketCapture struct {
	url    string
	cfg    Config
	logger *zap.Logger

	connM sync.RWMutex
	conn  *websocket.Conn
	state ConnState

	// writes are serialized; nhooyr allows one concurrent writer
	writeM sync.Mutex

	out chan Transcript

	// set once Listen succeeds; recognition is restarted after reconnects
	listening atomic.Bool

	maxReconnectAttempts int
	pingInterval         time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

func NewWebSocketCapture(url string, cfg Config, logger *zap.Logger) *WebSocketCapture {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = "en-US"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocketCapture{
		url:                  url,
		cfg:                  cfg,
		logger:               logger,
		state:                StateDisconnected,
		out:                  make(chan Transcript, 16),
		maxReconnectAttempts: 5,
		pingInterval:         30 * time.Second,
		stopCh:               make(chan struct{}),
		rootCtx:              ctx,
		rootCancel:           cancel,
	}
}

func (w *WebSocketCapture) Connect(ctx context.Context) error {
	w.connM.Lock()
	if w.state == StateConnected || w.state == StateConnecting {
		w.connM.Unlock()
		return nil
	}
	w.state = StateConnecting
	w.connM.Unlock()

	if err := w.dial(ctx); err != nil {
		w.setState(StateFailed)
		w.scheduleReconnect()
		return err
	}
	return nil
}

func (w *WebSocketCapture) dial(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, w.url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      http.Header{"Accept-Language": []string{w.cfg.Language}},
	})
	if err != nil {
		return err
	}

	w.connM.Lock()
	if w.isStopping() {
		w.connM.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "close")
		return ErrNotConnected
	}
	w.conn = conn
	w.state = StateConnected
	w.connM.Unlock()
	w.logger.Info("speech service connected", zap.String("url", w.url))

	w.wg.Add(2)
	go w.listen(conn)
	go w.pingLoop(conn)
	if w.listening.Load() {
		if err := w.sendStart(ctx, conn); err != nil {
			w.logger.Warn("speech restart after reconnect failed", zap.Error(err))
		}
	}
	return nil
}

// Listen asks the service to start recognizing with the configured language
// and flags.
func (w *WebSocketCapture) Listen(ctx context.Context) error {
	w.connM.RLock()
	conn, state := w.conn, w.state
	w.connM.RUnlock()
	if conn == nil || state != StateConnected {
		return ErrNotConnected
	}
	if err := w.sendStart(ctx, conn); err != nil {
		return err
	}
	w.listening.Store(true)
	return nil
}

func (w *WebSocketCapture) sendStart(ctx context.Context, conn *websocket.Conn) error {
	msg := startMessage{
		Type:           "start",
		Lang:           w.cfg.Language,
		Continuous:     w.cfg.Continuous,
		InterimResults: w.cfg.Interim,
	}
	w.writeM.Lock()
	defer w.writeM.Unlock()
	return wsjson.Write(ctx, conn, msg)
}

func (w *WebSocketCapture) Transcripts() <-chan Transcript { return w.out }

func (w *WebSocketCapture) State() ConnState {
	w.connM.RLock()
	defer w.connM.RUnlock()
	return w.state
}

func (w *WebSocketCapture) listen(conn *websocket.Conn) {
	defer w.wg.Done()
	for {
		var msg resultMessage
		if err := wsjson.Read(w.rootCtx, conn, &msg); err != nil {
			if w.isStopping() {
				return
			}
			w.logger.Warn("speech service read failed", zap.Error(err))
			w.dropConn(conn, websocket.StatusGoingAway, "reconnect")
			w.scheduleReconnect()
			return
		}
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			continue
		}
		if !msg.IsFinal && !w.cfg.Interim {
			continue
		}
		select {
		case w.out <- Transcript{Text: text, Final: msg.IsFinal}:
		case <-w.stopCh:
			return
		}
		// single-shot recognition ends with each final result
		if msg.IsFinal && !w.cfg.Continuous {
			if err := w.sendStart(w.rootCtx, conn); err != nil {
				w.logger.Debug("speech restart failed", zap.Error(err))
			}
		}
	}
}

func (w *WebSocketCapture) pingLoop(conn *websocket.Conn) {
	defer w.wg.Done()
	t := time.NewTicker(w.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-w.stopCh:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(w.rootCtx, 3*time.Second)
			err := conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				// listen sees the closed conn and reconnects
				w.dropConn(conn, websocket.StatusGoingAway, "ping failure")
				return
			}
		}
	}
}

func (w *WebSocketCapture) scheduleReconnect() {
	if w.maxReconnectAttempts <= 0 || w.isStopping() {
		return
	}
	w.setState(StateReconnecting)

	go func() {
		for attempt := 1; attempt <= w.maxReconnectAttempts; attempt++ {
			select {
			case <-w.stopCh:
				return
			case <-time.After(backoffDuration(attempt)):
			}
			if err := w.dial(w.rootCtx); err != nil {
				w.logger.Debug("speech reconnect failed", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			return
		}
		w.setState(StateFailed)
	}()
}

func (w *WebSocketCapture) setState(s ConnState) {
	w.connM.Lock()
	w.state = s
	w.connM.Unlock()
}

func (w *WebSocketCapture) dropConn(conn *websocket.Conn, code websocket.StatusCode, reason string) {
	w.connM.Lock()
	if w.conn == conn {
		w.conn = nil
		w.state = StateDisconnected
	}
	w.connM.Unlock()
	_ = conn.Close(code, reason)
}

func (w *WebSocketCapture) Close() error {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.connM.Lock()
	conn := w.conn
	w.conn = nil
	w.state = StateDisconnected
	w.connM.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}
	w.rootCancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		return errors.New("speech capture did not stop in time")
	}
	return nil
}

func (w *WebSocketCapture) isStopping() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}
