package narrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Log narrates into the structured log; used when no speech endpoint is set.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

func (l *Log) Speak(text string, rate float64) {
	l.logger.Info("narrate", zap.String("text", text), zap.Float64("rate", rate))
}

type utterance struct {
	Text string  `json:"text"`
	Rate float64 `json:"rate"`
}

// HTTP posts utterances to a text-to-speech endpoint. Speak never blocks: a
// single worker drains a small queue and drops the oldest pending utterance
// when the queue is full, so stale speech does not pile up.
type HTTP struct {
	url     string
	client  *fasthttp.Client
	timeout time.Duration
	logger  *zap.Logger

	queue chan utterance
	stop  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

type Option func(*HTTP)

func WithTimeout(d time.Duration) Option {
	return func(h *HTTP) { h.timeout = d }
}

func WithClient(c *fasthttp.Client) Option {
	return func(h *HTTP) { h.client = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(h *HTTP) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewHTTP(url string, opts ...Option) *HTTP {
	h := &HTTP{
		url:     strings.TrimSpace(url),
		client:  &fasthttp.Client{ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second, MaxConnsPerHost: 4},
		timeout: 5 * time.Second,
		logger:  zap.NewNop(),
		queue:   make(chan utterance, 8),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.wg.Add(1)
	go h.run()
	return h
}

func (h *HTTP) Speak(text string, rate float64) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	u := utterance{Text: text, Rate: rate}
	for {
		select {
		case <-h.stop:
			return
		case h.queue <- u:
			return
		default:
		}
		select {
		case dropped := <-h.queue:
			h.logger.Debug("narrator queue full, dropping", zap.String("text", dropped.Text))
		default:
		}
	}
}

func (h *HTTP) run() {
	defer h.wg.Done()
	for {
		select {
		case <-h.stop:
			return
		case u := <-h.queue:
			ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
			if err := h.post(ctx, u); err != nil {
				h.logger.Warn("narrator post failed", zap.Error(err))
			}
			cancel()
		}
	}
}

func (h *HTTP) post(ctx context.Context, u utterance) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(h.url)
	req.Header.SetContentType("application/json")
	payload, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal utterance: %w", err)
	}
	req.SetBody(payload)

	if err := h.client.DoDeadline(req, resp, deadline(ctx, h.timeout)); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		return fmt.Errorf("narrator error: status=%d body=%s", status, truncate(string(resp.Body()), 256))
	}
	return nil
}

func (h *HTTP) Close() error {
	h.once.Do(func() { close(h.stop) })
	h.wg.Wait()
	return nil
}

func deadline(ctx context.Context, fallback time.Duration) time.Time {
	limit := time.Now().Add(fallback)
	if dl, ok := ctx.Deadline(); ok && dl.Before(limit) {
		return dl
	}
	return limit
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
