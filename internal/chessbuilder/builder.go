package chessbuilder

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/voice-chess/internal/chess"
	"github.com/park285/voice-chess/internal/chess/uci"
	"github.com/park285/voice-chess/internal/config"
	"github.com/park285/voice-chess/internal/domain"
	"github.com/park285/voice-chess/internal/game"
	"github.com/park285/voice-chess/internal/phonetic"
	"github.com/park285/voice-chess/internal/rules"
	"github.com/park285/voice-chess/internal/voice"
)

// EngineStarter launches an engine and returns its protocol transport.
type EngineStarter func(ctx context.Context, binaryPath string) (uci.Transport, error)

func startProcess(ctx context.Context, binaryPath string) (uci.Transport, error) {
	return uci.StartProcess(ctx, binaryPath)
}

type Builder struct {
	cfg      *config.AppConfig
	notifier game.Notifier
	logger   *zap.Logger
	start    EngineStarter
}

type Option func(*Builder)

// WithEngineStarter replaces the subprocess launcher.
func WithEngineStarter(s EngineStarter) Option {
	return func(b *Builder) { b.start = s }
}

func New(cfg *config.AppConfig, notifier game.Notifier, logger *zap.Logger, opts ...Option) (*Builder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Builder{cfg: cfg, notifier: notifier, logger: logger, start: startProcess}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// GameConfig resolves difficulty, colour and timing settings.
func (b *Builder) GameConfig() (game.Config, error) {
	profile, err := chess.GetProfile(b.cfg.Difficulty)
	if err != nil {
		return game.Config{}, err
	}
	human, err := domain.ParseColor(b.cfg.HumanColor)
	if err != nil {
		return game.Config{}, err
	}
	return game.Config{
		Human:         human,
		Profile:       profile,
		VoiceDelay:    b.cfg.VoiceDelay,
		DropDelay:     b.cfg.DropDelay,
		EngineTimeout: b.cfg.EngineTimeout,
		Hints:         b.cfg.HintBudget,
		HintDepth:     b.cfg.HintDepth,
	}, nil
}

// Translator builds the transcript translator from the configured dictionary,
// with entries from DictionaryFile taking precedence.
func (b *Builder) Translator() (*voice.Translator, error) {
	dict, err := phonetic.Named(b.cfg.Dictionary)
	if err != nil {
		return nil, err
	}
	if path := strings.TrimSpace(b.cfg.DictionaryFile); path != "" {
		extra, err := phonetic.Load(path)
		if err != nil {
			return nil, err
		}
		dict = dict.Merge(extra)
	}
	mode, err := voice.ParseMode(b.cfg.NormalizeMode)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("translator ready",
		zap.String("dictionary", dict.Name()),
		zap.Int("entries", dict.Len()),
		zap.String("mode", string(mode)),
	)
	return voice.NewTranslator(voice.NewNormalizer(dict, mode)), nil
}

// NewSession starts a fresh engine and returns an unstarted game session that
// owns it. Extra closers are released with the session.
func (b *Builder) NewSession(ctx context.Context, extra ...io.Closer) (*game.Session, error) {
	if strings.TrimSpace(b.cfg.StockfishPath) == "" {
		return nil, fmt.Errorf("STOCKFISH_PATH is required for chess engine")
	}
	gameCfg, err := b.GameConfig()
	if err != nil {
		return nil, err
	}
	translator, err := b.Translator()
	if err != nil {
		return nil, err
	}

	transport, err := b.start(ctx, b.cfg.StockfishPath)
	if err != nil {
		return nil, fmt.Errorf("init engine: %w", err)
	}
	engine, err := uci.NewAdapter(ctx, transport, uci.Options{Threads: b.cfg.EngineThreads, HashMB: b.cfg.EngineHashMB}, b.logger)
	if err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("engine handshake: %w", err)
	}

	session, err := game.NewSession(game.SessionDeps{
		Rules:      rules.NewGame(),
		Engine:     engine,
		Translator: translator,
		Notifier:   b.notifier,
		Closers:    append([]io.Closer{engine}, extra...),
	}, gameCfg, b.logger)
	if err != nil {
		_ = engine.Close()
		return nil, err
	}
	b.logger.Info("game session created",
		zap.String("session_id", session.ID),
		zap.String("difficulty", gameCfg.Profile.Name),
		zap.Stringer("human", gameCfg.Human),
	)
	return session, nil
}
