package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/park285/voice-chess/internal/chessbuilder"
	appcfg "github.com/park285/voice-chess/internal/config"
	"github.com/park285/voice-chess/internal/display"
	"github.com/park285/voice-chess/internal/feedback"
	"github.com/park285/voice-chess/internal/msgcat"
	"github.com/park285/voice-chess/internal/narrator"
	"github.com/park285/voice-chess/internal/obslog"
	"github.com/park285/voice-chess/internal/speech"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	logger := obslog.L()
	if err := run(logger); err != nil {
		logger.Error("voice chess stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(logger *zap.Logger) error {
	cfg, err := appcfg.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return fmt.Errorf("messages: %w", err)
	}

	console := display.NewConsole(os.Stdout, cfg.FlashDuration, display.WithANSI(cfg.DisplayANSI))
	defer console.Close()

	var voiceOut feedback.Narrator = narrator.NewLog(logger)
	if cfg.NarratorURL != "" {
		h := narrator.NewHTTP(cfg.NarratorURL, narrator.WithLogger(logger))
		defer h.Close()
		voiceOut = h
	}
	presenter := feedback.NewPresenter(catalog, console, voiceOut, cfg.NarratorRate, logger)

	builder, err := chessbuilder.New(cfg, presenter, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApp(builder, os.Stdout, logger)
	if err := a.reset(ctx); err != nil {
		return fmt.Errorf("chess init error: %w", err)
	}
	defer func() {
		if err := a.close(); err != nil {
			logger.Warn("session close", zap.Error(err))
		}
	}()

	lines := speech.NewLineCapture(os.Stdin)
	defer lines.Close()
	if err := lines.Listen(ctx); err != nil {
		return err
	}

	var remote <-chan speech.Transcript
	if cfg.SpeechWSURL != "" {
		ws := speech.NewWebSocketCapture(cfg.SpeechWSURL, speech.Config{
			Language:   cfg.SpeechLanguage,
			Continuous: cfg.SpeechContinuous,
			Interim:    cfg.SpeechInterim,
		}, logger)
		defer ws.Close()
		if err := ws.Connect(ctx); err != nil {
			logger.Warn("speech service unavailable, console input only", zap.Error(err))
		} else if err := ws.Listen(ctx); err != nil {
			logger.Warn("speech service did not start", zap.Error(err))
		}
		remote = ws.Transcripts()
	}

	logger.Info("voice chess ready",
		zap.String("difficulty", cfg.Difficulty),
		zap.String("human", cfg.HumanColor),
		zap.Bool("speech_service", remote != nil),
	)
	a.run(ctx, lines.Transcripts(), remote)
	return nil
}
