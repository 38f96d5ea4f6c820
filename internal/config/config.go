package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	StockfishPath  string
	EngineThreads  int
	EngineHashMB   int
	Difficulty     string
	HumanColor     string
	VoiceDelay     time.Duration
	DropDelay      time.Duration
	EngineTimeout  time.Duration
	HintBudget     int
	HintDepth      int
	Dictionary     string
	DictionaryFile string
	NormalizeMode  string

	SpeechWSURL      string
	SpeechLanguage   string
	SpeechContinuous bool
	SpeechInterim    bool

	NarratorURL  string
	NarratorRate float64

	MessagesDir   string
	FlashDuration time.Duration
	DisplayANSI   bool
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		EngineThreads:  1,
		EngineHashMB:   16,
		Difficulty:     "medium",
		HumanColor:     "white",
		VoiceDelay:     500 * time.Millisecond,
		DropDelay:      250 * time.Millisecond,
		HintBudget:     3,
		HintDepth:      15,
		Dictionary:     "basic",
		NormalizeMode:  "token",
		SpeechLanguage: "en-US",
		NarratorRate:   1.0,
		FlashDuration:  600 * time.Millisecond,
	}

	cfg.StockfishPath = strings.TrimSpace(os.Getenv("STOCKFISH_PATH"))
	if v := strings.TrimSpace(os.Getenv("STOCKFISH_THREADS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EngineThreads = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("STOCKFISH_HASH_MB")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EngineHashMB = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_DIFFICULTY")); v != "" {
		cfg.Difficulty = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_HUMAN_COLOR")); v != "" {
		cfg.HumanColor = strings.ToLower(v)
	}
	if d, ok := millis("CHESS_VOICE_DELAY_MS"); ok {
		cfg.VoiceDelay = d
	}
	if d, ok := millis("CHESS_DROP_DELAY_MS"); ok {
		cfg.DropDelay = d
	}
	if d, ok := millis("CHESS_ENGINE_TIMEOUT_MS"); ok {
		cfg.EngineTimeout = d
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_HINTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.HintBudget = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_HINT_DEPTH")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HintDepth = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("VOICE_DICTIONARY")); v != "" {
		cfg.Dictionary = strings.ToLower(v)
	}
	cfg.DictionaryFile = strings.TrimSpace(os.Getenv("VOICE_DICTIONARY_FILE"))
	if v := strings.TrimSpace(os.Getenv("VOICE_NORMALIZE_MODE")); v != "" {
		cfg.NormalizeMode = strings.ToLower(v)
	}

	cfg.SpeechWSURL = strings.TrimSpace(os.Getenv("SPEECH_WS_URL"))
	if v := strings.TrimSpace(os.Getenv("SPEECH_LANG")); v != "" {
		cfg.SpeechLanguage = v
	}
	if v := strings.TrimSpace(os.Getenv("SPEECH_CONTINUOUS")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.SpeechContinuous = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("SPEECH_INTERIM")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.SpeechInterim = b
		}
	}

	cfg.NarratorURL = strings.TrimSpace(os.Getenv("NARRATOR_URL"))
	if v := strings.TrimSpace(os.Getenv("NARRATOR_RATE")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.NarratorRate = f
		}
	}

	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))
	if d, ok := millis("DISPLAY_FLASH_MS"); ok && d > 0 {
		cfg.FlashDuration = d
	}
	if v := strings.TrimSpace(os.Getenv("DISPLAY_ANSI")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.DisplayANSI = b
		}
	}

	if cfg.StockfishPath == "" {
		return nil, errors.New("STOCKFISH_PATH is required")
	}
	if cfg.HumanColor != "white" && cfg.HumanColor != "black" {
		return nil, fmt.Errorf("CHESS_HUMAN_COLOR must be white or black, got %q", cfg.HumanColor)
	}

	return cfg, nil
}

func millis(key string) (time.Duration, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return time.Duration(n) * time.Millisecond, true
}
