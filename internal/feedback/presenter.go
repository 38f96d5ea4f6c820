package feedback

import (
	"strings"

	"go.uber.org/zap"

	"github.com/park285/voice-chess/internal/domain"
	"github.com/park285/voice-chess/internal/msgcat"
)

// Highlight is a border pulse color on the display surface.
type Highlight string

const (
	NoHighlight     Highlight = ""
	HighlightError  Highlight = "red"
	HighlightMove   Highlight = "green"
	HighlightHint   Highlight = "blue"
	HighlightResult Highlight = "gold"
)

// Display shows status text and a transient highlight.
type Display interface {
	SetStatus(text string)
	Flash(color string)
}

// Narrator speaks an utterance; it must not block the caller.
type Narrator interface {
	Speak(text string, rate float64)
}

type route struct {
	key       string
	highlight Highlight
}

var routes = map[Kind]route{
	Listening:          {key: "status.listening"},
	Heard:              {key: "status.heard"},
	Interim:            {key: "status.interim"},
	ParseFailure:       {key: "move.parse_failure", highlight: HighlightError},
	IllegalMove:        {key: "move.illegal", highlight: HighlightError},
	HumanMoved:         {key: "move.human", highlight: HighlightMove},
	Thinking:           {key: "status.thinking"},
	AIMoved:            {key: "move.ai", highlight: HighlightMove},
	YourTurn:           {key: "status.your_turn"},
	NotYourTurn:        {key: "status.not_your_turn", highlight: HighlightError},
	GameAlreadyOver:    {key: "game_over.already", highlight: HighlightError},
	HintSuggested:      {key: "hint.suggest", highlight: HighlightHint},
	HintsExhausted:     {key: "hint.exhausted", highlight: HighlightError},
	HintUnavailable:    {key: "hint.unavailable", highlight: HighlightError},
	HintBusy:           {key: "hint.busy"},
	EngineUnresponsive: {key: "engine.unresponsive", highlight: HighlightError},
	EngineRetrying:     {key: "engine.retrying"},
	NewGame:            {key: "status.new_game"},
}

// Presenter turns controller events into display and narrator output using
// the message catalog.
type Presenter struct {
	catalog  *msgcat.Catalog
	display  Display
	narrator Narrator
	rate     float64
	logger   *zap.Logger
}

func NewPresenter(catalog *msgcat.Catalog, display Display, narrator Narrator, rate float64, logger *zap.Logger) *Presenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rate <= 0 {
		rate = 1
	}
	return &Presenter{
		catalog:  catalog,
		display:  display,
		narrator: narrator,
		rate:     rate,
		logger:   logger,
	}
}

func (p *Presenter) Notify(ev Event) {
	if p == nil {
		return
	}
	r, ok := p.route(ev)
	if !ok {
		p.logger.Warn("feedback event without route", zap.Stringer("kind", ev.Kind))
		return
	}
	data := templateData(ev)

	status := p.render(r.key+".status", data)
	if status == "" {
		status = ev.Kind.String()
	}
	if p.display != nil {
		if r.highlight != NoHighlight {
			p.display.Flash(string(r.highlight))
		}
		p.display.SetStatus(status)
	}

	if p.narrator != nil && p.catalog != nil && p.catalog.Has(r.key+".speech") {
		if speech := p.render(r.key+".speech", data); speech != "" {
			p.narrator.Speak(speech, p.rate)
		}
	}
}

func (p *Presenter) route(ev Event) (route, bool) {
	if ev.Kind == GameOver {
		if ev.Termination.Kind == domain.Checkmate {
			return route{key: "game_over.checkmate", highlight: HighlightResult}, true
		}
		return route{key: "game_over.draw", highlight: HighlightResult}, true
	}
	r, ok := routes[ev.Kind]
	return r, ok
}

func (p *Presenter) render(key string, data map[string]any) string {
	if p.catalog == nil {
		return ""
	}
	text, err := p.catalog.Render(key, data)
	if err != nil {
		p.logger.Warn("feedback render failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(text)
}

func templateData(ev Event) map[string]any {
	method := ev.Termination.Method
	if method == "" {
		method = ev.Termination.Kind.String()
	}
	return map[string]any{
		"Transcript": ev.Transcript,
		"From":       squareName(ev.From),
		"To":         squareName(ev.To),
		"SAN":        ev.SAN,
		"Winner":     colorName(ev.Termination.Winner),
		"Method":     method,
		"Remaining":  ev.HintsLeft,
		"Material":   formatMaterial(ev.Tally),
		"Color":      colorName(ev.Human),
		"Difficulty": ev.Difficulty,
	}
}
