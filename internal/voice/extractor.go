package voice

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/park285/voice-chess/internal/domain"
)

var ErrParseFailure = errors.New("no coordinate pair found")

// ParseError carries the transcript that could not be turned into a move.
type ParseError struct {
	Transcript string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse %q", e.Transcript)
}

func (e *ParseError) Is(target error) bool { return target == ErrParseFailure }

var squarePair = regexp.MustCompile(`[a-h][1-8][a-h][1-8]`)

// Extract returns the leftmost square pair in normalized. Anything after it is
// ignored.
func Extract(normalized, transcript string) (domain.MoveCommand, error) {
	m := squarePair.FindString(normalized)
	if m == "" {
		return domain.MoveCommand{}, &ParseError{Transcript: transcript}
	}
	return domain.NewMoveCommand(m[:2], m[2:])
}

// Translator chains normalization and extraction for one transcript.
type Translator struct {
	norm *Normalizer
}

func NewTranslator(n *Normalizer) *Translator {
	return &Translator{norm: n}
}

func (t *Translator) Translate(transcript string) (domain.MoveCommand, error) {
	text := strings.TrimSpace(transcript)
	return Extract(t.norm.Normalize(text), text)
}
