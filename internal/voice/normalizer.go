package voice

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/park285/voice-chess/internal/phonetic"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Mode string

const (
	// ModeToken looks up each whitespace or hyphen separated token as a whole.
	ModeToken Mode = "token"
	// ModeRegex substitutes dictionary words across the whole string, longest
	// key first, before filtering.
	ModeRegex Mode = "regex"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeToken:
		return ModeToken, nil
	case ModeRegex:
		return ModeRegex, nil
	default:
		return "", fmt.Errorf("unknown normalize mode %q", s)
	}
}

// Normalizer turns a raw transcript into a string of coordinate characters.
type Normalizer struct {
	dict *phonetic.Dictionary
	mode Mode
	re   *regexp.Regexp
}

func NewNormalizer(dict *phonetic.Dictionary, mode Mode) *Normalizer {
	if dict == nil {
		dict = phonetic.Basic()
	}
	n := &Normalizer{dict: dict, mode: mode}
	if mode == ModeRegex {
		n.re = buildAlternation(dict.Keys())
	}
	return n
}

func buildAlternation(keys []string) *regexp.Regexp {
	if len(keys) == 0 {
		return nil
	}
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

func (n *Normalizer) Mode() Mode { return n.mode }

func (n *Normalizer) Normalize(text string) string {
	folded := fold(text)
	if n.mode == ModeRegex {
		return n.normalizeRegex(folded)
	}
	return n.normalizeTokens(folded)
}

func (n *Normalizer) normalizeTokens(text string) string {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})
	var sb strings.Builder
	for _, tok := range tokens {
		word := strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if v, ok := n.dict.Lookup(word); ok {
			sb.WriteString(v)
			continue
		}
		sb.WriteString(filterCoordinates(tok))
	}
	return sb.String()
}

func (n *Normalizer) normalizeRegex(text string) string {
	if n.re != nil {
		text = n.re.ReplaceAllStringFunc(text, func(word string) string {
			v, _ := n.dict.Lookup(word)
			return v
		})
	}
	return filterCoordinates(text)
}

func filterCoordinates(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'h') || (c >= '1' && c <= '8') {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// fold lower-cases and strips combining marks, so "Sée" reads as "see".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Lower(language.English).String(out)
}
