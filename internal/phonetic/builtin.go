package phonetic

// Common speech-to-text confusions for digits and letter sounds.
var basicEntries = map[string]string{
	"one":    "1",
	"won":    "1",
	"two":    "2",
	"too":    "2",
	"three":  "3",
	"tree":   "3",
	"free":   "3",
	"four":   "4",
	"for":    "4",
	"fore":   "4",
	"five":   "5",
	"six":    "6",
	"sicks":  "6",
	"seven":  "7",
	"eight":  "8",
	"ate":    "8",
	"see":    "c",
	"sea":    "c",
	"aitch":  "h",
	"doux":   "d2",
	"before": "b4",
}

// Words spoken in place of file letters, plus the digit words.
var alphabetEntries = map[string]string{
	"alpha":   "a",
	"apple":   "a",
	"beta":    "b",
	"bravo":   "b",
	"boy":     "b",
	"cat":     "c",
	"charlie": "c",
	"delta":   "d",
	"dog":     "d",
	"echo":    "e",
	"easy":    "e",
	"fox":     "f",
	"foxtrot": "f",
	"golf":    "g",
	"george":  "g",
	"hotel":   "h",
	"henry":   "h",
	"one":     "1",
	"two":     "2",
	"three":   "3",
	"four":    "4",
	"five":    "5",
	"six":     "6",
	"seven":   "7",
	"eight":   "8",
}

var (
	basic    = mustNew("basic", basicEntries)
	alphabet = mustNew("alphabet", alphabetEntries)
)

func Basic() *Dictionary { return basic }

func Alphabet() *Dictionary { return alphabet }
