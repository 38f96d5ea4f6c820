package uci

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	MaxSkillLevel = 20
	// NoSkillLevel leaves the engine's skill setting untouched.
	NoSkillLevel = -1

	bestMovePrefix = "bestmove"
)

var (
	ErrNoBestMove  = errors.New("engine reported no best move")
	ErrBadBestMove = errors.New("malformed bestmove line")
)

type Limits struct {
	Depth          int
	MoveTimeMillis int
	NodeCap        int
}

type SearchRequest struct {
	FEN        string
	Moves      []string
	SkillLevel int
	Limits     Limits
}

// BestMove is a parsed bestmove reply. Promotion is empty unless the engine
// named one.
type BestMove struct {
	From      string
	To        string
	Promotion string
	Ponder    string
	EvalCP    int
	Principal []string
}

func (b BestMove) UCI() string {
	return b.From + b.To + b.Promotion
}

func buildPositionCommand(fen string, moves []string) string {
	var sb strings.Builder
	if strings.TrimSpace(fen) == "" || fen == "startpos" {
		sb.WriteString("position startpos")
	} else {
		sb.WriteString("position fen ")
		sb.WriteString(fen)
	}
	if len(moves) > 0 {
		sb.WriteString(" moves ")
		sb.WriteString(strings.Join(moves, " "))
	}
	return sb.String()
}

func buildSkillCommand(level int) string {
	return fmt.Sprintf("setoption name Skill Level value %d", level)
}

func buildGoTokens(l Limits) ([]string, error) {
	args := []string{"go"}
	if l.Depth > 0 {
		args = append(args, "depth", strconv.Itoa(l.Depth))
	}
	if l.MoveTimeMillis > 0 {
		args = append(args, "movetime", strconv.Itoa(l.MoveTimeMillis))
	}
	if l.NodeCap > 0 {
		args = append(args, "nodes", strconv.Itoa(l.NodeCap))
	}
	if len(args) == 1 {
		return nil, fmt.Errorf("no search limits specified")
	}
	return args, nil
}

func validateRequest(req SearchRequest) error {
	if req.SkillLevel != NoSkillLevel && (req.SkillLevel < 0 || req.SkillLevel > MaxSkillLevel) {
		return fmt.Errorf("skill level %d out of range 0-%d", req.SkillLevel, MaxSkillLevel)
	}
	return nil
}

// SearchTimeout bounds how long a caller should wait for a reply to l.
func SearchTimeout(l Limits) time.Duration {
	if l.MoveTimeMillis > 0 {
		ms := l.MoveTimeMillis + 2000
		return time.Duration(ms) * time.Millisecond * 3
	}
	if l.Depth > 0 {
		base := time.Duration(l.Depth) * 300 * time.Millisecond
		if base < 6*time.Second {
			base = 6 * time.Second
		}
		if base > 20*time.Second {
			base = 20 * time.Second
		}
		return base
	}
	return 6 * time.Second
}

// ParseBestMove reads "bestmove e7e8q [ponder d2d4]".
func ParseBestMove(line string) (BestMove, error) {
	parts := strings.Fields(line)
	if len(parts) < 2 || parts[0] != bestMovePrefix {
		return BestMove{}, fmt.Errorf("%w: %q", ErrBadBestMove, line)
	}
	token := strings.ToLower(parts[1])
	if token == "(none)" || token == "0000" {
		return BestMove{}, ErrNoBestMove
	}
	if len(token) != 4 && len(token) != 5 {
		return BestMove{}, fmt.Errorf("%w: %q", ErrBadBestMove, line)
	}
	if !isSquare(token[0:2]) || !isSquare(token[2:4]) {
		return BestMove{}, fmt.Errorf("%w: %q", ErrBadBestMove, line)
	}
	mv := BestMove{From: token[0:2], To: token[2:4]}
	if len(token) == 5 {
		if !strings.ContainsRune("qrbn", rune(token[4])) {
			return BestMove{}, fmt.Errorf("%w: %q", ErrBadBestMove, line)
		}
		mv.Promotion = token[4:]
	}
	if len(parts) >= 4 && parts[2] == "ponder" {
		mv.Ponder = parts[3]
	}
	return mv, nil
}

func isSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

type infoLine struct {
	MultiPV   int
	EvalCP    int
	Principal []string
}

func parseInfo(line string) (infoLine, bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return infoLine{}, false
	}
	var (
		multipv = 1
		evalCP  int
		pvIdx   = -1
	)

	for i := 0; i < len(parts); i++ {
		switch parts[i] {
		case "multipv":
			if i+1 < len(parts) {
				if v, err := strconv.Atoi(parts[i+1]); err == nil {
					multipv = v
				}
				i++
			}
		case "score":
			if i+2 < len(parts) {
				kind := parts[i+1]
				val := parts[i+2]
				switch kind {
				case "cp":
					if v, err := strconv.Atoi(val); err == nil {
						evalCP = v
					}
				case "mate":
					if v, err := strconv.Atoi(val); err == nil {
						const mateValue = 30000
						if v >= 0 {
							evalCP = mateValue
						} else {
							evalCP = -mateValue
						}
					}
				}
				i += 2
			}
		case "pv":
			pvIdx = i + 1
			i = len(parts)
		}
	}

	if pvIdx == -1 || pvIdx >= len(parts) {
		return infoLine{}, false
	}
	return infoLine{
		MultiPV:   multipv,
		EvalCP:    evalCP,
		Principal: append([]string(nil), parts[pvIdx:]...),
	}, true
}
