package chess

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DifficultyProfile selects how hard the engine plays. It is fixed for the
// duration of one engine request.
type DifficultyProfile struct {
	Name        string
	SkillLevel  int
	SearchDepth int
}

var profileMu sync.RWMutex

var DefaultProfiles = map[string]DifficultyProfile{
	"easy": {
		Name:        "easy",
		SkillLevel:  2,
		SearchDepth: 4,
	},
	"medium": {
		Name:        "medium",
		SkillLevel:  10,
		SearchDepth: 8,
	},
	"hard": {
		Name:        "hard",
		SkillLevel:  20,
		SearchDepth: 12,
	},
}

func GetProfile(name string) (DifficultyProfile, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	profileMu.RLock()
	p, ok := DefaultProfiles[key]
	profileMu.RUnlock()
	if !ok {
		return DifficultyProfile{}, fmt.Errorf("unknown difficulty %q (have %s)", name, strings.Join(ProfileNames(), ", "))
	}
	return p, nil
}

// RegisterProfile adds or replaces a named profile after validating it.
func RegisterProfile(p DifficultyProfile) error {
	p.Name = strings.ToLower(strings.TrimSpace(p.Name))
	if p.Name == "" {
		return fmt.Errorf("profile name required")
	}
	if err := ValidateProfile(p); err != nil {
		return err
	}
	profileMu.Lock()
	DefaultProfiles[p.Name] = p
	profileMu.Unlock()
	return nil
}

func ProfileNames() []string {
	profileMu.RLock()
	names := make([]string, 0, len(DefaultProfiles))
	for name := range DefaultProfiles {
		names = append(names, name)
	}
	profileMu.RUnlock()
	sort.Strings(names)
	return names
}

func ValidateProfile(p DifficultyProfile) error {
	if p.SkillLevel < 0 || p.SkillLevel > 20 {
		return fmt.Errorf("profile %s: skill level %d out of range 0-20", p.Name, p.SkillLevel)
	}
	if p.SearchDepth <= 0 {
		return fmt.Errorf("profile %s: search depth must be > 0: %d", p.Name, p.SearchDepth)
	}
	return nil
}
