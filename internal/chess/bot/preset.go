package bot

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// MaxDepth bounds every preset so that a search on any position stays well
// under a second without move ordering or transposition tables.
const MaxDepth = 2

type DifficultyPreset struct {
	Name Difficulty
	// Depth 0 picks uniformly at random among legal moves.
	Depth int
	// Rating is the nominal Elo used when updating player profiles.
	Rating int
}

var presetMu sync.RWMutex

var DefaultPresets = map[Difficulty]DifficultyPreset{
	Easy:   {Name: Easy, Depth: 0, Rating: 800},
	Medium: {Name: Medium, Depth: 1, Rating: 1100},
	Hard:   {Name: Hard, Depth: 2, Rating: 1400},
}

// ParseDifficulty accepts preset names and a few casual aliases.
func ParseDifficulty(name string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "easy", "beginner", "1":
		return Easy, nil
	case "medium", "intermediate", "2", "":
		return Medium, nil
	case "hard", "advanced", "3":
		return Hard, nil
	}
	return "", fmt.Errorf("unknown difficulty: %s", name)
}

func GetPreset(name string) (DifficultyPreset, error) {
	d, err := ParseDifficulty(name)
	if err != nil {
		return DifficultyPreset{}, err
	}
	presetMu.RLock()
	p, ok := DefaultPresets[d]
	presetMu.RUnlock()
	if !ok {
		return DifficultyPreset{}, fmt.Errorf("unknown chess preset: %s", name)
	}
	return p, nil
}

// SetPresetRating overrides the nominal rating of a preset.
func SetPresetRating(d Difficulty, rating int) error {
	presetMu.Lock()
	defer presetMu.Unlock()
	p, ok := DefaultPresets[d]
	if !ok {
		return fmt.Errorf("unknown chess preset: %s", d)
	}
	p.Rating = rating
	if err := ValidatePreset(p); err != nil {
		return err
	}
	DefaultPresets[d] = p
	return nil
}

// PresetNames lists presets from weakest to strongest.
func PresetNames() []Difficulty {
	presetMu.RLock()
	presets := make([]DifficultyPreset, 0, len(DefaultPresets))
	for _, p := range DefaultPresets {
		presets = append(presets, p)
	}
	presetMu.RUnlock()
	sort.Slice(presets, func(i, j int) bool { return presets[i].Depth < presets[j].Depth })
	out := make([]Difficulty, len(presets))
	for i, p := range presets {
		out[i] = p.Name
	}
	return out
}

func ValidatePreset(p DifficultyPreset) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("preset name must not be empty")
	case p.Depth < 0 || p.Depth > MaxDepth:
		return fmt.Errorf("depth %d out of range 0-%d", p.Depth, MaxDepth)
	case p.Rating <= 0:
		return fmt.Errorf("rating must be > 0: %d", p.Rating)
	}
	return nil
}
