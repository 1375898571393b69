package config

import "fmt"

// DifficultyPreset represents a named spawn difficulty.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
)

// SpawnFourForPreset returns the 4-tile spawn probability for a preset.
// More 4s fill the board faster.
func SpawnFourForPreset(preset DifficultyPreset) (float64, error) {
	switch preset {
	case DifficultyEasy:
		return 0.05, nil
	case DifficultyNormal:
		return 0.10, nil
	case DifficultyHard:
		return 0.25, nil
	default:
		return 0, fmt.Errorf("config: unknown difficulty %q (want easy, normal or hard)", preset)
	}
}

// ApplyDifficultyPreset overrides the spawn probability. An empty preset
// leaves cfg unchanged.
func ApplyDifficultyPreset(cfg *Config, preset DifficultyPreset) error {
	if preset == "" {
		return nil
	}
	p, err := SpawnFourForPreset(preset)
	if err != nil {
		return err
	}
	cfg.Game.SpawnFourProbability = p
	return nil
}
