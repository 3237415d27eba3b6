package mastery

import (
	"math"
	"time"
)

// DecayConfig controls how estimate confidence erodes over time. Confidence
// halves every HalfLife of elapsed time since the last update, approaching
// Floor but never crossing it. Mastery itself does not decay: an old strong
// signal stays a strong signal, we just trust it less.
type DecayConfig struct {
	HalfLife time.Duration `mapstructure:"half-life" validate:"min=0"`
	Floor    float64       `mapstructure:"floor" validate:"min=0,max=1"`
}

// DefaultDecay halves confidence roughly once a quarter with a small floor,
// so even ancient evidence keeps a trace of signal.
func DefaultDecay() DecayConfig {
	return DecayConfig{
		HalfLife: 90 * 24 * time.Hour,
		Floor:    0.05,
	}
}

// DecayedConfidence returns the effective confidence at now for a value last
// updated at updatedAt. Monotonically non-increasing in elapsed time. A zero
// HalfLife disables decay; confidence already at or below the floor is left
// alone.
func DecayedConfidence(confidence float64, updatedAt, now time.Time, cfg DecayConfig) float64 {
	if cfg.HalfLife <= 0 || confidence <= cfg.Floor {
		return confidence
	}
	elapsed := now.Sub(updatedAt)
	if elapsed <= 0 {
		return confidence
	}
	halves := float64(elapsed) / float64(cfg.HalfLife)
	return cfg.Floor + (confidence-cfg.Floor)*math.Pow(0.5, halves)
}
