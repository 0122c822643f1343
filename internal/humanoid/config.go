// internal/humanoid/config.go
package humanoid

import (
	"math"
	"math/rand"

	"github.com/applypilot/applypilot-cli/internal/config"
)

// Config holds the parameters defining the typing simulation.
type Config struct {
	Rng *rand.Rand

	// Typing Behavior
	TypoRateMean, TypoRateStdDev   float64
	KeyHoldMeanMs, KeyHoldStdDevMs float64

	// Instance Parameters, sampled once per session persona.
	TypoRate                   float64
	KeyHoldMean, KeyHoldStdDev float64

	// Typo Probabilities
	TypoNeighborRate               float64 `json:"typoNeighborRate" yaml:"typoNeighborRate"`
	TypoTransposeRate              float64 `json:"typoTransposeRate" yaml:"typoTransposeRate"`
	TypoOmissionRate               float64 `json:"typoOmissionRate" yaml:"typoOmissionRate"`
	TypoInsertionRate              float64 `json:"typoInsertionRate" yaml:"typoInsertionRate"`
	TypoCorrectionProbability      float64 `json:"typoCorrectionProbability" yaml:"typoCorrectionProbability"`
	TypoOmissionNoticeProbability  float64 `json:"typoOmissionNoticeProbability" yaml:"typoOmissionNoticeProbability"`
	TypoInsertionNoticeProbability float64 `json:"typoInsertionNoticeProbability" yaml:"typoInsertionNoticeProbability"`
	TypoShiftCorrectionProbability float64 `json:"typoShiftCorrectionProbability" yaml:"typoShiftCorrectionProbability"`

	// Fatigue Modeling
	FatigueIncreaseRate float64
	FatigueRecoveryRate float64

	// Key Pause (IKD) Parameters
	KeyPauseMean          float64 `json:"keyPauseMean" yaml:"keyPauseMean"`
	KeyPauseStdDev        float64 `json:"keyPauseStdDev" yaml:"keyPauseStdDev"`
	KeyPauseMin           float64 `json:"keyPauseMin" yaml:"keyPauseMin"`
	KeyPauseNgramFactor2  float64 `json:"keyPauseNgramFactor2" yaml:"keyPauseNgramFactor2"`
	KeyPauseNgramFactor3  float64 `json:"keyPauseNgramFactor3" yaml:"keyPauseNgramFactor3"`
	KeyPauseFatigueFactor float64 `json:"keyPauseFatigueFactor" yaml:"keyPauseFatigueFactor"`

	// Pause taken after focusing a field, before the first keystroke.
	FocusPauseMean   float64 `json:"focusPauseMean" yaml:"focusPauseMean"`
	FocusPauseStdDev float64 `json:"focusPauseStdDev" yaml:"focusPauseStdDev"`

	// Typo Correction Behavior (Pause scaling factors)
	TypoCorrectionPauseMeanScale   float64 `json:"typoCorrectionPauseMeanScale" yaml:"typoCorrectionPauseMeanScale"`
	TypoCorrectionPauseStdDevScale float64 `json:"typoCorrectionPauseStdDevScale" yaml:"typoCorrectionPauseStdDevScale"`
}

// DefaultConfig returns a configuration representing an average typist.
func DefaultConfig() Config {
	c := Config{
		Rng:                            nil,
		TypoRateMean:                   0.04,
		TypoRateStdDev:                 0.01,
		KeyHoldMeanMs:                  55.0,
		KeyHoldStdDevMs:                15.0,
		TypoNeighborRate:               0.40,
		TypoTransposeRate:              0.25,
		TypoOmissionRate:               0.20,
		TypoInsertionRate:              0.15,
		TypoCorrectionProbability:      0.85,
		TypoOmissionNoticeProbability:  0.70,
		TypoInsertionNoticeProbability: 0.80,
		TypoShiftCorrectionProbability: 0.80,
		FatigueIncreaseRate:            0.005,
		FatigueRecoveryRate:            0.01,
		KeyPauseMean:                   70.0,
		KeyPauseStdDev:                 28.0,
		KeyPauseMin:                    35.0,
		KeyPauseNgramFactor2:           0.7,
		KeyPauseNgramFactor3:           0.55,
		KeyPauseFatigueFactor:          0.3,
		FocusPauseMean:                 200.0,
		FocusPauseStdDev:               80.0,
		TypoCorrectionPauseMeanScale:   1.8,
		TypoCorrectionPauseStdDevScale: 0.6,
	}
	c.NormalizeTypoRates()
	return c
}

// FromAppConfig builds a typing configuration from the application's
// humanoid section. The typo model is disabled here: resolved values
// must land in application fields verbatim, so only the cadence model
// applies.
func FromAppConfig(hc config.HumanoidConfig) Config {
	c := DefaultConfig()
	c.TypoRateMean = 0
	c.TypoRateStdDev = 0
	if hc.KeyPauseMeanMs > 0 {
		c.KeyPauseMean = hc.KeyPauseMeanMs
	}
	if hc.KeyPauseStdDevMs > 0 {
		c.KeyPauseStdDev = hc.KeyPauseStdDevMs
	}
	if hc.KeyPauseMinMs > 0 {
		c.KeyPauseMin = hc.KeyPauseMinMs
	}
	if hc.KeyHoldMeanMs > 0 {
		c.KeyHoldMeanMs = hc.KeyHoldMeanMs
	}
	if hc.KeyHoldStdDevMs > 0 {
		c.KeyHoldStdDevMs = hc.KeyHoldStdDevMs
	}
	if hc.FocusPauseMeanMs > 0 {
		c.FocusPauseMean = hc.FocusPauseMeanMs
	}
	if hc.FocusPauseStdDevMs > 0 {
		c.FocusPauseStdDev = hc.FocusPauseStdDevMs
	}
	if hc.FatigueIncreaseRate > 0 {
		c.FatigueIncreaseRate = hc.FatigueIncreaseRate
	}
	if hc.FatigueRecoveryRate > 0 {
		c.FatigueRecoveryRate = hc.FatigueRecoveryRate
	}
	if !hc.Enabled {
		// Pacing off: keystrokes dispatch back to back.
		c.KeyPauseMean, c.KeyPauseStdDev, c.KeyPauseMin = 0, 0, 0
		c.KeyHoldMeanMs, c.KeyHoldStdDevMs = 0, 0
		c.FocusPauseMean, c.FocusPauseStdDev = 0, 0
	}
	return c
}

// FinalizeSessionPersona generates the fixed instance parameters for a session.
func (c *Config) FinalizeSessionPersona(rng *rand.Rand) {
	c.Rng = rng
	c.TypoRate = sampleGaussian(rng, c.TypoRateMean, c.TypoRateStdDev)
	c.KeyHoldMean = sampleGaussian(rng, c.KeyHoldMeanMs, c.KeyHoldStdDevMs)
	c.KeyHoldStdDev = c.KeyHoldStdDevMs

	// Ensure parameters are within reasonable bounds. A zero dwell mean
	// means pacing is off and stays zero.
	c.TypoRate = math.Max(0.0, math.Min(0.25, c.TypoRate))
	if c.KeyHoldMeanMs > 0 {
		c.KeyHoldMean = math.Max(20.0, c.KeyHoldMean)
	} else {
		c.KeyHoldMean = 0
	}
}

// NormalizeTypoRates ensures the conditional typo probabilities sum up to 1.
func (c *Config) NormalizeTypoRates() {
	total := c.TypoNeighborRate + c.TypoTransposeRate + c.TypoOmissionRate + c.TypoInsertionRate
	if total <= 1e-9 {
		if c.TypoRateMean > 0 || c.TypoRate > 0 {
			c.TypoNeighborRate = 0.25
			c.TypoTransposeRate = 0.25
			c.TypoOmissionRate = 0.25
			c.TypoInsertionRate = 0.25
		}
		return
	}
	c.TypoNeighborRate /= total
	c.TypoTransposeRate /= total
	c.TypoOmissionRate /= total
	c.TypoInsertionRate /= total
}

// sampleGaussian samples a value from a Gaussian distribution.
func sampleGaussian(rng *rand.Rand, mean, stdDev float64) float64 {
	if rng == nil {
		return mean
	}
	return mean + rng.NormFloat64()*stdDev
}
