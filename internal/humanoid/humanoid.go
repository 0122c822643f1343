// Package humanoid simulates human typing cadence over a low-level key
// dispatcher: Gaussian inter-key delays, key dwell, occasional typos
// with correction, and fatigue drift across a session. Each instance
// samples a fixed "persona" at construction so cadence stays coherent
// for the whole session.
package humanoid

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Executor is the low-level interface the typist drives. SendKeys must
// dispatch real key events (not value assignment) so reactive page
// listeners observe each keystroke.
type Executor interface {
	Sleep(ctx context.Context, d time.Duration) error
	SendKeys(ctx context.Context, keys string) error
}

// ControlKey defines constants for common control characters used in SendKeys.
type ControlKey string

const (
	KeyBackspace ControlKey = "\b"
	KeyEnter     ControlKey = "\r"
	KeyTab       ControlKey = "\t"
)

// Typist simulates human-like keyboard interaction.
type Typist struct {
	// mu protects all mutable state (rng, fatigueLevel, dynamicConfig).
	mu            sync.Mutex
	baseConfig    Config
	dynamicConfig Config
	logger        *zap.Logger
	executor      Executor
	fatigueLevel  float64
	rng           *rand.Rand
}

// New creates and initializes a Typist with a freshly sampled persona.
func New(config Config, logger *zap.Logger, executor Executor) *Typist {
	t := &Typist{
		logger:   logger,
		executor: executor,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rng := config.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	config.NormalizeTypoRates()
	config.FinalizeSessionPersona(rng)

	t.baseConfig = config
	t.dynamicConfig = config
	t.rng = rng
	return t
}

// NewTestTypist creates a Typist with deterministic dependencies for testing.
func NewTestTypist(executor Executor, seed int64) *Typist {
	config := DefaultConfig()
	config.Rng = rand.New(rand.NewSource(seed))
	return New(config, zap.NewNop(), executor)
}

// CognitivePause simulates a thinking pause, scaled by fatigue.
func (t *Typist) CognitivePause(ctx context.Context, meanMs, stdDevMs float64) error {
	t.mu.Lock()
	fatigueFactor := 1.0 + t.fatigueLevel
	rng := t.rng
	t.mu.Unlock()

	duration := time.Duration(fatigueFactor*(meanMs+rng.NormFloat64()*stdDevMs)) * time.Millisecond
	if duration <= 0 {
		return nil
	}
	t.recoverFatigue(duration)
	return t.executor.Sleep(ctx, duration)
}

// FocusPause is the settling pause taken between focusing a field and
// the first keystroke.
func (t *Typist) FocusPause(ctx context.Context) error {
	t.mu.Lock()
	cfg := t.dynamicConfig
	t.mu.Unlock()
	return t.CognitivePause(ctx, cfg.FocusPauseMean, cfg.FocusPauseStdDev)
}

// applyFatigueEffects adjusts the dynamic configuration based on the
// current fatigue level. Callers must hold mu.
func (t *Typist) applyFatigueEffects() {
	t.dynamicConfig.TypoRate = t.baseConfig.TypoRate * (1.0 + t.fatigueLevel*2.0)
	t.dynamicConfig.TypoRate = math.Min(0.25, t.dynamicConfig.TypoRate)
}

// updateFatigue modifies the fatigue level based on action intensity.
func (t *Typist) updateFatigue(intensity float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	increase := t.baseConfig.FatigueIncreaseRate * intensity
	t.fatigueLevel += increase
	t.fatigueLevel = math.Min(1.0, t.fatigueLevel)

	t.applyFatigueEffects()
}

// recoverFatigue simulates recovery from fatigue during pauses.
func (t *Typist) recoverFatigue(duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	recovery := t.baseConfig.FatigueRecoveryRate * duration.Seconds()
	t.fatigueLevel -= recovery
	t.fatigueLevel = math.Max(0.0, t.fatigueLevel)

	t.applyFatigueEffects()
}
