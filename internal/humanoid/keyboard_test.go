// internal/humanoid/keyboard_test.go
package humanoid

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/applypilot/applypilot-cli/internal/config"
)

// preciseTypist builds a typist whose typo model is off, so every
// keystroke is the intended character.
func preciseTypist(exec Executor, seed int64) *Typist {
	cfg := DefaultConfig()
	cfg.TypoRateMean = 0
	cfg.TypoRateStdDev = 0
	cfg.Rng = rand.New(rand.NewSource(seed))
	return New(cfg, zap.NewNop(), exec)
}

func TestTypeDeliversExactText(t *testing.T) {
	exec := &mockExecutor{}
	typist := preciseTypist(exec, 42)

	require.NoError(t, typist.Type(context.Background(), "Jane Doe"))
	assert.Equal(t, "Jane Doe", exec.finalText())
}

func TestTypeCollapsesRepeatedSpaces(t *testing.T) {
	exec := &mockExecutor{}
	typist := preciseTypist(exec, 7)

	require.NoError(t, typist.Type(context.Background(), "Jane   Doe"))
	assert.Equal(t, "Jane Doe", exec.finalText())
}

func TestTypeEmitsPerCharacterDelays(t *testing.T) {
	exec := &mockExecutor{}
	typist := preciseTypist(exec, 1)

	require.NoError(t, typist.Type(context.Background(), "hello"))
	// One IKD per character plus dwell sleeps, plus the focus pause.
	assert.GreaterOrEqual(t, len(exec.sleeps), len("hello")*2)
	for _, d := range exec.sleeps {
		assert.GreaterOrEqual(t, d.Milliseconds(), int64(0))
	}
}

func TestDisabledPacingTypesWithoutDelay(t *testing.T) {
	hc := config.NewDefaultConfig().Humanoid()
	hc.Enabled = false
	cfg := FromAppConfig(hc)
	cfg.Rng = rand.New(rand.NewSource(1))

	exec := &mockExecutor{}
	typist := New(cfg, zap.NewNop(), exec)

	require.NoError(t, typist.Type(context.Background(), "Jane Doe"))
	assert.Equal(t, "Jane Doe", exec.finalText())

	var total time.Duration
	for _, d := range exec.sleeps {
		total += d
	}
	assert.Zero(t, total, "disabled pacing must not sleep")
}

func TestTypeWithTypoModelConvergesToText(t *testing.T) {
	// With the default typo model some keystrokes are wrong and then
	// corrected; uncorrected omissions and insertions are permitted, so
	// only length drift within a small bound is asserted, across a
	// spread of personas.
	const text = "jane.doe@example.com"
	for seed := int64(0); seed < 20; seed++ {
		exec := &mockExecutor{}
		typist := NewTestTypist(exec, seed)
		require.NoError(t, typist.Type(context.Background(), text))
		got := exec.finalText()
		assert.InDelta(t, len(text), len(got), 3, "seed=%d got=%q", seed, got)
	}
}

// transposeOnlyConfig routes every typo into the transposition branch
// at the maximum session typo rate.
func transposeOnlyConfig(seed int64, correctionProbability float64) Config {
	cfg := DefaultConfig()
	cfg.TypoRateMean = 0.25
	cfg.TypoRateStdDev = 0
	cfg.TypoNeighborRate = 0
	cfg.TypoTransposeRate = 1
	cfg.TypoOmissionRate = 0
	cfg.TypoInsertionRate = 0
	cfg.TypoCorrectionProbability = correctionProbability
	cfg.Rng = rand.New(rand.NewSource(seed))
	return cfg
}

func TestUncorrectedTranspositionSwapsWithoutDuplicating(t *testing.T) {
	// An uncorrected transposition leaves an adjacent pair swapped; it
	// must never re-type the pair. With every character distinct, the
	// output has to be a permutation of the input, same length.
	const text = "abcdefghijklmnopqrstuvwxyz"
	for seed := int64(0); seed < 10; seed++ {
		exec := &mockExecutor{}
		typist := New(transposeOnlyConfig(seed, 0), zap.NewNop(), exec)

		require.NoError(t, typist.Type(context.Background(), text))
		got := exec.finalText()
		require.Len(t, got, len(text), "seed=%d got=%q", seed, got)

		sorted := []byte(got)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		assert.Equal(t, text, string(sorted), "seed=%d", seed)
	}
}

func TestCorrectedTranspositionConvergesExactly(t *testing.T) {
	const text = "abcdefghijklmnopqrstuvwxyz"
	for seed := int64(0); seed < 10; seed++ {
		exec := &mockExecutor{}
		typist := New(transposeOnlyConfig(seed, 1), zap.NewNop(), exec)

		require.NoError(t, typist.Type(context.Background(), text))
		assert.Equal(t, text, exec.finalText(), "seed=%d", seed)
	}
}

func TestClearSendsBackspacePerCharacter(t *testing.T) {
	exec := &mockExecutor{}
	typist := preciseTypist(exec, 3)

	require.NoError(t, typist.Clear(context.Background(), 5))
	require.Len(t, exec.keys, 5)
	for _, k := range exec.keys {
		assert.Equal(t, string(KeyBackspace), k)
	}
}

func TestClearZeroLengthIsNoop(t *testing.T) {
	exec := &mockExecutor{}
	typist := preciseTypist(exec, 3)

	require.NoError(t, typist.Clear(context.Background(), 0))
	assert.Empty(t, exec.keys)
	assert.Empty(t, exec.sleeps)
}

func TestTypeHonoursContextCancellation(t *testing.T) {
	exec := &mockExecutor{}
	typist := preciseTypist(exec, 9)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := typist.Type(ctx, "never typed")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTypePropagatesExecutorError(t *testing.T) {
	boom := errors.New("target detached")
	exec := &mockExecutor{sendErr: boom}
	typist := preciseTypist(exec, 11)

	err := typist.Type(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func TestFatigueSlowsCadence(t *testing.T) {
	exec := &mockExecutor{}
	typist := preciseTypist(exec, 5)

	typist.updateFatigue(100)
	typist.mu.Lock()
	level := typist.fatigueLevel
	typist.mu.Unlock()
	assert.Greater(t, level, 0.0)
	assert.LessOrEqual(t, level, 1.0)
}

func TestFinalizeSessionPersonaBounds(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		cfg := DefaultConfig()
		cfg.FinalizeSessionPersona(rand.New(rand.NewSource(seed)))
		assert.GreaterOrEqual(t, cfg.TypoRate, 0.0)
		assert.LessOrEqual(t, cfg.TypoRate, 0.25)
		assert.GreaterOrEqual(t, cfg.KeyHoldMean, 20.0)
	}
}

func TestNormalizeTypoRatesSumsToOne(t *testing.T) {
	cfg := DefaultConfig()
	sum := cfg.TypoNeighborRate + cfg.TypoTransposeRate + cfg.TypoOmissionRate + cfg.TypoInsertionRate
	assert.InDelta(t, 1.0, sum, 1e-9)
}
