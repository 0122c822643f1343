package humanoid

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
)

// -- keyboardNeighbors maps characters to their adjacent keys on a QWERTY layout --
var keyboardNeighbors = map[rune]string{
	'1': "2q`", '2': "13wq", '3': "24we", '4': "35er", '5': "46rt", '6': "57ty",
	'7': "68yu", '8': "79ui", '9': "80io", '0': "9-op",
	'q': "wa1s", 'w': "qase23", 'e': "wsdr34", 'r': "edft45", 't': "rfgy56",
	'y': "tghu67", 'u': "yhji78", 'i': "ujko89", 'o': "iklp90", 'p': "ol;0-",
	'a': "qwsz", 's': "awedxz", 'd': "serfcx", 'f': "drtgvc", 'g': "ftyhbv",
	'h': "gyujnb", 'j': "huikmn", 'k': "jiol,m", 'l': "kop;.",
	'z': "asx", 'x': "zsdc", 'c': "xdfv", 'v': "cfgb", 'b': "vghn", 'n': "bhjm", 'm': "njk,",
}

// -- commonNgrams contains common letter combinations to simulate rhythmic typing --
var commonNgrams = map[string]bool{
	"th": true, "he": true, "in": true, "er": true, "an": true, "re": true,
	"es": true, "on": true, "st": true, "nt": true,
	"the": true, "and": true, "ing": true, "ion": true, "tio": true,
}

// Type simulates realistic human typing, including pauses, fatigue and
// typos, word by word in a burst-and-pause rhythm. The caller is
// responsible for having focused the target field first.
//
// Runs of whitespace, including newlines, collapse to a single space:
// the input is treated as one line of words. Callers typing multi-line
// content (generated cover letters) must dispatch each line separately.
func (t *Typist) Type(ctx context.Context, text string) error {
	// Update fatigue based on the typing effort (length of text).
	t.updateFatigue(float64(len(text)) * 0.05)

	// Cognitive planning pause before the first keystroke.
	if err := t.FocusPause(ctx); err != nil {
		return err
	}

	// Use strings.Fields to handle multiple spaces between words gracefully.
	words := strings.Fields(text)

	for i, word := range words {
		// Type the characters of the word in a rapid burst.
		runes := []rune(word)
		for j := 0; j < len(runes); j++ {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Intra-word typing is faster than the baseline cadence.
			const burstSpeedFactor = 0.7
			advanced, err := t.typeCharacter(ctx, runes, j, burstSpeedFactor)
			if err != nil {
				return err
			}
			if advanced {
				j++ // Skip next character if handled by typo (e.g., transposition).
			}
		}

		// If it's not the last word, add a space and a longer pause.
		if i < len(words)-1 {
			// Inter-word pause, simulates locating the next word.
			nextWordLen := len(words[i+1])
			t.mu.Lock()
			cfg := t.dynamicConfig
			rng := t.rng
			t.mu.Unlock()
			if cfg.KeyPauseMean > 0 {
				pauseMs := 100 + (float64(nextWordLen) * 5) + rng.Float64()*80
				if err := t.CognitivePause(ctx, pauseMs, pauseMs*0.4); err != nil {
					return err
				}
			}

			if err := t.sendString(ctx, " "); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clear deletes existing field content character by character so that
// reactive listeners observe incremental deletion rather than a single
// value swap.
func (t *Typist) Clear(ctx context.Context, length int) error {
	if length <= 0 {
		return nil
	}
	t.updateFatigue(float64(length) * 0.02)
	for i := 0; i < length; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Deletion runs faster than composition.
		if err := t.keyPause(ctx, 0.5, 0.4, nil, 0); err != nil {
			return err
		}
		if err := t.sendString(ctx, string(KeyBackspace)); err != nil {
			return fmt.Errorf("humanoid: failed to send backspace: %w", err)
		}
	}
	return nil
}

// typeCharacter handles the logic for typing a single character, including pauses and typos.
// It returns true if it processed more than one character (e.g., for transposition).
func (t *Typist) typeCharacter(ctx context.Context, runes []rune, i int, speedFactor float64) (advanced bool, err error) {
	if err := t.keyPause(ctx, speedFactor, speedFactor, runes, i); err != nil {
		return false, err
	}

	t.mu.Lock()
	cfg := t.dynamicConfig
	shouldTypo := t.rng.Float64() < cfg.TypoRate
	t.mu.Unlock()

	if shouldTypo {
		typoIntroduced, advanced, err := t.introduceTypo(ctx, cfg, runes, i)
		if err != nil {
			return false, fmt.Errorf("humanoid: error during typo simulation: %w", err)
		}
		// If a typo was introduced (typed and backspaced), the original key is already handled.
		if typoIntroduced {
			return advanced, nil
		}
	}

	if err := t.sendString(ctx, string(runes[i])); err != nil {
		return false, fmt.Errorf("humanoid: failed to send key '%c': %w", runes[i], err)
	}
	return false, nil
}

// sendString is a unified, private helper for dispatching key events.
func (t *Typist) sendString(ctx context.Context, keys string) error {
	if err := t.executor.SendKeys(ctx, keys); err != nil {
		return err
	}
	// Simulate the key "dwell" time after the key press.
	return t.executor.Sleep(ctx, t.keyHoldDuration())
}

// keyHoldDuration calculates how long a key should be held down.
func (t *Typist) keyHoldDuration() time.Duration {
	t.mu.Lock()
	cfg := t.dynamicConfig
	mean := cfg.KeyHoldMean
	stdDev := cfg.KeyHoldStdDev
	randNorm := t.rng.NormFloat64()
	t.mu.Unlock()

	if mean <= 0 { // Pacing disabled.
		return 0
	}
	delay := randNorm*stdDev + mean
	if delay < 20.0 { // Ensure a minimum realistic hold time.
		delay = 20.0
	}
	return time.Duration(delay) * time.Millisecond
}

// keyPause introduces a human-like inter-key delay (IKD).
func (t *Typist) keyPause(ctx context.Context, meanScale, stdDevScale float64, runes []rune, index int) error {
	t.mu.Lock()
	cfg := t.dynamicConfig
	randNorm := t.rng.NormFloat64()
	fatigueLevel := t.fatigueLevel
	t.mu.Unlock()

	mean := cfg.KeyPauseMean * meanScale
	stdDev := cfg.KeyPauseStdDev * stdDevScale
	minDelay := cfg.KeyPauseMin * meanScale
	ngramFactor := 1.0

	// Adjust for common N-grams to simulate rhythmic typing.
	if runes != nil && index > 1 {
		trigraph := strings.ToLower(string(runes[index-2 : index+1]))
		if commonNgrams[trigraph] {
			ngramFactor = cfg.KeyPauseNgramFactor3
		} else {
			digraph := strings.ToLower(string(runes[index-1 : index+1]))
			if commonNgrams[digraph] {
				ngramFactor = cfg.KeyPauseNgramFactor2
			}
		}
	}

	mean *= ngramFactor
	minDelay *= ngramFactor

	fatigueFactor := 1.0 + fatigueLevel*cfg.KeyPauseFatigueFactor
	mean *= fatigueFactor

	delay := randNorm*stdDev + mean
	finalDelay := math.Max(minDelay, delay)
	duration := time.Duration(finalDelay) * time.Millisecond

	t.recoverFatigue(duration)

	return t.executor.Sleep(ctx, duration)
}

// introduceTypo decides which kind of typo to simulate.
func (t *Typist) introduceTypo(ctx context.Context, cfg Config, runes []rune, i int) (introduced bool, advanced bool, err error) {
	char := runes[i]
	t.mu.Lock()
	p := t.rng.Float64()
	t.mu.Unlock()

	if p < cfg.TypoNeighborRate {
		return t.introduceNeighborTypo(ctx, char)
	}
	p -= cfg.TypoNeighborRate

	if p < cfg.TypoTransposeRate {
		var nextChar rune
		if i+1 < len(runes) {
			nextChar = runes[i+1]
		}
		// An uncorrected transposition still typed both characters, just
		// swapped, so it counts as introduced either way.
		corrected, didAdvance, err := t.introduceTransposition(ctx, char, nextChar)
		return corrected || didAdvance, didAdvance, err
	}
	p -= cfg.TypoTransposeRate

	if p < cfg.TypoOmissionRate {
		return t.introduceOmission(ctx, char)
	}

	return t.introduceInsertion(ctx, char)
}

// --- Typo Implementations ---

func (t *Typist) introduceNeighborTypo(ctx context.Context, char rune) (bool, bool, error) {
	lowerChar := unicode.ToLower(char)
	if neighbors, ok := keyboardNeighbors[lowerChar]; ok && len(neighbors) > 0 {
		t.mu.Lock()
		cfg := t.dynamicConfig
		typoChar := rune(neighbors[t.rng.Intn(len(neighbors))])
		if unicode.IsUpper(char) && t.rng.Float64() < cfg.TypoShiftCorrectionProbability {
			typoChar = unicode.ToUpper(typoChar)
		}
		t.mu.Unlock()

		if err := t.sendString(ctx, string(typoChar)); err != nil {
			return true, false, err
		}
		if err := t.keyPause(ctx, cfg.TypoCorrectionPauseMeanScale, cfg.TypoCorrectionPauseStdDevScale, nil, 0); err != nil {
			return true, false, err
		}

		if err := t.sendString(ctx, string(KeyBackspace)); err != nil {
			return true, false, err
		}

		if err := t.keyPause(ctx, 1.2, 0.5, nil, 0); err != nil {
			return true, false, err
		}
		if err := t.sendString(ctx, string(char)); err != nil {
			return true, false, err
		}
		return true, false, nil
	}
	return false, false, nil
}

func (t *Typist) introduceTransposition(ctx context.Context, char, nextChar rune) (corrected, advanced bool, err error) {
	if nextChar == 0 || unicode.IsSpace(nextChar) || unicode.IsSpace(char) {
		return false, false, nil
	}
	if err := t.sendString(ctx, string(nextChar)); err != nil {
		return false, true, err
	}
	if err := t.keyPause(ctx, 0.8, 0.3, nil, 0); err != nil {
		return false, true, err
	}
	if err := t.sendString(ctx, string(char)); err != nil {
		return false, true, err
	}
	advanced = true

	t.mu.Lock()
	cfg := t.dynamicConfig
	shouldCorrect := t.rng.Float64() < cfg.TypoCorrectionProbability
	t.mu.Unlock()

	if shouldCorrect {
		if err := t.keyPause(ctx, cfg.TypoCorrectionPauseMeanScale, cfg.TypoCorrectionPauseStdDevScale, nil, 0); err != nil {
			return false, advanced, err
		}

		if err := t.sendString(ctx, string(KeyBackspace)); err != nil {
			return false, advanced, err
		}
		if err := t.keyPause(ctx, 1.1, 0.4, nil, 0); err != nil {
			return false, advanced, err
		}
		if err := t.sendString(ctx, string(KeyBackspace)); err != nil {
			return false, advanced, err
		}

		if err := t.keyPause(ctx, 1.2, 0.5, nil, 0); err != nil {
			return false, advanced, err
		}
		if err := t.sendString(ctx, string(char)); err != nil {
			return false, advanced, err
		}
		if err := t.keyPause(ctx, 1.0, 0.4, nil, 0); err != nil {
			return false, advanced, err
		}
		if err := t.sendString(ctx, string(nextChar)); err != nil {
			return false, advanced, err
		}
		return true, advanced, nil
	}
	return false, advanced, nil
}

func (t *Typist) introduceOmission(ctx context.Context, char rune) (bool, bool, error) {
	if unicode.IsSpace(char) {
		return false, false, nil
	}

	t.mu.Lock()
	cfg := t.dynamicConfig
	shouldNotice := t.rng.Float64() < cfg.TypoOmissionNoticeProbability
	t.mu.Unlock()

	if shouldNotice {
		if err := t.keyPause(ctx, cfg.TypoCorrectionPauseMeanScale, cfg.TypoCorrectionPauseStdDevScale, nil, 0); err != nil {
			return true, false, err
		}
		if err := t.sendString(ctx, string(char)); err != nil {
			return true, false, err
		}
		return true, false, nil
	}
	// Omission remains uncorrected.
	return true, false, nil
}

func (t *Typist) introduceInsertion(ctx context.Context, char rune) (bool, bool, error) {
	lowerChar := unicode.ToLower(char)
	if neighbors, ok := keyboardNeighbors[lowerChar]; ok && len(neighbors) > 0 {
		t.mu.Lock()
		cfg := t.dynamicConfig
		insertionChar := rune(neighbors[t.rng.Intn(len(neighbors))])
		shouldNotice := t.rng.Float64() < cfg.TypoInsertionNoticeProbability
		t.mu.Unlock()

		if err := t.sendString(ctx, string(insertionChar)); err != nil {
			return true, false, err
		}

		if shouldNotice {
			if err := t.keyPause(ctx, cfg.TypoCorrectionPauseMeanScale, cfg.TypoCorrectionPauseStdDevScale, nil, 0); err != nil {
				return true, false, err
			}

			if err := t.sendString(ctx, string(KeyBackspace)); err != nil {
				return true, false, err
			}
		}

		if err := t.keyPause(ctx, 1.1, 0.4, nil, 0); err != nil {
			return true, false, err
		}
		if err := t.sendString(ctx, string(char)); err != nil {
			return true, false, err
		}
		return true, false, nil
	}
	return false, false, nil
}
