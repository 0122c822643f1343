// internal/fill/options.go
package fill

import (
	"strings"

	"github.com/applypilot/applypilot-cli/api/schemas"
)

// matchOption resolves a target value against a select's option list:
// exact text/value match first, then substring containment in either
// direction, then a fuzzy alphanumeric-overlap heuristic. The first
// acceptable match wins. Disabled and placeholder options never match.
func matchOption(options []schemas.SelectOption, value string, fuzzyThreshold float64) (schemas.SelectOption, bool) {
	want := strings.ToLower(strings.TrimSpace(value))
	if want == "" {
		return schemas.SelectOption{}, false
	}

	usable := make([]schemas.SelectOption, 0, len(options))
	for _, o := range options {
		if o.Disabled || strings.TrimSpace(o.Value) == "" && strings.TrimSpace(o.Text) == "" {
			continue
		}
		usable = append(usable, o)
	}

	// Exact.
	for _, o := range usable {
		if strings.EqualFold(strings.TrimSpace(o.Text), want) || strings.EqualFold(strings.TrimSpace(o.Value), want) {
			return o, true
		}
	}

	// Substring, either direction.
	for _, o := range usable {
		text := strings.ToLower(strings.TrimSpace(o.Text))
		val := strings.ToLower(strings.TrimSpace(o.Value))
		if text != "" && (strings.Contains(text, want) || strings.Contains(want, text)) {
			return o, true
		}
		if val != "" && (strings.Contains(val, want) || strings.Contains(want, val)) {
			return o, true
		}
	}

	// Fuzzy.
	for _, o := range usable {
		if overlapRatio(o.Text, value) >= fuzzyThreshold || overlapRatio(o.Value, value) >= fuzzyThreshold {
			return o, true
		}
	}
	return schemas.SelectOption{}, false
}

// overlapRatio computes the shared alphanumeric character ratio between
// two strings, normalized to the shorter one.
func overlapRatio(a, b string) float64 {
	na, nb := alnum(a), alnum(b)
	if len(na) == 0 || len(nb) == 0 {
		return 0
	}

	counts := make(map[rune]int, len(na))
	for _, r := range na {
		counts[r]++
	}
	shared := 0
	for _, r := range nb {
		if counts[r] > 0 {
			counts[r]--
			shared++
		}
	}

	denom := len(nb)
	if len(na) < denom {
		denom = len(na)
	}
	return float64(shared) / float64(denom)
}

func alnum(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			out = append(out, r)
		}
	}
	return out
}

// truthy interprets a resolved value as a checkbox/radio boolean.
func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "1", "on", "authorized", "checked":
		return true
	}
	return false
}
