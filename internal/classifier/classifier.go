// Package classifier maps discovered page controls onto canonical
// profile attributes using a compiled-in mapping table plus per-platform
// selector overrides. Classification is pure: the same element, profile
// and configuration always produce the same match.
package classifier

import (
	"sort"
	"strings"

	"github.com/applypilot/applypilot-cli/api/schemas"
	"github.com/applypilot/applypilot-cli/internal/config"
	"github.com/applypilot/applypilot-cli/internal/siteprofile"
)

// Match is the outcome of classifying one element: the attribute the
// element is believed to collect and how strongly the evidence supports
// that belief.
type Match struct {
	Attribute  schemas.CanonicalAttribute
	Confidence int
	// Override is set when a platform-specific selector override fired,
	// as opposed to generic pattern scoring alone.
	Override bool

	priority int
}

// Classifier scores elements against the attribute mapping table.
type Classifier struct {
	cfg      config.ClassifierConfig
	mappings []Mapping
}

// New builds a classifier over the default mapping table.
func New(cfg config.ClassifierConfig) *Classifier {
	return &Classifier{cfg: cfg, mappings: defaultMappings}
}

// NewWithMappings builds a classifier over a custom table. Used in tests
// and by callers that extend the default vocabulary.
func NewWithMappings(cfg config.ClassifierConfig, mappings []Mapping) *Classifier {
	return &Classifier{cfg: cfg, mappings: mappings}
}

// Classify scores the element against every mapping and returns the best
// match, or ok=false when no candidate clears the confidence threshold.
// Ties break by confidence, then mapping priority, then override hits
// over generic ones.
func (c *Classifier) Classify(el *schemas.Element, profile *siteprofile.Profile) (Match, bool) {
	if el == nil {
		return Match{}, false
	}

	haystack := el.ContextString()
	ctrl := controlType(el)

	var candidates []Match
	for i := range c.mappings {
		m := &c.mappings[i]

		override := profile != nil && overrideHit(el, profile.AttributeSelectors[m.Attribute])
		compatible := typeCompatible(ctrl, m.Types)

		// Enumerated and binary controls only match mappings that declare
		// them compatible, unless the platform override says otherwise.
		if !compatible && !override && ctrl != "text" {
			continue
		}

		score := 0
		if override {
			score += c.cfg.OverrideBonus
		}
		if patternHit(haystack, m.Patterns) {
			score += c.cfg.PatternBonus
		}
		if compatible {
			score += c.cfg.TypeBonus
		}
		if score == 0 {
			continue
		}
		if el.Required {
			score += c.cfg.RequiredBonus
		}
		if score > 100 {
			score = 100
		}
		if score < c.cfg.MinConfidence {
			continue
		}

		candidates = append(candidates, Match{
			Attribute:  m.Attribute,
			Confidence: score,
			Override:   override,
			priority:   m.Priority,
		})
	}

	if len(candidates) == 0 {
		return Match{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		return a.Override && !b.Override
	})
	return candidates[0], true
}

// controlType collapses an element into the type vocabulary the mapping
// table speaks.
func controlType(el *schemas.Element) string {
	switch el.Kind {
	case schemas.KindSelect:
		return "select"
	case schemas.KindChoiceGroup:
		return "radio"
	case schemas.KindCheckbox:
		return "checkbox"
	case schemas.KindFileUpload:
		return "file"
	case schemas.KindEditableRegion:
		return "textarea"
	}
	if strings.EqualFold(el.TagName, "textarea") {
		return "textarea"
	}
	if t := strings.ToLower(el.InputType); t != "" {
		return t
	}
	return "text"
}

func typeCompatible(ctrl string, types []string) bool {
	for _, t := range types {
		if t == ctrl {
			return true
		}
	}
	return false
}

func patternHit(haystack string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(haystack, p) {
			return true
		}
	}
	return false
}

// overrideHit reports whether any platform override selector targets
// this element. Selectors are not evaluated against the live DOM here;
// the common ATS forms (#id, [name="…"], [data-automation-id="…"],
// [aria-label*="…"]) are matched structurally against the element's
// captured attributes.
func overrideHit(el *schemas.Element, selectors []string) bool {
	for _, sel := range selectors {
		if sel == "" {
			continue
		}
		if sel == el.Selector {
			return true
		}
		if id, ok := strings.CutPrefix(sel, "#"); ok && id == el.ID {
			return true
		}
		if attrTermMatches(sel, "name", el.Name) ||
			attrTermMatches(sel, "id", el.ID) ||
			attrTermMatches(sel, "data-automation-id", el.DataAttrs["data-automation-id"]) ||
			attrTermMatches(sel, "aria-label", el.AriaLabel) ||
			attrTermMatches(sel, "autocomplete", el.DataAttrs["autocomplete"]) {
			return true
		}
	}
	return false
}

// attrTermMatches evaluates one [attr="value"] term of a selector
// against the element's captured attribute value, honouring the =, *=,
// ^= and $= operators.
func attrTermMatches(sel, attr, actual string) bool {
	if actual == "" {
		return false
	}
	idx := strings.Index(sel, "["+attr)
	if idx < 0 {
		return false
	}
	rest := sel[idx+len(attr)+1:]
	eq := strings.IndexByte(rest, '=')
	end := strings.IndexByte(rest, ']')
	if eq < 0 || end < 0 || eq > end {
		return false
	}
	op := "="
	if eq > 0 {
		switch rest[eq-1] {
		case '*':
			op = "*="
		case '^':
			op = "^="
		case '$':
			op = "$="
		}
	}
	want := strings.ToLower(strings.Trim(strings.TrimSpace(rest[eq+1:end]), `"'`))
	if want == "" {
		return false
	}
	got := strings.ToLower(actual)
	switch op {
	case "*=":
		return strings.Contains(got, want)
	case "^=":
		return strings.HasPrefix(got, want)
	case "$=":
		return strings.HasSuffix(got, want)
	default:
		return got == want
	}
}
