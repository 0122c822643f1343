// Package fill runs the classify, resolve, type pipeline across the
// page's forms: sequential per-field humanoid typing with per-field
// failure isolation, bounded re-invocation per page, and dedicated
// handling for every control kind.
package fill

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/applypilot/applypilot-cli/api/schemas"
	"github.com/applypilot/applypilot-cli/internal/classifier"
	"github.com/applypilot/applypilot-cli/internal/config"
	"github.com/applypilot/applypilot-cli/internal/humanoid"
	"github.com/applypilot/applypilot-cli/internal/resolver"
	"github.com/applypilot/applypilot-cli/internal/siteprofile"
)

var (
	// ErrAttemptsExhausted is returned when the per-page pass budget is
	// spent and the cooldown has not yet elapsed.
	ErrAttemptsExhausted = errors.New("fill: attempt budget exhausted for page")
	// ErrNoProfile is returned when Run is invoked without a profile.
	ErrNoProfile = errors.New("fill: no user profile available")
)

// resumePatterns mark file inputs that take the resume upload path.
var resumePatterns = []string{"resume", "cv", "curriculum"}

// Filler drives one session's fill passes.
type Filler struct {
	session    schemas.Session
	typist     *humanoid.Typist
	classifier *classifier.Classifier
	cfg        config.FillConfig
	logger     *zap.Logger
	resume     schemas.ResumeProvider // nil when no backend is configured
	gate       *attemptGate

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New builds a Filler. resume may be nil; file uploads are then skipped.
func New(session schemas.Session, typist *humanoid.Typist, cls *classifier.Classifier, cfg config.FillConfig, logger *zap.Logger, resume schemas.ResumeProvider) *Filler {
	return &Filler{
		session:    session,
		typist:     typist,
		classifier: cls,
		cfg:        cfg,
		logger:     logger.Named("fill"),
		resume:     resume,
		gate:       newAttemptGate(cfg.MaxAttemptsPerPage, cfg.AttemptCooldown),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ResetPage clears fill bookkeeping after navigating away from a page.
func (f *Filler) ResetPage(pageURL string) {
	f.gate.reset(pageURL)
}

// Run executes one complete fill pass over the current page. Per-field
// failures are recorded and do not abort the pass; only page-level
// conditions (budget, discovery failure) surface as errors.
func (f *Filler) Run(ctx context.Context, profile *schemas.UserProfile, siteProf *siteprofile.Profile) (*schemas.FillResult, error) {
	if profile == nil {
		return nil, ErrNoProfile
	}

	pageURL, err := f.session.CurrentURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("fill: cannot determine page URL: %w", err)
	}
	if !f.gate.begin(pageURL) {
		return nil, fmt.Errorf("%w: %s", ErrAttemptsExhausted, pageURL)
	}
	defer f.gate.finish(pageURL)

	elements, err := DiscoverElements(ctx, f.session)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("Discovered controls.", zap.Int("count", len(elements)), zap.String("url", pageURL))

	result := &schemas.FillResult{}
	for gi, group := range groupByForm(elements) {
		if gi > 0 && f.cfg.InterFormDelayMs > 0 {
			if err := f.session.Sleep(ctx, time.Duration(f.cfg.InterFormDelayMs)*time.Millisecond); err != nil {
				return result, err
			}
		}
		if err := f.fillForm(ctx, pageURL, group, profile, siteProf, result); err != nil {
			return result, err
		}
	}

	f.logger.Info("Fill pass complete.",
		zap.String("url", pageURL),
		zap.Int("found", result.FieldsFound),
		zap.Int("filled", result.FieldsFilled),
		zap.Int("failed", result.FieldsFailed))
	return result, nil
}

// fillForm processes one form's controls strictly in document order.
func (f *Filler) fillForm(ctx context.Context, pageURL string, group []schemas.Element, profile *schemas.UserProfile, siteProf *siteprofile.Profile, result *schemas.FillResult) error {
	radioGroups := collectRadioGroups(group)
	seenGroups := make(map[string]bool)

	for i := range group {
		if err := ctx.Err(); err != nil {
			return err
		}
		el := &group[i]

		// A radio group fills once, through its first member.
		groupKey := el.FormSelector + "\x00" + el.GroupName
		if el.Kind == schemas.KindChoiceGroup {
			if seenGroups[groupKey] {
				continue
			}
			seenGroups[groupKey] = true
		}

		outcome, attempted := f.fillElement(ctx, pageURL, el, radioGroups[groupKey], profile, siteProf)
		if !attempted {
			continue
		}
		result.FieldsFound++
		result.Record(outcome)

		if outcome.Filled {
			if err := f.session.Sleep(ctx, f.interFieldDelay()); err != nil {
				return err
			}
		}
	}
	return nil
}

// fillElement classifies, resolves and fills a single control. The
// second return is false when the element is not a recognized field at
// all (below confidence threshold); such controls are left untouched
// and never counted.
func (f *Filler) fillElement(ctx context.Context, pageURL string, el *schemas.Element, radioGroup []schemas.Element, profile *schemas.UserProfile, siteProf *siteprofile.Profile) (schemas.FieldOutcome, bool) {
	// File inputs bypass classification: resume-looking ones take the
	// upload path, everything else is ignored.
	if el.Kind == schemas.KindFileUpload {
		if !looksLikeResumeInput(el) {
			return schemas.FieldOutcome{}, false
		}
		return f.uploadResume(ctx, pageURL, el), true
	}

	match, ok := f.classifier.Classify(el, siteProf)
	if !ok {
		return schemas.FieldOutcome{}, false
	}
	outcome := schemas.FieldOutcome{
		Selector:   el.Selector,
		Attribute:  match.Attribute,
		Confidence: match.Confidence,
	}

	value, ok := resolver.Resolve(match.Attribute, profile, el)
	if !ok {
		outcome.Skipped = true
		return outcome, true
	}

	if !f.gate.markProcessed(pageURL, el.Selector) {
		outcome.Skipped = true
		return outcome, true
	}

	var err error
	switch el.Kind {
	case schemas.KindTextLike, schemas.KindEditableRegion:
		err = f.fillText(ctx, el, value)
	case schemas.KindSelect:
		err = f.fillSelect(ctx, el, value)
	case schemas.KindChoiceGroup:
		err = f.fillRadioGroup(ctx, el, radioGroup, value)
	case schemas.KindCheckbox:
		err = f.fillCheckbox(ctx, el, value)
	case schemas.KindFileUpload:
		// handled above; unreachable
	default:
		err = fmt.Errorf("unhandled control kind %v", el.Kind)
	}

	if err != nil {
		f.logger.Warn("Field fill failed.",
			zap.String("selector", el.Selector),
			zap.String("attribute", string(match.Attribute)),
			zap.Error(err))
		outcome.Error = err.Error()
		return outcome, true
	}
	outcome.Filled = true
	return outcome, true
}

// fillText types a value into a text-like or content-editable control:
// scroll, focus, incremental clear, humanoid typing, terminal commit.
func (f *Filler) fillText(ctx context.Context, el *schemas.Element, value string) error {
	if err := f.session.ScrollIntoView(ctx, el.Selector); err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	if err := f.session.Sleep(ctx, f.settleDelay()); err != nil {
		return err
	}
	if err := f.session.Focus(ctx, el.Selector); err != nil {
		return fmt.Errorf("focus: %w", err)
	}

	existing, err := f.currentLength(ctx, el)
	if err != nil {
		return err
	}
	if existing > 0 {
		if err := f.typist.Clear(ctx, existing); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
	}
	if err := f.typist.Type(ctx, value); err != nil {
		return fmt.Errorf("type: %w", err)
	}
	return f.session.DispatchCommit(ctx, el.Selector)
}

// currentLength reads the length of a control's present content.
func (f *Filler) currentLength(ctx context.Context, el *schemas.Element) (int, error) {
	prop := "value"
	if el.Kind == schemas.KindEditableRegion {
		prop = "textContent"
	}
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		return el && el.%s ? String(el.%s).length : 0;
	})()`, el.Selector, prop, prop)

	raw, err := f.session.ExecuteScript(ctx, script)
	if err != nil {
		return 0, fmt.Errorf("read existing value: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("read existing value: unexpected result %q", raw)
	}
	return n, nil
}

// fillSelect resolves the target option and selects it in-page.
func (f *Filler) fillSelect(ctx context.Context, el *schemas.Element, value string) error {
	opt, ok := matchOption(el.Options, value, f.cfg.FuzzyMatchThreshold)
	if !ok {
		return fmt.Errorf("no option matches %q", value)
	}
	if err := f.session.ScrollIntoView(ctx, el.Selector); err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.value = %q;
		return el.value === %q;
	})()`, el.Selector, opt.Value, opt.Value)

	raw, err := f.session.ExecuteScript(ctx, script)
	if err != nil {
		return fmt.Errorf("select option: %w", err)
	}
	if strings.TrimSpace(string(raw)) != "true" {
		return fmt.Errorf("option %q not applied", opt.Value)
	}
	return f.session.DispatchCommit(ctx, el.Selector)
}

// fillRadioGroup selects the member of a same-named radio group whose
// context implies the resolved value.
func (f *Filler) fillRadioGroup(ctx context.Context, el *schemas.Element, group []schemas.Element, value string) error {
	if len(group) == 0 {
		group = []schemas.Element{*el}
	}
	target := pickRadio(group, value)
	if target == nil {
		return fmt.Errorf("no radio in group %q matches %q", el.GroupName, value)
	}

	if err := f.session.ScrollIntoView(ctx, target.Selector); err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.click();
		return el.checked === true;
	})()`, target.Selector)

	raw, err := f.session.ExecuteScript(ctx, script)
	if err != nil {
		return fmt.Errorf("radio click: %w", err)
	}
	if strings.TrimSpace(string(raw)) != "true" {
		return fmt.Errorf("radio %q did not check", target.Selector)
	}
	return f.session.DispatchCommit(ctx, target.Selector)
}

// fillCheckbox sets a checkbox to the boolean the value implies.
func (f *Filler) fillCheckbox(ctx context.Context, el *schemas.Element, value string) error {
	want := truthy(value)
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		if (el.checked !== %t) el.click();
		return el.checked === %t;
	})()`, el.Selector, want, want)

	raw, err := f.session.ExecuteScript(ctx, script)
	if err != nil {
		return fmt.Errorf("checkbox: %w", err)
	}
	if strings.TrimSpace(string(raw)) != "true" {
		return fmt.Errorf("checkbox %q did not settle", el.Selector)
	}
	return f.session.DispatchCommit(ctx, el.Selector)
}

// uploadResume fetches the active resume and attaches it to the input.
// Without a provider or an available binary the field is skipped, not
// failed.
func (f *Filler) uploadResume(ctx context.Context, pageURL string, el *schemas.Element) schemas.FieldOutcome {
	outcome := schemas.FieldOutcome{Selector: el.Selector}
	if f.resume == nil {
		outcome.Skipped = true
		return outcome
	}
	blob, err := f.resume.GetActiveResume(ctx)
	if err != nil || blob == nil || len(blob.Data) == 0 {
		f.logger.Debug("No resume available, skipping upload.", zap.Error(err))
		outcome.Skipped = true
		return outcome
	}

	if !f.gate.markProcessed(pageURL, el.Selector) {
		outcome.Skipped = true
		return outcome
	}

	path, err := writeResumeTemp(blob)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	if err := f.session.SetFiles(ctx, el.Selector, []string{path}); err != nil {
		outcome.Error = fmt.Sprintf("attach resume: %v", err)
		return outcome
	}
	outcome.Filled = true
	return outcome
}

func writeResumeTemp(blob *schemas.ResumeBlob) (string, error) {
	name := blob.FileName
	if name == "" {
		name = "resume.pdf"
	}
	dir, err := os.MkdirTemp("", "applypilot-resume-")
	if err != nil {
		return "", fmt.Errorf("stage resume: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, blob.Data, 0o600); err != nil {
		return "", fmt.Errorf("stage resume: %w", err)
	}
	return path, nil
}

// pickRadio chooses the group member whose context implies the value:
// yes/no synonyms for boolean answers, textual containment otherwise.
func pickRadio(group []schemas.Element, value string) *schemas.Element {
	want := strings.ToLower(strings.TrimSpace(value))

	synonyms := []string{want}
	switch want {
	case "yes":
		synonyms = append(synonyms, "y", "true", "i am", "i do")
	case "no":
		synonyms = append(synonyms, "n", "false", "i am not", "i do not")
	}

	for i := range group {
		haystack := group[i].ContextString()
		for _, syn := range synonyms {
			if syn == "" {
				continue
			}
			if containsWord(haystack, syn) {
				return &group[i]
			}
		}
	}
	return nil
}

// containsWord reports a whole-word, case-insensitive match so that a
// "No" option is not found inside "Now or in the future".
func containsWord(haystack, word string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], word)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isWordChar(haystack[i-1])
		afterIdx := i + len(word)
		after := afterIdx >= len(haystack) || !isWordChar(haystack[afterIdx])
		if before && after {
			return true
		}
		idx = i + len(word)
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// collectRadioGroups indexes a form's radio controls by group key.
func collectRadioGroups(group []schemas.Element) map[string][]schemas.Element {
	out := make(map[string][]schemas.Element)
	for _, el := range group {
		if el.Kind != schemas.KindChoiceGroup {
			continue
		}
		key := el.FormSelector + "\x00" + el.GroupName
		out[key] = append(out[key], el)
	}
	return out
}

// looksLikeResumeInput reports whether a file input is the resume slot.
func looksLikeResumeInput(el *schemas.Element) bool {
	haystack := el.ContextString()
	for _, p := range resumePatterns {
		if strings.Contains(haystack, p) {
			return true
		}
	}
	return false
}

func (f *Filler) interFieldDelay() time.Duration {
	min, max := f.cfg.InterFieldDelayMinMs, f.cfg.InterFieldDelayMaxMs
	if max <= min {
		return time.Duration(min) * time.Millisecond
	}
	f.rngMu.Lock()
	n := min + f.rng.Intn(max-min)
	f.rngMu.Unlock()
	return time.Duration(n) * time.Millisecond
}

func (f *Filler) settleDelay() time.Duration {
	f.rngMu.Lock()
	n := 80 + f.rng.Intn(120)
	f.rngMu.Unlock()
	return time.Duration(n) * time.Millisecond
}
