// Package submitwatch decides when an application has actually been
// submitted. It is deliberately conservative: a tracked submit action
// arms it, and confirmation needs both a confirmation-looking URL and
// strong confirmation text on the page within a bounded window. Either
// signal alone never reports anything.
package submitwatch

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/applypilot/applypilot-cli/api/schemas"
	"github.com/applypilot/applypilot-cli/internal/config"
	"github.com/applypilot/applypilot-cli/internal/extract"
	"github.com/applypilot/applypilot-cli/internal/siteprofile"
)

// State is the detector's position in WATCHING→ARMED→CONFIRMED→REPORTED.
type State string

const (
	StateWatching  State = "watching"
	StateArmed     State = "armed"
	StateConfirmed State = "confirmed"
	StateReported  State = "reported"
)

const defaultPollInterval = 750 * time.Millisecond

// Watcher watches one session for a completed application. The in-page
// probe records submit events and submit-control clicks; the watcher
// polls it, since the probe's document is replaced on navigation and a
// persistent callback channel would not survive the transition.
type Watcher struct {
	session schemas.Session
	tracker schemas.Tracker
	cfg     config.SubmitWatchConfig
	logger  *zap.Logger

	pollInterval time.Duration
	now          func() time.Time

	mu          sync.Mutex
	state       State
	armedAt     time.Time
	lastProbeTS int64
	job         schemas.JobInfo
	profile     *siteprofile.Profile
	reported    map[string]bool // job URL -> already reported this session
}

// New builds a watcher. tracker may be nil; confirmations are then
// logged but not transmitted.
func New(session schemas.Session, tracker schemas.Tracker, cfg config.SubmitWatchConfig, logger *zap.Logger) *Watcher {
	return &Watcher{
		session:      session,
		tracker:      tracker,
		cfg:          cfg,
		logger:       logger.Named("submitwatch"),
		pollInterval: defaultPollInterval,
		now:          time.Now,
		state:        StateWatching,
		reported:     make(map[string]bool),
	}
}

// SetContext installs the detected job this watcher is guarding. Called
// by the orchestrator on every detection; resets ARMED progress, the
// per-session reported set survives so a re-detected page cannot
// double-report.
func (w *Watcher) SetContext(job schemas.JobInfo, profile *siteprofile.Profile) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.job = job
	w.profile = profile
	w.lastProbeTS = 0
	w.state = StateWatching
	w.armedAt = time.Time{}
}

// Reset returns the watcher to WATCHING after the page is left. The
// reported set is kept for session-scoped idempotence.
func (w *Watcher) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = StateWatching
	w.armedAt = time.Time{}
	w.profile = nil
	w.job = schemas.JobInfo{}
	w.lastProbeTS = 0
}

// State returns the current detector state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Run polls until the context ends. Polling is cheap: one small script
// evaluation per tick, plus a snapshot only while armed with a
// confirmation-looking URL.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.step(ctx)
		}
	}
}

// step executes one observation: re-install the probe if the document
// changed, pick up a submit mark, then run the confirmation checks
// while armed.
func (w *Watcher) step(ctx context.Context) {
	w.mu.Lock()
	profile := w.profile
	state := w.state
	w.mu.Unlock()
	if profile == nil || state == StateReported {
		return
	}

	ts, err := w.probe(ctx, profile)
	if err != nil {
		w.logger.Debug("Submit probe failed.", zap.Error(err))
	} else {
		w.observeProbe(ts)
	}

	w.mu.Lock()
	armed := w.state == StateArmed
	armedAt := w.armedAt
	w.mu.Unlock()
	if !armed {
		return
	}

	if w.now().Sub(armedAt) > w.cfg.ConfirmationWindow {
		w.disarm()
		return
	}
	w.checkConfirmation(ctx, profile)
}

// observeProbe arms the watcher when the in-page probe reports a submit
// newer than anything seen before.
func (w *Watcher) observeProbe(ts int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ts <= w.lastProbeTS {
		return
	}
	w.lastProbeTS = ts
	if w.state != StateWatching {
		return
	}
	w.state = StateArmed
	w.armedAt = w.now()
	w.logger.Info("Submission armed.", zap.String("url", w.job.URL))
}

func (w *Watcher) disarm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateArmed {
		return
	}
	w.state = StateWatching
	w.armedAt = time.Time{}
	w.logger.Debug("Confirmation window elapsed, disarmed.")
}

// checkConfirmation applies the dual-signal test and reports on success.
func (w *Watcher) checkConfirmation(ctx context.Context, profile *siteprofile.Profile) {
	pageURL, err := w.session.CurrentURL(ctx)
	if err != nil {
		return
	}
	if !containsAny(strings.ToLower(pageURL), profile.ConfirmationURLPatterns) {
		return
	}

	html, err := w.session.HTMLSnapshot(ctx)
	if err != nil {
		return
	}
	text, err := extract.PageText(html)
	if err != nil || !containsAny(text, profile.ConfirmationTextPatterns) {
		return
	}

	w.confirm(ctx, pageURL)
}

// confirm transitions to CONFIRMED and emits the ApplicationEvent
// exactly once per job URL for the life of the session.
func (w *Watcher) confirm(ctx context.Context, confirmedURL string) {
	w.mu.Lock()
	if w.state != StateArmed {
		w.mu.Unlock()
		return
	}
	w.state = StateConfirmed
	job := w.job
	platform := ""
	if w.profile != nil {
		platform = w.profile.Platform
	}
	key := job.URL
	if key == "" {
		key = confirmedURL
	}
	if w.reported[key] {
		w.state = StateReported
		w.mu.Unlock()
		return
	}
	w.reported[key] = true
	w.state = StateReported
	w.mu.Unlock()

	ev := &schemas.ApplicationEvent{
		ID:          uuid.NewString(),
		JobTitle:    job.Title,
		Company:     job.Company,
		Location:    job.Location,
		Platform:    platform,
		URL:         key,
		SubmittedAt: w.now(),
	}
	w.logger.Info("Application confirmed.",
		zap.String("title", ev.JobTitle),
		zap.String("company", ev.Company),
		zap.String("url", ev.URL))

	if w.tracker == nil {
		return
	}
	if err := w.tracker.TrackApplication(ctx, ev); err != nil {
		// No retry; the event stays reported so a flaky page cannot
		// cause duplicates.
		w.logger.Warn("Application tracking failed.", zap.Error(err))
	}
}

// probe installs the submit listener into the current document (once
// per document) and returns the latest recorded submit timestamp.
func (w *Watcher) probe(ctx context.Context, profile *siteprofile.Profile) (int64, error) {
	submitSel, _ := jsoniter.MarshalToString(strings.Join(profile.SubmitSelectors, ", "))
	skipSel, _ := jsoniter.MarshalToString(strings.Join(profile.SkipSelectors, ", "))

	script := `(() => {
	if (!window.__applypilot_submit_probe) {
		window.__applypilot_submit_probe = true;
		window.__applypilot_submit_ts = 0;
		const submitSel = ` + submitSel + `;
		const skipSel = ` + skipSel + `;
		const mark = () => { window.__applypilot_submit_ts = Date.now(); };
		document.addEventListener('submit', mark, true);
		document.addEventListener('click', (e) => {
			const t = e.target;
			if (!t || !t.closest) return;
			if (skipSel && t.closest(skipSel)) return;
			if (submitSel && t.closest(submitSel)) mark();
		}, true);
	}
	return window.__applypilot_submit_ts || 0;
})()`

	raw, err := w.session.ExecuteScript(ctx, script)
	if err != nil {
		return 0, err
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, err
	}
	return ts, nil
}

func containsAny(haystack string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(haystack, p) {
			return true
		}
	}
	return false
}
