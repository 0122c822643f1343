// Package lifecycle watches a session's navigation stream and decides
// when the current page is a job posting or application form worth
// running the fill pipeline on. Detection is a small state machine:
// IDLE until something navigation-shaped happens, CANDIDATE while the
// URL looks like a job path, DETECTED once a plausible job title has
// been extracted as well.
package lifecycle

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/applypilot/applypilot-cli/api/schemas"
	"github.com/applypilot/applypilot-cli/internal/config"
	"github.com/applypilot/applypilot-cli/internal/extract"
	"github.com/applypilot/applypilot-cli/internal/siteprofile"
)

// State is the monitor's detection state for the current page.
type State string

const (
	StateIdle      State = "idle"
	StateCandidate State = "candidate"
	StateDetected  State = "detected"
)

// Detection is emitted once per detected page: the page URL, the
// extracted job summary and the site profile that matched it.
type Detection struct {
	URL     string
	Job     schemas.JobInfo
	Profile *siteprofile.Profile
}

const (
	detectionDepth = 4
	departureDepth = 4
)

// Monitor consumes the session's navigation events and publishes
// detections and departures. One Monitor per session; Run owns all
// state transitions, so no locking is needed beyond the state snapshot.
type Monitor struct {
	session  schemas.Session
	resolver *siteprofile.Resolver
	cfg      config.LifecycleConfig
	logger   *zap.Logger
	limiter  *rate.Limiter

	mu          sync.Mutex
	state       State
	pageURL     string // URL the current state refers to
	detectedURL string // last URL a Detection was emitted for

	detections chan Detection
	departures chan string
}

// New builds a monitor over a session. Run must be called to start it.
func New(session schemas.Session, resolver *siteprofile.Resolver, cfg config.LifecycleConfig, logger *zap.Logger) *Monitor {
	return &Monitor{
		session:    session,
		resolver:   resolver,
		cfg:        cfg,
		logger:     logger.Named("lifecycle"),
		limiter:    rate.NewLimiter(rate.Every(cfg.ReconcileInterval), 1),
		state:      StateIdle,
		detections: make(chan Detection, detectionDepth),
		departures: make(chan string, departureDepth),
	}
}

// Detections delivers one event per newly detected job page.
func (m *Monitor) Detections() <-chan Detection { return m.detections }

// Departures delivers the old URL whenever a detected page is left.
// Consumers use it to discard per-page fill state.
func (m *Monitor) Departures() <-chan string { return m.departures }

// State returns the current detection state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Run drives the state machine until the context ends or the session's
// navigation channel closes. DOM mutations are debounced; the
// reconciliation tick re-evaluates at most once per interval, so a
// noisy page cannot make the monitor re-extract continuously.
func (m *Monitor) Run(ctx context.Context) error {
	// Evaluate whatever page the session is already on.
	m.evaluate(ctx)

	ticker := time.NewTicker(m.cfg.ReconcileInterval)
	defer ticker.Stop()

	var debounce *time.Timer
	var debounceC <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-m.session.Navigations():
			if !ok {
				return nil
			}
			switch ev.Kind {
			case schemas.NavFull, schemas.NavHistoryPush, schemas.NavHistoryPop:
				m.handleNavigation(ctx, ev.URL)
			case schemas.NavFragment:
				// Same document; the URL may now carry a different
				// fragment route, so re-check without departing.
				m.evaluate(ctx)
			case schemas.NavDOMMutation:
				if debounce == nil {
					debounce = time.NewTimer(m.cfg.MutationDebounce)
					debounceC = debounce.C
				} else {
					if !debounce.Stop() {
						select {
						case <-debounce.C:
						default:
						}
					}
					debounce.Reset(m.cfg.MutationDebounce)
				}
			}

		case <-debounceC:
			debounce = nil
			debounceC = nil
			m.evaluate(ctx)

		case <-ticker.C:
			if m.limiter.Allow() {
				m.evaluate(ctx)
			}
		}
	}
}

// handleNavigation processes a page transition: leaving a detected page
// publishes a departure before the new page is evaluated.
func (m *Monitor) handleNavigation(ctx context.Context, newURL string) {
	m.mu.Lock()
	oldURL := m.pageURL
	wasDetected := m.state == StateDetected
	if newURL != oldURL {
		m.state = StateIdle
		m.pageURL = newURL
		m.detectedURL = ""
	}
	m.mu.Unlock()

	if wasDetected && newURL != oldURL {
		m.logger.Info("Left detected page.", zap.String("from", oldURL), zap.String("to", newURL))
		m.publishDeparture(oldURL)
	}
	m.evaluate(ctx)
}

// evaluate runs the IDLE→CANDIDATE→DETECTED checks against the live
// page. Extraction failure on a job-path URL reverts to IDLE rather
// than leaving a half-detected page behind.
func (m *Monitor) evaluate(ctx context.Context) {
	pageURL, err := m.session.CurrentURL(ctx)
	if err != nil {
		m.logger.Debug("Cannot read page URL.", zap.Error(err))
		return
	}

	profile := m.resolver.Resolve(pageURL)
	if !profile.MatchesJobPath(pageURL) {
		m.transition(StateIdle, pageURL)
		return
	}
	m.upgradeCandidate(pageURL)

	html, err := m.session.HTMLSnapshot(ctx)
	if err != nil {
		m.logger.Debug("Snapshot failed.", zap.Error(err))
		m.transition(StateIdle, pageURL)
		return
	}
	job, err := extract.JobInfo(html, pageURL, profile)
	if err != nil || !job.Plausible() {
		m.transition(StateIdle, pageURL)
		return
	}
	job.Platform = profile.Platform

	m.mu.Lock()
	alreadyReported := m.detectedURL == pageURL
	m.state = StateDetected
	m.pageURL = pageURL
	m.detectedURL = pageURL
	m.mu.Unlock()

	if alreadyReported {
		return
	}
	m.logger.Info("Job page detected.",
		zap.String("url", pageURL),
		zap.String("title", job.Title),
		zap.String("platform", profile.Platform))
	m.publishDetection(Detection{URL: pageURL, Job: job, Profile: profile})
}

// upgradeCandidate moves IDLE to CANDIDATE without disturbing an
// existing detection; reconciliation of a detected page must not cycle
// through CANDIDATE and fire departures.
func (m *Monitor) upgradeCandidate(pageURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageURL = pageURL
	if m.state == StateIdle {
		m.state = StateCandidate
	}
}

func (m *Monitor) transition(s State, pageURL string) {
	m.mu.Lock()
	m.pageURL = pageURL
	if m.state == s {
		m.mu.Unlock()
		return
	}
	wasDetected := m.state == StateDetected
	m.state = s
	if s != StateDetected {
		m.detectedURL = ""
	}
	m.mu.Unlock()

	// A detected page that stops qualifying counts as a departure.
	if wasDetected {
		m.publishDeparture(pageURL)
	}
}

func (m *Monitor) publishDetection(d Detection) {
	select {
	case m.detections <- d:
	default:
		m.logger.Warn("Detection dropped, consumer lagging.", zap.String("url", d.URL))
	}
}

func (m *Monitor) publishDeparture(oldURL string) {
	select {
	case m.departures <- oldURL:
	default:
	}
}
