// Package orchestrator wires the pipeline together: browser session,
// lifecycle monitor, classifier, resolver-driven fill and the
// submission watcher. It is injected with the external collaborators
// via interfaces, so every piece is testable without a browser.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/applypilot/applypilot-cli/api/schemas"
	"github.com/applypilot/applypilot-cli/internal/browser"
	"github.com/applypilot/applypilot-cli/internal/classifier"
	"github.com/applypilot/applypilot-cli/internal/config"
	"github.com/applypilot/applypilot-cli/internal/fill"
	"github.com/applypilot/applypilot-cli/internal/history"
	"github.com/applypilot/applypilot-cli/internal/humanoid"
	"github.com/applypilot/applypilot-cli/internal/lifecycle"
	"github.com/applypilot/applypilot-cli/internal/siteprofile"
	"github.com/applypilot/applypilot-cli/internal/submitwatch"
)

// ErrNoProfileProvider is returned when Run is invoked without any way
// to obtain a user profile.
var ErrNoProfileProvider = errors.New("orchestrator: no profile provider configured")

// Collaborators bundles the external services the pipeline consumes.
// Everything except Profile may be nil; the corresponding feature is
// then skipped.
type Collaborators struct {
	Profile      schemas.ProfileProvider
	Tracker      schemas.Tracker
	Analyzer     schemas.JobAnalyzer
	CoverLetters schemas.CoverLetterGenerator
	Resume       schemas.ResumeProvider
	Flags        schemas.FlagStore
	History      *history.Store
	Notifier     schemas.Notifier
}

// Outcome is what a completed run reports back to the CLI.
type Outcome struct {
	Job       schemas.JobInfo
	Fill      *schemas.FillResult
	Match     *schemas.MatchAnalysis
	Submitted bool
}

// Orchestrator runs the monitor plus fill pipeline against one page.
type Orchestrator struct {
	cfg    config.Interface
	logger *zap.Logger
	collab Collaborators
}

// New validates the wiring and returns an orchestrator.
func New(cfg config.Interface, logger *zap.Logger, collab Collaborators) (*Orchestrator, error) {
	if cfg == nil || logger == nil {
		return nil, fmt.Errorf("orchestrator: nil dependencies")
	}
	if collab.Profile == nil {
		return nil, ErrNoProfileProvider
	}
	return &Orchestrator{cfg: cfg, logger: logger.Named("orchestrator"), collab: collab}, nil
}

// pipeline is the per-run wiring over one live session.
type pipeline struct {
	o       *Orchestrator
	session schemas.Session
	monitor *lifecycle.Monitor
	watcher *submitwatch.Watcher
	filler  *fill.Filler
	profile *schemas.UserProfile
	flags   schemas.FeatureFlags
	outcome *Outcome
}

// Run drives one application attempt: navigate to the target, wait for
// detection, fill, then watch for the submission confirmation until
// the context ends or the application is reported.
func (o *Orchestrator) Run(ctx context.Context, targetURL string) (*Outcome, error) {
	profile, flags, err := o.bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	manager := browser.NewManager(o.cfg, o.logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := manager.Shutdown(shutdownCtx); err != nil {
			o.logger.Warn("Browser shutdown incomplete.", zap.Error(err))
		}
	}()

	session, err := manager.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: session: %w", err)
	}

	if applied, err := o.collab.History.HasApplied(ctx, targetURL); err != nil {
		o.logger.Warn("History lookup failed.", zap.Error(err))
	} else if applied {
		o.notify("warn", "You have already applied to this posting.")
	}

	if err := session.Navigate(ctx, targetURL); err != nil {
		return nil, fmt.Errorf("orchestrator: navigate: %w", err)
	}

	tracker := &recordingTracker{
		inner:   o.collab.Tracker,
		history: o.collab.History,
		logger:  o.logger,
		done:    make(chan struct{}),
	}

	persona := humanoid.FromAppConfig(o.cfg.Humanoid())
	persona.FinalizeSessionPersona(rand.New(rand.NewSource(time.Now().UnixNano())))

	p := &pipeline{
		o:       o,
		session: session,
		monitor: lifecycle.New(session, siteprofile.NewResolver(), o.cfg.Lifecycle(), o.logger),
		watcher: submitwatch.New(session, tracker, o.cfg.SubmitWatch(), o.logger),
		filler: fill.New(session, humanoid.New(persona, o.logger, session),
			classifier.New(o.cfg.Classifier()), o.cfg.Fill(), o.logger, o.collab.Resume),
		profile: profile,
		flags:   flags,
		outcome: &Outcome{},
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return swallowCancel(p.monitor.Run(gctx)) })
	g.Go(func() error { return swallowCancel(p.watcher.Run(gctx)) })
	g.Go(func() error {
		defer stop()
		return p.eventLoop(gctx, tracker.done)
	})

	err = g.Wait()
	p.outcome.Submitted = tracker.reportedEvent() != nil
	if p.outcome.Submitted {
		o.notify("info", "Application submitted and tracked.")
	}
	return p.outcome, err
}

// eventLoop reacts to detections and departures until the run ends.
func (p *pipeline) eventLoop(ctx context.Context, reported <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return swallowCancel(ctx.Err())

		case <-reported:
			return nil

		case oldURL := <-p.monitor.Departures():
			p.filler.ResetPage(oldURL)
			p.watcher.Reset()

		case d := <-p.monitor.Detections():
			p.handleDetection(ctx, d)
		}
	}
}

func (p *pipeline) handleDetection(ctx context.Context, d lifecycle.Detection) {
	o := p.o
	o.logger.Info("Processing detected job page.",
		zap.String("title", d.Job.Title), zap.String("platform", d.Job.Platform))
	p.outcome.Job = d.Job
	p.watcher.SetContext(d.Job, d.Profile)

	if o.collab.Analyzer != nil && p.outcome.Match == nil {
		if analysis, err := o.collab.Analyzer.AnalyzeJob(ctx, d.Job, p.profile); err != nil {
			o.notify("warn", fmt.Sprintf("Job analysis unavailable: %v", err))
		} else {
			p.outcome.Match = analysis
			o.logger.Info("Job match scored.", zap.Int("score", analysis.MatchScore))
		}
	}

	if !p.flags.SmartFill {
		o.logger.Info("Smart fill disabled, leaving page untouched.")
		return
	}

	result, err := p.filler.Run(ctx, p.profile, d.Profile)
	if err != nil {
		if errors.Is(err, fill.ErrAttemptsExhausted) {
			o.logger.Debug("Fill budget exhausted for page.", zap.String("url", d.URL))
			return
		}
		o.notify("error", fmt.Sprintf("Auto-fill failed: %v", err))
		return
	}
	p.outcome.Fill = result
	o.notify("info", fmt.Sprintf("Filled %d of %d recognized fields.",
		result.FieldsFilled, result.FieldsFound))

	if p.flags.AutoSubmit && result.FieldsFailed == 0 && result.FieldsFilled > 0 {
		if err := p.submit(ctx, d.Profile); err != nil {
			o.notify("warn", fmt.Sprintf("Auto-submit failed: %v", err))
		}
	}
}

// submit clicks the first present, enabled submit control.
func (p *pipeline) submit(ctx context.Context, siteProf *siteprofile.Profile) error {
	selector := strings.Join(siteProf.SubmitSelectors, ", ")
	if selector == "" {
		return fmt.Errorf("no submit selectors for platform %s", siteProf.Platform)
	}
	quoted, _ := jsoniter.MarshalToString(selector)
	script := `(() => {
	const el = document.querySelector(` + quoted + `);
	if (!el || el.disabled) return false;
	el.click();
	return true;
})()`

	raw, err := p.session.ExecuteScript(ctx, script)
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(raw)) != "true" {
		return fmt.Errorf("submit control not found")
	}
	p.o.logger.Info("Submit control activated.")
	return nil
}

// bootstrap fetches the profile and flags concurrently before the
// browser starts.
func (o *Orchestrator) bootstrap(ctx context.Context) (*schemas.UserProfile, schemas.FeatureFlags, error) {
	var (
		profile *schemas.UserProfile
		flags   = schemas.FeatureFlags{SmartFill: true}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := o.collab.Profile.GetUserProfile(gctx)
		if err != nil {
			return fmt.Errorf("orchestrator: profile: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		if o.collab.Flags == nil {
			return nil
		}
		f, err := o.collab.Flags.Load()
		if err != nil {
			o.logger.Warn("Flag store unreadable, using defaults.", zap.Error(err))
			return nil
		}
		flags = f
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, flags, err
	}
	o.logger.Info("Pipeline ready.",
		zap.String("applicant", profile.FirstName+" "+profile.LastName),
		zap.Bool("smart_fill", flags.SmartFill),
		zap.Bool("auto_submit", flags.AutoSubmit))
	return profile, flags, nil
}

func (o *Orchestrator) notify(level, message string) {
	if o.collab.Notifier != nil {
		o.collab.Notifier.Notify(level, message)
	}
}

func swallowCancel(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// recordingTracker tees confirmed applications into the history ledger
// and signals the run loop on the first successful report.
type recordingTracker struct {
	inner   schemas.Tracker
	history *history.Store
	logger  *zap.Logger

	mu   sync.Mutex
	ev   *schemas.ApplicationEvent
	once sync.Once
	done chan struct{}
}

func (t *recordingTracker) TrackApplication(ctx context.Context, ev *schemas.ApplicationEvent) error {
	t.mu.Lock()
	t.ev = ev
	t.mu.Unlock()

	if err := t.history.Record(ctx, ev); err != nil {
		t.logger.Warn("History write failed.", zap.Error(err))
	}

	var err error
	if t.inner != nil {
		err = t.inner.TrackApplication(ctx, ev)
	}
	t.once.Do(func() { close(t.done) })
	return err
}

func (t *recordingTracker) reportedEvent() *schemas.ApplicationEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ev
}
