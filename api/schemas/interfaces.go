package schemas

import (
	"context"
	"encoding/json"
	"time"
)

// -- Browser Session --

// NavigationKind distinguishes the ways a hosted page can change
// location without a full reload.
type NavigationKind string

const (
	NavFull         NavigationKind = "full"
	NavHistoryPush  NavigationKind = "history_push"
	NavHistoryPop   NavigationKind = "history_pop"
	NavFragment     NavigationKind = "fragment"
	NavDOMMutation  NavigationKind = "dom_mutation"
)

// NavigationEvent is delivered by the session for every page transition
// or significant DOM insertion the lifecycle monitor should consider.
type NavigationEvent struct {
	Kind NavigationKind
	URL  string
	At   time.Time
}

// Session is the engine's handle on the live page. All page access in
// the pipeline goes through this interface; tests substitute a mock.
type Session interface {
	// Navigate drives the page to a URL and waits for load.
	Navigate(ctx context.Context, url string) error
	// CurrentURL returns the page's present location.
	CurrentURL(ctx context.Context) (string, error)
	// ExecuteScript evaluates a JS expression and returns its JSON value.
	ExecuteScript(ctx context.Context, script string) (json.RawMessage, error)
	// HTMLSnapshot returns the serialized live DOM.
	HTMLSnapshot(ctx context.Context) (string, error)
	// Focus focuses the element addressed by selector.
	Focus(ctx context.Context, selector string) error
	// SendKeys dispatches raw key events to the focused element.
	SendKeys(ctx context.Context, keys string) error
	// ScrollIntoView brings the element into the visible viewport.
	ScrollIntoView(ctx context.Context, selector string) error
	// DispatchCommit fires the terminal change/blur notifications after
	// a value has been typed or toggled.
	DispatchCommit(ctx context.Context, selector string) error
	// SetFiles attaches local files to a file input.
	SetFiles(ctx context.Context, selector string, paths []string) error
	// Navigations returns the channel of navigation/mutation events.
	// The channel closes when the session ends.
	Navigations() <-chan NavigationEvent
	// Sleep waits cooperatively, honouring context cancellation.
	Sleep(ctx context.Context, d time.Duration) error
}

// -- External Collaborators (background/runtime messaging contract) --

// ProfileProvider supplies the user profile once per session.
type ProfileProvider interface {
	GetUserProfile(ctx context.Context) (*UserProfile, error)
}

// Tracker receives the terminal ApplicationEvent.
type Tracker interface {
	TrackApplication(ctx context.Context, ev *ApplicationEvent) error
}

// JobAnalyzer scores a job posting against the profile. The scoring
// model is an opaque remote service.
type JobAnalyzer interface {
	AnalyzeJob(ctx context.Context, job JobInfo, profile *UserProfile) (*MatchAnalysis, error)
}

// CoverLetterGenerator produces a cover letter for a posting.
type CoverLetterGenerator interface {
	GenerateCoverLetter(ctx context.Context, job JobInfo) (*CoverLetterResult, error)
}

// ResumeProvider returns the user's active resume binary, or an error
// when none is available; file-upload fields are skipped in that case.
type ResumeProvider interface {
	GetActiveResume(ctx context.Context) (*ResumeBlob, error)
}

// FlagStore persists the feature flags between runs.
type FlagStore interface {
	Load() (FeatureFlags, error)
	Save(FeatureFlags) error
}

// Notifier surfaces pipeline-level outcomes to the user. Component-local
// failures are converted to counters and never reach it.
type Notifier interface {
	Notify(level, message string)
}
