// internal/lifecycle/monitor_test.go
package lifecycle

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/applypilot/applypilot-cli/api/schemas"
	"github.com/applypilot/applypilot-cli/internal/config"
	"github.com/applypilot/applypilot-cli/internal/siteprofile"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const jobPageHTML = `<html><head><title>Senior Go Engineer - Initech</title></head>
<body><h1>Senior Go Engineer</h1><form id="apply"><input name="firstName"></form></body></html>`

const blankPageHTML = `<html><head></head><body><p>hi</p></body></html>`

// mockSession serves a settable URL and snapshot and lets tests inject
// navigation events.
type mockSession struct {
	mu    sync.Mutex
	url   string
	html  string
	navCh chan schemas.NavigationEvent
}

func newMockSession(url, html string) *mockSession {
	return &mockSession{url: url, html: html, navCh: make(chan schemas.NavigationEvent, 16)}
}

func (m *mockSession) setPage(url, html string) {
	m.mu.Lock()
	m.url = url
	m.html = html
	m.mu.Unlock()
}

func (m *mockSession) emit(kind schemas.NavigationKind, url string) {
	m.navCh <- schemas.NavigationEvent{Kind: kind, URL: url, At: time.Now()}
}

func (m *mockSession) Navigate(ctx context.Context, url string) error { return nil }

func (m *mockSession) CurrentURL(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url, nil
}

func (m *mockSession) ExecuteScript(ctx context.Context, script string) (json.RawMessage, error) {
	return json.RawMessage([]byte("null")), nil
}

func (m *mockSession) HTMLSnapshot(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.html, nil
}

func (m *mockSession) Focus(ctx context.Context, selector string) error          { return nil }
func (m *mockSession) SendKeys(ctx context.Context, keys string) error           { return nil }
func (m *mockSession) ScrollIntoView(ctx context.Context, selector string) error { return nil }
func (m *mockSession) DispatchCommit(ctx context.Context, selector string) error { return nil }
func (m *mockSession) SetFiles(ctx context.Context, selector string, paths []string) error {
	return nil
}
func (m *mockSession) Navigations() <-chan schemas.NavigationEvent      { return m.navCh }
func (m *mockSession) Sleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func testLifecycleConfig() config.LifecycleConfig {
	cfg := config.NewDefaultConfig().Lifecycle()
	cfg.MutationDebounce = 10 * time.Millisecond
	cfg.ReconcileInterval = 25 * time.Millisecond
	return cfg
}

// startMonitor runs the monitor in the background and returns a stop
// function that blocks until the run loop has exited.
func startMonitor(t *testing.T, m *Monitor) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

func awaitDetection(t *testing.T, m *Monitor) Detection {
	t.Helper()
	select {
	case d := <-m.Detections():
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for detection")
		return Detection{}
	}
}

func awaitDeparture(t *testing.T, m *Monitor) string {
	t.Helper()
	select {
	case u := <-m.Departures():
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for departure")
		return ""
	}
}

func TestDetectsJobPageOnStartup(t *testing.T) {
	session := newMockSession("https://initech.example/careers/42", jobPageHTML)
	m := New(session, siteprofile.NewResolver(), testLifecycleConfig(), zap.NewNop())
	stop := startMonitor(t, m)
	defer stop()

	d := awaitDetection(t, m)
	assert.Equal(t, "https://initech.example/careers/42", d.URL)
	assert.Equal(t, "Senior Go Engineer", d.Job.Title)
	assert.Equal(t, siteprofile.PlatformGeneric, d.Job.Platform)
	assert.Equal(t, StateDetected, m.State())
}

func TestNonJobURLStaysIdle(t *testing.T) {
	session := newMockSession("https://initech.example/about", jobPageHTML)
	m := New(session, siteprofile.NewResolver(), testLifecycleConfig(), zap.NewNop())
	stop := startMonitor(t, m)
	defer stop()

	select {
	case d := <-m.Detections():
		t.Fatalf("unexpected detection: %+v", d)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, StateIdle, m.State())
}

func TestJobURLWithoutTitleNeverDetects(t *testing.T) {
	session := newMockSession("https://initech.example/careers/42", blankPageHTML)
	m := New(session, siteprofile.NewResolver(), testLifecycleConfig(), zap.NewNop())
	stop := startMonitor(t, m)
	defer stop()

	select {
	case d := <-m.Detections():
		t.Fatalf("unexpected detection: %+v", d)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, StateIdle, m.State())
}

func TestHistoryPushDetectsSPAJobPage(t *testing.T) {
	session := newMockSession("https://initech.example/about", jobPageHTML)
	m := New(session, siteprofile.NewResolver(), testLifecycleConfig(), zap.NewNop())
	stop := startMonitor(t, m)
	defer stop()

	require.Equal(t, StateIdle, m.State())

	session.setPage("https://initech.example/jobs/7", jobPageHTML)
	session.emit(schemas.NavHistoryPush, "https://initech.example/jobs/7")

	d := awaitDetection(t, m)
	assert.Equal(t, "https://initech.example/jobs/7", d.URL)
	assert.Equal(t, StateDetected, m.State())
}

func TestMutationDebounceDetectsInjectedForm(t *testing.T) {
	session := newMockSession("https://initech.example/careers/42", blankPageHTML)
	m := New(session, siteprofile.NewResolver(), testLifecycleConfig(), zap.NewNop())
	stop := startMonitor(t, m)
	defer stop()

	// SPA renders the posting into the same URL; a burst of mutation
	// events collapses to a single evaluation.
	session.setPage("https://initech.example/careers/42", jobPageHTML)
	for i := 0; i < 5; i++ {
		session.emit(schemas.NavDOMMutation, "https://initech.example/careers/42")
	}

	d := awaitDetection(t, m)
	assert.Equal(t, "Senior Go Engineer", d.Job.Title)
}

func TestNavigatingAwayPublishesDeparture(t *testing.T) {
	session := newMockSession("https://initech.example/careers/42", jobPageHTML)
	m := New(session, siteprofile.NewResolver(), testLifecycleConfig(), zap.NewNop())
	stop := startMonitor(t, m)
	defer stop()

	awaitDetection(t, m)

	session.setPage("https://initech.example/about", blankPageHTML)
	session.emit(schemas.NavFull, "https://initech.example/about")

	assert.Equal(t, "https://initech.example/careers/42", awaitDeparture(t, m))
	assert.Eventually(t, func() bool { return m.State() == StateIdle },
		time.Second, 5*time.Millisecond)
}

func TestDetectionReportedOncePerURL(t *testing.T) {
	session := newMockSession("https://initech.example/careers/42", jobPageHTML)
	m := New(session, siteprofile.NewResolver(), testLifecycleConfig(), zap.NewNop())
	stop := startMonitor(t, m)
	defer stop()

	awaitDetection(t, m)

	// Reconcile ticks and repeat mutations must not re-report.
	session.emit(schemas.NavDOMMutation, "https://initech.example/careers/42")
	select {
	case d := <-m.Detections():
		t.Fatalf("duplicate detection: %+v", d)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestReturningToSamePageDetectsAgain(t *testing.T) {
	session := newMockSession("https://initech.example/careers/42", jobPageHTML)
	m := New(session, siteprofile.NewResolver(), testLifecycleConfig(), zap.NewNop())
	stop := startMonitor(t, m)
	defer stop()

	awaitDetection(t, m)

	session.setPage("https://initech.example/about", blankPageHTML)
	session.emit(schemas.NavFull, "https://initech.example/about")
	awaitDeparture(t, m)

	session.setPage("https://initech.example/careers/42", jobPageHTML)
	session.emit(schemas.NavHistoryPop, "https://initech.example/careers/42")

	d := awaitDetection(t, m)
	assert.Equal(t, "https://initech.example/careers/42", d.URL)
}
