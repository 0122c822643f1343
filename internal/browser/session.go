// internal/browser/session.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/applypilot/applypilot-cli/api/schemas"
	"github.com/applypilot/applypilot-cli/internal/config"
)

// navBinding is the name of the JS binding the in-page observer calls to
// report SPA navigations and form-bearing DOM insertions.
const navBinding = "__applypilot_nav"

// navObserverScript runs in every document of the session. It reports
// history traversal, fragment changes, and insertions of form-bearing
// subtrees through the exposed binding.
const navObserverScript = `(() => {
	const report = (kind) => {
		try { window.` + navBinding + `(JSON.stringify({kind: kind, url: location.href})); } catch (e) {}
	};
	window.addEventListener('popstate', () => report('history_pop'));
	window.addEventListener('hashchange', () => report('fragment'));
	const formish = 'form, input, select, textarea, [contenteditable="true"]';
	const observer = new MutationObserver((mutations) => {
		for (const m of mutations) {
			for (const n of m.addedNodes) {
				if (n.nodeType !== 1) continue;
				if ((n.matches && n.matches(formish)) || (n.querySelector && n.querySelector(formish))) {
					report('dom_mutation');
					return;
				}
			}
		}
	});
	const start = () => observer.observe(document.documentElement, {childList: true, subtree: true});
	if (document.documentElement) { start(); } else {
		document.addEventListener('DOMContentLoaded', start);
	}
})();`

// navChannelDepth bounds buffered navigation events; bursts beyond it
// are dropped, which the lifecycle monitor tolerates because it always
// re-reads the live URL on reconcile.
const navChannelDepth = 64

// Session represents one live tab and implements schemas.Session.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    config.Interface

	navCh   chan schemas.NavigationEvent
	navOnce sync.Once

	onClose func()

	mu       sync.Mutex
	isClosed bool
	lastURL  string
}

func newSession(ctx context.Context, cancel context.CancelFunc, cfg config.Interface, logger *zap.Logger) (*Session, error) {
	sessionID := uuid.New().String()
	return &Session{
		id:     sessionID,
		ctx:    ctx,
		cancel: cancel,
		logger: logger.With(zap.String("session_id", sessionID)),
		cfg:    cfg,
		navCh:  make(chan schemas.NavigationEvent, navChannelDepth),
	}, nil
}

// ID returns the unique identifier for the session.
func (s *Session) ID() string { return s.id }

// Initialize connects the tab, exposes the navigation binding and
// installs the in-page observer so SPA transitions are visible.
func (s *Session) Initialize(ctx context.Context) error {
	initCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()

	// Establish the CDP connection and the target itself.
	if err := chromedp.Run(initCtx); err != nil {
		return fmt.Errorf("failed to connect browser target: %w", err)
	}

	s.listenTarget()

	err := chromedp.Run(initCtx,
		runtime.AddBinding(navBinding),
		chromedp.ActionFunc(func(c context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(navObserverScript).Do(c)
			return err
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to install navigation observer: %w", err)
	}
	return nil
}

// listenTarget wires CDP events into the navigation channel.
func (s *Session) listenTarget() {
	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *page.EventFrameNavigated:
			if e.Frame == nil || e.Frame.ParentID != "" {
				return // subframe
			}
			s.emitNavigation(schemas.NavFull, e.Frame.URL)
		case *page.EventNavigatedWithinDocument:
			s.emitNavigation(s.classifyInDocument(e.URL), e.URL)
		case *runtime.EventBindingCalled:
			if e.Name != navBinding {
				return
			}
			var payload struct {
				Kind string `json:"kind"`
				URL  string `json:"url"`
			}
			if err := jsoniter.UnmarshalFromString(e.Payload, &payload); err != nil {
				s.logger.Debug("Malformed navigation binding payload.", zap.Error(err))
				return
			}
			s.emitNavigation(schemas.NavigationKind(payload.Kind), payload.URL)
		}
	})
}

// classifyInDocument distinguishes fragment-only moves from history
// pushes by comparing against the last seen URL.
func (s *Session) classifyInDocument(url string) schemas.NavigationKind {
	s.mu.Lock()
	last := s.lastURL
	s.mu.Unlock()

	if last != "" && stripFragment(last) == stripFragment(url) {
		return schemas.NavFragment
	}
	return schemas.NavHistoryPush
}

func stripFragment(url string) string {
	if i := strings.IndexByte(url, '#'); i >= 0 {
		return url[:i]
	}
	return url
}

// emitNavigation pushes an event without ever blocking the CDP event
// loop; overflow is dropped.
func (s *Session) emitNavigation(kind schemas.NavigationKind, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return
	}
	s.lastURL = url

	// Non-blocking send under the lock; Close also holds it, so the
	// channel cannot close mid-send.
	select {
	case s.navCh <- schemas.NavigationEvent{Kind: kind, URL: url, At: time.Now()}:
	default:
		s.logger.Debug("Navigation channel full, dropping event.",
			zap.String("kind", string(kind)), zap.String("url", url))
	}
}

// Navigate drives the page to a URL and waits for the document to load.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()
	if timeout := s.cfg.Browser().NavigationTimeout; timeout > 0 {
		navCtx, cancel = context.WithTimeout(navCtx, timeout)
		defer cancel()
	}

	if err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}

	if wait := s.cfg.Browser().PostLoadWait; wait > 0 {
		return s.Sleep(ctx, wait)
	}
	return nil
}

// CurrentURL returns the page's present location.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.runActions(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

// ExecuteScript evaluates a JS expression and returns its JSON value.
func (s *Session) ExecuteScript(ctx context.Context, script string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := s.runActions(ctx, chromedp.Evaluate(script, &raw)); err != nil {
		return nil, fmt.Errorf("script evaluation failed: %w", err)
	}
	return raw, nil
}

// HTMLSnapshot returns the serialized live DOM.
func (s *Session) HTMLSnapshot(ctx context.Context) (string, error) {
	var html string
	if err := s.runActions(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to capture DOM: %w", err)
	}
	return html, nil
}

// Focus focuses the element addressed by selector.
func (s *Session) Focus(ctx context.Context, selector string) error {
	return s.runActions(ctx, chromedp.Focus(selector, chromedp.ByQuery))
}

// SendKeys dispatches raw key events to the focused element.
func (s *Session) SendKeys(ctx context.Context, keys string) error {
	return s.runActions(ctx, chromedp.KeyEvent(keys))
}

// ScrollIntoView brings the element into the visible viewport.
func (s *Session) ScrollIntoView(ctx context.Context, selector string) error {
	return s.runActions(ctx, chromedp.ScrollIntoView(selector, chromedp.ByQuery))
}

// DispatchCommit fires the terminal input/change/blur notifications
// reactive frameworks listen for after a value lands.
func (s *Session) DispatchCommit(ctx context.Context, selector string) error {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		el.blur();
		return true;
	})()`, selector)

	raw, err := s.ExecuteScript(ctx, script)
	if err != nil {
		return err
	}
	if string(raw) != "true" {
		return fmt.Errorf("commit dispatch: element %q not found", selector)
	}
	return nil
}

// SetFiles attaches local files to a file input.
func (s *Session) SetFiles(ctx context.Context, selector string, paths []string) error {
	return s.runActions(ctx, chromedp.SetUploadFiles(selector, paths, chromedp.ByQuery))
}

// Navigations returns the channel of navigation/mutation events.
func (s *Session) Navigations() <-chan schemas.NavigationEvent {
	return s.navCh
}

// Sleep waits cooperatively, honouring both the caller's context and
// the session lifetime.
func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// Close terminates the session gracefully. Safe to call twice.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	s.navOnce.Do(func() { close(s.navCh) })
	s.mu.Unlock()

	s.logger.Debug("Closing browser session.")

	if s.cancel != nil {
		s.cancel()
	}

	if s.onClose != nil {
		s.onClose()
	}
	return nil
}

// runActions executes chromedp actions, respecting both the session
// lifetime and the incoming request context.
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// combineContext derives a context cancelled when either parent is.
func combineContext(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
