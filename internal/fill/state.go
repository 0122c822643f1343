// internal/fill/state.go
package fill

import (
	"sync"
	"time"
)

// pageState tracks per-page fill bookkeeping: how many whole-pipeline
// passes have run and which elements have already been processed, so a
// re-rendering page neither loops forever nor double-fills a field.
type pageState struct {
	attempts  int
	lastPass  time.Time
	processed map[string]struct{}
}

// attemptGate bounds pipeline re-invocations per page and remembers
// processed elements across passes. The attempt counter resets after
// the configured cooldown following a completed pass.
type attemptGate struct {
	mu          sync.Mutex
	maxAttempts int
	cooldown    time.Duration
	pages       map[string]*pageState
	now         func() time.Time
}

func newAttemptGate(maxAttempts int, cooldown time.Duration) *attemptGate {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &attemptGate{
		maxAttempts: maxAttempts,
		cooldown:    cooldown,
		pages:       make(map[string]*pageState),
		now:         time.Now,
	}
}

// begin registers a new pass for the page; it reports false when the
// attempt budget is exhausted and the cooldown has not yet elapsed.
func (g *attemptGate) begin(pageURL string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := g.pages[pageURL]
	if st == nil {
		st = &pageState{processed: make(map[string]struct{})}
		g.pages[pageURL] = st
	}

	if st.attempts >= g.maxAttempts {
		if g.cooldown <= 0 || g.now().Sub(st.lastPass) < g.cooldown {
			return false
		}
		st.attempts = 0
	}
	st.attempts++
	return true
}

// finish timestamps a completed pass for cooldown accounting.
func (g *attemptGate) finish(pageURL string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if st := g.pages[pageURL]; st != nil {
		st.lastPass = g.now()
	}
}

// markProcessed records that an element has been handled on this page;
// it reports false when the element was already processed.
func (g *attemptGate) markProcessed(pageURL, selector string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := g.pages[pageURL]
	if st == nil {
		st = &pageState{processed: make(map[string]struct{})}
		g.pages[pageURL] = st
	}
	if _, done := st.processed[selector]; done {
		return false
	}
	st.processed[selector] = struct{}{}
	return true
}

// reset clears all bookkeeping for a page, called on navigation away.
func (g *attemptGate) reset(pageURL string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pages, pageURL)
}
