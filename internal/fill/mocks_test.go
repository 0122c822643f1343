// internal/fill/mocks_test.go
package fill

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/applypilot/applypilot-cli/api/schemas"
)

// mockSession is an in-memory page: discovery returns a canned element
// list, typing accumulates per-selector values, and in-page scripts
// succeed unless a selector is marked broken.
type mockSession struct {
	mu sync.Mutex

	url      string
	elements []schemas.Element

	focused   string
	values    map[string]string
	selected  map[string]string // select selector -> applied option value
	clicked   []string
	committed []string
	files     map[string][]string

	brokenSelectors map[string]bool
	navCh           chan schemas.NavigationEvent
}

func newMockSession(url string, elements []schemas.Element) *mockSession {
	return &mockSession{
		url:             url,
		elements:        elements,
		values:          make(map[string]string),
		selected:        make(map[string]string),
		files:           make(map[string][]string),
		brokenSelectors: make(map[string]bool),
		navCh:           make(chan schemas.NavigationEvent, 16),
	}
}

func (m *mockSession) Navigate(ctx context.Context, url string) error {
	m.mu.Lock()
	m.url = url
	m.mu.Unlock()
	return nil
}

func (m *mockSession) CurrentURL(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url, nil
}

func (m *mockSession) ExecuteScript(ctx context.Context, script string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case strings.Contains(script, "skipTypes"):
		raw, err := jsoniter.Marshal(m.elements)
		return raw, err
	case strings.Contains(script, ".length : 0"):
		sel := extractQuoted(script)
		return json.RawMessage([]byte(intString(len(m.values[sel])))), nil
	case strings.Contains(script, "el.value ="):
		sel := extractQuoted(script)
		if m.brokenSelectors[sel] {
			return json.RawMessage([]byte("false")), nil
		}
		m.selected[sel] = extractSecondQuoted(script)
		return json.RawMessage([]byte("true")), nil
	case strings.Contains(script, "el.click()"), strings.Contains(script, "el.checked"):
		sel := extractQuoted(script)
		if m.brokenSelectors[sel] {
			return json.RawMessage([]byte("false")), nil
		}
		m.clicked = append(m.clicked, sel)
		return json.RawMessage([]byte("true")), nil
	default:
		return json.RawMessage([]byte("true")), nil
	}
}

func (m *mockSession) HTMLSnapshot(ctx context.Context) (string, error) { return "<html></html>", nil }

func (m *mockSession) Focus(ctx context.Context, selector string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.brokenSelectors[selector] {
		return errors.New("node not found")
	}
	m.focused = selector
	return nil
}

func (m *mockSession) SendKeys(ctx context.Context, keys string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.values[m.focused]
	for _, r := range keys {
		if r == '\b' {
			if len(cur) > 0 {
				cur = cur[:len(cur)-1]
			}
			continue
		}
		cur += string(r)
	}
	m.values[m.focused] = cur
	return nil
}

func (m *mockSession) ScrollIntoView(ctx context.Context, selector string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.brokenSelectors[selector] {
		return errors.New("node not found")
	}
	return nil
}

func (m *mockSession) DispatchCommit(ctx context.Context, selector string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = append(m.committed, selector)
	return nil
}

func (m *mockSession) SetFiles(ctx context.Context, selector string, paths []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[selector] = paths
	return nil
}

func (m *mockSession) Navigations() <-chan schemas.NavigationEvent { return m.navCh }

func (m *mockSession) Sleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func (m *mockSession) value(selector string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[selector]
}

// mockResumeProvider serves a fixed blob, or an error.
type mockResumeProvider struct {
	blob *schemas.ResumeBlob
	err  error
}

func (m *mockResumeProvider) GetActiveResume(ctx context.Context) (*schemas.ResumeBlob, error) {
	return m.blob, m.err
}

// extractQuoted pulls the first double-quoted string out of a script,
// honoring backslash escapes (scripts embed selectors via Go's %q).
func extractQuoted(script string) string {
	s, _ := nextQuoted(script)
	return s
}

func extractSecondQuoted(script string) string {
	_, rest := nextQuoted(script)
	s, _ := nextQuoted(rest)
	return s
}

// nextQuoted returns the first double-quoted string in s, unescaped,
// plus the remainder of s after its closing quote.
func nextQuoted(s string) (string, string) {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return "", ""
	}
	var b strings.Builder
	for i := start + 1; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			}
		case '"':
			return b.String(), s[i+1:]
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), ""
}

func intString(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
