// internal/humanoid/mocks_test.go
package humanoid

import (
	"context"
	"strings"
	"sync"
	"time"
)

// mockExecutor records dispatched keys and sleeps without touching a
// real browser. Sleeps return immediately.
type mockExecutor struct {
	mu     sync.Mutex
	keys   []string
	sleeps []time.Duration

	sendErr error
}

func (m *mockExecutor) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.sleeps = append(m.sleeps, d)
	m.mu.Unlock()
	return nil
}

func (m *mockExecutor) SendKeys(ctx context.Context, keys string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.keys = append(m.keys, keys)
	return nil
}

// finalText replays the recorded keystrokes, applying backspaces, and
// returns the text a field would contain afterwards.
func (m *mockExecutor) finalText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var b []rune
	for _, k := range m.keys {
		for _, r := range k {
			if r == '\b' {
				if len(b) > 0 {
					b = b[:len(b)-1]
				}
				continue
			}
			b = append(b, r)
		}
	}
	return string(b)
}

func (m *mockExecutor) keystrokeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, k := range m.keys {
		n += len(strings.Split(k, ""))
	}
	return n
}
