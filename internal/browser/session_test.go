// internal/browser/session_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/applypilot/applypilot-cli/api/schemas"
	"github.com/applypilot/applypilot-cli/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newDetachedSession(t *testing.T) (*Session, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s, err := newSession(ctx, cancel, config.NewDefaultConfig(), zap.NewNop())
	require.NoError(t, err)
	return s, cancel
}

func TestStripFragment(t *testing.T) {
	assert.Equal(t, "https://a.example/jobs", stripFragment("https://a.example/jobs#apply"))
	assert.Equal(t, "https://a.example/jobs", stripFragment("https://a.example/jobs"))
}

func TestClassifyInDocument(t *testing.T) {
	s, cancel := newDetachedSession(t)
	defer cancel()
	defer s.Close(context.Background())

	// Without history, an in-document change counts as a push.
	assert.Equal(t, schemas.NavHistoryPush, s.classifyInDocument("https://a.example/jobs/1"))

	s.emitNavigation(schemas.NavFull, "https://a.example/jobs/1")
	assert.Equal(t, schemas.NavFragment, s.classifyInDocument("https://a.example/jobs/1#details"))
	assert.Equal(t, schemas.NavHistoryPush, s.classifyInDocument("https://a.example/jobs/2"))
}

func TestEmitNavigationDeliversInOrder(t *testing.T) {
	s, cancel := newDetachedSession(t)
	defer cancel()
	defer s.Close(context.Background())

	s.emitNavigation(schemas.NavFull, "https://a.example/jobs/1")
	s.emitNavigation(schemas.NavHistoryPush, "https://a.example/jobs/2")

	ev := <-s.Navigations()
	assert.Equal(t, schemas.NavFull, ev.Kind)
	assert.Equal(t, "https://a.example/jobs/1", ev.URL)
	ev = <-s.Navigations()
	assert.Equal(t, schemas.NavHistoryPush, ev.Kind)
}

func TestEmitNavigationDropsOnOverflow(t *testing.T) {
	s, cancel := newDetachedSession(t)
	defer cancel()
	defer s.Close(context.Background())

	for i := 0; i < navChannelDepth*2; i++ {
		s.emitNavigation(schemas.NavDOMMutation, "https://a.example/jobs")
	}
	assert.Len(t, s.navCh, navChannelDepth)
}

func TestCloseIsIdempotentAndClosesChannel(t *testing.T) {
	s, cancel := newDetachedSession(t)
	defer cancel()

	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))

	_, open := <-s.Navigations()
	assert.False(t, open)

	// Emission after close must not panic.
	s.emitNavigation(schemas.NavFull, "https://a.example")
}

func TestSleepHonoursCallerContext(t *testing.T) {
	s, cancel := newDetachedSession(t)
	defer cancel()
	defer s.Close(context.Background())

	ctx, ctxCancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer ctxCancel()
	err := s.Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSleepHonoursSessionLifetime(t *testing.T) {
	s, cancel := newDetachedSession(t)
	defer s.Close(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := s.Sleep(context.Background(), time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCombineContextCancelsWithEitherParent(t *testing.T) {
	a, cancelA := context.WithCancel(context.Background())
	b := context.Background()
	combined, cleanup := combineContext(a, b)
	defer cleanup()

	cancelA()
	select {
	case <-combined.Done():
	case <-time.After(time.Second):
		t.Fatal("combined context not cancelled with first parent")
	}

	c, cancelC := context.WithCancel(context.Background())
	defer cancelC()
	d, cancelD := context.WithCancel(context.Background())
	combined2, cleanup2 := combineContext(c, d)
	defer cleanup2()

	cancelD()
	select {
	case <-combined2.Done():
	case <-time.After(time.Second):
		t.Fatal("combined context not cancelled with second parent")
	}
}
