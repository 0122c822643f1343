// Package browser owns the Chrome process lifecycle and exposes live
// pages as sessions the fill pipeline drives over CDP.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/applypilot/applypilot-cli/api/schemas"
	"github.com/applypilot/applypilot-cli/internal/config"
)

const shutdownGracePeriod = 15 * time.Second

// Manager handles the browser allocator lifecycle and session creation.
// Initialization is deferred until the first session is requested.
type Manager struct {
	logger *zap.Logger
	cfg    config.Interface

	allocCtx    context.Context
	allocCancel context.CancelFunc

	sessions map[string]*Session
	mu       sync.RWMutex
	wg       sync.WaitGroup

	initOnce sync.Once
	initErr  error
}

// NewManager creates a new browser manager.
func NewManager(cfg config.Interface, logger *zap.Logger) *Manager {
	return &Manager{
		logger:   logger.Named("browser_manager"),
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// initialize builds the chromedp allocator: either a remote attachment
// to an already-running browser (attach_url) or a locally launched one.
func (m *Manager) initialize(ctx context.Context) error {
	m.initOnce.Do(func() {
		bc := m.cfg.Browser()
		if bc.AttachURL != "" {
			m.logger.Info("Attaching to running browser.", zap.String("url", bc.AttachURL))
			m.allocCtx, m.allocCancel = chromedp.NewRemoteAllocator(context.Background(), bc.AttachURL)
			return
		}

		opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
		opts = append(opts,
			chromedp.Flag("headless", bc.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
		for _, arg := range bc.Args {
			opts = append(opts, chromedp.Flag(arg, true))
		}

		m.logger.Info("Launching browser.", zap.Bool("headless", bc.Headless))
		m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	})
	return m.initErr
}

// NewSession creates a new tab and wires its event listeners. The
// returned session satisfies schemas.Session.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	if err := m.initialize(ctx); err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(m.allocCtx)

	session, err := newSession(tabCtx, tabCancel, m.cfg, m.logger)
	if err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	m.wg.Add(1)
	session.onClose = func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.sessions, session.ID())
		m.wg.Done()
		m.logger.Debug("Session removed from manager.", zap.String("session_id", session.ID()))
	}

	if err := session.Initialize(ctx); err != nil {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		session.Close(cleanupCtx)
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	m.logger.Info("New session created.", zap.String("session_id", session.ID()))
	return session, nil
}

// Shutdown gracefully closes all sessions and the allocator.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down browser manager.")

	m.mu.RLock()
	sessionsToClose := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessionsToClose = append(sessionsToClose, s)
	}
	m.mu.RUnlock()

	for _, s := range sessionsToClose {
		go func(s *Session) {
			if err := s.Close(ctx); err != nil {
				m.logger.Warn("Error during session close in shutdown.",
					zap.String("session_id", s.ID()), zap.Error(err))
			}
		}(s)
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("All sessions closed gracefully.")
	case <-time.After(shutdownGracePeriod):
		m.logger.Warn("Timeout waiting for sessions to close.")
	case <-ctx.Done():
		m.logger.Warn("Shutdown context expired before sessions closed.", zap.Error(ctx.Err()))
	}

	if m.allocCancel != nil {
		m.allocCancel()
	}
	m.logger.Info("Browser manager shutdown complete.")
	return nil
}

// compile-time contract check
var _ schemas.Session = (*Session)(nil)
