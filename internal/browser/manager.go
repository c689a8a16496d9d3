// Package browser drives a real Chrome instance through the DevTools
// protocol and turns its network traffic into captured responses.
package browser

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/errors"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/logger"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/retry"
)

const defaultConnectAttempts = 5

// Config configures the browser manager.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of an already running Chrome.
	// Empty launches a local one.
	RemoteURL string

	// ProfileDir keeps cookies and the login between runs.
	ProfileDir string

	// Bin overrides the Chrome binary. Empty lets the launcher find or
	// download one.
	Bin string

	Headless bool

	// ConnectAttempts bounds DevTools connection attempts. Zero uses the
	// default.
	ConnectAttempts int
}

// Manager owns the Chrome process and the rod connection to it.
type Manager struct {
	cfg     Config
	log     logger.Logger
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// NewManager creates a Manager. Call Start to launch Chrome.
func NewManager(cfg Config, log logger.Logger) *Manager {
	return &Manager{cfg: cfg, log: log.WithField("component", "browser")}
}

// Start launches Chrome (or connects to a remote instance). Connection
// failures are retried with backoff until ctx ends.
func (m *Manager) Start(ctx context.Context) (*rod.Browser, error) {
	var wsURL string

	if m.cfg.RemoteURL != "" {
		wsURL = m.cfg.RemoteURL
		m.log.WithField("url", wsURL).Info("Connecting to remote browser")
	} else {
		l := launcher.New().
			Headless(m.cfg.Headless).
			Set("disable-blink-features", "AutomationControlled")

		if m.cfg.ProfileDir != "" {
			dir, err := filepath.Abs(m.cfg.ProfileDir)
			if err != nil {
				return nil, fmt.Errorf("resolve profile dir: %w", err)
			}
			l = l.UserDataDir(dir)
		}
		if m.cfg.Bin != "" {
			l = l.Bin(m.cfg.Bin)
		}

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		wsURL = u
		m.lnch = l
		m.log.WithFields(map[string]interface{}{
			"headless": m.cfg.Headless,
			"profile":  m.cfg.ProfileDir,
		}).Info("Launched local browser")
	}

	attempts := m.cfg.ConnectAttempts
	if attempts <= 0 {
		attempts = defaultConnectAttempts
	}
	b, err := retry.DoWithResult(ctx, func() (*rod.Browser, error) {
		return connect(wsURL)
	}, &retry.Config{
		MaxAttempts: attempts,
		Backoff:     retry.DefaultExponentialBackoff(),
		Logger:      m.log,
	})
	if err != nil {
		m.cleanup()
		return nil, err
	}
	m.browser = b
	return b, nil
}

func connect(wsURL string) (*rod.Browser, error) {
	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, errors.NewTransportError("connect browser", err)
	}
	return b, nil
}

// Browser returns the connected browser, or nil before Start.
func (m *Manager) Browser() *rod.Browser {
	return m.browser
}

// Close disconnects and, for a locally launched Chrome, stops it. The
// profile directory is kept.
func (m *Manager) Close() error {
	return m.cleanup()
}

func (m *Manager) cleanup() error {
	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Kill()
		m.lnch = nil
	}
	return err
}
