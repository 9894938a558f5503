// Package browser drives a Chrome tab through rod and exposes it as a
// page.Tab.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/rod/lib/utils"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/page"
)

const (
	defaultTimeout    = 10 * time.Second
	navigationTimeout = 60 * time.Second
)

// Config configures the browser session.
type Config struct {
	Headless bool
	// RemoteURL is the DevTools websocket of an already running Chrome.
	// Empty launches a local one.
	RemoteURL string
	UserAgent string
	Stealth   bool
	// Timeout bounds every element action.
	Timeout time.Duration
}

// Session is one browser with one tab.
type Session struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	tab      *rod.Page
	timeout  time.Duration
	logger   *zap.Logger
}

var _ page.Tab = (*Session)(nil)

// Launch starts Chrome, or connects to a remote one, and opens a tab.
func Launch(ctx context.Context, cfg Config, logger *zap.Logger) (*Session, error) {
	s := &Session{
		timeout: cfg.Timeout,
		logger:  logger,
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}

	wsURL := cfg.RemoteURL
	if wsURL != "" {
		logger.Info("connecting to remote browser", zap.String("url", wsURL))
	} else {
		l := launcher.New().
			Context(ctx).
			Headless(cfg.Headless).
			Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		wsURL = u
		s.launcher = l
		logger.Info("launched local chrome", zap.Bool("headless", cfg.Headless))
	}

	s.browser = rod.New().ControlURL(wsURL)
	if err := s.browser.Connect(); err != nil {
		s.cleanupLauncher()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	tab, err := s.openTab(cfg.Stealth)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	s.tab = tab

	if cfg.UserAgent != "" {
		if err := tab.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: cfg.UserAgent}); err != nil {
			logger.Warn("could not override user agent", zap.Error(err))
		}
	}

	return s, nil
}

func (s *Session) openTab(withStealth bool) (*rod.Page, error) {
	if withStealth {
		return stealth.Page(s.browser)
	}
	return s.browser.Page(proto.TargetCreateTarget{})
}

// Close tears down the browser and the launched process.
func (s *Session) Close() error {
	var errs []error
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		s.browser = nil
	}
	s.cleanupLauncher()
	return errors.Join(errs...)
}

func (s *Session) cleanupLauncher() {
	if s.launcher != nil {
		s.launcher.Cleanup()
		s.launcher = nil
	}
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	p := s.tab.Context(ctx).Timeout(navigationTimeout)
	defer p.CancelTimeout()

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		s.logger.Warn("page did not finish loading", zap.String("url", url), zap.Error(err))
	}
	return nil
}

func (s *Session) Info() (page.Info, error) {
	info, err := s.tab.Info()
	if err != nil {
		return page.Info{}, err
	}
	return page.Info{Title: info.Title, URL: info.URL}, nil
}

// Screenshot writes a full page PNG to path.
func (s *Session) Screenshot(path string) error {
	p := s.tab.Timeout(s.timeout)
	defer p.CancelTimeout()

	data, err := p.Screenshot(true, &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng})
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	return utils.OutputFile(path, data)
}

func (s *Session) Query(qs ...page.Query) ([]page.Element, error) {
	p := s.tab.Timeout(s.timeout)
	defer p.CancelTimeout()

	found, err := p.ElementsX(page.DocumentXPath(qs...))
	if err != nil {
		return nil, mapError(err)
	}
	return s.wrap(found), nil
}

// Dismiss clicks the top left corner of the viewport to close open popups.
func (s *Session) Dismiss() error {
	p := s.tab.Timeout(s.timeout)
	defer p.CancelTimeout()

	if err := p.Mouse.MoveTo(proto.Point{X: 1, Y: 1}); err != nil {
		return mapError(err)
	}
	return mapError(p.Mouse.Click(proto.InputMouseButtonLeft, 1))
}

func (s *Session) wrap(found rod.Elements) []page.Element {
	out := make([]page.Element, 0, len(found))
	for _, el := range found {
		out = append(out, &element{el: el, timeout: s.timeout})
	}
	return out
}
