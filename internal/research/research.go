// Package research drives a browser against the hosting panel website to
// map out the elements a real integration would need. It is a developer
// tool and nothing in the status loop depends on it.
package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	navigationTimeout = 30 * time.Second
	userAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

var ErrNotInitialized = errors.New("browser not initialized")

type Config struct {
	URL            string
	Headless       bool
	ScreenshotPath string
	Username       string
	Password       string
}

type Element struct {
	TagName   string `json:"tagName"`
	Text      string `json:"text"`
	ID        string `json:"id"`
	ClassName string `json:"className"`
	Type      string `json:"type,omitempty"`
	Name      string `json:"name,omitempty"`
}

type Form struct {
	Action    string `json:"action"`
	Method    string `json:"method"`
	ID        string `json:"id"`
	ClassName string `json:"className"`
}

type LoginElements struct {
	LoginButtons   []Element `json:"loginButtons"`
	UsernameInputs []Element `json:"usernameInputs"`
	PasswordInputs []Element `json:"passwordInputs"`
	Forms          []Form    `json:"forms"`
}

type ServerElements struct {
	ServerCards   []Element `json:"serverCards"`
	ServerButtons []Element `json:"serverButtons"`
	ServerStatus  []Element `json:"serverStatus"`
}

// Report summarizes one research run.
type Report struct {
	Login          LoginElements
	Servers        ServerElements
	ScreenshotPath string
}

type Session struct {
	log *slog.Logger
	cfg Config

	ctx    context.Context
	cancel context.CancelFunc
}

func NewSession(log *slog.Logger, cfg Config) *Session {
	return &Session{log: log, cfg: cfg}
}

// Init starts a browser bound to ctx.
func (s *Session) Init(ctx context.Context) error {
	s.log.Info("Initializing browser for Aternos research...")

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.NoFirstRun,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-accelerated-2d-canvas", true),
		chromedp.Flag("no-zygote", true),
		chromedp.WindowSize(1280, 720),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// starts the browser process
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		s.log.Error("Failed to initialize browser", "error", err)
		return fmt.Errorf("initialize browser: %w", err)
	}

	s.ctx = browserCtx
	s.cancel = func() {
		browserCancel()
		allocCancel()
	}

	s.log.Info("Browser initialized successfully")
	return nil
}

// NavigateToPanel loads the panel homepage and stores a full-page screenshot.
func (s *Session) NavigateToPanel() error {
	if s.ctx == nil {
		return ErrNotInitialized
	}

	s.log.Info("Navigating to Aternos...", "url", s.cfg.URL)

	ctx, cancel := context.WithTimeout(s.ctx, navigationTimeout)
	defer cancel()

	var screenshot []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate(s.cfg.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.FullScreenshot(&screenshot, 100),
	)
	if err != nil {
		s.log.Error("Failed to navigate to Aternos", "error", err)
		return fmt.Errorf("navigate to %s: %w", s.cfg.URL, err)
	}

	s.log.Info("Successfully loaded Aternos homepage")

	if s.cfg.ScreenshotPath != "" {
		if err := os.WriteFile(s.cfg.ScreenshotPath, screenshot, 0o644); err != nil {
			s.log.Warn("Failed to store screenshot", "path", s.cfg.ScreenshotPath, "error", err)
		}
	}
	return nil
}

func (s *Session) ResearchLoginProcess() (LoginElements, error) {
	var elements LoginElements
	if s.ctx == nil {
		return elements, ErrNotInitialized
	}

	s.log.Info("Researching Aternos login process...")
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(loginElementsScript, &elements)); err != nil {
		s.log.Error("Failed to research login process", "error", err)
		return elements, fmt.Errorf("research login process: %w", err)
	}

	s.log.Info("Login research results",
		"loginButtons", len(elements.LoginButtons),
		"usernameInputs", len(elements.UsernameInputs),
		"passwordInputs", len(elements.PasswordInputs),
		"forms", elements.Forms)
	return elements, nil
}

func (s *Session) ResearchServerManagement() (ServerElements, error) {
	var elements ServerElements
	if s.ctx == nil {
		return elements, ErrNotInitialized
	}

	s.log.Info("Researching server management interface...")
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(serverElementsScript, &elements)); err != nil {
		s.log.Error("Failed to research server management", "error", err)
		return elements, fmt.Errorf("research server management: %w", err)
	}

	s.log.Info("Server management research results",
		"serverCards", len(elements.ServerCards),
		"serverStatus", len(elements.ServerStatus))
	s.log.Debug("Server status elements", "elements", elements.ServerStatus)
	return elements, nil
}

// AttemptLogin reports whether a login succeeded. Logging in is not
// implemented yet, so with credentials present it only logs and returns false.
func (s *Session) AttemptLogin() bool {
	if s.cfg.Username == "" || s.cfg.Password == "" {
		s.log.Warn("No Aternos credentials provided in environment variables")
		return false
	}

	s.log.Info("Attempting to login to Aternos...")
	s.log.Warn("Login implementation not yet complete - this is research phase")
	return false
}

// Cleanup closes the browser. It is safe to call more than once.
func (s *Session) Cleanup() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.ctx = nil
	s.log.Info("Browser closed successfully")
}

// Run performs a full research pass and always closes the browser.
func (s *Session) Run(ctx context.Context) (Report, error) {
	defer s.Cleanup()

	report := Report{ScreenshotPath: s.cfg.ScreenshotPath}
	if err := s.Init(ctx); err != nil {
		return report, fmt.Errorf("failed to initialize browser: %w", err)
	}
	if err := s.NavigateToPanel(); err != nil {
		return report, fmt.Errorf("failed to navigate to Aternos: %w", err)
	}

	// element lookups degrade to empty results, matching a partial page
	report.Login, _ = s.ResearchLoginProcess()
	report.Servers, _ = s.ResearchServerManagement()
	s.AttemptLogin()

	return report, nil
}
