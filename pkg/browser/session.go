// pkg/browser/session.go
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/kestrelrpa/kestrel-cli/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OpenOptions control how a session's browser process is launched.
type OpenOptions struct {
	// BrowserType is accepted for definition compatibility; only the
	// Chromium-family is driven through CDP, so other values log a warning
	// and fall through to Chromium.
	BrowserType string
	Headless    bool
	// StorageStatePath, when set, points at a serialized cookie/localStorage
	// snapshot that is restored into the fresh session before first use.
	StorageStatePath string
}

// Session owns one browser process and one tab, created together and released
// together. A Session is exclusively owned by a single execution context and
// must never be shared across concurrent executions.
type Session struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewSession launches a browser process and opens a single tab, verifying the
// browser is responsive before returning.
func NewSession(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig, opts OpenOptions) (*Session, error) {
	s := &Session{
		logger: logger.Named("browser_session"),
		cfg:    cfg,
	}

	if opts.BrowserType != "" && opts.BrowserType != "chromium" {
		s.logger.Warn("Unsupported browser type requested; using chromium",
			zap.String("requested", opts.BrowserType))
	}

	allocOpts := buildAllocatorOptions(cfg, opts.Headless)
	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(ctx, allocOpts...)
	s.tabCtx, s.tabCancel = chromedp.NewContext(s.allocCtx)

	// Confirm the browser started and responds before handing it out.
	startCtx, cancel := context.WithTimeout(s.tabCtx, 30*time.Second)
	defer cancel()
	if err := chromedp.Run(startCtx, chromedp.Navigate("about:blank")); err != nil {
		s.allocCancel()
		return nil, fmt.Errorf("browser failed to start or respond: %w", err)
	}

	if opts.StorageStatePath != "" {
		if err := s.restoreStorageState(opts.StorageStatePath); err != nil {
			s.allocCancel()
			return nil, fmt.Errorf("restoring storage state from %q: %w", opts.StorageStatePath, err)
		}
	}

	s.logger.Debug("Browser session initialized", zap.Bool("headless", opts.Headless))
	return s, nil
}

// buildAllocatorOptions assembles launch flags for a configurable headless
// browser, suppressing flags that reveal automation.
func buildAllocatorOptions(cfg config.BrowserConfig, headless bool) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	opts = append(opts,
		// A later flag with the same name overrides the default set.
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("headless", headless),
		chromedp.Flag("ignore-certificate-errors", cfg.IgnoreTLSErrors),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", headless),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	// Custom arguments from the config file.
	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		flagName := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(flagName, parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(flagName, true))
		}
	}

	// Flags required for running inside containers.
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}

	return opts
}

// storageState is the serialized cookie/localStorage snapshot format written
// by recording sessions.
type storageState struct {
	Cookies []storageCookie `json:"cookies"`
	Origins []storageOrigin `json:"origins,omitempty"`
}

type storageCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	URL      string  `json:"url,omitempty"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

type storageOrigin struct {
	Origin       string `json:"origin"`
	LocalStorage []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"localStorage,omitempty"`
}

// parseStorageState decodes a snapshot into CDP cookie parameters plus any
// origin-scoped localStorage entries it carries.
func parseStorageState(data []byte) ([]*network.CookieParam, []storageOrigin, error) {
	var st storageState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, nil, fmt.Errorf("parsing storage state: %w", err)
	}

	cookies := make([]*network.CookieParam, 0, len(st.Cookies))
	for _, c := range st.Cookies {
		param := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			URL:      c.URL,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		switch strings.ToLower(c.SameSite) {
		case "strict":
			param.SameSite = network.CookieSameSiteStrict
		case "lax":
			param.SameSite = network.CookieSameSiteLax
		case "none":
			param.SameSite = network.CookieSameSiteNone
		}
		if c.Expires > 0 {
			expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			param.Expires = &expires
		}
		cookies = append(cookies, param)
	}
	return cookies, st.Origins, nil
}

// restoreStorageState injects a cookie snapshot into the running session
// through CDP. The snapshot format is the recorder's storage-state export.
func (s *Session) restoreStorageState(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading storage state %q: %w", path, err)
	}
	cookies, origins, err := parseStorageState(data)
	if err != nil {
		return err
	}

	if len(cookies) > 0 {
		err := s.run(s.tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			return network.SetCookies(cookies).Do(ctx)
		}))
		if err != nil {
			return fmt.Errorf("restoring cookies: %w", err)
		}
	}

	// localStorage entries are origin-scoped: writing them needs a navigation
	// to each origin first, which would disturb the replay's own navigation
	// sequence. Cookies carry session continuity; origins are surfaced so the
	// gap is visible.
	if len(origins) > 0 {
		s.logger.Warn("Storage state localStorage origins are not restored",
			zap.Int("origins", len(origins)))
	}

	s.logger.Debug("Storage state restored", zap.Int("cookies", len(cookies)))
	return nil
}

// run executes chromedp actions against the session tab, translating a closed
// session into a stable error.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.mu.Unlock()
	return chromedp.Run(ctx, actions...)
}

// actionCtx returns a derived context bounded by the configured per-action
// timeout.
func (s *Session) actionCtx() (context.Context, context.CancelFunc) {
	timeout := s.cfg.ActionTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(s.tabCtx, timeout)
}

// Navigate loads the given URL and returns the resulting URL after redirects.
func (s *Session) Navigate(url string) (string, error) {
	timeout := s.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	ctx, cancel := context.WithTimeout(s.tabCtx, timeout)
	defer cancel()

	var location string
	if err := s.run(ctx, chromedp.Navigate(url), chromedp.Location(&location)); err != nil {
		return "", fmt.Errorf("navigating to %q: %w", url, err)
	}
	return location, nil
}

// URL returns the tab's current location.
func (s *Session) URL() (string, error) {
	ctx, cancel := s.actionCtx()
	defer cancel()
	var location string
	if err := s.run(ctx, chromedp.Location(&location)); err != nil {
		return "", err
	}
	return location, nil
}

// Title returns the tab's current document title.
func (s *Session) Title() (string, error) {
	ctx, cancel := s.actionCtx()
	defer cancel()
	var title string
	if err := s.run(ctx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// Content returns the serialized document HTML.
func (s *Session) Content() (string, error) {
	ctx, cancel := s.actionCtx()
	defer cancel()
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Evaluate runs a JavaScript expression in the page and returns its
// JSON-decoded result.
func (s *Session) Evaluate(expr string) (any, error) {
	ctx, cancel := s.actionCtx()
	defer cancel()
	var result any
	if err := s.run(ctx, chromedp.Evaluate(expr, &result)); err != nil {
		return nil, fmt.Errorf("evaluating script: %w", err)
	}
	return result, nil
}

// Screenshot captures the viewport (or full page) as PNG bytes, optionally
// also writing them to path.
func (s *Session) Screenshot(path string, fullPage bool) ([]byte, error) {
	ctx, cancel := s.actionCtx()
	defer cancel()

	var buf []byte
	var act chromedp.Action
	if fullPage {
		act = chromedp.FullScreenshot(&buf, 90)
	} else {
		act = chromedp.CaptureScreenshot(&buf)
	}
	if err := s.run(ctx, act); err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}

	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating screenshot directory: %w", err)
		}
		if err := os.WriteFile(path, buf, 0o644); err != nil {
			return nil, fmt.Errorf("writing screenshot to %q: %w", path, err)
		}
	}
	return buf, nil
}

// Close releases the tab and terminates the browser process. Safe to call
// more than once; subsequent calls are no-ops.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if s.tabCancel != nil {
		s.tabCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
		// Wait for the allocator to confirm process termination.
		<-s.allocCtx.Done()
	}
	s.logger.Debug("Browser session closed")
	return nil
}
