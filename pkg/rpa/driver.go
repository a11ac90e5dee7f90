// pkg/rpa/driver.go
package rpa

import (
	"context"
	"time"

	"github.com/kestrelrpa/kestrel-cli/pkg/browser"
)

// PageDriver is the browser-driving capability the built-in browser actions
// require. *browser.Session satisfies it; tests substitute fakes.
type PageDriver interface {
	Navigate(url string) (string, error)
	Click(t browser.Target) error
	Fill(t browser.Target, value string) error
	Extract(t browser.Target, mode browser.ExtractMode, attribute string) (string, error)
	WaitForState(selector, state string, timeout time.Duration) error
	Screenshot(path string, fullPage bool) ([]byte, error)
	TypeText(text string, perKeyDelay time.Duration) error
	Press(key string) error
	ClickAt(x, y float64) error
	MoveMouse(x, y float64) error
	URL() (string, error)
	Close() error
}

// DriverFactory opens a new page driver. The context bounds the browser
// process launch, not the driver's lifetime.
type DriverFactory func(ctx context.Context, opts browser.OpenOptions) (PageDriver, error)

func openOptions(browserType string, headless bool) browser.OpenOptions {
	return browser.OpenOptions{BrowserType: browserType, Headless: headless}
}
