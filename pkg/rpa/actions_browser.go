// pkg/rpa/actions_browser.go
package rpa

import (
	"time"

	"github.com/kestrelrpa/kestrel-cli/pkg/browser"
	"github.com/kestrelrpa/kestrel-cli/pkg/schemas"
)

func registerBrowserActions(r *Registry) {
	r.Register("browser_open", schemas.ActionMetadata{
		Name:        "Open Browser",
		Description: "Open a new browser instance",
		Category:    "browser",
		Params: []schemas.ActionParam{
			{Key: "browser_type", Type: "string", Value: "chromium"},
			{Key: "headless", Type: "bool", Value: false},
		},
		OutputType: "bool",
	}, browserOpen)

	r.Register("browser_navigate", schemas.ActionMetadata{
		Name:        "Navigate to URL",
		Description: "Navigate to a specified URL",
		Category:    "browser",
		Params: []schemas.ActionParam{
			{Key: "url", Type: "string"},
		},
		OutputType: "string",
	}, browserNavigate)

	r.Register("browser_click", schemas.ActionMetadata{
		Name:        "Click Element",
		Description: "Click on an element",
		Category:    "browser",
		Params: []schemas.ActionParam{
			{Key: "selector", Type: "string"},
		},
	}, browserClick)

	r.Register("browser_fill", schemas.ActionMetadata{
		Name:        "Fill Input",
		Description: "Fill an input field with text",
		Category:    "browser",
		Params: []schemas.ActionParam{
			{Key: "selector", Type: "string"},
			{Key: "value", Type: "string"},
		},
	}, browserFill)

	r.Register("browser_extract", schemas.ActionMetadata{
		Name:        "Extract Data",
		Description: "Extract text or attribute from an element",
		Category:    "browser",
		Params: []schemas.ActionParam{
			{Key: "selector", Type: "string"},
			{Key: "extract_type", Type: "string", Value: "text"},
			{Key: "attribute", Type: "string", Value: ""},
		},
		OutputType: "string",
	}, browserExtract)

	r.Register("browser_wait", schemas.ActionMetadata{
		Name:        "Wait for Element",
		Description: "Wait for an element to reach a state",
		Category:    "browser",
		Params: []schemas.ActionParam{
			{Key: "selector", Type: "string"},
			{Key: "state", Type: "string", Value: "visible"},
			{Key: "timeout", Type: "int", Value: 30000},
		},
	}, browserWait)

	r.Register("browser_screenshot", schemas.ActionMetadata{
		Name:        "Take Screenshot",
		Description: "Take a screenshot of the page",
		Category:    "browser",
		Params: []schemas.ActionParam{
			{Key: "path", Type: "string", Value: ""},
			{Key: "full_page", Type: "bool", Value: false},
		},
		OutputType: "bytes",
	}, browserScreenshot)

	r.Register("browser_close", schemas.ActionMetadata{
		Name:        "Close Browser",
		Description: "Close the browser instance",
		Category:    "browser",
	}, browserClose)
}

// browserOpen launches the context's browser handle. Idempotent when a
// browser is already open.
func browserOpen(c *Context, params map[string]any) (any, error) {
	browserType := stringParam(params, "browser_type", "chromium")
	headless := boolParam(params, "headless", false)
	if err := c.OpenDriver(browserType, headless); err != nil {
		return nil, err
	}
	return true, nil
}

func browserNavigate(c *Context, params map[string]any) (any, error) {
	d, err := c.Driver()
	if err != nil {
		return nil, err
	}
	url, err := requiredStringParam(params, "url")
	if err != nil {
		return nil, err
	}
	return d.Navigate(url)
}

func browserClick(c *Context, params map[string]any) (any, error) {
	d, err := c.Driver()
	if err != nil {
		return nil, err
	}
	selector, err := requiredStringParam(params, "selector")
	if err != nil {
		return nil, err
	}
	return nil, d.Click(browser.Target{Strategy: browser.StrategyCSS, Selector: selector})
}

func browserFill(c *Context, params map[string]any) (any, error) {
	d, err := c.Driver()
	if err != nil {
		return nil, err
	}
	selector, err := requiredStringParam(params, "selector")
	if err != nil {
		return nil, err
	}
	value := stringParam(params, "value", "")
	return nil, d.Fill(browser.Target{Strategy: browser.StrategyCSS, Selector: selector}, value)
}

func browserExtract(c *Context, params map[string]any) (any, error) {
	d, err := c.Driver()
	if err != nil {
		return nil, err
	}
	selector, err := requiredStringParam(params, "selector")
	if err != nil {
		return nil, err
	}

	var mode browser.ExtractMode
	switch stringParam(params, "extract_type", "text") {
	case "inner_text":
		mode = browser.ExtractInnerText
	case "inner_html":
		mode = browser.ExtractInnerHTML
	case "attribute":
		mode = browser.ExtractAttribute
	case "value":
		mode = browser.ExtractValue
	default:
		mode = browser.ExtractText
	}

	return d.Extract(
		browser.Target{Strategy: browser.StrategyCSS, Selector: selector},
		mode,
		stringParam(params, "attribute", ""),
	)
}

func browserWait(c *Context, params map[string]any) (any, error) {
	d, err := c.Driver()
	if err != nil {
		return nil, err
	}
	selector, err := requiredStringParam(params, "selector")
	if err != nil {
		return nil, err
	}
	state := stringParam(params, "state", "visible")
	timeout := time.Duration(intParam(params, "timeout", 30000)) * time.Millisecond
	return nil, d.WaitForState(selector, state, timeout)
}

func browserScreenshot(c *Context, params map[string]any) (any, error) {
	d, err := c.Driver()
	if err != nil {
		return nil, err
	}
	return d.Screenshot(
		stringParam(params, "path", ""),
		boolParam(params, "full_page", false),
	)
}

// browserClose releases all browser resources owned by the context.
func browserClose(c *Context, _ map[string]any) (any, error) {
	c.Cleanup()
	return nil, nil
}
