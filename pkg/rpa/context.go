// pkg/rpa/context.go
package rpa

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// ErrBrowserNotOpen is returned by browser-dependent actions invoked before a
// browser_open action established a page.
var ErrBrowserNotOpen = errors.New("browser not opened: run browser_open first")

// Context is the mutable state of one workflow execution: a variable mapping
// plus an optional live browser handle. The handle is exclusively owned by
// this context and is released by Cleanup on every exit path.
type Context struct {
	variables map[string]any

	launchCtx context.Context
	factory   DriverFactory
	driver    PageDriver

	logger *zap.Logger
}

// NewContext creates a fresh execution context. factory may be nil for
// workflows that never open a browser.
func NewContext(ctx context.Context, logger *zap.Logger, factory DriverFactory) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{
		variables: make(map[string]any),
		launchCtx: ctx,
		factory:   factory,
		logger:    logger,
	}
}

// SetVar stores a variable.
func (c *Context) SetVar(name string, value any) {
	c.variables[name] = value
}

// GetVar returns a variable, or def if absent.
func (c *Context) GetVar(name string, def any) any {
	if v, ok := c.variables[name]; ok {
		return v
	}
	return def
}

// HasVar reports whether a variable is set.
func (c *Context) HasVar(name string) bool {
	_, ok := c.variables[name]
	return ok
}

// Variables returns a copy of the current variable mapping.
func (c *Context) Variables() map[string]any {
	out := make(map[string]any, len(c.variables))
	for k, v := range c.variables {
		out[k] = v
	}
	return out
}

// Resolve substitutes variable references of the form "${name}" with the
// variable's current value. Substitution is a whole-value match: any other
// string, and every non-string value, passes through unchanged.
func (c *Context) Resolve(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return c.GetVar(s[2:len(s)-1], nil)
	}
	return value
}

// Driver returns the open browser handle, or ErrBrowserNotOpen.
func (c *Context) Driver() (PageDriver, error) {
	if c.driver == nil {
		return nil, ErrBrowserNotOpen
	}
	return c.driver, nil
}

// OpenDriver opens the context's browser handle if not already open.
// Idempotent: a second call is a no-op.
func (c *Context) OpenDriver(browserType string, headless bool) error {
	if c.driver != nil {
		return nil
	}
	if c.factory == nil {
		return errors.New("no browser driver factory configured")
	}
	d, err := c.factory(c.launchCtx, openOptions(browserType, headless))
	if err != nil {
		return err
	}
	c.driver = d
	return nil
}

// Cleanup releases the browser handle, if any. Safe to call multiple times;
// errors during close are logged, not returned, because cleanup runs on every
// exit path including failures.
func (c *Context) Cleanup() {
	if c.driver == nil {
		return
	}
	if err := c.driver.Close(); err != nil && c.logger != nil {
		c.logger.Warn("Failed to close browser handle during cleanup", zap.Error(err))
	}
	c.driver = nil
}
