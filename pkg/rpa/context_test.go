package rpa

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kestrelrpa/kestrel-cli/pkg/browser"
)

// fakeDriver is a minimal PageDriver for engine and context tests.
type fakeDriver struct {
	navigations []string
	clicks      []browser.Target
	closeCalls  int
	failClicks  bool
}

func (f *fakeDriver) Navigate(url string) (string, error) {
	f.navigations = append(f.navigations, url)
	return url, nil
}

func (f *fakeDriver) Click(t browser.Target) error {
	f.clicks = append(f.clicks, t)
	if f.failClicks {
		return errors.New("element not found")
	}
	return nil
}

func (f *fakeDriver) Fill(t browser.Target, value string) error { return nil }

func (f *fakeDriver) Extract(t browser.Target, mode browser.ExtractMode, attribute string) (string, error) {
	return "extracted value", nil
}

func (f *fakeDriver) WaitForState(selector, state string, timeout time.Duration) error { return nil }
func (f *fakeDriver) Screenshot(path string, fullPage bool) ([]byte, error)            { return []byte{1}, nil }
func (f *fakeDriver) TypeText(text string, perKeyDelay time.Duration) error            { return nil }
func (f *fakeDriver) Press(key string) error                                           { return nil }
func (f *fakeDriver) ClickAt(x, y float64) error                                       { return nil }
func (f *fakeDriver) MoveMouse(x, y float64) error                                     { return nil }
func (f *fakeDriver) URL() (string, error)                                             { return "about:blank", nil }

func (f *fakeDriver) Close() error {
	f.closeCalls++
	return nil
}

func fakeFactory(d *fakeDriver) DriverFactory {
	return func(ctx context.Context, opts browser.OpenOptions) (PageDriver, error) {
		return d, nil
	}
}

func TestResolveVariableIdentity(t *testing.T) {
	c := NewContext(context.Background(), zap.NewNop(), nil)

	// Resolution must return the stored value itself, not a copy or a
	// serialization of it.
	original := map[string]any{"nested": []any{1, 2, 3}}
	c.SetVar("x", original)

	resolved := c.Resolve("${x}")
	resolvedMap, ok := resolved.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, original, resolvedMap)

	// Same underlying map: mutating through one reference is visible
	// through the other.
	resolvedMap["added"] = true
	assert.Contains(t, original, "added")
}

func TestResolvePassthrough(t *testing.T) {
	c := NewContext(context.Background(), zap.NewNop(), nil)
	c.SetVar("x", "value")

	assert.Equal(t, "plain string", c.Resolve("plain string"))
	assert.Equal(t, "prefix ${x}", c.Resolve("prefix ${x}"), "substitution is whole-value only")
	assert.Equal(t, 42, c.Resolve(42))
	assert.Nil(t, c.Resolve("${missing}"))
}

func TestDriverBeforeOpen(t *testing.T) {
	c := NewContext(context.Background(), zap.NewNop(), nil)
	_, err := c.Driver()
	require.ErrorIs(t, err, ErrBrowserNotOpen)
}

func TestOpenDriverIdempotent(t *testing.T) {
	d := &fakeDriver{}
	opened := 0
	factory := func(ctx context.Context, opts browser.OpenOptions) (PageDriver, error) {
		opened++
		return d, nil
	}

	c := NewContext(context.Background(), zap.NewNop(), factory)
	require.NoError(t, c.OpenDriver("chromium", true))
	require.NoError(t, c.OpenDriver("chromium", true))
	assert.Equal(t, 1, opened)
}

func TestCleanupIsIdempotent(t *testing.T) {
	d := &fakeDriver{}
	c := NewContext(context.Background(), zap.NewNop(), fakeFactory(d))
	require.NoError(t, c.OpenDriver("chromium", true))

	c.Cleanup()
	c.Cleanup()
	assert.Equal(t, 1, d.closeCalls)
}
