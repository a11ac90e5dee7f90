// pkg/browser/interact.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// query maps a Target to the chromedp selector+option pair used to address
// it. Coordinate targets have no element query and must be handled by the
// caller.
func (t Target) query() (string, chromedp.QueryOption, error) {
	switch t.Strategy {
	case StrategyCSS:
		return t.Selector, chromedp.ByQuery, nil
	case StrategyCoords:
		return "", nil, fmt.Errorf("coordinate target has no element query")
	default:
		xp, err := t.xpathFor()
		if err != nil {
			return "", nil, err
		}
		return xp, chromedp.BySearch, nil
	}
}

// locatorJS produces a JavaScript expression evaluating to the first element
// matched by the target, or null.
func (t Target) locatorJS() (string, error) {
	if t.Strategy == StrategyCSS {
		return fmt.Sprintf(`document.querySelector(%q)`, t.Selector), nil
	}
	xp, err := t.xpathFor()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		`document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`,
		xp,
	), nil
}

// WaitVisible waits for the target to become visible, bounded by timeout.
// Best-effort: callers treat an error here as advisory and still attempt the
// operation.
func (s *Session) WaitVisible(target Target, timeout time.Duration) error {
	sel, opt, err := target.query()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(s.tabCtx, timeout)
	defer cancel()
	return s.run(ctx, chromedp.WaitVisible(sel, opt))
}

// Click clicks the target element, or the raw coordinates for a coordinate
// target.
func (s *Session) Click(target Target) error {
	if target.Strategy == StrategyCoords {
		return s.ClickAt(target.X, target.Y)
	}
	sel, opt, err := target.query()
	if err != nil {
		return err
	}
	ctx, cancel := s.actionCtx()
	defer cancel()
	if err := s.run(ctx, chromedp.Click(sel, opt)); err != nil {
		return fmt.Errorf("clicking %s: %w", target, err)
	}
	return nil
}

// Fill sets the value of the target input element and fires input/change
// events so framework bindings observe the edit.
func (s *Session) Fill(target Target, value string) error {
	loc, err := target.locatorJS()
	if err != nil {
		return err
	}
	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		el.focus();
		el.value = %q;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})()`, loc, value)

	ok, err := s.Evaluate(script)
	if err != nil {
		return fmt.Errorf("filling %s: %w", target, err)
	}
	if b, _ := ok.(bool); !b {
		return fmt.Errorf("filling %s: element not found", target)
	}
	return nil
}

// SelectOption selects the option with the given value on a <select> target.
func (s *Session) SelectOption(target Target, value string) error {
	loc, err := target.locatorJS()
	if err != nil {
		return err
	}
	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		el.value = %q;
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})()`, loc, value)

	ok, err := s.Evaluate(script)
	if err != nil {
		return fmt.Errorf("selecting option on %s: %w", target, err)
	}
	if b, _ := ok.(bool); !b {
		return fmt.Errorf("selecting option on %s: element not found", target)
	}
	return nil
}

// SetChecked checks or unchecks a checkbox/radio target.
func (s *Session) SetChecked(target Target, checked bool) error {
	loc, err := target.locatorJS()
	if err != nil {
		return err
	}
	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		if (el.checked !== %t) {
			el.click();
		}
		return true;
	})()`, loc, checked)

	ok, err := s.Evaluate(script)
	if err != nil {
		return fmt.Errorf("setting checked on %s: %w", target, err)
	}
	if b, _ := ok.(bool); !b {
		return fmt.Errorf("setting checked on %s: element not found", target)
	}
	return nil
}

// Hover dispatches mouseover/mouseenter on the target element.
func (s *Session) Hover(target Target) error {
	loc, err := target.locatorJS()
	if err != nil {
		return err
	}
	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		for (const type of ['mouseover', 'mouseenter', 'mousemove']) {
			el.dispatchEvent(new MouseEvent(type, {bubbles: true}));
		}
		return true;
	})()`, loc)

	ok, err := s.Evaluate(script)
	if err != nil {
		return fmt.Errorf("hovering %s: %w", target, err)
	}
	if b, _ := ok.(bool); !b {
		return fmt.Errorf("hovering %s: element not found", target)
	}
	return nil
}

// ScrollTo scrolls the window to the given vertical offset.
func (s *Session) ScrollTo(y float64) error {
	_, err := s.Evaluate(fmt.Sprintf(`window.scrollTo(0, %f)`, y))
	return err
}

// ExtractMode selects what Text-family extraction returns.
type ExtractMode string

const (
	ExtractText      ExtractMode = "text"
	ExtractInnerText ExtractMode = "inner_text"
	ExtractInnerHTML ExtractMode = "inner_html"
	ExtractAttribute ExtractMode = "attribute"
	ExtractValue     ExtractMode = "value"
)

// Extract reads text, HTML, an attribute, or the input value from the target
// element.
func (s *Session) Extract(target Target, mode ExtractMode, attribute string) (string, error) {
	loc, err := target.locatorJS()
	if err != nil {
		return "", err
	}

	var expr string
	switch mode {
	case ExtractInnerText:
		expr = "el.innerText"
	case ExtractInnerHTML:
		expr = "el.innerHTML"
	case ExtractAttribute:
		if attribute == "" {
			return "", fmt.Errorf("attribute extraction requires an attribute name")
		}
		expr = fmt.Sprintf("el.getAttribute(%q)", attribute)
	case ExtractValue:
		expr = "el.value"
	default:
		expr = "el.textContent"
	}

	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return null;
		const v = %s;
		return v === null || v === undefined ? "" : String(v);
	})()`, loc, expr)

	result, err := s.Evaluate(script)
	if err != nil {
		return "", fmt.Errorf("extracting from %s: %w", target, err)
	}
	if result == nil {
		return "", fmt.Errorf("extracting from %s: element not found", target)
	}
	str, _ := result.(string)
	return str, nil
}

// WaitForState waits until the element addressed by the CSS selector reaches
// the requested state (visible, hidden, attached, detached).
func (s *Session) WaitForState(selector, state string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.tabCtx, timeout)
	defer cancel()

	var act chromedp.Action
	switch state {
	case "hidden":
		act = chromedp.WaitNotVisible(selector, chromedp.ByQuery)
	case "attached":
		act = chromedp.WaitReady(selector, chromedp.ByQuery)
	case "detached":
		act = chromedp.WaitNotPresent(selector, chromedp.ByQuery)
	default: // visible
		act = chromedp.WaitVisible(selector, chromedp.ByQuery)
	}
	if err := s.run(ctx, act); err != nil {
		return fmt.Errorf("waiting for %q to be %s: %w", selector, state, err)
	}
	return nil
}

// ClickAt clicks at absolute viewport coordinates, bypassing element lookup.
func (s *Session) ClickAt(x, y float64) error {
	ctx, cancel := s.actionCtx()
	defer cancel()
	if err := s.run(ctx, chromedp.MouseClickXY(x, y)); err != nil {
		return fmt.Errorf("clicking at (%.0f,%.0f): %w", x, y, err)
	}
	return nil
}

// MoveMouse moves the pointer to absolute viewport coordinates.
func (s *Session) MoveMouse(x, y float64) error {
	ctx, cancel := s.actionCtx()
	defer cancel()
	if err := s.run(ctx, chromedp.MouseEvent(input.MouseMoved, x, y)); err != nil {
		return fmt.Errorf("moving mouse to (%.0f,%.0f): %w", x, y, err)
	}
	return nil
}

// TypeText types text into the focused element, optionally pausing between
// characters.
func (s *Session) TypeText(text string, perKeyDelay time.Duration) error {
	ctx, cancel := s.actionCtx()
	defer cancel()

	if perKeyDelay <= 0 {
		return s.run(ctx, chromedp.KeyEvent(text))
	}
	for _, r := range text {
		if err := s.run(ctx, chromedp.KeyEvent(string(r))); err != nil {
			return fmt.Errorf("typing %q: %w", r, err)
		}
		time.Sleep(perKeyDelay)
	}
	return nil
}

// namedKeys maps recorded key names to their CDP key strings.
var namedKeys = map[string]string{
	"enter":      kb.Enter,
	"return":     kb.Enter,
	"tab":        kb.Tab,
	"escape":     kb.Escape,
	"backspace":  kb.Backspace,
	"delete":     kb.Delete,
	"arrowup":    kb.ArrowUp,
	"arrowdown":  kb.ArrowDown,
	"arrowleft":  kb.ArrowLeft,
	"arrowright": kb.ArrowRight,
	"home":       kb.Home,
	"end":        kb.End,
	"pageup":     kb.PageUp,
	"pagedown":   kb.PageDown,
}

// Press dispatches a single named key (e.g. "Enter") to the focused element.
func (s *Session) Press(key string) error {
	ctx, cancel := s.actionCtx()
	defer cancel()

	keys, ok := namedKeys[strings.ToLower(key)]
	if !ok {
		keys = key
	}
	if err := s.run(ctx, chromedp.KeyEvent(keys)); err != nil {
		return fmt.Errorf("pressing %q: %w", key, err)
	}
	return nil
}
