// pkg/browser/target.go
package browser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrSessionClosed is returned for any operation on a closed session.
var ErrSessionClosed = errors.New("browser session is closed")

// Strategy names one locator resolution approach for a Target.
type Strategy string

const (
	StrategyRobust Strategy = "robust"
	StrategyRole   Strategy = "role"
	StrategyText   Strategy = "text"
	StrategyCSS    Strategy = "css"
	StrategyXPath  Strategy = "xpath"
	StrategyCoords Strategy = "coords"
)

// Target describes one concrete way of locating an element (or a point) on
// the live page. The replay engine builds an ordered candidate list of
// Targets per recorded action and tries them in turn.
type Target struct {
	Strategy Strategy

	// Selector carries the CSS selector (StrategyCSS) or XPath expression
	// (StrategyXPath).
	Selector string

	// Role and Name locate by ARIA role plus accessible name (StrategyRole).
	Role string
	Name string

	// Text locates by exact visible text (StrategyText).
	Text string

	// X, Y are raw screen coordinates (StrategyCoords).
	X float64
	Y float64
}

// String renders a compact description for error messages and logs.
func (t Target) String() string {
	switch t.Strategy {
	case StrategyRole:
		return fmt.Sprintf("role=%s name=%q", t.Role, t.Name)
	case StrategyText:
		return fmt.Sprintf("text=%q", t.Text)
	case StrategyCoords:
		return fmt.Sprintf("coords=(%.0f,%.0f)", t.X, t.Y)
	default:
		return fmt.Sprintf("%s=%q", t.Strategy, t.Selector)
	}
}

// robustCallRe matches recorded structured accessors of the form
// get_by_role("link", name="This week"), get_by_text("Today"),
// get_by_label("Email") or get_by_placeholder("Search").
var robustCallRe = regexp.MustCompile(`^get_by_(\w+)\(\s*"((?:[^"\\]|\\.)*)"\s*(?:,\s*name\s*=\s*"((?:[^"\\]|\\.)*)"\s*)?\)`)

// ParseRobustSelector converts a recorded structured accessor into a Target.
// Returns false when the expression is not a recognized accessor; callers
// fall through to the next locator strategy.
func ParseRobustSelector(expr string) (Target, bool) {
	m := robustCallRe.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return Target{}, false
	}
	kind, first, name := m[1], unescapeRecorded(m[2]), unescapeRecorded(m[3])

	switch kind {
	case "role":
		if name == "" {
			// A role with no accessible name is too ambiguous to act on.
			return Target{}, false
		}
		return Target{Strategy: StrategyRole, Role: first, Name: name}, true
	case "text":
		return Target{Strategy: StrategyText, Text: first}, true
	case "label":
		return Target{Strategy: StrategyXPath, Selector: labelToXPath(first)}, true
	case "placeholder":
		return Target{Strategy: StrategyCSS, Selector: fmt.Sprintf(`[placeholder=%q]`, first)}, true
	default:
		return Target{}, false
	}
}

func unescapeRecorded(s string) string {
	s = strings.ReplaceAll(s, `\"`, `"`)
	return strings.ReplaceAll(s, `\\`, `\`)
}

// roleTags maps ARIA roles to the HTML elements that carry them implicitly.
// Explicit role attributes are always matched as well.
var roleTags = map[string][]string{
	"link":     {"a"},
	"button":   {"button", `input[@type="button"]`, `input[@type="submit"]`},
	"textbox":  {`input[not(@type) or @type="text" or @type="email" or @type="search" or @type="url" or @type="tel"]`, "textarea"},
	"checkbox": {`input[@type="checkbox"]`},
	"radio":    {`input[@type="radio"]`},
	"combobox": {"select"},
	"heading":  {"h1", "h2", "h3", "h4", "h5", "h6"},
	"img":      {"img"},
	"list":     {"ul", "ol"},
	"listitem": {"li"},
	"row":      {"tr"},
	"cell":     {"td"},
	"tab":      {},
	"menuitem": {},
	"option":   {"option"},
}

// RoleToXPath builds an XPath that approximates an ARIA role + accessible
// name lookup: implicit-role elements and explicit role attributes whose
// visible text, aria-label, or title equals the accessible name.
func RoleToXPath(role, name string) string {
	nameCond := fmt.Sprintf(
		`(normalize-space(.)=%s or @aria-label=%s or @title=%s or @alt=%s)`,
		xpathLiteral(name), xpathLiteral(name), xpathLiteral(name), xpathLiteral(name),
	)

	var alternatives []string
	alternatives = append(alternatives,
		fmt.Sprintf(`//*[@role=%s][%s]`, xpathLiteral(role), nameCond))
	for _, tag := range roleTags[role] {
		alternatives = append(alternatives, fmt.Sprintf(`//%s[%s]`, tag, nameCond))
	}
	return strings.Join(alternatives, " | ")
}

// TextToXPath builds an XPath matching an element by exact visible text.
func TextToXPath(text string) string {
	lit := xpathLiteral(text)
	return fmt.Sprintf(`//*[normalize-space(text())=%s or normalize-space(.)=%s][not(.//*[normalize-space(.)=%s])]`, lit, lit, lit)
}

// labelToXPath matches form controls by their associated label text.
func labelToXPath(label string) string {
	lit := xpathLiteral(label)
	return fmt.Sprintf(
		`//input[@id=//label[normalize-space(.)=%s]/@for] | //label[normalize-space(.)=%s]//input | //textarea[@id=//label[normalize-space(.)=%s]/@for] | //select[@id=//label[normalize-space(.)=%s]/@for]`,
		lit, lit, lit, lit,
	)
}

// xpathLiteral quotes an arbitrary string as an XPath string literal. XPath
// 1.0 has no escape sequences, so strings containing both quote kinds are
// assembled with concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, `'`) {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, `'`)
	var sb strings.Builder
	sb.WriteString("concat(")
	for i, p := range parts {
		if i > 0 {
			sb.WriteString(`, "'", `)
		}
		sb.WriteString("'" + p + "'")
	}
	sb.WriteString(")")
	return sb.String()
}

// xpathFor normalizes any non-coordinate Target to an XPath expression, the
// common denominator chromedp can query via BySearch.
func (t Target) xpathFor() (string, error) {
	switch t.Strategy {
	case StrategyCSS:
		// CSS targets are handled with ByQuery directly; no XPath needed.
		return "", fmt.Errorf("css target has no xpath form")
	case StrategyXPath:
		return t.Selector, nil
	case StrategyRole:
		return RoleToXPath(t.Role, t.Name), nil
	case StrategyText:
		return TextToXPath(t.Text), nil
	default:
		return "", fmt.Errorf("target %s cannot be expressed as a locator", t.Strategy)
	}
}
