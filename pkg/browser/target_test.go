package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRobustSelectorRole(t *testing.T) {
	target, ok := ParseRobustSelector(`get_by_role("link", name="This week")`)
	require.True(t, ok)
	assert.Equal(t, StrategyRole, target.Strategy)
	assert.Equal(t, "link", target.Role)
	assert.Equal(t, "This week", target.Name)
}

func TestParseRobustSelectorRoleWithoutName(t *testing.T) {
	_, ok := ParseRobustSelector(`get_by_role("button")`)
	assert.False(t, ok, "a nameless role is too ambiguous to locate")
}

func TestParseRobustSelectorText(t *testing.T) {
	target, ok := ParseRobustSelector(`get_by_text("Today")`)
	require.True(t, ok)
	assert.Equal(t, StrategyText, target.Strategy)
	assert.Equal(t, "Today", target.Text)
}

func TestParseRobustSelectorLabel(t *testing.T) {
	target, ok := ParseRobustSelector(`get_by_label("Email")`)
	require.True(t, ok)
	assert.Equal(t, StrategyXPath, target.Strategy)
	assert.Contains(t, target.Selector, `//label[normalize-space(.)='Email']`)
}

func TestParseRobustSelectorPlaceholder(t *testing.T) {
	target, ok := ParseRobustSelector(`get_by_placeholder("Search")`)
	require.True(t, ok)
	assert.Equal(t, StrategyCSS, target.Strategy)
	assert.Equal(t, `[placeholder="Search"]`, target.Selector)
}

func TestParseRobustSelectorEscapes(t *testing.T) {
	target, ok := ParseRobustSelector(`get_by_role("button", name="Say \"hi\"")`)
	require.True(t, ok)
	assert.Equal(t, `Say "hi"`, target.Name)
}

func TestParseRobustSelectorRejectsOtherExpressions(t *testing.T) {
	for _, expr := range []string{
		"",
		"#main > button",
		`//a[@id="x"]`,
		`get_by_testid("thing")`,
		`page.click("a")`,
	} {
		_, ok := ParseRobustSelector(expr)
		assert.False(t, ok, "expression %q should not parse", expr)
	}
}

func TestRoleToXPathCoversImplicitTags(t *testing.T) {
	xp := RoleToXPath("link", "Home")
	assert.Contains(t, xp, `//*[@role='link']`)
	assert.Contains(t, xp, "//a[")
	assert.Contains(t, xp, "normalize-space(.)='Home'")
	assert.Contains(t, xp, "@aria-label='Home'")
}

func TestRoleToXPathUnknownRole(t *testing.T) {
	xp := RoleToXPath("tooltip", "Hint")
	// Explicit role attribute lookup still works for roles with no implicit tag.
	assert.Equal(t, `//*[@role='tooltip'][(normalize-space(.)='Hint' or @aria-label='Hint' or @title='Hint' or @alt='Hint')]`, xp)
}

func TestXPathLiteralQuoting(t *testing.T) {
	assert.Equal(t, `'plain'`, xpathLiteral("plain"))
	assert.Equal(t, `"it's"`, xpathLiteral("it's"))
	assert.Equal(t, `'say "hi"'`, xpathLiteral(`say "hi"`))
	assert.Equal(t, `concat('it', "'", 's "x"')`, xpathLiteral(`it's "x"`))
}

func TestTargetString(t *testing.T) {
	assert.Equal(t, `role=button name="Go"`, Target{Strategy: StrategyRole, Role: "button", Name: "Go"}.String())
	assert.Equal(t, `text="Today"`, Target{Strategy: StrategyText, Text: "Today"}.String())
	assert.Equal(t, `coords=(10,20)`, Target{Strategy: StrategyCoords, X: 10, Y: 20}.String())
	assert.Equal(t, `css="#main"`, Target{Strategy: StrategyCSS, Selector: "#main"}.String())
}
