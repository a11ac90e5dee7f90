package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelrpa/kestrel-cli/pkg/browser"
	"github.com/kestrelrpa/kestrel-cli/pkg/schemas"
)

func strategies(targets []browser.Target) []browser.Strategy {
	out := make([]browser.Strategy, 0, len(targets))
	for _, t := range targets {
		out = append(out, t.Strategy)
	}
	return out
}

func TestCandidateTargetsFullClickChain(t *testing.T) {
	x, y := 120.0, 340.0
	a := &schemas.RecordedAction{
		Type:           schemas.RecordedClick,
		RobustSelector: `get_by_role("link", name="This week")`,
		Accessibility:  &schemas.Accessibility{Role: "link", Name: "This week"},
		Value:          "This week",
		Selector:       "#nav > a.week",
		XPath:          `//a[@class="week"]`,
		X:              &x,
		Y:              &y,
	}

	targets := candidateTargets(a)
	assert.Equal(t, []browser.Strategy{
		browser.StrategyRole, // from the robust accessor
		browser.StrategyRole, // from the accessibility snapshot
		browser.StrategyText,
		browser.StrategyCSS,
		browser.StrategyXPath,
		browser.StrategyCoords,
	}, strategies(targets))

	assert.Equal(t, "#nav > a.week", targets[3].Selector)
	assert.Equal(t, 120.0, targets[5].X)
}

func TestCandidateTargetsGenericRoleExcluded(t *testing.T) {
	a := &schemas.RecordedAction{
		Type:          schemas.RecordedClick,
		Accessibility: &schemas.Accessibility{Role: "generic", Name: "Something"},
		Selector:      "#el",
	}

	targets := candidateTargets(a)
	require.Len(t, targets, 1)
	assert.Equal(t, browser.StrategyCSS, targets[0].Strategy)
}

func TestCandidateTargetsNonClickSkipsTextAndCoords(t *testing.T) {
	x, y := 10.0, 20.0
	a := &schemas.RecordedAction{
		Type:     schemas.RecordedFill,
		Value:    "typed text, not a label",
		Selector: "input#email",
		X:        &x,
		Y:        &y,
	}

	targets := candidateTargets(a)
	assert.Equal(t, []browser.Strategy{browser.StrategyCSS}, strategies(targets))
}

func TestCandidateTargetsEmptyAction(t *testing.T) {
	assert.Empty(t, candidateTargets(&schemas.RecordedAction{Type: schemas.RecordedClick}))
}

func TestCandidateTargetsMalformedRobustSelectorIgnored(t *testing.T) {
	a := &schemas.RecordedAction{
		Type:           schemas.RecordedClick,
		RobustSelector: `get_by_unknown("x")`,
		Selector:       "#fallback",
	}

	targets := candidateTargets(a)
	assert.Equal(t, []browser.Strategy{browser.StrategyCSS}, strategies(targets))
}
