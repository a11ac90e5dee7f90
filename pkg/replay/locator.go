// pkg/replay/locator.go
package replay

import (
	"strings"

	"github.com/kestrelrpa/kestrel-cli/pkg/browser"
	"github.com/kestrelrpa/kestrel-cli/pkg/schemas"
)

// candidateTargets builds the ordered locator fallback chain for a recorded
// action. First success wins during replay:
//
//  1. robust structured accessor (role/text/label based),
//  2. accessibility role+name, when the role is not the generic fallback,
//  3. exact visible text (click actions only),
//  4. plain CSS selector,
//  5. XPath,
//  6. raw recorded coordinates (click actions only, last resort).
func candidateTargets(a *schemas.RecordedAction) []browser.Target {
	isClick := a.Type == schemas.RecordedClick
	var candidates []browser.Target

	if strings.HasPrefix(a.RobustSelector, "get_by_") {
		if t, ok := browser.ParseRobustSelector(a.RobustSelector); ok {
			candidates = append(candidates, t)
		}
	}

	if acc := a.Accessibility; acc != nil && acc.Role != "" && acc.Role != "generic" && acc.Name != "" {
		candidates = append(candidates, browser.Target{
			Strategy: browser.StrategyRole,
			Role:     acc.Role,
			Name:     acc.Name,
		})
	}

	if isClick {
		if text := strings.TrimSpace(a.Value); text != "" {
			candidates = append(candidates, browser.Target{
				Strategy: browser.StrategyText,
				Text:     text,
			})
		}
	}

	if a.Selector != "" {
		candidates = append(candidates, browser.Target{
			Strategy: browser.StrategyCSS,
			Selector: a.Selector,
		})
	}
	if a.XPath != "" {
		candidates = append(candidates, browser.Target{
			Strategy: browser.StrategyXPath,
			Selector: a.XPath,
		})
	}

	if isClick && a.X != nil && a.Y != nil {
		candidates = append(candidates, browser.Target{
			Strategy: browser.StrategyCoords,
			X:        *a.X,
			Y:        *a.Y,
		})
	}

	return candidates
}
