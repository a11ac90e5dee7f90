// pkg/replay/engine.go
package replay

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kestrelrpa/kestrel-cli/internal/config"
	"github.com/kestrelrpa/kestrel-cli/pkg/browser"
	"github.com/kestrelrpa/kestrel-cli/pkg/llmclient"
	"github.com/kestrelrpa/kestrel-cli/pkg/schemas"
)

// Driver is the page-driving capability replay requires. *browser.Session
// satisfies it; tests substitute fakes.
type Driver interface {
	Navigate(url string) (string, error)
	WaitVisible(t browser.Target, timeout time.Duration) error
	Click(t browser.Target) error
	ClickAt(x, y float64) error
	Fill(t browser.Target, value string) error
	Press(key string) error
	SelectOption(t browser.Target, value string) error
	SetChecked(t browser.Target, checked bool) error
	ScrollTo(y float64) error
	Hover(t browser.Target) error
	Extract(t browser.Target, mode browser.ExtractMode, attribute string) (string, error)
	Evaluate(expr string) (any, error)
	Content() (string, error)
	URL() (string, error)
	Title() (string, error)
	Close() error
}

// DriverFactory opens a new replay driver.
type DriverFactory func(ctx context.Context, opts browser.OpenOptions) (Driver, error)

const maxAIContentLength = 10000

// Engine replays recorded browser actions against a live page, resolving
// each action's target through the locator fallback chain and pacing
// playback from the recorded timestamps.
type Engine struct {
	cfg       config.ReplayConfig
	factory   DriverFactory
	completer llmclient.TextCompleter
	logger    *zap.Logger
}

// NewEngine creates a replay engine. completer may be nil; AI-assisted
// actions then fail with a clear error instead of being silently skipped.
func NewEngine(logger *zap.Logger, cfg config.ReplayConfig, factory DriverFactory, completer llmclient.TextCompleter) *Engine {
	return &Engine{
		cfg:       cfg,
		factory:   factory,
		completer: completer,
		logger:    logger.Named("replay"),
	}
}

// Preview replays actions in a visible browser and aborts on the first
// failure, annotating the error with the 1-based step index and action type.
func (e *Engine) Preview(ctx context.Context, actions []schemas.RecordedAction, storageStatePath string) (*schemas.PreviewResult, error) {
	d, err := e.factory(ctx, browser.OpenOptions{
		Headless:         false,
		StorageStatePath: storageStatePath,
	})
	if err != nil {
		return nil, fmt.Errorf("opening preview browser: %w", err)
	}
	defer d.Close()

	extracted := make(map[string]any)
	p := newPacer(e.cfg)

	for i := range actions {
		a := &actions[i]
		if delay := p.delayFor(a.Timestamp); delay > 0 {
			time.Sleep(delay)
		}
		if err := e.executeAction(ctx, d, a, extracted); err != nil {
			return nil, fmt.Errorf("preview failed at step %d (%s): %w", i+1, a.Type, err)
		}
	}

	url, _ := d.URL()
	title, _ := d.Title()
	return &schemas.PreviewResult{URL: url, Title: title, Extracted: extracted}, nil
}

// ExecuteHeadless replays actions in a headless browser with best-effort
// continuation: individual action failures are logged and skipped, except
// navigation failures, which abort because everything downstream depends on
// the resulting page. It always returns a well-formed result.
func (e *Engine) ExecuteHeadless(ctx context.Context, actions []schemas.RecordedAction, startURL string, inputs map[string]any) *schemas.ReplayResult {
	extracted := make(map[string]any, len(inputs))
	for k, v := range inputs {
		extracted[k] = v
	}

	d, err := e.factory(ctx, browser.OpenOptions{Headless: true})
	if err != nil {
		return &schemas.ReplayResult{
			Success:   false,
			Error:     fmt.Sprintf("opening headless browser: %v", err),
			Extracted: extracted,
		}
	}
	defer d.Close()

	if startURL != "" {
		if _, err := d.Navigate(startURL); err != nil {
			return &schemas.ReplayResult{
				Success:   false,
				Error:     fmt.Sprintf("navigating to start URL: %v", err),
				Extracted: extracted,
			}
		}
	}

	for i := range actions {
		a := &actions[i]
		if err := e.executeAction(ctx, d, a, extracted); err != nil {
			e.logger.Warn("Action failed",
				zap.Int("step", i+1),
				zap.String("type", string(a.Type)),
				zap.Error(err))
			if a.Type == schemas.RecordedNavigate {
				return &schemas.ReplayResult{
					Success:   false,
					Error:     fmt.Sprintf("step %d (%s): %v", i+1, a.Type, err),
					Extracted: extracted,
				}
			}
		}
	}

	url, _ := d.URL()
	title, _ := d.Title()
	return &schemas.ReplayResult{
		Success:   true,
		URL:       url,
		Title:     title,
		Extracted: extracted,
	}
}

func (e *Engine) executeAction(ctx context.Context, d Driver, a *schemas.RecordedAction, extracted map[string]any) error {
	switch a.Type {
	case schemas.RecordedNavigate:
		return e.doNavigate(d, a)
	case schemas.RecordedClick:
		return e.doClick(d, a)
	case schemas.RecordedFill:
		return e.withTarget(d, a, func(t browser.Target) error {
			return d.Fill(t, substituteVars(a.Value, extracted))
		})
	case schemas.RecordedPress:
		key := a.Value
		if key == "" {
			key = "Enter"
		}
		return d.Press(key)
	case schemas.RecordedSelect:
		return e.withTarget(d, a, func(t browser.Target) error {
			return d.SelectOption(t, a.Value)
		})
	case schemas.RecordedCheck:
		return e.withTarget(d, a, func(t browser.Target) error {
			return d.SetChecked(t, true)
		})
	case schemas.RecordedUncheck:
		return e.withTarget(d, a, func(t browser.Target) error {
			return d.SetChecked(t, false)
		})
	case schemas.RecordedScroll:
		y, _ := strconv.ParseFloat(a.Value, 64)
		return d.ScrollTo(y)
	case schemas.RecordedHover:
		return e.withTarget(d, a, d.Hover)
	case schemas.RecordedExtract:
		return e.doExtract(d, a, browser.ExtractText, firstNonEmpty(a.OutputKey, a.VariableName, "extracted"), extracted)
	case schemas.RecordedExtractText:
		return e.doExtract(d, a, browser.ExtractText, firstNonEmpty(a.VariableName, a.OutputKey, "extracted_text"), extracted)
	case schemas.RecordedExtractHTML:
		return e.doExtract(d, a, browser.ExtractInnerHTML, firstNonEmpty(a.VariableName, a.OutputKey, "extracted_html"), extracted)
	case schemas.RecordedExtractAttr:
		return e.doExtractAttr(d, a, extracted)
	case schemas.RecordedAIExtract:
		return e.doAIExtract(ctx, d, a, extracted)
	case schemas.RecordedAIFill:
		return e.doAIFill(ctx, d, a, extracted)
	case schemas.RecordedExecuteJS:
		return e.doExecuteJS(d, a, extracted)
	default:
		// Unknown recorded types are ignored so old recordings stay
		// replayable after recorder changes.
		return nil
	}
}

// withTarget tries each locator candidate in order: wait briefly for
// visibility (best-effort), then attempt the operation. Coordinate
// candidates dispatch a raw click instead of op.
func (e *Engine) withTarget(d Driver, a *schemas.RecordedAction, op func(browser.Target) error) error {
	candidates := candidateTargets(a)
	if len(candidates) == 0 {
		return fmt.Errorf("no locator available for %s action", a.Type)
	}

	var lastErr error
	for _, t := range candidates {
		if t.Strategy == browser.StrategyCoords {
			if err := d.ClickAt(t.X, t.Y); err != nil {
				lastErr = err
				continue
			}
			return nil
		}
		_ = d.WaitVisible(t, e.cfg.CandidateTimeout)
		if err := op(t); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func (e *Engine) doNavigate(d Driver, a *schemas.RecordedAction) error {
	if a.Value == "" {
		return nil
	}
	if _, err := d.Navigate(a.Value); err != nil {
		return err
	}
	time.Sleep(e.cfg.PostNavSettle)
	return nil
}

// doClick resolves through the full fallback chain and then settles long
// enough for page reactions (menus, validation) before the next action.
func (e *Engine) doClick(d Driver, a *schemas.RecordedAction) error {
	if err := e.withTarget(d, a, d.Click); err != nil {
		return err
	}
	time.Sleep(e.cfg.PostClickSettle)
	return nil
}

func (e *Engine) doExtract(d Driver, a *schemas.RecordedAction, mode browser.ExtractMode, outputKey string, extracted map[string]any) error {
	return e.withTarget(d, a, func(t browser.Target) error {
		value, err := d.Extract(t, mode, "")
		if err != nil {
			return err
		}
		extracted[outputKey] = value
		return nil
	})
}

func (e *Engine) doExtractAttr(d Driver, a *schemas.RecordedAction, extracted map[string]any) error {
	attr := firstNonEmpty(a.AttributeName, a.Value)
	if attr == "" {
		return fmt.Errorf("extract_attribute action missing attribute name")
	}
	outputKey := firstNonEmpty(a.VariableName, a.OutputKey, "extracted_attribute")
	return e.withTarget(d, a, func(t browser.Target) error {
		value, err := d.Extract(t, browser.ExtractAttribute, attr)
		if err != nil {
			return err
		}
		extracted[outputKey] = value
		return nil
	})
}

func (e *Engine) doAIExtract(ctx context.Context, d Driver, a *schemas.RecordedAction, extracted map[string]any) error {
	if e.completer == nil {
		return fmt.Errorf("ai_extract requires a configured LLM provider")
	}
	content, err := d.Content()
	if err != nil {
		return err
	}
	if len(content) > maxAIContentLength {
		content = content[:maxAIContentLength]
	}

	prompt := a.Prompt
	if prompt == "" {
		prompt = "Extract the main content from this page"
	}

	result, err := e.completer.Complete(ctx, fmt.Sprintf("%s\n\nPage content:\n%s", prompt, content))
	if err != nil {
		return err
	}

	outputKey := firstNonEmpty(a.OutputKey, "ai_extracted")
	extracted[outputKey] = result
	return nil
}

func (e *Engine) doAIFill(ctx context.Context, d Driver, a *schemas.RecordedAction, extracted map[string]any) error {
	if e.completer == nil {
		return fmt.Errorf("ai_fill requires a configured LLM provider")
	}
	prompt := a.Prompt
	if prompt == "" {
		prompt = "Generate appropriate content for this field"
	}
	generated, err := e.completer.Complete(ctx, fmt.Sprintf("%s\n\nContext: %v", prompt, extracted))
	if err != nil {
		return err
	}
	return e.withTarget(d, a, func(t browser.Target) error {
		return d.Fill(t, generated)
	})
}

func (e *Engine) doExecuteJS(d Driver, a *schemas.RecordedAction, extracted map[string]any) error {
	if a.JSCode == "" {
		return nil
	}
	result, err := d.Evaluate(a.JSCode)
	if err != nil {
		return err
	}
	if key := firstNonEmpty(a.VariableName, a.OutputKey); key != "" {
		extracted[key] = result
	}
	return nil
}

// substituteVars replaces {{name}} placeholders in fill values with
// extraction-context entries.
func substituteVars(value string, extracted map[string]any) string {
	for key, val := range extracted {
		value = strings.ReplaceAll(value, "{{"+key+"}}", fmt.Sprintf("%v", val))
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
