// pkg/rpa/engine.go
package rpa

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kestrelrpa/kestrel-cli/pkg/schemas"
)

// Engine is the tree-walking workflow interpreter. It executes action nodes
// in order, routes control-flow pseudo-types itself, and dispatches every
// leaf type through the registry.
type Engine struct {
	registry *Registry
	factory  DriverFactory
	logger   *zap.Logger
}

// NewEngine creates an interpreter over the given registry. factory may be
// nil for workflows that never touch a browser.
func NewEngine(logger *zap.Logger, registry *Registry, factory DriverFactory) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{registry: registry, factory: factory, logger: logger}
}

// run is the mutable state of one Execute call.
type run struct {
	engine  *Engine
	ctx     context.Context
	ec      *Context
	results []schemas.ActionResult
}

// Execute runs a workflow against the given input parameters. Explicit
// inputs win over workflow-declared defaults. The browser handle, if one was
// opened, is released before return on every exit path, and a panic inside
// an action is converted into a failed result rather than escaping.
func (e *Engine) Execute(ctx context.Context, wf *schemas.Workflow, inputParams map[string]any) (result *schemas.ExecutionResult) {
	start := time.Now()

	r := &run{
		engine: e,
		ctx:    ctx,
		ec:     NewContext(ctx, e.logger, e.factory),
	}
	defer r.ec.Cleanup()

	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("Workflow execution panicked",
				zap.String("workflow", wf.Name),
				zap.Any("panic", rec))
			result = &schemas.ExecutionResult{
				Success:       false,
				Error:         fmt.Sprintf("internal error: %v", rec),
				Duration:      time.Since(start).Seconds(),
				ActionResults: r.results,
			}
		}
	}()

	for k, v := range inputParams {
		r.ec.SetVar(k, v)
	}
	for _, p := range wf.InputParams {
		if !r.ec.HasVar(p.Key) {
			r.ec.SetVar(p.Key, p.Value)
		}
	}

	e.logger.Info("Executing workflow",
		zap.String("workflow", wf.Name),
		zap.Int("actions", len(wf.Actions)))

	_, err := r.runSequence(wf.Actions)
	if err != nil {
		e.logger.Warn("Workflow execution failed",
			zap.String("workflow", wf.Name),
			zap.Error(err))
		return &schemas.ExecutionResult{
			Success:       false,
			Error:         err.Error(),
			Duration:      time.Since(start).Seconds(),
			ActionResults: r.results,
		}
	}

	return &schemas.ExecutionResult{
		Success:       true,
		Output:        r.projectOutput(wf),
		Duration:      time.Since(start).Seconds(),
		ActionResults: r.results,
	}
}

// projectOutput reads each declared output name from the context, omitting
// absent keys. With no declared outputs the full variable mapping is
// returned.
func (r *run) projectOutput(wf *schemas.Workflow) map[string]any {
	if len(wf.OutputParams) == 0 {
		return r.ec.Variables()
	}
	out := make(map[string]any, len(wf.OutputParams))
	for _, name := range wf.OutputParams {
		if r.ec.HasVar(name) {
			out[name] = r.ec.GetVar(name, nil)
		}
	}
	return out
}

// runSequence executes actions in order, aborting on the first unhandled
// failure. It returns the result of the last executed action.
func (r *run) runSequence(actions []schemas.Action) (any, error) {
	var last any
	for i := range actions {
		result, err := r.executeNode(&actions[i])
		if err != nil {
			return nil, err
		}
		last = result
	}
	return last, nil
}

func (r *run) executeNode(a *schemas.Action) (any, error) {
	if err := r.ctx.Err(); err != nil {
		return nil, err
	}

	var (
		result any
		err    error
	)
	switch a.Type {
	case schemas.ActionFlowIf:
		result, err = r.execIf(a)
	case schemas.ActionFlowLoop:
		result, err = r.execLoop(a)
	case schemas.ActionFlowTry:
		result, err = r.execTry(a)
	default:
		result, err = r.execLeaf(a)
	}

	r.record(a, result, err)
	if err != nil {
		return nil, err
	}
	if a.OutputVar != "" && result != nil {
		r.ec.SetVar(a.OutputVar, result)
	}
	return result, nil
}

func (r *run) execLeaf(a *schemas.Action) (any, error) {
	handler, err := r.engine.registry.Get(string(a.Type))
	if err != nil {
		return nil, err
	}
	params := r.resolveParams(a.Params)
	return handler(r.ec, params, CallOptions{
		DelayBefore:   a.DelayBefore,
		DelayAfter:    a.DelayAfter,
		RetryCount:    a.RetryCount,
		RetryInterval: a.RetryInterval,
		SkipOnError:   a.SkipOnError,
	})
}

func (r *run) execIf(a *schemas.Action) (any, error) {
	if r.truthy(r.ec.Resolve(a.Condition)) {
		return r.runSequence(a.Children)
	}
	return r.runSequence(a.ElseChildren)
}

func (r *run) execLoop(a *schemas.Action) (any, error) {
	params := r.resolveParams(a.Params)

	itemVar := stringParam(params, "item_var", "item")
	items, _ := params["items"].([]any)

	var last any
	if len(items) > 0 {
		for i, item := range items {
			r.ec.SetVar(itemVar, item)
			r.ec.SetVar("loop_index", i)
			result, err := r.runSequence(a.Children)
			if err != nil {
				return nil, err
			}
			last = result
		}
		return last, nil
	}

	count := intParam(params, "count", 0)
	for i := 0; i < count; i++ {
		r.ec.SetVar("loop_index", i)
		result, err := r.runSequence(a.Children)
		if err != nil {
			return nil, err
		}
		last = result
	}
	return last, nil
}

// execTry never propagates a failure. A failing try branch binds the error
// text to the reserved "error" variable and runs the catch branch; a failing
// catch branch is absorbed as well.
func (r *run) execTry(a *schemas.Action) (any, error) {
	result, err := r.runSequence(a.Children)
	if err == nil {
		return result, nil
	}

	r.ec.SetVar("error", err.Error())
	result, catchErr := r.runSequence(a.ElseChildren)
	if catchErr != nil {
		r.engine.logger.Warn("Catch branch failed",
			zap.String("action_id", a.ID),
			zap.Error(catchErr))
		return nil, nil
	}
	return result, nil
}

func (r *run) resolveParams(declared []schemas.ActionParam) map[string]any {
	params := make(map[string]any, len(declared))
	for _, p := range declared {
		params[p.Key] = r.ec.Resolve(p.Value)
	}
	return params
}

func (r *run) record(a *schemas.Action, result any, err error) {
	entry := schemas.ActionResult{
		ActionID: a.ID,
		Type:     a.Type,
		Success:  err == nil,
		Result:   result,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	r.results = append(r.results, entry)
}

// truthy evaluates a condition value. Strings recognize the literal
// true/false forms case-insensitively; any other string is looked up as a
// variable name and the variable's value is judged instead.
func (r *run) truthy(v any) bool {
	s, ok := v.(string)
	if !ok {
		return valueTruthy(v)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1":
		return true
	case "false", "no", "0", "":
		return false
	}
	if r.ec.HasVar(s) {
		return valueTruthy(r.ec.GetVar(s, nil))
	}
	return false
}

func valueTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != "" && !strings.EqualFold(t, "false") && t != "0"
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
