// pkg/hybrid/executor.go
package hybrid

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kestrelrpa/kestrel-cli/pkg/schemas"
	"github.com/kestrelrpa/kestrel-cli/pkg/skillstore"
)

// WorkflowRunner executes an RPA workflow. *rpa.Engine satisfies it.
type WorkflowRunner interface {
	Execute(ctx context.Context, wf *schemas.Workflow, inputParams map[string]any) *schemas.ExecutionResult
}

// Replayer executes recorded actions headlessly. *replay.Engine satisfies it.
type Replayer interface {
	ExecuteHeadless(ctx context.Context, actions []schemas.RecordedAction, startURL string, inputs map[string]any) *schemas.ReplayResult
}

// TextCompleter produces a completion for a natural-language prompt.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// SkillStore looks up stored skills by name for skill-reference steps.
type SkillStore interface {
	Get(name string) (*skillstore.Skill, error)
}

// ScriptRunner executes an external step script with step inputs.
type ScriptRunner interface {
	Run(ctx context.Context, scriptPath string, inputs map[string]any) (any, error)
}

// Executor runs hybrid skills: ordered heterogeneous steps sharing one
// variable context, with per-step delay/retry/skip policy and recursion into
// referenced hybrid skills.
type Executor struct {
	workflows WorkflowRunner
	replayer  Replayer
	completer TextCompleter
	skills    SkillStore
	scripts   ScriptRunner
	maxDepth  int
	logger    *zap.Logger
}

// NewExecutor wires the executor's sub-dispatchers. Any dependency may be
// nil; steps requiring it then fail with a clear error. maxDepth bounds
// skill-reference recursion so cyclic skill graphs fail cleanly.
func NewExecutor(logger *zap.Logger, workflows WorkflowRunner, replayer Replayer, completer TextCompleter, skills SkillStore, scripts ScriptRunner, maxDepth int) *Executor {
	if maxDepth <= 0 {
		maxDepth = 8
	}
	return &Executor{
		workflows: workflows,
		replayer:  replayer,
		completer: completer,
		skills:    skills,
		scripts:   scripts,
		maxDepth:  maxDepth,
		logger:    logger.Named("hybrid"),
	}
}

// executionContext is the shared variable state of one hybrid execution.
type executionContext struct {
	variables   map[string]any
	stepResults []schemas.HybridStepResult
}

func newExecutionContext(params map[string]any) *executionContext {
	vars := make(map[string]any, len(params))
	for k, v := range params {
		vars[k] = v
	}
	return &executionContext{variables: vars}
}

func (c *executionContext) allVariables() map[string]any {
	out := make(map[string]any, len(c.variables))
	for k, v := range c.variables {
		out[k] = v
	}
	return out
}

// resolveInputMappings binds each non-null source variable to its target
// parameter name for the step's dispatch inputs.
func (c *executionContext) resolveInputMappings(step *schemas.HybridStep) map[string]any {
	resolved := make(map[string]any)
	for _, m := range step.InputMappings {
		if value, ok := c.variables[m.SourceVar]; ok && value != nil {
			resolved[m.TargetParam] = value
		}
	}
	return resolved
}

// Execute runs a hybrid skill definition. params are the caller's inputs
// (highest priority, no defaulting layer). skillPath is the path of the
// skill's SKILL.md, used to locate per-step workflow and script files; it
// may be empty for inline definitions. The method never lets a panic or
// error escape: it always returns a well-formed result.
func (e *Executor) Execute(ctx context.Context, def *schemas.HybridSkillDefinition, params map[string]any, skillPath string) *schemas.HybridExecutionResult {
	return e.execute(ctx, def, params, skillPath, 0)
}

func (e *Executor) execute(ctx context.Context, def *schemas.HybridSkillDefinition, params map[string]any, skillPath string, depth int) (result *schemas.HybridExecutionResult) {
	start := time.Now()
	ec := newExecutionContext(params)

	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("Hybrid execution panicked",
				zap.String("skill", def.Name),
				zap.Any("panic", rec))
			result = &schemas.HybridExecutionResult{
				Success:     false,
				Output:      ec.allVariables(),
				Error:       fmt.Sprintf("internal error: %v", rec),
				Duration:    time.Since(start).Seconds(),
				StepResults: ec.stepResults,
			}
		}
	}()

	e.logger.Info("Executing hybrid skill",
		zap.String("skill", def.Name),
		zap.Int("steps", len(def.Steps)))

	for i := range def.Steps {
		step := &def.Steps[i]
		stepResult := e.executeStep(ctx, step, ec, skillPath, depth)
		ec.stepResults = append(ec.stepResults, stepResult)

		if step.OutputVar != "" && stepResult.Output != nil {
			ec.variables[step.OutputVar] = stepResult.Output
		}

		if !stepResult.Success && !step.SkipOnError {
			return &schemas.HybridExecutionResult{
				Success:     false,
				Output:      ec.allVariables(),
				Error:       fmt.Sprintf("Step '%s' failed: %s", step.Name, stepResult.Error),
				Duration:    time.Since(start).Seconds(),
				StepResults: ec.stepResults,
			}
		}
	}

	return &schemas.HybridExecutionResult{
		Success:     true,
		Output:      e.buildOutput(def, ec),
		Duration:    time.Since(start).Seconds(),
		StepResults: ec.stepResults,
	}
}

// buildOutput projects the declared output params (omitting null/absent
// values), or returns the full variable mapping when none are declared.
func (e *Executor) buildOutput(def *schemas.HybridSkillDefinition, ec *executionContext) map[string]any {
	if len(def.OutputParams) == 0 {
		return ec.allVariables()
	}
	out := make(map[string]any, len(def.OutputParams))
	for _, name := range def.OutputParams {
		if value, ok := ec.variables[name]; ok && value != nil {
			out[name] = value
		}
	}
	return out
}

// executeStep applies the step's delay/retry policy around its dispatch. The
// retry shape mirrors the action wrapper's: retry_count+1 total attempts
// with retry_interval sleeps between failed attempts.
func (e *Executor) executeStep(ctx context.Context, step *schemas.HybridStep, ec *executionContext, skillPath string, depth int) schemas.HybridStepResult {
	start := time.Now()

	if step.DelayBefore > 0 {
		sleepSeconds(step.DelayBefore)
	}

	inputs := ec.resolveInputMappings(step)

	// A negative retry_count in a loaded definition still means one attempt.
	retries := step.RetryCount
	if retries < 0 {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		output, err := e.dispatchStep(ctx, step, inputs, skillPath, depth)
		if err == nil {
			if step.DelayAfter > 0 {
				sleepSeconds(step.DelayAfter)
			}
			return schemas.HybridStepResult{
				StepID:   step.ID,
				StepType: step.Type,
				Success:  true,
				Output:   output,
				Duration: time.Since(start).Seconds(),
			}
		}
		lastErr = err
		if attempt < retries {
			sleepSeconds(step.RetryInterval)
		}
	}

	return schemas.HybridStepResult{
		StepID:   step.ID,
		StepType: step.Type,
		Success:  false,
		Error:    lastErr.Error(),
		Duration: time.Since(start).Seconds(),
	}
}

func (e *Executor) dispatchStep(ctx context.Context, step *schemas.HybridStep, inputs map[string]any, skillPath string, depth int) (any, error) {
	switch step.Type {
	case schemas.StepRecording:
		return e.runRecordingStep(ctx, step, inputs, skillPath)
	case schemas.StepNaturalLanguage:
		return e.runNaturalLanguageStep(ctx, step, inputs)
	case schemas.StepRPA:
		return e.runRPAStep(ctx, step, inputs, skillPath)
	case schemas.StepSkillRef:
		return e.runSkillRefStep(ctx, step, inputs, depth)
	default:
		return nil, fmt.Errorf("unknown step type: %s", step.Type)
	}
}

// runRecordingStep replays inline recorded actions when present, otherwise
// falls back to an externally stored step script.
func (e *Executor) runRecordingStep(ctx context.Context, step *schemas.HybridStep, inputs map[string]any, skillPath string) (any, error) {
	if len(step.Actions) > 0 {
		if e.replayer == nil {
			return nil, fmt.Errorf("recording step '%s' requires a replay engine", step.Name)
		}
		result := e.replayer.ExecuteHeadless(ctx, step.Actions, step.StartURL, inputs)
		if !result.Success {
			return nil, fmt.Errorf("%s", firstNonEmpty(result.Error, "recorded action replay failed"))
		}
		return result.Extracted, nil
	}

	scriptPath := step.ScriptPath
	if scriptPath == "" && skillPath != "" {
		scriptPath = skillstore.StepScriptPath(skillPath, step.ID)
	}
	if scriptPath == "" {
		return nil, fmt.Errorf("recording actions or script not found for step '%s'", step.Name)
	}
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, fmt.Errorf("recording actions or script not found for step '%s'", step.Name)
	}
	if e.scripts == nil {
		return nil, fmt.Errorf("recording step '%s' requires a script runner", step.Name)
	}
	return e.scripts.Run(ctx, scriptPath, inputs)
}

// runNaturalLanguageStep assembles one prompt from the step's instructions,
// resolved inputs, and context hints, and returns the raw completion text.
func (e *Executor) runNaturalLanguageStep(ctx context.Context, step *schemas.HybridStep, inputs map[string]any) (any, error) {
	if e.completer == nil {
		return nil, fmt.Errorf("natural-language step '%s' requires a configured LLM provider", step.Name)
	}

	var b strings.Builder
	b.WriteString(step.Instructions)

	if len(inputs) > 0 {
		b.WriteString("\n\nInput variables:")
		for key, value := range inputs {
			fmt.Fprintf(&b, "\n- %s: %v", key, value)
		}
	}
	if len(step.ContextHints) > 0 {
		b.WriteString("\n\nContext hints:")
		for _, hint := range step.ContextHints {
			fmt.Fprintf(&b, "\n- %s", hint)
		}
	}

	return e.completer.Complete(ctx, b.String())
}

// runRPAStep loads a workflow from the inline definition, a referenced file,
// or the conventional per-step directory, and feeds it to the RPA engine. An
// inner failure converts to an error so the step retry/skip policy applies.
func (e *Executor) runRPAStep(ctx context.Context, step *schemas.HybridStep, inputs map[string]any, skillPath string) (any, error) {
	if e.workflows == nil {
		return nil, fmt.Errorf("rpa step '%s' requires a workflow engine", step.Name)
	}

	wf := step.Workflow
	if wf == nil && step.WorkflowPath != "" {
		loaded, err := skillstore.LoadWorkflow(step.WorkflowPath)
		if err == nil {
			wf = loaded
		}
	}
	if wf == nil && skillPath != "" {
		path := skillstore.StepWorkflowPath(skillPath, step.ID)
		if loaded, err := skillstore.LoadWorkflow(path); err == nil {
			wf = loaded
		}
	}
	if wf == nil {
		return nil, fmt.Errorf("rpa workflow not found for step '%s'", step.Name)
	}

	result := e.workflows.Execute(ctx, wf, inputs)
	if !result.Success {
		return nil, fmt.Errorf("%s", firstNonEmpty(result.Error, "RPA execution failed"))
	}
	return result.Output, nil
}

// runSkillRefStep looks up another skill by name, merges the resolved inputs
// with the step's static overrides (overrides win), and recurses into this
// executor when the referenced skill is hybrid.
func (e *Executor) runSkillRefStep(ctx context.Context, step *schemas.HybridStep, inputs map[string]any, depth int) (any, error) {
	if e.skills == nil {
		return nil, fmt.Errorf("skill_ref step '%s' requires a skill store", step.Name)
	}

	skill, err := e.skills.Get(step.SkillName)
	if err != nil {
		return nil, fmt.Errorf("referenced skill '%s' not found", step.SkillName)
	}

	merged := make(map[string]any, len(inputs)+len(step.ParamOverrides))
	for k, v := range inputs {
		merged[k] = v
	}
	for k, v := range step.ParamOverrides {
		merged[k] = v
	}

	if !skillstore.IsHybrid(skill.Content) {
		return e.runPlainSkill(ctx, skill, merged)
	}

	if depth+1 >= e.maxDepth {
		return nil, fmt.Errorf("skill reference depth limit (%d) exceeded at '%s'; check for cyclic skill references", e.maxDepth, step.SkillName)
	}

	def, err := skillstore.LoadHybridDefinition(skill.Path)
	if err != nil {
		return nil, fmt.Errorf("could not load hybrid skill definition for '%s': %w", step.SkillName, err)
	}

	result := e.execute(ctx, def, merged, skill.Path, depth+1)
	if !result.Success {
		return nil, fmt.Errorf("%s", firstNonEmpty(result.Error, "nested hybrid skill execution failed"))
	}
	return result.Output, nil
}

// runPlainSkill executes a non-hybrid referenced skill by its declared type:
// "rpa" skills run the workflow.json next to their SKILL.md, "browser" skills
// run their sidecar script. Other types have no direct execution path.
func (e *Executor) runPlainSkill(ctx context.Context, skill *skillstore.Skill, params map[string]any) (any, error) {
	fm, _ := skillstore.ParseFrontmatter(skill.Content)
	dir := filepath.Dir(skill.Path)

	switch fm.Type {
	case "rpa":
		if e.workflows == nil {
			return nil, fmt.Errorf("rpa skill '%s' requires a workflow engine", skill.Name)
		}
		wf, err := skillstore.LoadWorkflow(filepath.Join(dir, "workflow.json"))
		if err != nil {
			return nil, fmt.Errorf("workflow file not found for skill '%s': %w", skill.Name, err)
		}
		result := e.workflows.Execute(ctx, wf, params)
		if !result.Success {
			return nil, fmt.Errorf("%s", firstNonEmpty(result.Error, "RPA execution failed"))
		}
		return result.Output, nil
	case "browser":
		if e.scripts == nil {
			return nil, fmt.Errorf("browser skill '%s' requires a script runner", skill.Name)
		}
		scriptPath := filepath.Join(dir, "script.py")
		if _, err := os.Stat(scriptPath); err != nil {
			return nil, fmt.Errorf("script file not found: %s", scriptPath)
		}
		return e.scripts.Run(ctx, scriptPath, params)
	default:
		return nil, fmt.Errorf("skill '%s' has no executable type (%q)", skill.Name, fm.Type)
	}
}

func sleepSeconds(s float64) {
	time.Sleep(time.Duration(s * float64(time.Second)))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
