// internal/orchestrator/orchestrator.go
// Manages the high-level lifecycle of workflow, skill, and replay executions.
// It is injected with a configuration and wires the engine components once at
// startup; every execution borrows a slot from the shared bounded pool.

package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kestrelrpa/kestrel-cli/internal/config"
	"github.com/kestrelrpa/kestrel-cli/pkg/browser"
	"github.com/kestrelrpa/kestrel-cli/pkg/hybrid"
	"github.com/kestrelrpa/kestrel-cli/pkg/llmclient"
	"github.com/kestrelrpa/kestrel-cli/pkg/replay"
	"github.com/kestrelrpa/kestrel-cli/pkg/rpa"
	"github.com/kestrelrpa/kestrel-cli/pkg/schemas"
	"github.com/kestrelrpa/kestrel-cli/pkg/scriptrunner"
	"github.com/kestrelrpa/kestrel-cli/pkg/skillstore"
)

// Orchestrator owns the engine components and the execution pool. One
// instance is created at application start and shared by all commands.
type Orchestrator struct {
	cfg    *config.Config
	logger *zap.Logger

	registry  *rpa.Registry
	engine    *rpa.Engine
	replayer  *replay.Engine
	executor  *hybrid.Executor
	skills    *skillstore.Store
	completer llmclient.TextCompleter

	pool *Pool
}

// New wires all engine components from the configuration. The LLM client is
// optional: without an API key, natural-language and AI-assisted steps fail
// at dispatch with a clear error instead of at startup.
func New(cfg *config.Config, logger *zap.Logger) (*Orchestrator, error) {
	if cfg == nil || logger == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}

	var completer llmclient.TextCompleter
	if cfg.LLM.APIKey != "" {
		client, err := llmclient.NewClient(cfg.LLM, logger)
		if err != nil {
			return nil, fmt.Errorf("initializing LLM client: %w", err)
		}
		completer = client
	} else {
		logger.Debug("No LLM API key configured; AI-assisted steps disabled")
	}

	skills, err := skillstore.NewStore(cfg.Skills, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing skill store: %w", err)
	}

	registry := rpa.NewRegistry()

	pageFactory := func(ctx context.Context, opts browser.OpenOptions) (rpa.PageDriver, error) {
		return browser.NewSession(ctx, logger, cfg.Browser, opts)
	}
	engine := rpa.NewEngine(logger, registry, pageFactory)

	replayFactory := func(ctx context.Context, opts browser.OpenOptions) (replay.Driver, error) {
		return browser.NewSession(ctx, logger, cfg.Browser, opts)
	}
	replayer := replay.NewEngine(logger, cfg.Replay, replayFactory, completer)

	scripts := scriptrunner.NewRunner(cfg.Skills.ScriptTimeout, logger)

	executor := hybrid.NewExecutor(logger, engine, replayer, completer, skills, scripts, cfg.Engine.MaxSkillRefDepth)

	return &Orchestrator{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		engine:    engine,
		replayer:  replayer,
		executor:  executor,
		skills:    skills,
		completer: completer,
		pool:      NewPool(cfg.Engine.WorkerConcurrency),
	}, nil
}

// Registry exposes the action registry for discovery surfaces.
func (o *Orchestrator) Registry() *rpa.Registry { return o.registry }

// Skills exposes the skill store.
func (o *Orchestrator) Skills() *skillstore.Store { return o.skills }

// ExecuteWorkflow runs an RPA workflow under a pool slot.
func (o *Orchestrator) ExecuteWorkflow(ctx context.Context, wf *schemas.Workflow, params map[string]any) (*schemas.ExecutionResult, error) {
	taskID := uuid.NewString()
	o.logger.Info("Starting workflow execution",
		zap.String("task_id", taskID),
		zap.String("workflow", wf.Name))

	var result *schemas.ExecutionResult
	if err := o.pool.Run(ctx, func() {
		result = o.engine.Execute(ctx, wf, params)
	}); err != nil {
		return nil, err
	}

	o.logger.Info("Workflow execution finished",
		zap.String("task_id", taskID),
		zap.Bool("success", result.Success))
	return result, nil
}

// ExecuteSkill looks up a skill by name and runs it. Hybrid skills run
// through the hybrid executor; plain skills are rejected here because they
// have no standalone execution surface at the CLI.
func (o *Orchestrator) ExecuteSkill(ctx context.Context, name string, params map[string]any) (*schemas.HybridExecutionResult, error) {
	skill, err := o.skills.Get(name)
	if err != nil {
		return nil, err
	}
	if !skillstore.IsHybrid(skill.Content) {
		return nil, fmt.Errorf("skill %q is not a hybrid skill", name)
	}
	def, err := skillstore.LoadHybridDefinition(skill.Path)
	if err != nil {
		return nil, err
	}

	taskID := uuid.NewString()
	o.logger.Info("Starting hybrid skill execution",
		zap.String("task_id", taskID),
		zap.String("skill", name))

	var result *schemas.HybridExecutionResult
	if err := o.pool.Run(ctx, func() {
		result = o.executor.Execute(ctx, def, params, skill.Path)
	}); err != nil {
		return nil, err
	}

	o.logger.Info("Hybrid skill execution finished",
		zap.String("task_id", taskID),
		zap.Bool("success", result.Success))
	return result, nil
}

// PreviewActions replays recorded actions in a visible browser under a pool
// slot, aborting on the first failure.
func (o *Orchestrator) PreviewActions(ctx context.Context, actions []schemas.RecordedAction, storageStatePath string) (*schemas.PreviewResult, error) {
	var (
		result *schemas.PreviewResult
		runErr error
	)
	if err := o.pool.Run(ctx, func() {
		result, runErr = o.replayer.Preview(ctx, actions, storageStatePath)
	}); err != nil {
		return nil, err
	}
	return result, runErr
}

// ExecuteActionsHeadless replays recorded actions headlessly under a pool
// slot with best-effort continuation.
func (o *Orchestrator) ExecuteActionsHeadless(ctx context.Context, actions []schemas.RecordedAction, startURL string, inputs map[string]any) (*schemas.ReplayResult, error) {
	var result *schemas.ReplayResult
	if err := o.pool.Run(ctx, func() {
		result = o.replayer.ExecuteHeadless(ctx, actions, startURL, inputs)
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// Close releases long-lived resources.
func (o *Orchestrator) Close() error {
	if o.completer != nil {
		return o.completer.Close()
	}
	return nil
}
