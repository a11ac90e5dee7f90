package schemas

// StepType discriminates the variants of a hybrid step.
type StepType string

const (
	StepRecording       StepType = "recording"
	StepNaturalLanguage StepType = "natural_language"
	StepRPA             StepType = "rpa"
	StepSkillRef        StepType = "skill_ref"
)

// VariableMapping binds a context variable to a step parameter.
type VariableMapping struct {
	SourceVar   string `json:"source_var"`
	TargetParam string `json:"target_param"`
}

// HybridStep is one step of a hybrid skill. The struct is a tagged union
// discriminated by Type: exactly one group of the variant-specific fields is
// populated, matching the serialized form of the skill document.
type HybridStep struct {
	ID          string   `json:"id"`
	Type        StepType `json:"type"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`

	InputMappings []VariableMapping `json:"input_mappings,omitempty"`
	OutputVar     string            `json:"output_var,omitempty"`

	SkipOnError   bool    `json:"skip_on_error,omitempty"`
	RetryCount    int     `json:"retry_count,omitempty"`
	RetryInterval float64 `json:"retry_interval,omitempty"`
	DelayBefore   float64 `json:"delay_before,omitempty"`
	DelayAfter    float64 `json:"delay_after,omitempty"`

	// Recording variant.
	Actions    []RecordedAction `json:"actions,omitempty"`
	StartURL   string           `json:"start_url,omitempty"`
	ScriptPath string           `json:"script_path,omitempty"`

	// Natural-language variant.
	Instructions string   `json:"instructions,omitempty"`
	ContextHints []string `json:"context_hints,omitempty"`

	// RPA variant.
	Workflow     *Workflow `json:"workflow,omitempty"`
	WorkflowPath string    `json:"workflow_path,omitempty"`

	// Skill-reference variant.
	SkillName      string         `json:"skill_name,omitempty"`
	ParamOverrides map[string]any `json:"param_overrides,omitempty"`
}

// HybridSkillDefinition is a complete hybrid skill document.
type HybridSkillDefinition struct {
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Version      string        `json:"version,omitempty"`
	InputParams  []ActionParam `json:"input_params,omitempty"`
	Steps        []HybridStep  `json:"steps"`
	OutputParams []string      `json:"output_params,omitempty"`
}

// HybridStepResult is one entry of the per-step execution log.
type HybridStepResult struct {
	StepID   string   `json:"step_id"`
	StepType StepType `json:"step_type"`
	Success  bool     `json:"success"`
	Output   any      `json:"output,omitempty"`
	Error    string   `json:"error,omitempty"`
	Duration float64  `json:"duration"`
	Skipped  bool     `json:"skipped,omitempty"`
}

// HybridExecutionResult is the outcome of one hybrid skill execution.
type HybridExecutionResult struct {
	Success     bool               `json:"success"`
	Output      map[string]any     `json:"output,omitempty"`
	Error       string             `json:"error,omitempty"`
	Duration    float64            `json:"duration"`
	StepResults []HybridStepResult `json:"step_results,omitempty"`
}
