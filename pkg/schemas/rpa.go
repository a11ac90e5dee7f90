package schemas

// ActionType identifies an atomic operation or control-flow pseudo-type in an
// RPA workflow. The string values are the persisted wire format, so they must
// stay stable across releases.
type ActionType string

const (
	// Browser operations.
	ActionBrowserOpen       ActionType = "browser_open"
	ActionBrowserNavigate   ActionType = "browser_navigate"
	ActionBrowserClick      ActionType = "browser_click"
	ActionBrowserFill       ActionType = "browser_fill"
	ActionBrowserExtract    ActionType = "browser_extract"
	ActionBrowserWait       ActionType = "browser_wait"
	ActionBrowserScreenshot ActionType = "browser_screenshot"
	ActionBrowserClose      ActionType = "browser_close"

	// File operations.
	ActionFileRead   ActionType = "file_read"
	ActionFileWrite  ActionType = "file_write"
	ActionFileExists ActionType = "file_exists"
	ActionFileDelete ActionType = "file_delete"
	ActionFileCopy   ActionType = "file_copy"
	ActionFileMove   ActionType = "file_move"

	// System operations.
	ActionSystemRun    ActionType = "system_run"
	ActionSystemWait   ActionType = "system_wait"
	ActionSystemEnvGet ActionType = "system_env_get"
	ActionSystemEnvSet ActionType = "system_env_set"

	// Keyboard and mouse operations.
	ActionKeyboardType  ActionType = "keyboard_type"
	ActionKeyboardPress ActionType = "keyboard_press"
	ActionMouseClick    ActionType = "mouse_click"
	ActionMouseMove     ActionType = "mouse_move"

	// Control flow pseudo-types. These are interpreted by the engine itself
	// and never resolved through the action registry.
	ActionFlowIf   ActionType = "flow_if"
	ActionFlowLoop ActionType = "flow_loop"
	ActionFlowTry  ActionType = "flow_try"

	// Variable operations.
	ActionVarSet ActionType = "var_set"
	ActionVarGet ActionType = "var_get"
)

// IsControlFlow reports whether the type is handled by the interpreter rather
// than the action registry.
func (t ActionType) IsControlFlow() bool {
	return t == ActionFlowIf || t == ActionFlowLoop || t == ActionFlowTry
}

// ActionParam is a single declared parameter of an action node. Value may be
// any JSON-representable value; a string of the form "${name}" is resolved
// against the execution context at dispatch time.
type ActionParam struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
	Type  string `json:"type,omitempty"` // string, int, float, bool, list, dict
}

// Action is one node of a workflow's action tree. Children and ElseChildren
// are populated only for control-flow types; leaf types never carry children.
type Action struct {
	ID     string        `json:"id"`
	Type   ActionType    `json:"type"`
	Params []ActionParam `json:"params,omitempty"`

	DelayBefore   float64 `json:"delay_before,omitempty"`
	DelayAfter    float64 `json:"delay_after,omitempty"`
	SkipOnError   bool    `json:"skip_on_error,omitempty"`
	RetryCount    int     `json:"retry_count,omitempty"`
	RetryInterval float64 `json:"retry_interval,omitempty"`

	OutputVar string `json:"output_var,omitempty"`

	Children     []Action `json:"children,omitempty"`
	Condition    string   `json:"condition,omitempty"`
	ElseChildren []Action `json:"else_children,omitempty"`
}

// Workflow is a complete RPA workflow definition. It is immutable for the
// duration of a single execution; every execution gets a fresh context.
type Workflow struct {
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Version      string        `json:"version,omitempty"`
	InputParams  []ActionParam `json:"input_params,omitempty"`
	Actions      []Action      `json:"actions"`
	OutputParams []string      `json:"output_params,omitempty"`
}

// ActionResult is one entry of the per-action execution log.
type ActionResult struct {
	ActionID string     `json:"action_id"`
	Type     ActionType `json:"type"`
	Success  bool       `json:"success"`
	Result   any        `json:"result,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// ExecutionResult is the outcome of one workflow execution. It is produced
// once per Execute call and never mutated after return.
type ExecutionResult struct {
	Success       bool           `json:"success"`
	Output        map[string]any `json:"output,omitempty"`
	Error         string         `json:"error,omitempty"`
	Duration      float64        `json:"duration"`
	ActionResults []ActionResult `json:"action_results,omitempty"`
}

// ActionMetadata describes a registered action for discovery surfaces.
type ActionMetadata struct {
	Type        string        `json:"type"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Category    string        `json:"category,omitempty"`
	Params      []ActionParam `json:"params,omitempty"`
	OutputType  string        `json:"output_type,omitempty"`
}
