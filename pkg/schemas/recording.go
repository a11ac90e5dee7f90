package schemas

// RecordedActionType identifies a browser action captured during a recording
// session.
type RecordedActionType string

const (
	RecordedNavigate    RecordedActionType = "navigate"
	RecordedClick       RecordedActionType = "click"
	RecordedFill        RecordedActionType = "fill"
	RecordedPress       RecordedActionType = "press"
	RecordedSelect      RecordedActionType = "select"
	RecordedCheck       RecordedActionType = "check"
	RecordedUncheck     RecordedActionType = "uncheck"
	RecordedScroll      RecordedActionType = "scroll"
	RecordedHover       RecordedActionType = "hover"
	RecordedExtract     RecordedActionType = "extract"
	RecordedExtractText RecordedActionType = "extract_text"
	RecordedExtractHTML RecordedActionType = "extract_html"
	RecordedExtractAttr RecordedActionType = "extract_attribute"
	RecordedAIExtract   RecordedActionType = "ai_extract"
	RecordedAIFill      RecordedActionType = "ai_fill"
	RecordedExecuteJS   RecordedActionType = "execute_js"
)

// Accessibility carries the recorded ARIA role and accessible name of the
// target element.
type Accessibility struct {
	Role string `json:"role,omitempty"`
	Name string `json:"name,omitempty"`
}

// RecordedContext holds auxiliary DOM context captured at record time, used by
// diagnostic surfaces and future locator repair.
type RecordedContext struct {
	NearbyText   string   `json:"nearby_text,omitempty"`
	AncestorTags []string `json:"ancestor_tags,omitempty"`
	FormHint     string   `json:"form_hint,omitempty"`
}

// Evidence records the recorder's confidence in the captured locators.
type Evidence struct {
	Confidence float64 `json:"confidence,omitempty"`
}

// RecordedAction is one captured UI action. It carries several redundant
// locator descriptors so replay can fall back between them when the page has
// changed since recording. Immutable once captured.
type RecordedAction struct {
	Type     RecordedActionType `json:"type"`
	Selector string             `json:"selector,omitempty"`
	XPath    string             `json:"xpath,omitempty"`
	Value    string             `json:"value,omitempty"`

	// Timestamp is either session-relative seconds or epoch milliseconds;
	// values above the replay engine's threshold are treated as epoch ms.
	Timestamp float64 `json:"timestamp"`

	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`

	RobustSelector string           `json:"robust_selector,omitempty"`
	Accessibility  *Accessibility   `json:"accessibility,omitempty"`
	Context        *RecordedContext `json:"context,omitempty"`
	Evidence       *Evidence        `json:"evidence,omitempty"`

	// AI / extraction fields.
	Prompt        string `json:"prompt,omitempty"`
	JSCode        string `json:"js_code,omitempty"`
	AttributeName string `json:"attribute_name,omitempty"`
	VariableName  string `json:"variable_name,omitempty"`
	OutputKey     string `json:"output_key,omitempty"`
}

// ReplayResult is the outcome of a headless replay run.
type ReplayResult struct {
	Success   bool           `json:"success"`
	URL       string         `json:"url,omitempty"`
	Title     string         `json:"title,omitempty"`
	Extracted map[string]any `json:"extracted,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// PreviewResult is the outcome of an interactive preview replay.
type PreviewResult struct {
	URL       string         `json:"url"`
	Title     string         `json:"title"`
	Extracted map[string]any `json:"extracted,omitempty"`
}
