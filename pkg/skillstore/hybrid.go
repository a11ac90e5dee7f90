// pkg/skillstore/hybrid.go
package skillstore

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/kestrelrpa/kestrel-cli/pkg/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LoadHybridDefinition reads the definition.json sidecar next to a skill's
// SKILL.md. skillPath is the path of the SKILL.md file.
func LoadHybridDefinition(skillPath string) (*schemas.HybridSkillDefinition, error) {
	defPath := filepath.Join(filepath.Dir(skillPath), "definition.json")
	data, err := os.ReadFile(defPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("hybrid definition not found at %s", defPath)
		}
		return nil, err
	}
	var def schemas.HybridSkillDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing hybrid definition %s: %w", defPath, err)
	}
	return &def, nil
}

// SaveHybridDefinition writes the definition.json sidecar into the skill's
// directory. Serialization mirrors the in-memory model exactly so a
// load-save-load cycle is lossless.
func SaveHybridDefinition(skillDir string, def *schemas.HybridSkillDefinition) error {
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(skillDir, "definition.json"), data, 0o644)
}

// LoadWorkflow reads a workflow definition from a JSON document.
func LoadWorkflow(path string) (*schemas.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var wf schemas.Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parsing workflow %s: %w", path, err)
	}
	return &wf, nil
}

// SaveWorkflow writes a workflow definition as a JSON document, creating
// parent directories as needed.
func SaveWorkflow(path string, wf *schemas.Workflow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// StepWorkflowPath is the conventional location of an RPA step's workflow
// definition inside a skill directory.
func StepWorkflowPath(skillPath, stepID string) string {
	return filepath.Join(filepath.Dir(skillPath), "steps", stepID+"_rpa", "workflow.json")
}

// StepScriptPath is the conventional location of a recording step's fallback
// script inside a skill directory.
func StepScriptPath(skillPath, stepID string) string {
	return filepath.Join(filepath.Dir(skillPath), "steps", stepID+"_recording", "script.py")
}
