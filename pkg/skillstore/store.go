// pkg/skillstore/store.go
package skillstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kestrelrpa/kestrel-cli/internal/config"
)

// ErrSkillNotFound is returned by Get and Delete for unknown skill names.
var ErrSkillNotFound = errors.New("skill not found")

// Skill is a stored skill: a named directory holding a SKILL.md document and
// optional sidecar files (a hybrid definition, per-step workflows/scripts).
type Skill struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Path        string `json:"path"`   // absolute path to the SKILL.md file
	Source      string `json:"source"` // "user" or "project"
	Content     string `json:"content,omitempty"`
}

// Frontmatter is the leading YAML metadata block of a SKILL.md document. The
// Type field classifies the skill; "hybrid" skills carry a definition.json
// sidecar.
type Frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Type        string `yaml:"type"`
	Version     string `yaml:"version"`
}

var frontmatterRe = regexp.MustCompile(`(?s)^---\s*\n(.*?)\n---`)

// ParseFrontmatter extracts the leading YAML metadata block from skill
// content. The second return value is false when no well-formed block exists.
func ParseFrontmatter(content string) (Frontmatter, bool) {
	m := frontmatterRe.FindStringSubmatch(content)
	if m == nil {
		return Frontmatter{}, false
	}
	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(m[1]), &fm); err != nil {
		return Frontmatter{}, false
	}
	return fm, true
}

// IsHybrid reports whether skill content declares type "hybrid" in its
// frontmatter.
func IsHybrid(content string) bool {
	fm, ok := ParseFrontmatter(content)
	return ok && fm.Type == "hybrid"
}

const maxSkillNameLength = 64

var skillNameRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidateName enforces the skill naming rules: lowercase alphanumeric with
// single hyphens, no path components, at most 64 characters.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name cannot be empty")
	}
	if len(name) > maxSkillNameLength {
		return fmt.Errorf("name cannot exceed %d characters", maxSkillNameLength)
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return errors.New("name cannot contain path components")
	}
	if !skillNameRe.MatchString(name) {
		return errors.New("name must be lowercase alphanumeric with single hyphens only")
	}
	return nil
}

// Store reads and writes skills under a user directory and an optional
// project directory. Project skills shadow user skills of the same name.
type Store struct {
	userDir    string
	projectDir string
	logger     *zap.Logger
}

// NewStore creates a store over the configured skill directories. The user
// directory supports "~" expansion.
func NewStore(cfg config.SkillsConfig, logger *zap.Logger) (*Store, error) {
	userDir, err := homedir.Expand(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("expanding skills dir: %w", err)
	}
	return &Store{
		userDir:    userDir,
		projectDir: cfg.ProjectDir,
		logger:     logger.Named("skillstore"),
	}, nil
}

// List returns all known skills sorted by name, without content. With
// projectOnly set, user skills are excluded.
func (s *Store) List(projectOnly bool) ([]Skill, error) {
	byName := make(map[string]Skill)

	if !projectOnly {
		for _, sk := range s.scanDir(s.userDir, "user") {
			byName[sk.Name] = sk
		}
	}
	// Project skills shadow user skills of the same name.
	for _, sk := range s.scanDir(s.projectDir, "project") {
		byName[sk.Name] = sk
	}

	out := make([]Skill, 0, len(byName))
	for _, sk := range byName {
		out = append(out, sk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// scanDir enumerates <dir>/<name>/SKILL.md entries. A missing or unreadable
// directory yields no skills.
func (s *Store) scanDir(dir, source string) []Skill {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var skills []Skill
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		skillMD := filepath.Join(dir, e.Name(), "SKILL.md")
		data, err := os.ReadFile(skillMD)
		if err != nil {
			continue
		}
		sk := Skill{Name: e.Name(), Path: skillMD, Source: source}
		if fm, ok := ParseFrontmatter(string(data)); ok {
			if fm.Name != "" {
				sk.Name = fm.Name
			}
			sk.Description = fm.Description
		}
		skills = append(skills, sk)
	}
	return skills
}

// Get returns a skill by name with its full content loaded, or
// ErrSkillNotFound.
func (s *Store) Get(name string) (*Skill, error) {
	skills, err := s.List(false)
	if err != nil {
		return nil, err
	}
	for i := range skills {
		if skills[i].Name != name {
			continue
		}
		data, err := os.ReadFile(skills[i].Path)
		if err != nil {
			return nil, fmt.Errorf("reading skill %q: %w", name, err)
		}
		skills[i].Content = string(data)
		return &skills[i], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrSkillNotFound, name)
}

// Create writes a new skill directory with a SKILL.md document. The skill
// must not already exist.
func (s *Store) Create(name, description, content string, project bool) (*Skill, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	dir := s.userDir
	source := "user"
	if project {
		if s.projectDir == "" {
			return nil, errors.New("no project skills directory configured")
		}
		dir = s.projectDir
		source = "project"
	}

	skillDir := filepath.Join(dir, name)
	if _, err := os.Stat(skillDir); err == nil {
		return nil, fmt.Errorf("skill %q already exists", name)
	}
	if err := os.MkdirAll(skillDir, 0o755); err != nil {
		return nil, err
	}

	if content == "" {
		content = defaultTemplate(name, description)
	}

	skillMD := filepath.Join(skillDir, "SKILL.md")
	if err := os.WriteFile(skillMD, []byte(content), 0o644); err != nil {
		return nil, err
	}

	s.logger.Info("Created skill",
		zap.String("name", name),
		zap.String("source", source))

	return &Skill{
		Name:        name,
		Description: description,
		Path:        skillMD,
		Source:      source,
		Content:     content,
	}, nil
}

// Update overwrites an existing skill's SKILL.md content.
func (s *Store) Update(name, content string) (*Skill, error) {
	sk, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(sk.Path, []byte(content), 0o644); err != nil {
		return nil, err
	}
	sk.Content = content
	if fm, ok := ParseFrontmatter(content); ok {
		sk.Description = fm.Description
	}
	return sk, nil
}

// Delete removes a skill's entire directory.
func (s *Store) Delete(name string) error {
	sk, err := s.Get(name)
	if err != nil {
		return err
	}
	return os.RemoveAll(filepath.Dir(sk.Path))
}

func defaultTemplate(name, description string) string {
	words := strings.Split(name, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	title := strings.Join(words, " ")
	return fmt.Sprintf(`---
name: %s
description: %s
---

# %s Skill

## Description

%s
`, name, description, title, description)
}
