// Package prompt renders the versioned prompt templates used by the task handlers.
package prompt

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var catalogYAML []byte

// ErrUnknownTemplate is returned when rendering an id absent from the catalog.
var ErrUnknownTemplate = errors.New("unknown prompt template")

// MissingVariableError reports a required placeholder with no supplied value.
type MissingVariableError struct {
	Template TemplateID
	Variable string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("prompt %s: missing required variable %q", e.Template, e.Variable)
}

// Spec is the catalog entry for one template.
type Spec struct {
	ID       TemplateID `yaml:"id"`
	Version  int        `yaml:"version"`
	Required []string   `yaml:"required"`
	Optional []string   `yaml:"optional"`
	Text     string     `yaml:"text"`
}

// Info summarizes a loaded template.
type Info struct {
	ID       TemplateID `json:"id"`
	Version  int        `json:"version"`
	Required []string   `json:"required"`
	Optional []string   `json:"optional,omitempty"`
}

type compiled struct {
	spec Spec
	tmpl *template.Template
}

// Builder holds the compiled catalog. It is immutable after construction and
// safe for concurrent use.
type Builder struct {
	templates map[TemplateID]compiled
}

// NewBuilder compiles the embedded catalog.
func NewBuilder() (*Builder, error) {
	return Load(catalogYAML)
}

// Load compiles a YAML catalog. Every placeholder in a template must be
// declared as required or optional.
func Load(data []byte) (*Builder, error) {
	var specs []Spec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("decode prompt catalog: %w", err)
	}

	b := &Builder{templates: make(map[TemplateID]compiled, len(specs))}
	for _, s := range specs {
		if strings.TrimSpace(string(s.ID)) == "" {
			return nil, fmt.Errorf("prompt catalog: template without id")
		}
		if s.Version <= 0 {
			return nil, fmt.Errorf("prompt %s: invalid version %d", s.ID, s.Version)
		}
		if _, dup := b.templates[s.ID]; dup {
			return nil, fmt.Errorf("prompt %s: duplicate id", s.ID)
		}

		t, err := template.New(string(s.ID)).Option("missingkey=error").Parse(s.Text)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: parse: %w", s.ID, err)
		}

		probe := make(map[string]string)
		for _, v := range append(append([]string{}, s.Required...), s.Optional...) {
			probe[v] = "x"
		}
		if err := t.Execute(&bytes.Buffer{}, probe); err != nil {
			return nil, fmt.Errorf("prompt %s: undeclared placeholder: %w", s.ID, err)
		}

		b.templates[s.ID] = compiled{spec: s, tmpl: t}
	}
	return b, nil
}

// Render fills template id with vars. Required variables must be present and
// non-blank; optional ones default to empty. The same inputs always produce
// the same prompt.
func (b *Builder) Render(id TemplateID, vars map[string]string) (string, error) {
	c, ok := b.templates[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, id)
	}

	data := make(map[string]string, len(c.spec.Required)+len(c.spec.Optional))
	for _, name := range c.spec.Required {
		v, ok := vars[name]
		if !ok || strings.TrimSpace(v) == "" {
			return "", &MissingVariableError{Template: id, Variable: name}
		}
		data[name] = norm.NFC.String(v)
	}
	for _, name := range c.spec.Optional {
		data[name] = norm.NFC.String(vars[name])
	}

	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", id, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Version returns the catalog version of id.
func (b *Builder) Version(id TemplateID) (int, bool) {
	c, ok := b.templates[id]
	return c.spec.Version, ok
}

// Templates lists the loaded templates sorted by id.
func (b *Builder) Templates() []Info {
	out := make([]Info, 0, len(b.templates))
	for _, c := range b.templates {
		out = append(out, Info{
			ID:       c.spec.ID,
			Version:  c.spec.Version,
			Required: c.spec.Required,
			Optional: c.spec.Optional,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
