// Package script loads replay scripts: a seed, computed property
// definitions and a sequence of mutation steps, written in YAML or JSON.
//
//	seed:
//	  width: 2
//	  height: 3
//	computed:
//	  - name: size
//	    deps: [width, height]
//	    template: "{width}*{height}"
//	    evaluate: true
//	    writable: true
//	watch: [user.name]
//	steps:
//	  - set: {width: 3}
//	  - update: {tags: {$push: [a]}}
//	  - flush: true
//
// Scripts are validated against an embedded JSON Schema before they are
// decoded.
package script

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vmodel/pkg/model"
	"github.com/vango-dev/vmodel/pkg/update"
)

// Script is a decoded replay script.
type Script struct {
	Seed         map[string]any `yaml:"seed"`
	SilentPolicy string         `yaml:"silentPolicy"`

	// Cancel names properties whose writes a beforechange handler prevents.
	Cancel []string `yaml:"cancel"`

	// Watch lists dotted paths such as "user.name". Every update whose
	// diff reaches a watched path is followed by a watch record for it.
	Watch []string `yaml:"watch"`

	Computed []ComputedDef `yaml:"computed"`
	Steps    []Step        `yaml:"steps"`
}

// ComputedDef defines a computed property rendered from a template such
// as "{width}*{height}". A writable definition parses written values back
// against the same template and sets each placeholder's property.
type ComputedDef struct {
	Name     string   `yaml:"name"`
	Deps     []string `yaml:"deps"`
	Template string   `yaml:"template"`
	Evaluate bool     `yaml:"evaluate"`
	Writable bool     `yaml:"writable"`

	tmpl template
}

// Step is one action. Exactly one of Set, Remove, Update or Flush is set.
type Step struct {
	Set    map[string]any `yaml:"set"`
	Remove []string       `yaml:"remove"`
	Update map[string]any `yaml:"update"`
	Flush  bool           `yaml:"flush"`
	Silent bool           `yaml:"silent"`

	spec update.Spec
}

// Load reads, validates and decodes a script.
func Load(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("script: read: %w", err)
	}
	return Parse(data)
}

// Parse validates and decodes a YAML or JSON script.
func Parse(data []byte) (*Script, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("script: decode: %w", err)
	}
	if err := s.compile(); err != nil {
		return nil, err
	}
	return &s, nil
}

// compile prepares templates and update specs.
func (s *Script) compile() error {
	for i := range s.Computed {
		def := &s.Computed[i]
		tmpl, err := parseTemplate(def.Template)
		if err != nil {
			return fmt.Errorf("script: computed %q: %w", def.Name, err)
		}
		def.tmpl = tmpl
		if len(def.Deps) == 0 {
			def.Deps = tmpl.names()
		}
	}
	for i := range s.Steps {
		step := &s.Steps[i]
		if step.Update == nil {
			continue
		}
		spec, err := update.Parse(step.Update)
		if err != nil {
			return fmt.Errorf("script: step %d: %w", i, err)
		}
		step.spec = spec
	}
	return nil
}

// Policy returns the silent policy the script asks for.
func (s *Script) Policy() model.SilentPolicy {
	if s.SilentPolicy == "excluded" {
		return model.SilentExcluded
	}
	return model.SilentContributes
}

// Action names the kind of a step.
func (st Step) Action() string {
	switch {
	case st.Set != nil:
		return "set"
	case st.Remove != nil:
		return "remove"
	case st.Update != nil:
		return "update"
	case st.Flush:
		return "flush"
	default:
		return ""
	}
}
