package script

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/vango-dev/vmodel/pkg/model"
	"github.com/vango-dev/vmodel/pkg/update"
)

const sizeScript = `
seed:
  width: 2
  height: 3
cancel: [locked]
computed:
  - name: size
    template: "{width}*{height}"
    evaluate: true
    writable: true
steps:
  - set: {width: 3}
  - set: {locked: true}
  - flush: true
  - set: {size: "4*5"}
  - update:
      tags: {$push: [a]}
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sizeScript))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if !reflect.DeepEqual(s.Seed, map[string]any{"width": 2, "height": 3}) {
		t.Errorf("unexpected seed %v", s.Seed)
	}
	if len(s.Computed) != 1 {
		t.Fatalf("expected 1 computed definition, got %d", len(s.Computed))
	}
	if deps := s.Computed[0].Deps; !reflect.DeepEqual(deps, []string{"width", "height"}) {
		t.Errorf("expected deps from template, got %v", deps)
	}

	actions := make([]string, 0, len(s.Steps))
	for _, st := range s.Steps {
		actions = append(actions, st.Action())
	}
	if !reflect.DeepEqual(actions, []string{"set", "set", "flush", "set", "update"}) {
		t.Errorf("unexpected actions %v", actions)
	}
	if _, ok := s.Steps[4].spec.(update.Tree); !ok {
		t.Errorf("expected update step to compile to a tree, got %T", s.Steps[4].spec)
	}
	if s.Policy() != model.SilentContributes {
		t.Error("expected the default silent policy")
	}
}

func TestParseJSON(t *testing.T) {
	s, err := Parse([]byte(`{"silentPolicy": "excluded", "steps": [{"remove": ["a"], "silent": true}]}`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if s.Policy() != model.SilentExcluded {
		t.Error("expected the excluded silent policy")
	}
	if st := s.Steps[0]; st.Action() != "remove" || !st.Silent {
		t.Errorf("unexpected step %#v", st)
	}
}

func TestLoad(t *testing.T) {
	s, err := Load(strings.NewReader(sizeScript))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(s.Steps) != 5 {
		t.Errorf("expected 5 steps, got %d", len(s.Steps))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing steps", `seed: {a: 1}`},
		{"unknown field", `steps: []
extra: 1`},
		{"two actions in one step", `steps: [{set: {a: 1}, flush: true}]`},
		{"empty step", `steps: [{silent: true}]`},
		{"bad silent policy", `silentPolicy: sometimes
steps: []`},
		{"computed without template", `computed: [{name: x}]
steps: []`},
		{"empty remove", `steps: [{remove: []}]`},
		{"empty seed key", `seed: {"": 1}
steps: []`},
		{"empty watch path", `watch: [""]
steps: []`},
		{"empty document", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]byte(tt.doc))
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if len(ve.Problems) == 0 {
				t.Error("expected at least one problem")
			}
		})
	}

	if err := Validate([]byte(sizeScript)); err != nil {
		t.Errorf("expected valid script, got %v", err)
	}
}

func TestValidateSyntaxError(t *testing.T) {
	err := Validate([]byte("steps: [unclosed"))
	if err == nil {
		t.Fatal("expected an error")
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		t.Error("syntax errors are not schema violations")
	}
}

func TestParseRejectsBadUpdate(t *testing.T) {
	_, err := Parse([]byte(`steps: [{update: {a: {$invoke: 1}}}]`))
	if !errors.Is(err, update.ErrInvalidCommand) {
		t.Errorf("expected ErrInvalidCommand, got %v", err)
	}
}

func TestParseRejectsBadTemplate(t *testing.T) {
	_, err := Parse([]byte(`computed: [{name: x, template: "{a"}]
steps: []`))
	if err == nil || !strings.Contains(err.Error(), "unclosed placeholder") {
		t.Errorf("expected unclosed placeholder error, got %v", err)
	}
}

func TestSchemaIsACopy(t *testing.T) {
	s := Schema()
	s[0] = 'x'
	if Schema()[0] == 'x' {
		t.Error("Schema() exposes the embedded bytes")
	}
}
