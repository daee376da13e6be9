package script

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/vango-dev/vmodel/pkg/model"
)

var errNoMatch = errors.New("value does not match template")

// segment is either literal text or a {name} placeholder.
type segment struct {
	lit  string
	name string
}

type template []segment

func parseTemplate(src string) (template, error) {
	var t template
	for len(src) > 0 {
		open := strings.IndexByte(src, '{')
		if open < 0 {
			t = append(t, segment{lit: src})
			break
		}
		if open > 0 {
			t = append(t, segment{lit: src[:open]})
		}
		end := strings.IndexByte(src[open:], '}')
		if end < 0 {
			return nil, fmt.Errorf("unclosed placeholder in %q", src)
		}
		name := src[open+1 : open+end]
		if name == "" {
			return nil, fmt.Errorf("empty placeholder in %q", src)
		}
		t = append(t, segment{name: name})
		src = src[open+end+1:]
	}
	return t, nil
}

// names returns the placeholders in order of first appearance.
func (t template) names() []string {
	var out []string
	for _, seg := range t {
		if seg.name != "" && !slices.Contains(out, seg.name) {
			out = append(out, seg.name)
		}
	}
	return out
}

// render substitutes the current value of every placeholder. Absent
// values render as the empty string.
func (t template) render(m *model.Model) (string, error) {
	var b strings.Builder
	for _, seg := range t {
		if seg.name == "" {
			b.WriteString(seg.lit)
			continue
		}
		v, err := m.Get(seg.name)
		if err != nil {
			return "", err
		}
		if v != nil {
			fmt.Fprint(&b, v)
		}
	}
	return b.String(), nil
}

// split matches s against the template and returns the text found at
// each placeholder. Adjacent placeholders cannot be told apart.
func (t template) split(s string) (map[string]string, error) {
	out := make(map[string]string)
	pos := 0
	for i, seg := range t {
		if seg.name == "" {
			if !strings.HasPrefix(s[pos:], seg.lit) {
				return nil, fmt.Errorf("%w: %q", errNoMatch, s)
			}
			pos += len(seg.lit)
			continue
		}
		if i+1 == len(t) {
			out[seg.name] = s[pos:]
			pos = len(s)
			continue
		}
		next := t[i+1]
		if next.name != "" {
			return nil, fmt.Errorf("placeholders {%s} and {%s} are adjacent", seg.name, next.name)
		}
		idx := strings.Index(s[pos:], next.lit)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q", errNoMatch, s)
		}
		out[seg.name] = s[pos : pos+idx]
		pos += idx
	}
	if pos != len(s) {
		return nil, fmt.Errorf("%w: %q", errNoMatch, s)
	}
	return out, nil
}

// scalar reads text back as the most specific YAML scalar it spells.
func scalar(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return b
	}
	return s
}

// define registers def on m.
func (def *ComputedDef) define(m *model.Model) error {
	tmpl := def.tmpl
	c := model.Computed{
		Dependencies: def.Deps,
		Get: func(m *model.Model) (any, error) {
			return tmpl.render(m)
		},
		Evaluate: def.Evaluate,
	}
	if def.Writable {
		c.Set = func(m *model.Model, value any, opts model.Options) error {
			parts, err := tmpl.split(fmt.Sprint(value))
			if err != nil {
				return err
			}
			for _, name := range tmpl.names() {
				if err := m.Set(name, scalar(parts[name]), opts); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return m.DefineComputed(def.Name, c)
}
