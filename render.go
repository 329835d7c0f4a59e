package catalog

import (
	"fmt"
	"strings"
)

// MissingVariablePolicy decides what Render does when vars lacks a name the
// template references.
type MissingVariablePolicy int

const (
	// FailOnMissing returns an *UnresolvedVariableError.
	FailOnMissing MissingVariablePolicy = iota
	// EmitPlaceholder writes the `{$name}` text back out.
	EmitPlaceholder
	// EmitEmpty substitutes an empty string.
	EmitEmpty
)

var missingVariableNames = map[MissingVariablePolicy]string{
	FailOnMissing:   "fail",
	EmitPlaceholder: "emit_placeholder",
	EmitEmpty:       "emit_empty",
}

func (p MissingVariablePolicy) String() string {
	if s, ok := missingVariableNames[p]; ok {
		return s
	}
	return fmt.Sprintf("MissingVariablePolicy(%d)", int(p))
}

// ParseMissingVariablePolicy accepts "fail", "emit_placeholder" or
// "emit_empty". The empty string means fail.
func ParseMissingVariablePolicy(s string) (MissingVariablePolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FailOnMissing, nil
	}
	for p, name := range missingVariableNames {
		if name == s {
			return p, nil
		}
	}
	return FailOnMissing, fmt.Errorf("catalog: unknown missing variable policy %q", s)
}

func (p MissingVariablePolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *MissingVariablePolicy) UnmarshalText(b []byte) error {
	v, err := ParseMissingVariablePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Renderer substitutes variables into templates. The zero value uses
// FailOnMissing.
type Renderer struct {
	Missing MissingVariablePolicy
}

// Render concatenates the segments of t, replacing each VariableRef with its
// value from vars. Variables in vars that t does not use are ignored. A nil
// template renders as the empty string.
func (r Renderer) Render(t *Template, vars map[string]string) (string, error) {
	out, _, err := r.RenderReport(t, vars)
	return out, err
}

// RenderReport is Render that also returns the names it could not resolve.
// With FailOnMissing it stops at the first one.
func (r Renderer) RenderReport(t *Template, vars map[string]string) (string, []string, error) {
	if t == nil {
		return "", nil, nil
	}

	var (
		b          strings.Builder
		unresolved []string
	)
	b.Grow(len(t.body))

	for _, s := range t.segments {
		switch seg := s.(type) {
		case Literal:
			b.WriteString(seg.Text)
		case VariableRef:
			if v, ok := vars[seg.Name]; ok {
				b.WriteString(v)
				continue
			}
			unresolved = append(unresolved, seg.Name)
			switch r.Missing {
			case EmitPlaceholder:
				b.WriteString(seg.String())
			case EmitEmpty:
			default:
				return "", unresolved, &UnresolvedVariableError{Name: seg.Name}
			}
		}
	}

	return b.String(), unresolved, nil
}

// Render renders t with FailOnMissing.
func Render(t *Template, vars map[string]string) (string, error) {
	return Renderer{}.Render(t, vars)
}
