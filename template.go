package catalog

import (
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// SEGMENTS
///////////////////////////////////////////////////////////////////////////////

// Segment is one piece of a compiled Template: a Literal or a VariableRef.
// String returns the segment's source text, so concatenating the String of
// every segment gives back the original body.
type Segment interface {
	String() string
	segment()
}

// Literal is static text.
type Literal struct {
	Text string
}

func (l Literal) String() string { return l.Text }
func (Literal) segment()         {}

// VariableRef is a `{$name}` placeholder.
type VariableRef struct {
	Name string
}

func (v VariableRef) String() string { return "{$" + v.Name + "}" }
func (VariableRef) segment()         {}

///////////////////////////////////////////////////////////////////////////////
// TEMPLATE
///////////////////////////////////////////////////////////////////////////////

// Template is the compiled form of a message body. It is immutable and safe
// for concurrent use.
type Template struct {
	body     string
	segments []Segment
	vars     []string
}

// Body returns the source text the template was compiled from.
func (t *Template) Body() string { return t.body }

func (t *Template) String() string { return t.body }

// Segments returns a copy of the template's segments.
func (t *Template) Segments() []Segment {
	out := make([]Segment, len(t.segments))
	copy(out, t.segments)
	return out
}

// Variables returns the referenced variable names in order of first use.
func (t *Template) Variables() []string {
	out := make([]string, len(t.vars))
	copy(out, t.vars)
	return out
}

// Render renders t with the strict policy; see Render.
func (t *Template) Render(vars map[string]string) (string, error) {
	return Render(t, vars)
}

func newTemplate(body string, segs []Segment) *Template {
	t := &Template{body: body, segments: segs}
	seen := make(map[string]struct{})
	for _, s := range segs {
		ref, ok := s.(VariableRef)
		if !ok {
			continue
		}
		if _, dup := seen[ref.Name]; dup {
			continue
		}
		seen[ref.Name] = struct{}{}
		t.vars = append(t.vars, ref.Name)
	}
	return t
}

// literalTemplate keeps body verbatim as a single Literal. It backs the
// KeepRaw policy for bodies that fail to compile.
func literalTemplate(body string) *Template {
	if body == "" {
		return newTemplate(body, nil)
	}
	return newTemplate(body, []Segment{Literal{Text: body}})
}

///////////////////////////////////////////////////////////////////////////////
// COMPILER
///////////////////////////////////////////////////////////////////////////////

// Compile turns a message body into a Template.
//
// `{$name}` with name made of letters, digits, '_' and '-' becomes a
// VariableRef. A name that is not closed by '}' right away, as in
// `{$name` or `{$name, see }`, fails with a *TemplateError wrapping
// ErrUnterminatedReference, as does a `{$` ending the body. `{$` followed by
// anything but a name, such as `{$}` or `{$ x}`, and every other '{' or '}'
// are literal text.
func Compile(body string) (*Template, error) {
	var (
		segs []Segment
		lit  strings.Builder
	)

	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, Literal{Text: lit.String()})
			lit.Reset()
		}
	}

	i := 0
	for i < len(body) {
		open := strings.Index(body[i:], "{$")
		if open < 0 {
			lit.WriteString(body[i:])
			break
		}
		open += i
		lit.WriteString(body[i:open])

		start := open + 2
		end := start
		for end < len(body) && isIdentByte(body[end]) {
			end++
		}

		switch {
		case end < len(body) && body[end] == '}' && end > start:
			flush()
			segs = append(segs, VariableRef{Name: body[start:end]})
			i = end + 1
		case end > start || end == len(body):
			return nil, &TemplateError{Offset: open, Body: body, Err: ErrUnterminatedReference}
		default:
			// `{$}` or `{$ x}`: no name, keep the brace and rescan after it
			lit.WriteByte('{')
			i = open + 1
		}
	}
	flush()

	return newTemplate(body, segs), nil
}

// MustCompile is like Compile but panics on error. Use it for bodies fixed
// at build time.
func MustCompile(body string) *Template {
	t, err := Compile(body)
	if err != nil {
		panic(err)
	}
	return t
}

// Validate is the strict check used by tooling: on top of Compile it
// rejects `{$` sequences that compile to literal text, such as `{$}` or
// `{$ name}`, since they are almost always typos.
func Validate(body string) error {
	t, err := Compile(body)
	if err != nil {
		return err
	}

	offset := 0
	for _, s := range t.segments {
		if lit, ok := s.(Literal); ok {
			if idx := strings.Index(lit.Text, "{$"); idx >= 0 {
				return &TemplateError{Offset: offset + idx, Body: body, Err: ErrMalformedReference}
			}
		}
		offset += len(s.String())
	}
	return nil
}
