package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedEntry        = errors.New("catalog: malformed entry")
	ErrDuplicateKey          = errors.New("catalog: duplicate key")
	ErrUnterminatedReference = errors.New("catalog: unterminated variable reference")
	ErrMalformedReference    = errors.New("catalog: malformed variable reference")
	ErrEmptyCatalog          = errors.New("catalog: empty catalog")
	ErrMissingKey            = errors.New("catalog: missing key")
	ErrUnresolvedVariable    = errors.New("catalog: unresolved variable")
	ErrInvalidLocale         = errors.New("catalog: invalid locale")
	ErrUnknownLocale         = errors.New("catalog: unknown locale")
	ErrFallbackLocale        = errors.New("catalog: fallback locale cannot be removed")
)

// ParseError reports one bad line. It is never fatal: Parse keeps going and
// returns it alongside the entries it could read.
type ParseError struct {
	Line int
	Key  string
	Text string
	Err  error // ErrMalformedEntry or ErrDuplicateKey
}

func (e *ParseError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("line %d: %v %q", e.Line, e.Err, e.Key)
	}
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TemplateError is returned by Compile. Key is filled in when the body came
// from a catalog entry.
type TemplateError struct {
	Key    string
	Offset int
	Body   string
	Err    error
}

func (e *TemplateError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %v at offset %d", e.Key, e.Err, e.Offset)
	}
	return fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// EmptyCatalogError fails a single Load call. Cause is set when the text
// could not be read at all.
type EmptyCatalogError struct {
	Locale string
	Cause  error
}

func (e *EmptyCatalogError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v for locale %q: %v", ErrEmptyCatalog, e.Locale, e.Cause)
	}
	return fmt.Sprintf("%v for locale %q", ErrEmptyCatalog, e.Locale)
}

func (e *EmptyCatalogError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrEmptyCatalog, e.Cause}
	}
	return []error{ErrEmptyCatalog}
}

// MissingKeyError means no catalog in the fallback chain of Locale has Key.
// Callers usually show the key itself instead.
type MissingKeyError struct {
	Locale string
	Key    string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("%v %q in locale %q", ErrMissingKey, e.Key, e.Locale)
}

func (e *MissingKeyError) Unwrap() error { return ErrMissingKey }

// UnresolvedVariableError names the variable a strict render found missing.
type UnresolvedVariableError struct {
	Name string
}

func (e *UnresolvedVariableError) Error() string {
	return fmt.Sprintf("%v {$%s}", ErrUnresolvedVariable, e.Name)
}

func (e *UnresolvedVariableError) Unwrap() error { return ErrUnresolvedVariable }
