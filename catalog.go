package catalog

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var errInvalidUTF8 = errors.New("text is not valid UTF-8")

// Catalog holds the compiled messages of one locale. It never changes after
// Load returns; a Registry replaces it as a whole on reload.
type Catalog struct {
	locale    string
	entries   []Entry
	keys      []string
	templates map[string]*Template
	warnings  []error
}

// Load parses and compiles catalog text for one locale.
//
// Bad lines, duplicate keys and bodies that fail to compile do not fail the
// load; they are collected in Warnings. Load fails only when the locale id
// is invalid or when text is empty, blank or not UTF-8 (*EmptyCatalogError).
func Load(locale, text string, opts ...Option) (*Catalog, error) {
	canonical, err := CanonicalLocale(locale)
	if err != nil {
		return nil, err
	}
	if !utf8.ValidString(text) {
		return nil, &EmptyCatalogError{Locale: canonical, Cause: errInvalidUTF8}
	}
	if strings.TrimSpace(strings.TrimPrefix(text, bom)) == "" {
		return nil, &EmptyCatalogError{Locale: canonical}
	}

	entries, parseErrs := Parse(text)
	return build(canonical, entries, parseErrs, newOptions(opts))
}

// LoadReader reads r to the end and loads it. Read failures are reported as
// *EmptyCatalogError.
func LoadReader(locale string, r io.Reader, opts ...Option) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &EmptyCatalogError{Locale: locale, Cause: err}
	}
	return Load(locale, string(data), opts...)
}

// NewCatalog compiles already parsed entries, for sources other than
// catalog text. Later entries with the same key win.
func NewCatalog(locale string, entries []Entry, opts ...Option) (*Catalog, error) {
	return newCatalog(locale, entries, nil, newOptions(opts))
}

func newCatalog(locale string, entries []Entry, warnings []error, o options) (*Catalog, error) {
	canonical, err := CanonicalLocale(locale)
	if err != nil {
		return nil, err
	}

	var (
		deduped []Entry
		index   = make(map[string]int, len(entries))
	)
	for _, e := range entries {
		if !isIdentifier(e.Key) {
			warnings = append(warnings, withSource(e, &ParseError{Line: e.Line, Text: e.Key, Err: ErrMalformedEntry}))
			continue
		}
		if idx, dup := index[e.Key]; dup {
			warnings = append(warnings, withSource(e, &ParseError{Line: e.Line, Key: e.Key, Err: ErrDuplicateKey}))
			deduped[idx] = e
			continue
		}
		index[e.Key] = len(deduped)
		deduped = append(deduped, e)
	}

	return build(canonical, deduped, warnings, o)
}

// withSource prefixes err with the file e came from, the way LoadDir
// reports parse warnings.
func withSource(e Entry, err error) error {
	if e.Source == "" {
		return err
	}
	return fmt.Errorf("%s: %w", e.Source, err)
}

func build(locale string, entries []Entry, warnings []error, o options) (*Catalog, error) {
	c := &Catalog{
		locale:    locale,
		entries:   entries,
		keys:      make([]string, 0, len(entries)),
		templates: make(map[string]*Template, len(entries)),
		warnings:  warnings,
	}

	for _, e := range entries {
		t, err := Compile(e.Body)
		if err != nil {
			var te *TemplateError
			if errors.As(err, &te) {
				te.Key = e.Key
			}
			c.warnings = append(c.warnings, withSource(e, err))
			if o.templateErrors != KeepRaw {
				continue
			}
			t = literalTemplate(e.Body)
		}
		c.keys = append(c.keys, e.Key)
		c.templates[e.Key] = t
	}

	for _, w := range c.warnings {
		o.logger.Warn().Err(w).Str("locale", locale).Msg("Catalog warning")
	}
	o.logger.Debug().
		Str("locale", locale).
		Int("keys", len(c.keys)).
		Int("warnings", len(c.warnings)).
		Msg("Loaded catalog")

	return c, nil
}

// Locale returns the canonical locale id of the catalog.
func (c *Catalog) Locale() string { return c.locale }

// Lookup returns the template for key.
func (c *Catalog) Lookup(key string) (*Template, bool) {
	t, ok := c.templates[key]
	return t, ok
}

// Entry returns the parsed entry for key, including entries whose body
// failed to compile.
func (c *Catalog) Entry(key string) (Entry, bool) {
	for _, e := range c.entries {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Keys returns the usable keys in source order.
func (c *Catalog) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of usable keys.
func (c *Catalog) Len() int { return len(c.keys) }

// Entries returns every parsed entry in source order, suitable for Format.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Warnings returns the recoverable problems found while loading: *ParseError
// and *TemplateError values.
func (c *Catalog) Warnings() []error {
	out := make([]error, len(c.warnings))
	copy(out, c.warnings)
	return out
}

func (c *Catalog) String() string {
	return fmt.Sprintf("catalog(%s, %d keys)", c.locale, len(c.keys))
}
