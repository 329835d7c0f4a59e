package checker

import (
	"errors"
	"io/fs"
	"sort"

	"github.com/lifei6671/catalog"
)

// Result is everything CheckLocales found, keyed by canonical locale.
type Result struct {
	Languages     []string
	DefaultLocale string
	MissingKeys   map[string][]string
	RedundantKeys map[string][]string
	SyntaxErrors  map[string]map[string]error // lang -> key -> err
	Warnings      map[string][]error
	Placeholders  map[string][]catalog.PlaceholderMismatch
	AllKeys       []string
}

// CheckLocales loads every catalog in fsys and performs:
//  1. key alignment against the default locale (missing / redundant)
//  2. placeholder alignment for keys present in both
//  3. strict template syntax check via catalog.Validate
//  4. collection of parse warnings (malformed lines, duplicate keys)
//
// Without a catalog for defaultLocale, keys are aligned against the union of
// all locales and nothing is reported as redundant.
func CheckLocales(fsys fs.FS, defaultLocale string, opts ...catalog.Option) (*Result, error) {
	catalogs, err := catalog.LoadDir(fsys, opts...)
	if err != nil {
		return nil, err
	}

	def, err := catalog.CanonicalLocale(defaultLocale)
	if err != nil {
		return nil, err
	}

	res := &Result{
		DefaultLocale: def,
		MissingKeys:   make(map[string][]string),
		RedundantKeys: make(map[string][]string),
		SyntaxErrors:  make(map[string]map[string]error),
		Warnings:      make(map[string][]error),
		Placeholders:  make(map[string][]catalog.PlaceholderMismatch),
	}

	var base *catalog.Catalog
	allKeysSet := make(map[string]struct{})
	for _, c := range catalogs {
		res.Languages = append(res.Languages, c.Locale())
		if c.Locale() == def {
			base = c
		}
		for _, e := range c.Entries() {
			allKeysSet[e.Key] = struct{}{}
		}
	}

	allKeys := make([]string, 0, len(allKeysSet))
	for k := range allKeysSet {
		allKeys = append(allKeys, k)
	}
	sort.Strings(allKeys)
	res.AllKeys = allKeys

	for _, c := range catalogs {
		lang := c.Locale()

		if base != nil {
			if c != base {
				d := catalog.Diff(base, c)
				if len(d.Missing) > 0 {
					res.MissingKeys[lang] = d.Missing
				}
				if len(d.Extra) > 0 {
					res.RedundantKeys[lang] = d.Extra
				}
				if len(d.Placeholders) > 0 {
					res.Placeholders[lang] = d.Placeholders
				}
			}
		} else {
			for _, k := range allKeys {
				if _, ok := c.Lookup(k); !ok {
					res.MissingKeys[lang] = append(res.MissingKeys[lang], k)
				}
			}
		}

		for _, e := range c.Entries() {
			if err := catalog.Validate(e.Body); err != nil {
				if res.SyntaxErrors[lang] == nil {
					res.SyntaxErrors[lang] = make(map[string]error)
				}
				res.SyntaxErrors[lang][e.Key] = err
			}
		}

		for _, w := range c.Warnings() {
			if !isTemplateError(w) {
				res.Warnings[lang] = append(res.Warnings[lang], w)
			}
		}
	}

	return res, nil
}

// HasIssues reports whether anything at all was found.
func (r *Result) HasIssues() bool {
	for _, m := range []map[string][]string{r.MissingKeys, r.RedundantKeys} {
		for _, arr := range m {
			if len(arr) > 0 {
				return true
			}
		}
	}
	for _, errs := range r.SyntaxErrors {
		if len(errs) > 0 {
			return true
		}
	}
	for _, ws := range r.Warnings {
		if len(ws) > 0 {
			return true
		}
	}
	for _, ps := range r.Placeholders {
		if len(ps) > 0 {
			return true
		}
	}
	return false
}

// template errors are already reported per key in SyntaxErrors
func isTemplateError(err error) bool {
	var te *catalog.TemplateError
	return errors.As(err, &te)
}
