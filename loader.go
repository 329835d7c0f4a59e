package catalog

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// yamlFile is the YAML catalog layout:
//
//	language: fr
//	messages:
//	  dashboard: Tableau de bord
type yamlFile struct {
	Language string            `yaml:"language"`
	Messages map[string]string `yaml:"messages"`
}

// fileResult is one source file read and parsed.
type fileResult struct {
	path     string
	locale   string
	entries  []Entry
	warnings []error
}

// LoadDir loads every catalog file found in fsys and returns one Catalog per
// locale, sorted by locale.
//
// Supported layouts:
//
//	<locale>/<domain>.ftl   e.g. en/chromatic.ftl
//	<locale>.ftl            e.g. fr.ftl
//	*.yaml, *.yml           with a top-level `language` field
//
// Files of the same locale are merged in path order; a key defined in more
// than one file keeps the last definition. Files are read concurrently.
// Unreadable files, undecodable YAML and directory names that are not
// locale ids fail the whole call; problems inside a file are warnings on the
// resulting catalog.
func LoadDir(fsys fs.FS, opts ...Option) ([]*Catalog, error) {
	o := newOptions(opts)

	var paths []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(path.Ext(p)) {
		case ".ftl", ".yaml", ".yml":
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk catalogs: %w", err)
	}
	sort.Strings(paths)

	results := make([]*fileResult, len(paths))
	var g errgroup.Group
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			res, err := readFile(fsys, p)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byLocale := make(map[string][]*fileResult)
	for _, res := range results {
		if res == nil {
			continue
		}
		byLocale[res.locale] = append(byLocale[res.locale], res)
	}

	locales := make([]string, 0, len(byLocale))
	for loc := range byLocale {
		locales = append(locales, loc)
	}
	sort.Strings(locales)

	catalogs := make([]*Catalog, 0, len(locales))
	for _, loc := range locales {
		var (
			entries  []Entry
			warnings []error
		)
		for _, res := range byLocale[loc] {
			entries = append(entries, res.entries...)
			warnings = append(warnings, res.warnings...)
		}
		c, err := newCatalog(loc, entries, warnings, o)
		if err != nil {
			return nil, err
		}
		catalogs = append(catalogs, c)
	}
	return catalogs, nil
}

// readFile returns nil, nil for files that hold no messages.
func readFile(fsys fs.FS, p string) (*fileResult, error) {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}

	if ext := strings.ToLower(path.Ext(p)); ext == ".yaml" || ext == ".yml" {
		return readYAML(p, data)
	}

	locale := path.Base(path.Dir(p))
	if path.Dir(p) == "." {
		locale = strings.TrimSuffix(path.Base(p), path.Ext(p))
	}
	canonical, err := CanonicalLocale(locale)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	if strings.TrimSpace(strings.TrimPrefix(string(data), bom)) == "" {
		return nil, nil
	}

	entries, errs := Parse(string(data))
	for i := range entries {
		entries[i].Source = p
	}
	res := &fileResult{path: p, locale: canonical, entries: entries}
	for _, e := range errs {
		res.warnings = append(res.warnings, fmt.Errorf("%s: %w", p, e))
	}
	return res, nil
}

func readYAML(p string, data []byte) (*fileResult, error) {
	var yf yamlFile
	if err := yaml.Unmarshal(data, &yf); err != nil {
		return nil, fmt.Errorf("yaml unmarshal %s: %w", p, err)
	}
	if yf.Language == "" {
		return nil, fmt.Errorf("file %s missing 'language' field", p)
	}
	canonical, err := CanonicalLocale(yf.Language)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	if len(yf.Messages) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(yf.Messages))
	for k := range yf.Messages {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res := &fileResult{path: p, locale: canonical}
	for _, k := range keys {
		res.entries = append(res.entries, Entry{Key: k, Body: yf.Messages[k], Source: p})
	}
	return res, nil
}

// LoadDir loads fsys with the package-level LoadDir and installs every
// catalog found.
func (r *Registry) LoadDir(fsys fs.FS) error {
	catalogs, err := LoadDir(fsys, r.catalogOptions()...)
	if err != nil {
		return err
	}

	for _, c := range catalogs {
		_ = r.install(c, false)
	}
	return nil
}

// MustLoadDir is LoadDir for program start-up: it panics on error.
func (r *Registry) MustLoadDir(fsys fs.FS) {
	if err := r.LoadDir(fsys); err != nil {
		panic(err)
	}
}
