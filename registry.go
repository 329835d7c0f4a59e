package catalog

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/text/language"
)

// Caps on the per-registry caches fed by caller supplied locales and keys.
const (
	maxCachedChains = 256
	maxLoggedMisses = 1024
)

// snapshot is the registry state readers see. It is never modified after
// being published.
type snapshot struct {
	catalogs map[string]*Catalog
	locales  []string
	matcher  language.Matcher
	matched  []string // matcher index -> locale
}

// Registry holds one Catalog per locale and resolves keys through a
// fallback chain ending in the default locale.
//
// Lookups never lock: they read the current snapshot once and use it for
// the whole call. Load, Reload, Add and Remove build a new snapshot and
// publish it with a single atomic swap, so a reader sees either the old
// catalog or the new one and nothing in between.
type Registry struct {
	opts options

	mu    sync.Mutex // serializes writers
	state atomic.Pointer[snapshot]

	chains    sync.Map // canonical locale -> []string
	numChains atomic.Int64

	missingMu sync.Mutex
	missing   map[string]struct{} // locale + "\x00" + key, for log-once
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) (*Registry, error) {
	o := newOptions(opts)

	def, err := CanonicalLocale(o.defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("default locale: %w", err)
	}
	o.defaultLocale = def

	fallbacks := make(map[string][]string, len(o.fallbacks))
	for loc, chain := range o.fallbacks {
		canonical, err := CanonicalLocale(loc)
		if err != nil {
			return nil, fmt.Errorf("fallbacks: %w", err)
		}
		for _, fb := range chain {
			c, err := CanonicalLocale(fb)
			if err != nil {
				return nil, fmt.Errorf("fallbacks of %s: %w", canonical, err)
			}
			fallbacks[canonical] = append(fallbacks[canonical], c)
		}
	}
	o.fallbacks = fallbacks

	r := &Registry{opts: o, missing: make(map[string]struct{})}
	r.state.Store(newSnapshot(def, map[string]*Catalog{}))
	return r, nil
}

func newSnapshot(def string, catalogs map[string]*Catalog) *snapshot {
	s := &snapshot{catalogs: catalogs}
	for loc := range catalogs {
		s.locales = append(s.locales, loc)
	}
	sort.Strings(s.locales)

	// default first so the matcher falls back to it
	s.matched = append(s.matched, def)
	for _, loc := range s.locales {
		if loc != def {
			s.matched = append(s.matched, loc)
		}
	}
	tags := make([]language.Tag, len(s.matched))
	for i, loc := range s.matched {
		tags[i] = language.Make(loc)
	}
	s.matcher = language.NewMatcher(tags)
	return s
}

// DefaultLocale returns the canonical default locale.
func (r *Registry) DefaultLocale() string { return r.opts.defaultLocale }

// MissingVariable returns the render policy the registry was built with.
func (r *Registry) MissingVariable() MissingVariablePolicy { return r.opts.missing }

// Load parses text and installs it as the catalog for locale, replacing any
// catalog already there. On error the registry is left unchanged.
func (r *Registry) Load(locale, text string) (*Catalog, error) {
	c, err := Load(locale, text, r.catalogOptions()...)
	if err != nil {
		return nil, err
	}
	_ = r.install(c, false)
	return c, nil
}

// Reload replaces the catalog of a locale that is already loaded. It fails
// with ErrUnknownLocale otherwise. If the new text cannot be loaded the old
// catalog stays in place.
func (r *Registry) Reload(locale, text string) (*Catalog, error) {
	canonical, err := CanonicalLocale(locale)
	if err != nil {
		return nil, err
	}
	if _, ok := r.state.Load().catalogs[canonical]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLocale, canonical)
	}

	c, err := Load(canonical, text, r.catalogOptions()...)
	if err != nil {
		r.opts.logger.Error().Err(err).Str("locale", canonical).Msg("Reload failed, keeping previous catalog")
		return nil, err
	}
	if err := r.install(c, true); err != nil {
		return nil, err
	}
	return c, nil
}

// Add installs a catalog built elsewhere, for example with NewCatalog.
func (r *Registry) Add(c *Catalog) {
	_ = r.install(c, false)
}

// install publishes c. A reload only replaces a catalog that is still
// there: a Remove that won the lock first is not undone.
func (r *Registry) install(c *Catalog, reload bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.state.Load()
	if _, ok := cur.catalogs[c.Locale()]; reload && !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLocale, c.Locale())
	}
	next := make(map[string]*Catalog, len(cur.catalogs)+1)
	for loc, cat := range cur.catalogs {
		next[loc] = cat
	}
	next[c.Locale()] = c
	r.state.Store(newSnapshot(r.opts.defaultLocale, next))

	r.opts.observer.ObserveLoad(c.Locale(), c.Len(), len(c.warnings))
	r.opts.logger.Info().
		Str("locale", c.Locale()).
		Int("keys", c.Len()).
		Int("warnings", len(c.warnings)).
		Bool("reload", reload).
		Msg("Installed catalog")
	return nil
}

// Remove drops the catalog of locale. The default locale's catalog is the
// backstop for every lookup and cannot be removed.
func (r *Registry) Remove(locale string) error {
	canonical, err := CanonicalLocale(locale)
	if err != nil {
		return err
	}
	if canonical == r.opts.defaultLocale {
		return fmt.Errorf("%w: %s", ErrFallbackLocale, canonical)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.state.Load()
	if _, ok := cur.catalogs[canonical]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLocale, canonical)
	}
	next := make(map[string]*Catalog, len(cur.catalogs))
	for loc, cat := range cur.catalogs {
		if loc != canonical {
			next[loc] = cat
		}
	}
	r.state.Store(newSnapshot(r.opts.defaultLocale, next))
	return nil
}

// Resolve finds the template for key, trying each locale of Chain(locale)
// in order. A locale id that does not parse only tries the default locale.
// It returns a *MissingKeyError when no catalog has the key.
func (r *Registry) Resolve(locale, key string) (*Template, error) {
	t, _, err := r.resolve(locale, key)
	return t, err
}

func (r *Registry) resolve(locale, key string) (*Template, string, error) {
	canonical, err := CanonicalLocale(locale)
	if err != nil {
		canonical = r.opts.defaultLocale
	}

	snap := r.state.Load()
	for _, loc := range r.chain(canonical) {
		c, ok := snap.catalogs[loc]
		if !ok {
			continue
		}
		if t, ok := c.Lookup(key); ok {
			r.opts.observer.ObserveLookup(canonical, loc, true)
			return t, loc, nil
		}
	}

	r.opts.observer.ObserveLookup(canonical, "", false)
	if err != nil {
		return nil, "", &MissingKeyError{Locale: locale, Key: key}
	}
	return nil, "", &MissingKeyError{Locale: canonical, Key: key}
}

// Render resolves key and renders it with the registry's missing variable
// policy.
func (r *Registry) Render(locale, key string, vars map[string]string) (string, error) {
	t, err := r.Resolve(locale, key)
	if err != nil {
		return "", err
	}
	return Renderer{Missing: r.opts.missing}.Render(t, vars)
}

// Chain returns the lookup order for locale: the locale itself, its
// configured fallbacks, its BCP 47 parents (pt-BR, pt) and finally the
// default locale, without duplicates. An invalid id chains to the default
// locale only.
func (r *Registry) Chain(locale string) []string {
	canonical, err := CanonicalLocale(locale)
	if err != nil {
		return []string{r.opts.defaultLocale}
	}
	chain := r.chain(canonical)
	out := make([]string, len(chain))
	copy(out, chain)
	return out
}

// chain expects a canonical id; the cache holds one entry per canonical
// locale.
func (r *Registry) chain(canonical string) []string {
	if v, ok := r.chains.Load(canonical); ok {
		return v.([]string)
	}

	var chain []string
	seen := make(map[string]struct{})
	add := func(loc string) {
		if _, dup := seen[loc]; dup || loc == "" {
			return
		}
		seen[loc] = struct{}{}
		chain = append(chain, loc)
	}

	add(canonical)
	for _, fb := range r.opts.fallbacks[canonical] {
		add(fb)
	}
	for _, p := range parentLocales(canonical) {
		add(p)
	}
	add(r.opts.defaultLocale)

	if r.numChains.Load() >= maxCachedChains {
		return chain
	}
	v, loaded := r.chains.LoadOrStore(canonical, chain)
	if !loaded {
		r.numChains.Add(1)
	}
	return v.([]string)
}

// Catalog returns the catalog loaded for locale, without fallback.
func (r *Registry) Catalog(locale string) (*Catalog, bool) {
	canonical, err := CanonicalLocale(locale)
	if err != nil {
		return nil, false
	}
	c, ok := r.state.Load().catalogs[canonical]
	return c, ok
}

// Keys returns the keys of the catalog loaded for locale, in source order.
func (r *Registry) Keys(locale string) ([]string, error) {
	c, ok := r.Catalog(locale)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLocale, locale)
	}
	return c.Keys(), nil
}

// Locales returns the loaded locales, sorted.
func (r *Registry) Locales() []string {
	locs := r.state.Load().locales
	out := make([]string, len(locs))
	copy(out, locs)
	return out
}

// Match picks the loaded locale that best serves the user's preferences,
// given as BCP 47 ids or Accept-Language values. With no usable match it
// returns the default locale.
func (r *Registry) Match(prefs ...string) string {
	snap := r.state.Load()
	_, idx := language.MatchStrings(snap.matcher, prefs...)
	if idx < 0 || idx >= len(snap.matched) {
		return r.opts.defaultLocale
	}
	return snap.matched[idx]
}

// Locale returns a view bound to locale for use by UI code.
func (r *Registry) Locale(locale string) *Localizer {
	return &Localizer{registry: r, locale: locale}
}

func (r *Registry) catalogOptions() []Option {
	return []Option{
		WithTemplateErrors(r.opts.templateErrors),
		func(o *options) { o.logger = r.opts.logger },
	}
}
