package catalog

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// CanonicalLocale normalizes a locale id to its BCP 47 form. Underscores are
// accepted as separators, so "pt_BR" and "pt-br" both become "pt-BR".
func CanonicalLocale(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: empty id", ErrInvalidLocale)
	}
	tag, err := language.Parse(strings.ReplaceAll(id, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidLocale, id, err)
	}
	return tag.String(), nil
}

// parentLocales lists the CLDR parents of a canonical locale, nearest first,
// stopping before the root.
func parentLocales(locale string) []string {
	var out []string
	tag := language.Make(locale)
	for i := 0; i < 8; i++ {
		tag = tag.Parent()
		if tag == language.Und {
			break
		}
		out = append(out, tag.String())
	}
	return out
}

// Localizer is a Registry bound to one locale, the entry point for UI code.
type Localizer struct {
	registry *Registry
	locale   string
}

// Locale returns the locale id the view was created with.
func (l *Localizer) Locale() string { return l.locale }

// T renders key and never fails. A key missing from the whole fallback
// chain comes back as the key itself; variables missing from vars come back
// as their `{$name}` placeholder. Each failing (locale, key) pair is logged
// once.
func (l *Localizer) T(key string, vars map[string]string) string {
	if l == nil || l.registry == nil {
		return key
	}

	t, err := l.registry.Resolve(l.locale, key)
	if err != nil {
		l.registry.logOnce(l.locale, key, err)
		return key
	}

	out, err := Renderer{Missing: l.registry.opts.missing}.Render(t, vars)
	if err != nil {
		l.registry.logOnce(l.locale, key, err)
		out, _ = Renderer{Missing: EmitPlaceholder}.Render(t, vars)
	}
	return out
}

// Render is T without the degradation: errors are returned to the caller.
func (l *Localizer) Render(key string, vars map[string]string) (string, error) {
	return l.registry.Render(l.locale, key, vars)
}

// logOnce logs a failing lookup the first time a (locale, key) pair is seen.
// The set of seen pairs is cleared when it reaches maxLoggedMisses, so a
// caller feeding arbitrary keys costs repeated log lines, not memory.
func (r *Registry) logOnce(locale, key string, err error) {
	if canonical, cerr := CanonicalLocale(locale); cerr == nil {
		locale = canonical
	}
	id := locale + "\x00" + key

	r.missingMu.Lock()
	_, seen := r.missing[id]
	if !seen {
		if len(r.missing) >= maxLoggedMisses {
			clear(r.missing)
		}
		r.missing[id] = struct{}{}
	}
	r.missingMu.Unlock()
	if seen {
		return
	}

	if errors.Is(err, ErrMissingKey) {
		r.opts.logger.Warn().
			Str("locale", locale).
			Str("key", key).
			Msg("Missing translation")
		return
	}
	r.opts.logger.Error().
		Err(err).
		Str("locale", locale).
		Str("key", key).
		Msg("Message failed to render")
}
