package catalog

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultLocale is the fallback locale used when none is configured.
const DefaultLocale = "en"

// TemplateErrorPolicy decides what Load does with an entry whose body does
// not compile.
type TemplateErrorPolicy int

const (
	// DropEntry leaves the entry out of lookups.
	DropEntry TemplateErrorPolicy = iota
	// KeepRaw keeps the body verbatim as literal text.
	KeepRaw
)

func (p TemplateErrorPolicy) String() string {
	switch p {
	case DropEntry:
		return "drop"
	case KeepRaw:
		return "keep_raw"
	default:
		return fmt.Sprintf("TemplateErrorPolicy(%d)", int(p))
	}
}

func (p TemplateErrorPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *TemplateErrorPolicy) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "drop":
		*p = DropEntry
	case "keep_raw":
		*p = KeepRaw
	default:
		return fmt.Errorf("catalog: unknown template error policy %q", string(b))
	}
	return nil
}

// Observer receives lookup and load events. The metrics package has a
// Prometheus implementation.
type Observer interface {
	// ObserveLookup is called once per Resolve. servedBy is the locale whose
	// catalog had the key, empty when found is false.
	ObserveLookup(locale, servedBy string, found bool)
	// ObserveLoad is called each time a catalog is installed in a Registry.
	ObserveLoad(locale string, keys, warnings int)
}

type nopObserver struct{}

func (nopObserver) ObserveLookup(string, string, bool) {}
func (nopObserver) ObserveLoad(string, int, int)       {}

type options struct {
	defaultLocale  string
	fallbacks      map[string][]string
	missing        MissingVariablePolicy
	templateErrors TemplateErrorPolicy
	logger         zerolog.Logger
	observer       Observer
}

// Option configures Load and NewRegistry.
type Option func(*options)

func newOptions(opts []Option) options {
	o := options{
		defaultLocale: DefaultLocale,
		fallbacks:     make(map[string][]string),
		logger:        zerolog.Nop(),
		observer:      nopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithDefaultLocale sets the locale tried last for every lookup. Its
// catalog can never be removed from a Registry.
func WithDefaultLocale(locale string) Option {
	return func(o *options) {
		o.defaultLocale = locale
	}
}

// WithFallbacks adds explicit fallbacks for a locale, tried in order right
// after the locale itself, e.g. WithFallbacks("pt-BR", "pt-PT", "es").
func WithFallbacks(locale string, fallbacks ...string) Option {
	return func(o *options) {
		o.fallbacks[locale] = append(o.fallbacks[locale], fallbacks...)
	}
}

// WithMissingVariable sets the policy for variables absent at render time.
func WithMissingVariable(p MissingVariablePolicy) Option {
	return func(o *options) {
		o.missing = p
	}
}

// WithTemplateErrors sets the policy for bodies that fail to compile.
func WithTemplateErrors(p TemplateErrorPolicy) Option {
	return func(o *options) {
		o.templateErrors = p
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l.With().Str("sys", "catalog").Logger()
	}
}

// WithObserver reports lookups and loads to obs, e.g. a metrics.Collector.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs == nil {
			obs = nopObserver{}
		}
		o.observer = obs
	}
}
