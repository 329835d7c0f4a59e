// Package metrics exports catalog lookup and load statistics to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lifei6671/catalog"
)

// Lookup results.
const (
	ResultHit      = "hit"
	ResultFallback = "fallback"
	ResultMiss     = "miss"
)

var _ catalog.Observer = (*Collector)(nil)

// Collector is a catalog.Observer that is also a prometheus.Collector.
type Collector struct {
	// LookupsTotal counts Resolve calls by requested locale and result.
	LookupsTotal *prometheus.CounterVec
	// LoadsTotal counts catalogs installed per locale.
	LoadsTotal *prometheus.CounterVec
	// Keys is the number of usable keys of the live catalog per locale.
	Keys *prometheus.GaugeVec
	// Warnings is the number of load warnings of the live catalog per locale.
	Warnings *prometheus.GaugeVec
}

// New returns a Collector with unregistered metrics; see Handler.
func New() *Collector {
	return &Collector{
		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_lookups_total",
				Help: "Total number of message lookups",
			},
			[]string{"locale", "result"},
		),
		LoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_loads_total",
				Help: "Total number of catalogs installed",
			},
			[]string{"locale"},
		),
		Keys: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "catalog_keys",
				Help: "Number of usable keys in the live catalog",
			},
			[]string{"locale"},
		),
		Warnings: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "catalog_warnings",
				Help: "Number of warnings raised loading the live catalog",
			},
			[]string{"locale"},
		),
	}
}

// ObserveLookup counts a lookup under its result label.
func (c *Collector) ObserveLookup(locale, servedBy string, found bool) {
	result := ResultMiss
	switch {
	case found && servedBy == locale:
		result = ResultHit
	case found:
		result = ResultFallback
	}
	c.LookupsTotal.WithLabelValues(locale, result).Inc()
}

// ObserveLoad counts the install and records the new key and warning counts.
func (c *Collector) ObserveLoad(locale string, keys, warnings int) {
	c.LoadsTotal.WithLabelValues(locale).Inc()
	c.Keys.WithLabelValues(locale).Set(float64(keys))
	c.Warnings.WithLabelValues(locale).Set(float64(warnings))
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.LookupsTotal.Describe(ch)
	c.LoadsTotal.Describe(ch)
	c.Keys.Describe(ch)
	c.Warnings.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.LookupsTotal.Collect(ch)
	c.LoadsTotal.Collect(ch)
	c.Keys.Collect(ch)
	c.Warnings.Collect(ch)
}

// Handler registers c on a fresh registry and returns the endpoint serving
// it.
func Handler(c *Collector) (http.Handler, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return nil, err
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}
