// Package metrics exposes collected Prometheus metrics, including the jobs
// queue counters, over HTTP.
package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iota-uz/estate-office/pkg/application"
)

const DefaultPath = "/debug/prometheus"

type Option func(*ScrapeController)

// WithRegistry serves g and counts scrapes on r instead of the process defaults.
func WithRegistry(r prometheus.Registerer, g prometheus.Gatherer) Option {
	return func(c *ScrapeController) {
		c.registerer = r
		c.gatherer = g
	}
}

type ScrapeController struct {
	path       string
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
}

func NewPrometheusController(path string, opts ...Option) application.Controller {
	if path == "" {
		path = DefaultPath
	}
	c := &ScrapeController{
		path:       path,
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ScrapeController) Key() string {
	return c.path
}

func (c *ScrapeController) Register(r *mux.Router) {
	// a single broken collector must not hide the jobs metrics
	handler := promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
		Registry:      c.registerer,
	})
	r.Handle(c.path, promhttp.InstrumentMetricHandler(c.registerer, handler)).Methods(http.MethodGet)
}
