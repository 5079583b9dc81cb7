package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/events"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics for the service. Each Registry owns
// its own prometheus.Registry so tests can build as many as they like.
type Registry struct {
	reg *prometheus.Registry

	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business Metrics
	TransitionsTotal  *prometheus.CounterVec
	VotesTotal        *prometheus.CounterVec
	ScreenResults     *prometheus.CounterVec
	InviteRedemptions *prometheus.CounterVec
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Registry{
		reg: reg,
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signal_http_requests_total",
				Help: "Total HTTP requests processed by route, method, and status code",
			},
			[]string{"route", "method", "status_code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signal_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"route", "method"},
		),
		TransitionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signal_moderation_transitions_total",
				Help: "Committed signal status transitions",
			},
			[]string{"from", "to"},
		),
		VotesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signal_votes_total",
				Help: "Vote toggles by resulting vote",
			},
			[]string{"result"},
		),
		ScreenResults: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signal_screen_results_total",
				Help: "Content screening outcomes by source",
			},
			[]string{"source", "outcome"},
		),
		InviteRedemptions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signal_invite_redemptions_total",
				Help: "Invite redemption attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))
}

// Gatherer exposes the underlying registry for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Middleware records request counts and latency keyed by the matched route.
func (r *Registry) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		r.HTTPRequestsTotal.WithLabelValues(route, c.Method(), strconv.Itoa(status)).Inc()
		r.HTTPRequestDuration.WithLabelValues(route, c.Method()).Observe(time.Since(start).Seconds())
		return err
	}
}

// OnTransition lets the registry act as a transition hook.
func (r *Registry) OnTransition(_ context.Context, ev events.TransitionEvent) error {
	r.TransitionsTotal.WithLabelValues(ev.From, ev.To).Inc()
	return nil
}

// The Observe helpers are nil-safe so services can run without metrics.

func (r *Registry) ObserveVote(result string) {
	if r == nil {
		return
	}
	r.VotesTotal.WithLabelValues(result).Inc()
}

func (r *Registry) ObserveScreen(source string, passed bool) {
	if r == nil {
		return
	}
	outcome := "passed"
	if !passed {
		outcome = "rejected"
	}
	r.ScreenResults.WithLabelValues(source, outcome).Inc()
}

func (r *Registry) ObserveRedemption(outcome string) {
	if r == nil {
		return
	}
	r.InviteRedemptions.WithLabelValues(outcome).Inc()
}
