package metrics

import (
	"strconv"
	"time"

	"github.com/amirasaad/voicepay/pkg/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Prometheus implements metrics.Recorder and serves the HTTP collectors.
// Each instance owns its registry so tests can build as many as they like.
type Prometheus struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	transfers     *prometheus.CounterVec
	transferValue prometheus.Histogram
	transferTime  prometheus.Histogram
	requests      *prometheus.CounterVec
	otpIssued     prometheus.Counter
	commands      *prometheus.CounterVec
}

// NewPrometheus registers every collector on a fresh registry.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicepay_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicepay_http_request_duration_seconds",
			Help:    "Request latency",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"method", "route"}),
		transfers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicepay_transfers_total",
			Help: "Transfers by outcome",
		}, []string{"outcome"}),
		transferValue: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicepay_transfer_amount",
			Help:    "Amount of completed transfers in rupees",
			Buckets: []float64{10, 100, 500, 1000, 5000, 10000, 50000},
		}),
		transferTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicepay_transfer_duration_seconds",
			Help:    "Time spent inside the ledger critical section",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicepay_money_requests_total",
			Help: "Money requests by resulting status",
		}, []string{"status"}),
		otpIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicepay_otp_issued_total",
			Help: "OTP codes issued",
		}),
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicepay_voice_commands_total",
			Help: "Dispatched voice commands by intent and status",
		}, []string{"intent", "status"}),
	}
}

var _ metrics.Recorder = (*Prometheus)(nil)

func (p *Prometheus) TransferSucceeded(amount decimal.Decimal, took time.Duration) {
	p.transfers.WithLabelValues("completed").Inc()
	p.transferValue.Observe(amount.InexactFloat64())
	p.transferTime.Observe(took.Seconds())
}

func (p *Prometheus) TransferFailed(reason string) {
	p.transfers.WithLabelValues(reason).Inc()
}

func (p *Prometheus) MoneyRequest(status string) {
	p.requests.WithLabelValues(status).Inc()
}

func (p *Prometheus) OTPIssued() {
	p.otpIssued.Inc()
}

func (p *Prometheus) CommandDispatched(intent, status string) {
	p.commands.WithLabelValues(intent, status).Inc()
}

// Middleware counts and times every request by its route template.
func (p *Prometheus) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		p.httpRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		p.httpLatency.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the registry in the Prometheus text format.
func (p *Prometheus) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))
}

// Registry is exposed for tests.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}
