package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/nova-salud-api/internal/application/sales"
)

var _ sales.Recorder = (*Metrics)(nil)

// Metrics métricas Prometheus del servicio: peticiones HTTP y eventos del libro de ventas.
// Usa un registro propio para poder crear varias apps en el mismo proceso (tests).
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	salesRegistered prometheus.Counter
	salesUpdated    prometheus.Counter
	salesDeleted    prometheus.Counter
	stockRejected   prometheus.Counter
	activeUnits     prometheus.Gauge
}

// NewMetrics crea y registra las métricas bajo el namespace dado.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total de peticiones HTTP",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duración de las peticiones HTTP en segundos",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		salesRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_registered_total",
			Help:      "Ventas registradas",
		}),
		salesUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_updated_total",
			Help:      "Ventas cuya cantidad fue modificada",
		}),
		salesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_deleted_total",
			Help:      "Ventas eliminadas (stock devuelto)",
		}),
		stockRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_stock_rejected_total",
			Help:      "Operaciones rechazadas por stock insuficiente",
		}),
		activeUnits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sales_active_units",
			Help:      "Unidades descontadas por ventas activas desde el arranque del proceso",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency,
		m.salesRegistered, m.salesUpdated, m.salesDeleted, m.stockRejected, m.activeUnits,
	)
	return m
}

// Middleware mide cada petición por método y ruta registrada.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := settle(c, c.Next())

		route := c.Route().Path
		status := strconv.Itoa(c.Response().StatusCode())
		m.requests.WithLabelValues(c.Method(), route, status).Inc()
		m.latency.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler expone las métricas en formato Prometheus.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) SaleRegistered(quantity int64) {
	m.salesRegistered.Inc()
	m.activeUnits.Add(float64(quantity))
}

func (m *Metrics) SaleUpdated(delta int64) {
	m.salesUpdated.Inc()
	m.activeUnits.Add(float64(delta))
}

func (m *Metrics) SaleDeleted(quantity int64) {
	m.salesDeleted.Inc()
	m.activeUnits.Sub(float64(quantity))
}

func (m *Metrics) StockRejected() {
	m.stockRejected.Inc()
}
