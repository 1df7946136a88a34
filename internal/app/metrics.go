package app

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yokyay/classhub/internal/core"
)

// ConnCounter exposes how many live socket connections the transport holds.
type ConnCounter interface {
	ConnectionCount() int
}

// Metrics wires the prometheus registry. The role/room gauges read the
// coordinator on scrape instead of being incremented on every transition.
type Metrics struct {
	registry     *prometheus.Registry
	httpRequests *prometheus.CounterVec
}

func NewMetrics(coord *core.Coordinator, conns ConnCounter) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})
	reg.MustRegister(httpRequests)

	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "rooms_active",
		Help: "Active rooms",
	}, func() float64 { return float64(coord.Stats().Rooms) }))
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "teachers_active",
		Help: "Active teachers",
	}, func() float64 { return float64(coord.Stats().Teachers) }))
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "students_active",
		Help: "Active approved students",
	}, func() float64 { return float64(coord.Stats().Students) }))
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "socket_connections_active",
		Help: "Active socket connections",
	}, func() float64 { return float64(conns.ConnectionCount()) }))

	return &Metrics{registry: reg, httpRequests: httpRequests}
}

// ObserveRequest counts one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
