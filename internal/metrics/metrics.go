// Package metrics содержит метрики Prometheus административной панели.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storeadmin"

// Metrics объединяет счётчики и гистограммы сервиса.
type Metrics struct {
	Requests       *prometheus.CounterVec
	LatencyMS      *prometheus.HistogramVec
	StatusUpdates  *prometheus.CounterVec
	PushDeliveries *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New создаёт метрики и регистрирует их в переданном реестре.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		StatusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "status_updates_total",
			Help:      "Order status updates by new status and result.",
		}, []string{"status", "result"}),
		PushDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "deliveries_total",
			Help:      "Push notification delivery attempts by result.",
		}, []string{"result"}),
		gatherer: reg,
	}

	reg.MustRegister(m.Requests, m.LatencyMS, m.StatusUpdates, m.PushDeliveries)
	return m
}

// ObserveStatusUpdate учитывает попытку смены статуса заказа.
func (m *Metrics) ObserveStatusUpdate(status, result string) {
	if m == nil {
		return
	}
	m.StatusUpdates.WithLabelValues(status, result).Inc()
}

// ObservePushDelivery учитывает попытку доставки push-уведомления.
func (m *Metrics) ObservePushDelivery(result string) {
	if m == nil {
		return
	}
	m.PushDeliveries.WithLabelValues(result).Inc()
}

// Handler возвращает HTTP-обработчик для выгрузки метрик.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
