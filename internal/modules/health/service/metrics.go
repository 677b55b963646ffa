package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"signal_bot/internal/models"
)

// Metrics счётчики очереди и ордеров. Регистрируются в собственном реестре, не в глобальном.
//
//	signalq_ingested_total                 – сигналов записано в очередь
//	signalq_skipped_records_total          – битых записей источника пропущено
//	signalq_signals_total{status}          – сигналов переведено в терминальный статус
//	signalq_orders_total{purpose,result}   – вызовы createOrder (purpose: open|close)
//	signalq_cycle_errors_total{daemon,kind} – ошибки уровня цикла
//	signalq_open_positions                 – позиций в книге трейдера
type Metrics struct {
	Registry *prometheus.Registry

	ingested      prometheus.Counter
	skipped       prometheus.Counter
	signals       *prometheus.CounterVec
	orders        *prometheus.CounterVec
	cycleErrors   *prometheus.CounterVec
	openPositions prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ingested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalq_ingested_total",
			Help: "Signals appended to the queue",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalq_skipped_records_total",
			Help: "Malformed source records skipped",
		}),
		signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalq_signals_total",
			Help: "Signals moved to a terminal status",
		}, []string{"status"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalq_orders_total",
			Help: "createOrder calls by purpose and result",
		}, []string{"purpose", "result"}),
		cycleErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalq_cycle_errors_total",
			Help: "Poll cycle failures by daemon and error kind",
		}, []string{"daemon", "kind"}),
		openPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalq_open_positions",
			Help: "Positions currently held in the trader's book",
		}),
	}
	m.Registry.MustRegister(
		m.ingested, m.skipped, m.signals, m.orders, m.cycleErrors, m.openPositions,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Ingested(n int) {
	if m != nil {
		m.ingested.Add(float64(n))
	}
}

func (m *Metrics) Skipped(n int) {
	if m != nil {
		m.skipped.Add(float64(n))
	}
}

func (m *Metrics) SignalStatus(s models.Status) {
	if m != nil {
		m.signals.WithLabelValues(string(s)).Inc()
	}
}

func (m *Metrics) Order(purpose string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.orders.WithLabelValues(purpose, result).Inc()
}

func (m *Metrics) CycleError(daemon string, kind models.ErrorKind) {
	if m != nil {
		m.cycleErrors.WithLabelValues(daemon, kind.String()).Inc()
	}
}

func (m *Metrics) OpenPositions(n int) {
	if m != nil {
		m.openPositions.Set(float64(n))
	}
}

func (m *Metrics) IngestedCounter() prometheus.Counter { return m.ingested }
func (m *Metrics) SkippedCounter() prometheus.Counter  { return m.skipped }

func (m *Metrics) SignalsCounter(s models.Status) prometheus.Counter {
	return m.signals.WithLabelValues(string(s))
}

func (m *Metrics) OrdersCounter(purpose, result string) prometheus.Counter {
	return m.orders.WithLabelValues(purpose, result)
}

func (m *Metrics) OpenPositionsGauge() prometheus.Gauge { return m.openPositions }

func (m *Metrics) CycleErrorsCounter(daemon string, kind models.ErrorKind) prometheus.Counter {
	return m.cycleErrors.WithLabelValues(daemon, kind.String())
}
