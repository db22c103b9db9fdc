// Package metrics holds the domain counters of the service. HTTP metrics
// come from the fiberprometheus middleware.
package metrics

import (
	"context"

	"github.com/localnerve/callcard/internal/callcard"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the callcard counters registered on one registry.
type Metrics struct {
	Events      *prometheus.CounterVec
	Orders      *prometheus.CounterVec
	OrderLines  prometheus.Counter
	Syncs       *prometheus.CounterVec
	SyncSeconds *prometheus.HistogramVec
}

// New registers the counters on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callcard",
			Name:      "events_emitted_total",
			Help:      "Domain events handed to the event sinks.",
		}, []string{"kind"}),
		Orders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callcard",
			Name:      "orders_written_total",
			Help:      "Orders written to the ledger by sync.",
		}, []string{"kind"}),
		OrderLines: f.NewCounter(prometheus.CounterOpts{
			Namespace: "callcard",
			Name:      "order_lines_written_total",
			Help:      "Order lines written to the ledger by sync.",
		}),
		Syncs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callcard",
			Name:      "syncs_total",
			Help:      "Card syncs by submission shape and outcome.",
		}, []string{"shape", "outcome"}),
		SyncSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "callcard",
			Name:      "sync_duration_seconds",
			Help:      "Card sync latency by submission shape.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"shape"}),
	}
}

// Emitter counts events before passing them on.
type Emitter struct {
	next callcard.Emitter
	m    *Metrics
}

func (m *Metrics) Emitter(next callcard.Emitter) *Emitter {
	return &Emitter{next: next, m: m}
}

func (e *Emitter) Emit(ctx context.Context, ev callcard.Event) {
	e.m.Events.WithLabelValues(ev.Kind.String()).Inc()
	e.next.Emit(ctx, ev)
}

// Ledger counts successful ledger writes.
type Ledger struct {
	callcard.OrderLedger
	m *Metrics
}

func (m *Metrics) Ledger(next callcard.OrderLedger) *Ledger {
	return &Ledger{OrderLedger: next, m: m}
}

func (l *Ledger) CreateOrder(ctx context.Context, o callcard.Order) (string, error) {
	id, err := l.OrderLedger.CreateOrder(ctx, o)
	if err == nil {
		l.m.Orders.WithLabelValues("create").Inc()
	}
	return id, err
}

func (l *Ledger) CreateRevision(ctx context.Context, orderID string, o callcard.Order) (string, error) {
	id, err := l.OrderLedger.CreateRevision(ctx, orderID, o)
	if err == nil {
		l.m.Orders.WithLabelValues("revision").Inc()
	}
	return id, err
}

func (l *Ledger) AddLine(ctx context.Context, orderID string, line callcard.OrderLine) error {
	err := l.OrderLedger.AddLine(ctx, orderID, line)
	if err == nil {
		l.m.OrderLines.Inc()
	}
	return err
}

// ObserveSync records the outcome and latency of one sync.
func (m *Metrics) ObserveSync(shape string, seconds float64, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Syncs.WithLabelValues(shape, outcome).Inc()
	m.SyncSeconds.WithLabelValues(shape).Observe(seconds)
}
