package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/localnerve/callcard/internal/callcard"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sink struct{ n int }

func (s *sink) Emit(context.Context, callcard.Event) { s.n++ }

type ledger struct{ fail bool }

func (l *ledger) OrdersLinkedTo(context.Context, []string) ([]callcard.Order, error) { return nil, nil }

func (l *ledger) CreateOrder(context.Context, callcard.Order) (string, error) {
	if l.fail {
		return "", errors.New("down")
	}
	return "o1", nil
}

func (l *ledger) CreateRevision(context.Context, string, callcard.Order) (string, error) {
	return "o2", nil
}

func (l *ledger) AddLine(context.Context, string, callcard.OrderLine) error { return nil }

func TestEmitterCounts(t *testing.T) {
	m := New(prometheus.NewRegistry())
	next := &sink{}
	e := m.Emitter(next)

	e.Emit(context.Background(), callcard.Event{Kind: callcard.EventUploaded})
	e.Emit(context.Background(), callcard.Event{Kind: callcard.EventUploaded})

	assert.Equal(t, 2, next.n)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Events.WithLabelValues("CALL_CARD_UPLOADED")))
}

func TestLedgerCounts(t *testing.T) {
	m := New(prometheus.NewRegistry())
	ctx := context.Background()
	inner := &ledger{}
	l := m.Ledger(inner)

	_, err := l.CreateOrder(ctx, callcard.Order{})
	require.NoError(t, err)
	_, err = l.CreateRevision(ctx, "o1", callcard.Order{})
	require.NoError(t, err)
	require.NoError(t, l.AddLine(ctx, "o2", callcard.OrderLine{}))

	inner.fail = true
	_, err = l.CreateOrder(ctx, callcard.Order{})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Orders.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Orders.WithLabelValues("revision")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrderLines))
}

func TestObserveSync(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveSync("card", 0.2, nil)
	m.ObserveSync("card", 0.1, errors.New("bad"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Syncs.WithLabelValues("card", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SyncSeconds))
}
