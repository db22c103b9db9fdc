package events

import (
	"context"
	"fmt"

	"github.com/localnerve/callcard/internal/callcard"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// producer is the part of *kgo.Client the sink uses.
type producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Close()
}

// KafkaSink publishes events to a topic, keyed by user id. Produce is
// asynchronous; delivery failures are logged.
type KafkaSink struct {
	client producer
	log    *zap.Logger
}

// NewKafkaSink connects a producer to brokers with topic as the default topic.
func NewKafkaSink(brokers []string, topic string, log *zap.Logger, opts ...kgo.Opt) (*KafkaSink, error) {
	opts = append([]kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerLinger(0),
	}, opts...)
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &KafkaSink{client: client, log: log}, nil
}

func (s *KafkaSink) Emit(ctx context.Context, e callcard.Event) {
	value, err := Encode(e)
	if err != nil {
		s.log.Warn("event encode failed", zap.Stringer("kind", e.Kind), zap.Error(err))
		return
	}
	rec := &kgo.Record{Key: []byte(e.UserID), Value: value}
	// the record outlives the request
	s.client.Produce(context.WithoutCancel(ctx), rec, func(r *kgo.Record, err error) {
		if err != nil {
			s.log.Warn("event publish failed", zap.Stringer("kind", e.Kind), zap.String("topic", r.Topic), zap.Error(err))
		}
	})
}

// Close flushes buffered records and closes the client.
func (s *KafkaSink) Close(ctx context.Context) error {
	err := s.client.Flush(ctx)
	s.client.Close()
	return err
}
