// Package events delivers callcard domain events to their sinks. Delivery
// is best effort: sinks log failures and never report them to the caller.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/localnerve/callcard/internal/callcard"
	"github.com/localnerve/callcard/internal/models"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Message is the wire form of an event.
type Message struct {
	Kind       string            `json:"kind"`
	UserID     string            `json:"userId"`
	GameTypeID int               `json:"gameTypeId"`
	Timestamp  time.Time         `json:"timestamp"`
	Properties map[string]string `json:"properties"`
}

func toMessage(e callcard.Event) Message {
	return Message{
		Kind:       e.Kind.String(),
		UserID:     e.UserID,
		GameTypeID: e.GameTypeID,
		Timestamp:  e.Timestamp.UTC(),
		Properties: e.Properties,
	}
}

// Encode renders an event as JSON.
func Encode(e callcard.Event) ([]byte, error) {
	return json.Marshal(toMessage(e))
}

// Multi fans an event out to every sink in order.
type Multi []callcard.Emitter

func (m Multi) Emit(ctx context.Context, e callcard.Event) {
	for _, s := range m {
		s.Emit(ctx, e)
	}
}

// LogSink writes events to a zap logger.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Emit(_ context.Context, e callcard.Event) {
	s.log.Info("event",
		zap.Stringer("kind", e.Kind),
		zap.String("userId", e.UserID),
		zap.Int("gameTypeId", e.GameTypeID),
		zap.Time("timestamp", e.Timestamp),
		zap.Any("properties", e.Properties))
}

// OutboxSink stores events in the event_outbox table.
type OutboxSink struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewOutboxSink(db *gorm.DB, log *zap.Logger) *OutboxSink {
	return &OutboxSink{db: db, log: log}
}

func (s *OutboxSink) Emit(ctx context.Context, e callcard.Event) {
	props := make(datatypes.JSONMap, len(e.Properties))
	for k, v := range e.Properties {
		props[k] = v
	}
	rec := models.EventRecord{
		Kind:       int(e.Kind),
		UserID:     e.UserID,
		GameTypeID: e.GameTypeID,
		Properties: props,
		CreatedAt:  e.Timestamp.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		s.log.Warn("event outbox write failed", zap.Stringer("kind", e.Kind), zap.Error(err))
	}
}
