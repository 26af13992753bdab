// internal/sink/kafka/kafka.go
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
)

// EventType is the envelope type of republished mint events.
const EventType = "mint"

// Envelope wraps every published record.
type Envelope struct {
	Type string          `json:"type"`
	TS   int64           `json:"ts"`
	Data json.RawMessage `json:"data"`
}

// Sink republishes events to a Kafka topic, keyed by mint.
type Sink struct {
	topic  string
	p      sarama.SyncProducer
	now    func() time.Time
	logger *zap.Logger
}

// NewConfig returns the producer settings the sink needs.
func NewConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = "mintwatch"
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Retry.Max = 3
	return cfg
}

// New dials brokers and builds a sink. cfg nil uses NewConfig.
func New(brokers []string, topic string, cfg *sarama.Config, logger *zap.Logger) (*Sink, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewWithProducer(p, topic, logger), nil
}

// NewWithProducer builds a sink over an existing producer.
func NewWithProducer(p sarama.SyncProducer, topic string, logger *zap.Logger) *Sink {
	return &Sink{topic: topic, p: p, now: time.Now, logger: logger.Named("kafka_sink")}
}

// Emit publishes e and waits for the broker ack.
func (s *Sink) Emit(_ context.Context, e domain.MintEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	b, err := json.Marshal(Envelope{Type: EventType, TS: s.now().UnixMilli(), Data: data})
	if err != nil {
		return err
	}

	partition, offset, err := s.p.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(e.Mint),
		Value: sarama.ByteEncoder(b),
	})
	if err != nil {
		return fmt.Errorf("kafka emit failed: %w", err)
	}
	s.logger.Debug("Event published",
		zap.String("mint", e.Mint),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

func (s *Sink) Close() error {
	if s.p != nil {
		return s.p.Close()
	}
	return nil
}
