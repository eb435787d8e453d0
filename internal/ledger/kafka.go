package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/PratikDhanave/returns-ledger-service/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes each row as JSON, keyed by return id so rows of one
// return stay on one partition in order.
type KafkaSink struct {
	writer messageWriter
	topic  string
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
		topic: topic,
	}
}

func (*KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) Append(ctx context.Context, row models.LedgerRow) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("ledger/kafka: marshal row: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(row.ReturnID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("ledger/kafka: write to %s: %w", k.topic, err)
	}
	return nil
}

// Close flushes pending messages.
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}

var _ Sink = (*KafkaSink)(nil)
