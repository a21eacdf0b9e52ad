package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// TapeMessage is one public trade-tape entry.
type TapeMessage struct {
	Seq      uint64 `json:"seq"`
	Symbol   string `json:"symbol"`
	OrderID  string `json:"order_id"`
	Price    int64  `json:"price"`
	Qty      int64  `json:"qty"`
	LastFill bool   `json:"last_fill"`
	UnixNano int64  `json:"unix_nano"`
}

// Publisher pushes tape messages to subscribers. Implementations must be
// safe for use from the single service writer.
type Publisher interface {
	PublishFill(ctx context.Context, msg TapeMessage) error
	Close() error
}

// KafkaPublisher writes tape messages to a Kafka topic, keyed by symbol
// so one symbol's tape stays ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) PublishFill(ctx context.Context, msg TapeMessage) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Symbol),
		Value: value,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
