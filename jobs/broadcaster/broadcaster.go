package broadcaster

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"matchbook/infra/outbox"
)

// Broadcaster drains the fill outbox and publishes each record to Kafka
// with delivery guarantees: a record is marked SENT before the publish
// attempt and ACKED only after the broker confirms it, so a crash in
// between causes redelivery rather than loss.
type Broadcaster struct {
	outbox   *outbox.Outbox
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	log      zerolog.Logger
}

// Event is the published wire form of a fill record.
type Event struct {
	V        int    `json:"v"`
	Type     string `json:"type"`
	Seq      uint64 `json:"seq"`
	Symbol   string `json:"symbol"`
	OrderID  string `json:"order_id"`
	Price    int64  `json:"price"`
	Qty      int64  `json:"qty"`
	LastFill bool   `json:"last_fill"`
	UnixNano int64  `json:"unix_nano"`
}

func New(ob *outbox.Outbox, brokers []string, topic string, interval time.Duration, logger zerolog.Logger) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Broadcaster{
		outbox:   ob,
		producer: producer,
		topic:    topic,
		interval: interval,
		log:      logger,
	}, nil
}

// Start runs the replay loop until ctx is cancelled.
func (b *Broadcaster) Start(ctx context.Context) {
	b.log.Info().Str("topic", b.topic).Msg("broadcaster started")

	go func() {
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.replayOnce()
			}
		}
	}()
}

func (b *Broadcaster) replayOnce() {
	err := b.outbox.ScanPending(func(rec outbox.Record) error {
		if err := b.outbox.MarkSent(rec.Seq); err != nil {
			return err
		}

		payload, err := json.Marshal(Event{
			V:        1,
			Type:     "fill",
			Seq:      rec.Seq,
			Symbol:   rec.Symbol,
			OrderID:  rec.OrderID,
			Price:    rec.Price,
			Qty:      rec.Qty,
			LastFill: rec.LastFill,
			UnixNano: rec.UnixNano,
		})
		if err != nil {
			return err
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Key:   sarama.StringEncoder(rec.Symbol),
			Value: sarama.ByteEncoder(payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			b.log.Warn().Err(err).Uint64("seq", rec.Seq).Msg("publish failed, will retry")
			return nil // leave SENT, retried next tick
		}

		return b.outbox.MarkAcked(rec.Seq)
	})
	if err != nil {
		b.log.Error().Err(err).Msg("outbox replay failed")
	}
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
