package repository

import (
	"context"

	"ADRFeed/internal/domain/models"
	"ADRFeed/internal/domain/repository"
	pkgkafka "ADRFeed/pkg/kafka"
)

type batchProducer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// quoteMessage is one Kafka record: the refreshed entry plus the outcome of
// the cycle that produced it.
type quoteMessage struct {
	models.QuoteUpdate
	CycleStatus    string `json:"cycle_status"`
	CycleTimestamp string `json:"cycle_timestamp"`
}

// KafkaQuotePublisher publishes every entry written in a refresh cycle,
// keyed by ticker.
type KafkaQuotePublisher struct {
	producer batchProducer
	topic    string
}

// NewKafkaQuotePublisher creates Kafka publisher.
func NewKafkaQuotePublisher(producer batchProducer, topic string) repository.Sink {
	return &KafkaQuotePublisher{producer: producer, topic: topic}
}

func (p *KafkaQuotePublisher) Name() string { return "kafka" }

func (p *KafkaQuotePublisher) Publish(ctx context.Context, ev models.RefreshEvent) error {
	if len(ev.Updates) == 0 {
		return nil
	}
	var status, ts string
	if ev.Snapshot != nil {
		status = string(ev.Snapshot.Status)
		ts = ev.Snapshot.Timestamp
	}
	msgs := make([]pkgkafka.Message, len(ev.Updates))
	for i, u := range ev.Updates {
		msgs[i] = pkgkafka.Message{
			Key: []byte(u.Ticker),
			Value: quoteMessage{
				QuoteUpdate:    u,
				CycleStatus:    status,
				CycleTimestamp: ts,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaQuotePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
