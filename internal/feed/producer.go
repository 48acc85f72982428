// Package feed mirrors published alerts onto a Kafka topic for downstream
// consumers (SIEM pipelines, recorders). Like push, it is best-effort and
// never affects the publish outcome.
package feed

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/vigilhq/vigil/internal/domain/alert"
)

type Producer struct {
	w     *kafka.Writer
	topic string
	log   *zap.Logger
}

func NewProducer(brokers []string, topic string, log *zap.Logger) *Producer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		topic: topic,
		log:   log.With(zap.String("component", "feed.producer"), zap.String("topic", topic)),
	}
}

func (p *Producer) Publish(ctx context.Context, a *alert.Alert) error {
	value, err := json.Marshal(a)
	if err != nil {
		p.log.Error("marshal alert", zap.Error(err))
		return err
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(a.ID, 10)),
		Value: value,
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		p.log.Error("kafka write failed", zap.Error(err))
		return err
	}
	p.log.Debug("alert published to feed", zap.Int64("alert_id", a.ID))
	return nil
}

func (p *Producer) Close() error { return p.w.Close() }
