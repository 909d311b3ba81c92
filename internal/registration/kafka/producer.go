package kafka

import (
	"context"
	"encoding/json"

	"ms-registration/internal/models"

	"github.com/segmentio/kafka-go"
)

type Producer struct {
	CreatedWriter   *kafka.Writer
	CancelledWriter *kafka.Writer
}

func NewProducer(brokers []string, createdTopic, cancelledTopic string) *Producer {
	return &Producer{
		CreatedWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   createdTopic,
		}),
		CancelledWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   cancelledTopic,
		}),
	}
}

// PublishRegistrationCreated streams the committed registration to Kafka.
func (p *Producer) PublishRegistrationCreated(reg models.Registration) error {
	msgBytes, err := json.Marshal(reg)
	if err != nil {
		return err
	}
	return p.CreatedWriter.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(reg.ID),
			Value: msgBytes,
		},
	)
}

// PublishRegistrationCancelled streams the deletion so downstream consumers
// can drop derived state.
func (p *Producer) PublishRegistrationCancelled(reg models.Registration) error {
	msgBytes, err := json.Marshal(reg)
	if err != nil {
		return err
	}
	return p.CancelledWriter.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(reg.ID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	if err := p.CreatedWriter.Close(); err != nil {
		return err
	}
	return p.CancelledWriter.Close()
}
