package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"ms-rsvp/internal/models"

	"github.com/segmentio/kafka-go"
)

type Producer struct {
	Writer *kafka.Writer
	Topics Topics
}

type Topics struct {
	EventCreated string
	EventDeleted string
	RSVPUpdated  string
}

func NewProducer(brokers []string, topics Topics) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer, Topics: topics}
}

func (p *Producer) publish(topic, key string, payload any) error {
	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	fmt.Printf("Publishing to Kafka [%s]: %s\n", topic, string(msgBytes))

	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

// PublishEventCreated streams a new event record to downstream consumers
func (p *Producer) PublishEventCreated(event models.Event) error {
	return p.publish(p.Topics.EventCreated, event.ID, event)
}

// PublishEventDeleted streams an event teardown to downstream consumers
func (p *Producer) PublishEventDeleted(event models.Event) error {
	return p.publish(p.Topics.EventDeleted, event.ID, event)
}

// PublishRSVPUpdated streams a participant-set change to downstream consumers
func (p *Producer) PublishRSVPUpdated(event models.Event) error {
	return p.publish(p.Topics.RSVPUpdated, event.ID, event)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
