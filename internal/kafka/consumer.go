package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"ms-rsvp/internal/models"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
}

// NewConsumer creates a new Kafka consumer for the given topic and group
func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader}
}

// StartReactionSignals consumes reaction toggles until ctx is cancelled.
func (c *Consumer) StartReactionSignals(ctx context.Context, handler func(signal models.ReactionSignal)) {
	fmt.Println("Kafka reaction-signal consumer started...")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Printf("Error reading reaction signal: %v\n", err)
			continue
		}

		var signal models.ReactionSignal
		if err := json.Unmarshal(msg.Value, &signal); err != nil {
			log.Printf("Failed to unmarshal reaction signal: %v\n", err)
			continue
		}

		log.Printf("Received reaction signal: message=%s user=%s direction=%s", signal.MessageID, signal.UserID, signal.Direction)
		handler(signal)
	}
}

// StartDeleteSignals consumes event-delete requests until ctx is cancelled.
func (c *Consumer) StartDeleteSignals(ctx context.Context, handler func(signal models.DeleteSignal)) {
	fmt.Println("Kafka delete-signal consumer started...")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Printf("Error reading delete signal: %v\n", err)
			continue
		}

		var signal models.DeleteSignal
		if err := json.Unmarshal(msg.Value, &signal); err != nil {
			log.Printf("Failed to unmarshal delete signal: %v\n", err)
			continue
		}

		log.Printf("Received delete signal: message=%s user=%s", signal.MessageID, signal.UserID)
		handler(signal)
	}
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
