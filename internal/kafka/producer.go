package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// ReservationEvent is the payload published for offer status changes and
// booking lifecycle transitions.
type ReservationEvent struct {
	Type         string    `json:"type"`
	OfferID      string    `json:"offer_id"`
	BookingID    string    `json:"booking_id,omitempty"`
	SlotID       string    `json:"slot_id,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	OwnerID      string    `json:"owner_id,omitempty"`
	OldStatus    string    `json:"old_status,omitempty"`
	Status       string    `json:"status"`
	DepositCents int64     `json:"deposit_cents,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
