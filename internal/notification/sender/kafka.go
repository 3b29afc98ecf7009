package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leasekeeper/internal/notification/models"
	"leasekeeper/internal/platform/kafka/producer"
)

// Publisher is the subset of the Kafka producer the sender needs.
type Publisher interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Event is the payload published for each notification.
type Event struct {
	NotificationID       string    `json:"notification_id"`
	AccountID            string    `json:"account_id"`
	LeaseID              string    `json:"lease_id"`
	Type                 string    `json:"type"`
	DaysBeforeExpiration int       `json:"days_before_expiration"`
	CreatedAt            time.Time `json:"created_at"`
}

// Kafka publishes one event per notification, keyed by lease so events for a
// lease stay ordered within a partition.
type Kafka struct {
	publisher Publisher
	topic     string
}

func NewKafka(publisher Publisher, topic string) *Kafka {
	return &Kafka{publisher: publisher, topic: topic}
}

func (k *Kafka) Send(ctx context.Context, n *models.Notification) error {
	payload, err := json.Marshal(Event{
		NotificationID:       n.ID.String(),
		AccountID:            n.AccountID.String(),
		LeaseID:              n.LeaseID.String(),
		Type:                 string(n.Type),
		DaysBeforeExpiration: n.DaysBeforeExpiration,
		CreatedAt:            n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode notification event: %w", err)
	}

	err = k.publisher.Produce(ctx, &producer.Message{
		Topic: k.topic,
		Key:   []byte(n.LeaseID.String()),
		Value: payload,
		Headers: map[string]string{
			"event_type": string(n.Type),
			"account_id": n.AccountID.String(),
		},
	})
	if err != nil {
		return fmt.Errorf("publish notification event: %w", err)
	}
	return nil
}
