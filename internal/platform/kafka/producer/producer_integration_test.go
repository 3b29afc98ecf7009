//go:build integration

package producer_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"leasekeeper/internal/notification/models"
	"leasekeeper/internal/notification/sender"
	"leasekeeper/internal/platform/config"
	"leasekeeper/internal/platform/kafka/producer"
	id "leasekeeper/pkg/domain"
	"leasekeeper/pkg/testutil/containers"
)

type ProducerIntegrationSuite struct {
	suite.Suite
	kafka    *containers.KafkaContainer
	producer *producer.Producer
}

func TestProducerIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerIntegrationSuite))
}

func (s *ProducerIntegrationSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())

	prod, err := producer.New(config.KafkaConfig{
		Brokers:         s.kafka.Brokers,
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 10 * time.Second,
	}, nil)
	s.Require().NoError(err)
	s.producer = prod
}

func (s *ProducerIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		s.NoError(s.producer.Close())
	}
}

func (s *ProducerIntegrationSuite) TestHealthy() {
	s.NoError(s.producer.Healthy(context.Background()))
}

func (s *ProducerIntegrationSuite) TestNotificationEventIsKeyedByLease() {
	ctx := context.Background()
	topic := "lease-notifications-" + time.Now().Format("20060102150405")

	n := models.NewNotification(
		id.NotificationID(uuid.New()),
		id.AccountID(uuid.New()),
		id.LeaseID(uuid.New()),
		models.TypeLeaseExpiring, 30,
		time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC),
	)
	s.Require().NoError(sender.NewKafka(s.producer, topic).Send(ctx, n))

	consumer, err := s.kafka.NewConsumer("producer-it", topic)
	s.Require().NoError(err)
	defer consumer.Close()

	record := s.kafka.WaitForRecord(ctx, consumer, 10*time.Second, func(r *kgo.Record) bool {
		return string(r.Key) == n.LeaseID.String()
	})
	s.Require().NotNil(record, "event should be consumable")

	var event sender.Event
	s.Require().NoError(json.Unmarshal(record.Value, &event))
	s.Equal(n.ID.String(), event.NotificationID)
	s.Equal(30, event.DaysBeforeExpiration)

	headers := make(map[string]string)
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}
	s.Equal(string(models.TypeLeaseExpiring), headers["event_type"])
	s.Equal(n.AccountID.String(), headers["account_id"])
}

func (s *ProducerIntegrationSuite) TestProduceAfterCloseFails() {
	prod, err := producer.New(config.KafkaConfig{Brokers: s.kafka.Brokers, Acks: "1"}, nil)
	s.Require().NoError(err)
	s.Require().NoError(prod.Close())

	err = prod.Produce(context.Background(), &producer.Message{Topic: "closed", Value: []byte("x")})
	s.Error(err)
	s.Error(prod.Healthy(context.Background()))
}
