package sender

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	leasemodels "leasekeeper/internal/lease/models"
	"leasekeeper/internal/notification/models"
	"leasekeeper/internal/platform/kafka/producer"
	id "leasekeeper/pkg/domain"
	"leasekeeper/pkg/platform/circuit"
)

func sample(typ models.Type, days int) *models.Notification {
	return models.NewNotification(id.NotificationID(uuid.New()), id.AccountID(uuid.New()), id.LeaseID(uuid.New()),
		typ, days, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
}

type capturePublisher struct {
	msgs []*producer.Message
	err  error
}

func (p *capturePublisher) Produce(_ context.Context, msg *producer.Message) error {
	p.msgs = append(p.msgs, msg)
	return p.err
}

func TestKafka_PublishesEventKeyedByLease(t *testing.T) {
	pub := &capturePublisher{}
	n := sample(models.TypeLeaseExpiring, 30)

	require.NoError(t, NewKafka(pub, "lease.notifications").Send(context.Background(), n))
	require.Len(t, pub.msgs, 1)
	msg := pub.msgs[0]
	assert.Equal(t, "lease.notifications", msg.Topic)
	assert.Equal(t, n.LeaseID.String(), string(msg.Key))
	assert.Equal(t, "LEASE_EXPIRING", msg.Headers["event_type"])

	var event Event
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, n.ID.String(), event.NotificationID)
	assert.Equal(t, 30, event.DaysBeforeExpiration)
}

func TestKafka_ProduceErrorIsReturned(t *testing.T) {
	pub := &capturePublisher{err: errors.New("broker unreachable")}
	err := NewKafka(pub, "t").Send(context.Background(), sample(models.TypeLeaseExpiring, 7))
	assert.ErrorContains(t, err, "broker unreachable")
}

type fakeEmailClient struct {
	sent []*resend.SendEmailRequest
	err  error
}

func (c *fakeEmailClient) SendWithContext(_ context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	c.sent = append(c.sent, params)
	if c.err != nil {
		return nil, c.err
	}
	return &resend.SendEmailResponse{Id: "email-1"}, nil
}

type staticRecipient struct {
	email string
	err   error
}

func (r staticRecipient) NotificationEmail(context.Context, id.AccountID) (string, error) {
	return r.email, r.err
}

type leaseByID map[id.LeaseID]*leasemodels.Lease

func (m leaseByID) Get(_ context.Context, _ id.AccountID, leaseID id.LeaseID) (*leasemodels.Lease, error) {
	l, ok := m[leaseID]
	if !ok {
		return nil, errors.New("Lease not found")
	}
	return l, nil
}

func TestEmail(t *testing.T) {
	n := sample(models.TypeLeaseExpiring, 30)
	leases := leaseByID{n.LeaseID: {
		ID:            n.LeaseID,
		EndDate:       time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		MonthlyRent:   decimal.NewFromInt(4200),
		PaymentTarget: "Bank <Leumi>",
	}}
	cfg := EmailConfig{FromEmail: "reminders@leasekeeper.test", FromName: "Lease Reminders"}

	t.Run("renders and sends", func(t *testing.T) {
		client := &fakeEmailClient{}
		s := NewEmailWithClient(client, cfg, staticRecipient{email: "owner@example.test"}, leases)
		require.NoError(t, s.Send(context.Background(), n))
		require.Len(t, client.sent, 1)
		req := client.sent[0]
		assert.Equal(t, "Lease Reminders <reminders@leasekeeper.test>", req.From)
		assert.Equal(t, []string{"owner@example.test"}, req.To)
		assert.Equal(t, "Lease ends in 30 days", req.Subject)
		assert.Contains(t, req.Html, "2024-03-31")
		assert.Contains(t, req.Html, "Bank &lt;Leumi&gt;")
	})

	t.Run("missing recipient fails before sending", func(t *testing.T) {
		client := &fakeEmailClient{}
		s := NewEmailWithClient(client, cfg, staticRecipient{err: errors.New("no address")}, leases)
		assert.Error(t, s.Send(context.Background(), n))
		assert.Empty(t, client.sent)
	})

	t.Run("provider error", func(t *testing.T) {
		client := &fakeEmailClient{err: errors.New("422 invalid from")}
		s := NewEmailWithClient(client, cfg, staticRecipient{email: "owner@example.test"}, leases)
		assert.ErrorContains(t, s.Send(context.Background(), n), "422 invalid from")
	})

	t.Run("constructor requires credentials", func(t *testing.T) {
		_, err := NewEmail(EmailConfig{FromEmail: "a@b.test"}, nil, nil)
		assert.Error(t, err)
	})
}

func TestBreaker_FailsFastWhenOpen(t *testing.T) {
	calls := 0
	failing := Func(func(context.Context, *models.Notification) error {
		calls++
		return errors.New("smtp down")
	})
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	b := NewBreaker(failing, circuit.New("email",
		circuit.WithFailureThreshold(2),
		circuit.WithCooldown(time.Minute),
		circuit.WithNow(func() time.Time { return now }),
	))

	ctx := context.Background()
	n := sample(models.TypeLeaseExpiring, 7)
	assert.Error(t, b.Send(ctx, n))
	assert.Error(t, b.Send(ctx, n))
	assert.ErrorIs(t, b.Send(ctx, n), ErrCircuitOpen)
	assert.Equal(t, 2, calls)

	now = now.Add(2 * time.Minute)
	assert.Error(t, b.Send(ctx, n))
	assert.Equal(t, 3, calls, "one probe after cooldown")
}

func TestLog_AlwaysSucceeds(t *testing.T) {
	s := NewLog(slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NoError(t, s.Send(context.Background(), sample(models.TypeLeaseExpired, 0)))
}
