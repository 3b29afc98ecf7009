package app

import (
	"fmt"
	"log/slog"

	"leasekeeper/internal/notification/metrics"
	"leasekeeper/internal/notification/sender"
	"leasekeeper/internal/notification/service"
	"leasekeeper/internal/platform/config"
	"leasekeeper/internal/platform/kafka/producer"
	"leasekeeper/pkg/platform/circuit"
)

const (
	ChannelLog   = "log"
	ChannelKafka = "kafka"
	ChannelEmail = "email"
)

// buildSender picks the delivery channel from config and puts it behind a
// circuit breaker. The returned closer may be nil.
func buildSender(
	cfg config.Config,
	logger *slog.Logger,
	recipients sender.RecipientResolver,
	leases sender.LeaseLookup,
	m *metrics.Metrics,
	checks registerCheck,
) (service.Sender, func() error, error) {
	var (
		target sender.Target
		closer func() error
	)
	switch cfg.Notify.Channel {
	case ChannelKafka:
		prod, err := producer.New(cfg.Kafka, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka sender: %w", err)
		}
		checks("kafka", prod.Healthy)
		target = sender.NewKafka(prod, cfg.Kafka.NotificationTopic)
		closer = prod.Close
	case ChannelEmail:
		email, err := sender.NewEmail(sender.EmailConfig{
			APIKey:    cfg.Notify.ResendAPIKey,
			FromEmail: cfg.Notify.FromEmail,
			FromName:  cfg.Notify.FromName,
		}, recipients, leases)
		if err != nil {
			return nil, nil, fmt.Errorf("email sender: %w", err)
		}
		target = email
	case ChannelLog, "":
		target = sender.NewLog(logger)
	default:
		return nil, nil, fmt.Errorf("unknown notification channel %q", cfg.Notify.Channel)
	}

	breaker := circuit.New("notify-"+cfg.Notify.Channel,
		circuit.WithFailureThreshold(cfg.Notify.BreakerThreshold),
		circuit.WithCooldown(cfg.Notify.BreakerCooldown),
		circuit.WithStateChange(func(name string, from, to circuit.State) {
			if m != nil {
				m.BreakerTransitions.WithLabelValues(to.String()).Inc()
			}
			logger.Warn("delivery breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		}),
	)
	return sender.NewBreaker(target, breaker), closer, nil
}
