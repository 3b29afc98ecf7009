package sender

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/resend/resend-go/v2"

	leasemodels "leasekeeper/internal/lease/models"
	"leasekeeper/internal/notification/models"
	id "leasekeeper/pkg/domain"
	"leasekeeper/pkg/platform/clock"
)

// EmailClient is the Resend emails API.
type EmailClient interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// RecipientResolver returns the address that receives an account's notices.
type RecipientResolver interface {
	NotificationEmail(ctx context.Context, accountID id.AccountID) (string, error)
}

// LeaseLookup loads the lease a notice is about.
type LeaseLookup interface {
	Get(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID) (*leasemodels.Lease, error)
}

type EmailConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// Email sends notices through Resend to the account's notification address.
type Email struct {
	client     EmailClient
	recipients RecipientResolver
	leases     LeaseLookup
	from       string
}

// NewEmail builds a Resend-backed sender.
func NewEmail(cfg EmailConfig, recipients RecipientResolver, leases LeaseLookup) (*Email, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("resend API key is required")
	}
	if cfg.FromEmail == "" {
		return nil, errors.New("from email is required")
	}
	return NewEmailWithClient(resend.NewClient(cfg.APIKey).Emails, cfg, recipients, leases), nil
}

func NewEmailWithClient(client EmailClient, cfg EmailConfig, recipients RecipientResolver, leases LeaseLookup) *Email {
	from := cfg.FromEmail
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail)
	}
	return &Email{client: client, recipients: recipients, leases: leases, from: from}
}

func (e *Email) Send(ctx context.Context, n *models.Notification) error {
	to, err := e.recipients.NotificationEmail(ctx, n.AccountID)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}
	lease, err := e.leases.Get(ctx, n.AccountID, n.LeaseID)
	if err != nil {
		return fmt.Errorf("load lease: %w", err)
	}

	subject, body := render(n, lease)
	if _, err := e.client.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    e.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func render(n *models.Notification, lease *leasemodels.Lease) (subject, body string) {
	end := clock.FormatDate(lease.EndDate)
	if n.Type == models.TypeLeaseExpired {
		subject = fmt.Sprintf("Lease ended on %s", end)
		body = fmt.Sprintf("<p>The lease <code>%s</code> ended on <strong>%s</strong>.</p>",
			html.EscapeString(lease.ID.String()), end)
		return subject, body
	}
	subject = fmt.Sprintf("Lease ends in %d days", n.DaysBeforeExpiration)
	body = fmt.Sprintf("<p>The lease <code>%s</code> ends on <strong>%s</strong>, %d days from now.</p>"+
		"<p>Monthly rent: %s. Payment target: %s.</p>",
		html.EscapeString(lease.ID.String()), end, n.DaysBeforeExpiration,
		lease.MonthlyRent.StringFixed(2), html.EscapeString(lease.PaymentTarget))
	return subject, body
}
