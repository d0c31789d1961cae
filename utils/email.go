// utils/email.go
package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"go-storefront/models"
)

// Mailer delivers a single message
type Mailer interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}

type postmarkMailer struct {
	client *postmark.Client
	from   string
}

func (m *postmarkMailer) Send(_ context.Context, to, subject, textBody, htmlBody string) error {
	_, err := m.client.SendEmail(postmark.Email{
		From:     m.from,
		To:       to,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	})
	return err
}

type sendgridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func (m *sendgridMailer) Send(_ context.Context, to, subject, textBody, htmlBody string) error {
	msg := mail.NewSingleEmail(m.from, subject, mail.NewEmail("", to), textBody, htmlBody)
	resp, err := m.client.Send(msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid responded %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// consoleMailer writes messages to the log instead of sending them, for development
type consoleMailer struct {
	logger *zap.Logger
}

func (m *consoleMailer) Send(_ context.Context, to, subject, textBody, _ string) error {
	m.logger.Info("email (console backend)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", textBody))
	return nil
}

// NewMailer builds the Mailer selected by cfg.Provider
func NewMailer(cfg EmailConfig, logger *zap.Logger) (Mailer, error) {
	switch cfg.Provider {
	case "postmark":
		return &postmarkMailer{client: postmark.NewClient(cfg.PostmarkToken, ""), from: cfg.Sender}, nil
	case "sendgrid":
		return &sendgridMailer{client: sendgrid.NewSendClient(cfg.SendGridKey), from: mail.NewEmail("", cfg.Sender)}, nil
	case "console", "":
		return &consoleMailer{logger: logger}, nil
	}
	return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
}

// EmailService composes the storefront emails and sends them through a Mailer
// guarded by a circuit breaker, so a failing provider is not hammered on every request.
type EmailService struct {
	mailer  Mailer
	breaker *gobreaker.CircuitBreaker[struct{}]
	baseURL string
	logger  *zap.Logger
}

// NewEmailService initializes and returns a new EmailService instance.
// baseURL is used to build absolute links in messages.
func NewEmailService(mailer Mailer, baseURL string, logger *zap.Logger) *EmailService {
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "email",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("email circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &EmailService{
		mailer:  mailer,
		breaker: breaker,
		baseURL: baseURL,
		logger:  logger,
	}
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(ctx context.Context, toEmail, subject, textContent, htmlContent string) error {
	_, err := es.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, es.mailer.Send(ctx, toEmail, subject, textContent, htmlContent)
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	es.logger.Debug("email sent", zap.String("to", toEmail), zap.String("subject", subject))
	return nil
}

// VerificationLink returns the account verification URL for token
func (es *EmailService) VerificationLink(token string) string {
	return fmt.Sprintf("%s/verify?token=%s", es.baseURL, token)
}

// NewsletterConfirmLink returns the newsletter confirmation URL for token
func (es *EmailService) NewsletterConfirmLink(token string) string {
	return fmt.Sprintf("%s/newsletter/confirm/%s", es.baseURL, token)
}

// SendVerificationEmail sends an email verification link to the user
func (es *EmailService) SendVerificationEmail(ctx context.Context, toEmail, token string) error {
	link := es.VerificationLink(token)
	text := fmt.Sprintf("Please verify your email by opening the following link:\n%s\n", link)
	html := fmt.Sprintf(
		"<strong>Please verify your email by clicking on the following link:</strong> <a href=\"%s\">Verify Email</a>",
		link,
	)
	return es.SendEmail(ctx, toEmail, "Verify Your Email", text, html)
}

// SendNewsletterConfirmation asks a new subscriber to confirm their address
func (es *EmailService) SendNewsletterConfirmation(ctx context.Context, toEmail, token string) error {
	link := es.NewsletterConfirmLink(token)
	text := fmt.Sprintf(
		"Thanks for subscribing to our newsletter!\n\nOpen this link to confirm your email:\n%s\n\nIf it wasn't you, ignore this message.",
		link,
	)
	html := fmt.Sprintf(
		"<strong>Thanks for subscribing to our newsletter!</strong><br><br><a href=\"%s\">Confirm my subscription</a><br><br>If it wasn't you, ignore this message.",
		link,
	)
	return es.SendEmail(ctx, toEmail, "Confirm your subscription", text, html)
}

// SendOrderConfirmationEmail sends an order confirmation email to the user
func (es *EmailService) SendOrderConfirmationEmail(ctx context.Context, toEmail string, order models.Order) error {
	text := fmt.Sprintf(
		"Thank you for your purchase! Your order (ID: %s) has been placed successfully.\n\nTotal Amount: $%s\n",
		order.ID.Hex(),
		order.Total.StringFixed(2),
	)
	html := fmt.Sprintf(
		"<strong>Dear Customer,</strong><br><br>Thank you for your purchase! Your order (ID: %s) has been placed successfully.<br><br>Total Amount: <strong>$%s</strong><br><br>Thank you for shopping with us!",
		order.ID.Hex(),
		order.Total.StringFixed(2),
	)
	return es.SendEmail(ctx, toEmail, "Order Confirmation", text, html)
}
