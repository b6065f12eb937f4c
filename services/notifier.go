package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/HSouheill/movie_mania_backend/models"
)

// Notifier delivers an HTML email. Failures wrap models.ErrDelivery.
type Notifier interface {
	Send(ctx context.Context, subject, htmlBody, to, from string) error
}

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier sends mail through an SMTP relay
type SMTPNotifier struct {
	dialer mailSender
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, user, pass string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(host, port, user, pass),
		logger: logger.Named("mail"),
	}
}

func (n *SMTPNotifier) Send(ctx context.Context, subject, htmlBody, to, from string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrDelivery, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	done := make(chan error, 1)
	go func() { done <- n.dialer.DialAndSend(m) }()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", models.ErrDelivery, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", models.ErrDelivery, err)
		}
	}

	n.logger.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// LogNotifier only logs outgoing mail. Used when SMTP is not configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("mail")}
}

func (n *LogNotifier) Send(_ context.Context, subject, _, to, _ string) error {
	n.logger.Warn("SMTP not configured, email not delivered",
		zap.String("to", to), zap.String("subject", subject))
	return nil
}
