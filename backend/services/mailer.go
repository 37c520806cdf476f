package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"coursehub/backend/config"
	"coursehub/backend/utils"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type EmailMessage struct {
	To      string
	Name    string
	Subject string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// NewMailer returns the SendGrid mailer when an API key is configured and a
// console mailer otherwise.
func NewMailer(cfg *config.Config, logger *utils.Logger) Mailer {
	if cfg.SendgridAPIKey == "" {
		return NewConsoleMailer(logger)
	}
	return &SendgridMailer{
		key:        cfg.SendgridAPIKey,
		from:       sgmail.NewEmail(cfg.ProjectName, cfg.MailFrom),
		subjPrefix: "[" + cfg.ProjectName + "] ",
	}
}

type SendgridMailer struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

func (m *SendgridMailer) Send(ctx context.Context, msg EmailMessage) error {
	mail := sgmail.NewSingleEmail(
		m.from,
		m.subjPrefix+msg.Subject,
		sgmail.NewEmail(msg.Name, msg.To),
		msg.Text,
		"",
	)

	req := sendgrid.GetRequest(m.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(mail)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sending email: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// ConsoleMailer logs messages instead of sending them and keeps a copy.
type ConsoleMailer struct {
	logger *utils.Logger

	mu   sync.Mutex
	sent []EmailMessage
}

func NewConsoleMailer(logger *utils.Logger) *ConsoleMailer {
	return &ConsoleMailer{logger: logger}
}

func (m *ConsoleMailer) Send(_ context.Context, msg EmailMessage) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	m.logger.Info("email", "to", msg.To, "subject", msg.Subject, "body", msg.Text)
	return nil
}

func (m *ConsoleMailer) Sent() []EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// SendAsync delivers msg in the background; failures are only logged.
func SendAsync(mailer Mailer, logger *utils.Logger, msg EmailMessage) {
	go func() {
		if err := mailer.Send(context.Background(), msg); err != nil {
			logger.Error("send email failed", "to", msg.To, "subject", msg.Subject, "error", err)
		}
	}()
}
