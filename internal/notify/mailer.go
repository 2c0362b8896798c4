package notify

import (
	"context"

	"github.com/hashicorp/go-hclog"
	gomail "github.com/wneessen/go-mail"

	"github.com/ppmc/flowbridge/internal/config"
)

// Mailer sends a single plain text email.
type Mailer interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

// SMTPMailer sends through an SMTP relay.
type SMTPMailer struct {
	from   string
	client *gomail.Client
}

var _ Mailer = &SMTPMailer{}

func NewSMTPMailer(conf config.Mail) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(conf.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(conf.Username),
		gomail.WithPassword(conf.Password),
	}
	client, err := gomail.NewClient(conf.Host, opts...)
	if err != nil {
		return nil, err
	}
	return &SMTPMailer{from: conf.From, client: client}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to string, subject string, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)
	return m.client.DialAndSendWithContext(ctx, msg)
}

// LogMailer logs instead of sending, the default outside production.
type LogMailer struct {
	logger hclog.Logger
}

var _ Mailer = &LogMailer{}

func NewLogMailer() *LogMailer {
	return &LogMailer{logger: hclog.Default().Named("mail-mock")}
}

func (m *LogMailer) Send(ctx context.Context, to string, subject string, body string) error {
	m.logger.Info("mock mail send", "to", to, "subject", subject)
	return nil
}
