package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
	gomail "github.com/wneessen/go-mail"

	"knallbonbon/internal/domain/entities"
	"knallbonbon/internal/log"
	"knallbonbon/internal/ports/output"
)

var errNoRecipient = errors.New("mail: no recipient address")

// Config holds the SMTP relay settings.
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	AdminEmail string
}

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers notifications as plain text emails over SMTP. Address and
// rendering problems are marked permanent so they are not retried.
type Sender struct {
	cfg        Config
	translator output.T
	logger     *logrus.Entry
	deliver    func(ctx context.Context, m *gomail.Msg) error
}

var _ output.Sender = (*Sender)(nil)

func NewSender(cfg Config, translator output.T, logger *logrus.Entry) *Sender {
	s := &Sender{cfg: cfg, translator: translator, logger: logger}
	s.deliver = s.dialAndSend
	return s
}

// Render resolves the recipient and renders subject and body through the
// translator. Admin templates without an address go to the admin mailbox.
func (s *Sender) Render(n entities.Notification) (Message, error) {
	to := n.Recipient.Email
	if to == "" && n.Template.ForAdmin() {
		to = s.cfg.AdminEmail
	}
	if to == "" {
		return Message{}, fmt.Errorf("%w for template %s", errNoRecipient, n.Template)
	}
	key := "email." + string(n.Template)
	return Message{
		To:      to,
		Subject: s.translator.T(n.Recipient.Locale, key+".subject", n.Data),
		Body:    s.translator.T(n.Recipient.Locale, key+".body", n.Data),
	}, nil
}

func (s *Sender) Send(ctx context.Context, n entities.Notification) error {
	rendered, err := s.Render(n)
	if err != nil {
		return backoff.Permanent(err)
	}

	m := gomail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return backoff.Permanent(fmt.Errorf("mail: invalid sender %q: %w", s.cfg.From, err))
	}
	if err := m.To(rendered.To); err != nil {
		return backoff.Permanent(fmt.Errorf("mail: invalid recipient %q: %w", rendered.To, err))
	}
	m.Subject(rendered.Subject)
	m.SetBodyString(gomail.TypeTextPlain, rendered.Body)

	if err := s.deliver(ctx, m); err != nil {
		return fmt.Errorf("mail: send %s: %w", n.Template, err)
	}
	s.logger.WithFields(logrus.Fields{
		log.FldTemplate:  n.Template,
		log.FldRecipient: rendered.To,
		log.FldEvent:     n.EventID,
	}).Debug("Email sent")
	return nil
}

func (s *Sender) dialAndSend(ctx context.Context, m *gomail.Msg) error {
	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, m)
}
