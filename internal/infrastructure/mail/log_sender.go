package mail

import (
	"context"

	"github.com/sirupsen/logrus"

	"knallbonbon/internal/domain/entities"
	"knallbonbon/internal/log"
)

// LogSender renders emails and writes them to the log instead of an SMTP
// relay. Used when no SMTP host is configured.
type LogSender struct {
	renderer *Sender
	logger   *logrus.Entry
}

func NewLogSender(renderer *Sender, logger *logrus.Entry) *LogSender {
	return &LogSender{renderer: renderer, logger: logger}
}

func (s *LogSender) Send(_ context.Context, n entities.Notification) error {
	m, err := s.renderer.Render(n)
	if err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		log.FldTemplate:  n.Template,
		log.FldRecipient: m.To,
		log.FldEvent:     n.EventID,
		"subject":        m.Subject,
	}).Info(m.Body)
	return nil
}
