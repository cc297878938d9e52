package application

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"knallbonbon/internal/domain/entities"
	"knallbonbon/internal/log"
	"knallbonbon/internal/ports/output"
	"knallbonbon/pkg/tz"
)

// notifier wraps the dispatcher so that a failed hand-over is logged and
// never reaches the caller: a committed transition stays committed.
type notifier struct {
	out           output.Notifier
	defaultLocale string
	logger        *logrus.Entry
}

func (n *notifier) send(ctx context.Context, msg entities.Notification) {
	if n.out == nil {
		return
	}
	if msg.Recipient.Locale == "" {
		msg.Recipient.Locale = n.defaultLocale
	}
	if err := n.out.Dispatch(ctx, msg); err != nil {
		n.logger.WithError(err).WithFields(logrus.Fields{
			log.FldTemplate: msg.Template,
			log.FldEvent:    msg.EventID,
			log.FldEntry:    msg.RefID,
		}).Error("Could not hand over notification")
	}
}

// toApplicant sends to the contact behind a signup.
func (n *notifier) toApplicant(ctx context.Context, tpl entities.TemplateID, event *entities.Event, refID string, c entities.Contact, children []entities.Child, extra map[string]any) {
	n.send(ctx, entities.Notification{
		Template:  tpl,
		Recipient: entities.Recipient{Name: c.FullName(), Email: c.Email, Locale: c.Locale},
		Data:      templateData(event, c, children, extra),
		EventID:   event.ID,
		RefID:     refID,
	})
}

// toAdmin sends to the organizers; the sender resolves the address.
func (n *notifier) toAdmin(ctx context.Context, tpl entities.TemplateID, event *entities.Event, refID string, c entities.Contact, children []entities.Child, extra map[string]any) {
	n.send(ctx, entities.Notification{
		Template: tpl,
		Data:     templateData(event, c, children, extra),
		EventID:  event.ID,
		RefID:    refID,
	})
}

func templateData(event *entities.Event, c entities.Contact, children []entities.Child, extra map[string]any) map[string]any {
	names := make([]string, 0, len(children))
	for _, child := range children {
		names = append(names, strings.TrimSpace(child.FirstName+" "+child.LastName))
	}
	data := map[string]any{
		"EventTitle": event.Title,
		"EventDate":  tz.Format(event.StartsAt),
		"FirstName":  c.FirstName,
		"LastName":   c.LastName,
		"FullName":   c.FullName(),
		"Email":      c.Email,
		"Phone":      c.Phone,
		"Children":   strings.Join(names, ", "),
		"ChildCount": len(children),
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

func deadlineData(deadline time.Time) map[string]any {
	return map[string]any{"Deadline": tz.Format(deadline)}
}
