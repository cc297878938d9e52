package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"knallbonbon/internal/domain/entities"
	"knallbonbon/internal/log"
	"knallbonbon/internal/ports/output"
	embeds "knallbonbon/pkg/discord"
)

// webhookExecutor is the part of *discordgo.Session the alerter needs.
type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Alerter posts organizer notifications to a Discord channel webhook.
// Applicant templates are ignored.
type Alerter struct {
	session   webhookExecutor
	webhookID string
	token     string
	logger    *logrus.Entry
}

var _ output.Sender = (*Alerter)(nil)

// NewAlerter creates a token-less session; webhook execution authenticates
// with the webhook token alone.
func NewAlerter(webhookID, token string, logger *logrus.Entry) (*Alerter, error) {
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	return &Alerter{session: session, webhookID: webhookID, token: token, logger: logger}, nil
}

var alertTitles = map[entities.TemplateID]string{
	entities.TemplateAdminNewRegistration:    "Neue Anmeldung",
	entities.TemplateAdminConfirmationNotice: "Wartelistenplatz bestätigt",
	entities.TemplateAdminExpirationNotice:   "Bestätigungsfrist abgelaufen",
}

func alertKind(tpl entities.TemplateID) embeds.AlertKind {
	switch tpl {
	case entities.TemplateAdminConfirmationNotice:
		return embeds.AlertSuccess
	case entities.TemplateAdminExpirationNotice:
		return embeds.AlertWarning
	default:
		return embeds.AlertInfo
	}
}

func (a *Alerter) Send(ctx context.Context, n entities.Notification) error {
	if !n.Template.ForAdmin() {
		return nil
	}
	title, ok := alertTitles[n.Template]
	if !ok {
		title = string(n.Template)
	}
	params := &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embeds.BuildAlertEmbed(alertKind(n.Template), title, n.Data)},
	}
	if _, err := a.session.WebhookExecute(a.webhookID, a.token, false, params, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: execute webhook: %w", err)
	}
	a.logger.WithFields(logrus.Fields{
		log.FldTemplate: n.Template,
		log.FldEvent:    n.EventID,
	}).Debug("Discord alert posted")
	return nil
}
