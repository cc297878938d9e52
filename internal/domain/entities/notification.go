package entities

// TemplateID names an email template.
type TemplateID string

// Templates sent by the waitlist workflow.
const (
	TemplateAdminNewRegistration    TemplateID = "admin-new-registration"
	TemplateUserConfirmation        TemplateID = "user-confirmation"
	TemplatePromotionNotice         TemplateID = "promotion-notice"
	TemplateConfirmationSuccess     TemplateID = "confirmation-success"
	TemplateAdminConfirmationNotice TemplateID = "admin-confirmation-notice"
	TemplateAdminExpirationNotice   TemplateID = "admin-expiration-notice"
)

// ForAdmin reports whether the template goes to the organizers rather than
// to the applicant.
func (t TemplateID) ForAdmin() bool {
	switch t {
	case TemplateAdminNewRegistration, TemplateAdminConfirmationNotice, TemplateAdminExpirationNotice:
		return true
	}
	return false
}

// Recipient is who a notification is addressed to. An empty Email on an
// admin template means "the configured admin address".
type Recipient struct {
	Name   string
	Email  string
	Locale string
}

// Notification is one templated message to deliver.
type Notification struct {
	Template  TemplateID
	Recipient Recipient
	// Data feeds the template: applicant identity, children, event title and
	// the deadline where applicable.
	Data map[string]any
	// Correlation fields for logs.
	EventID string
	RefID   string
}
