package entities

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"knallbonbon/internal/domain"
)

// Contact identifies the guardian behind a signup. Email is the per-event
// de-duplication key.
type Contact struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Locale    string `json:"locale,omitempty"`
}

// FullName joins first and last name.
func (c Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Child is a dependent attending the event.
type Child struct {
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	BirthDate      time.Time `json:"birthDate"`
	HealthInfo     string    `json:"healthInfo,omitempty"`
	MayGoHomeAlone bool      `json:"mayGoHomeAlone"`
	PhotoConsent   bool      `json:"photoConsent"`
}

// Applicant is the payload of a signup before it becomes a registration or
// a waitlist entry.
type Applicant struct {
	Contact  Contact `json:"contact"`
	Children []Child `json:"children"`
}

// NormalizeEmail lower-cases and trims an address so that it can be
// compared as a de-duplication key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Normalize trims the applicant fields and validates them.
func (a *Applicant) Normalize() error {
	a.Contact.FirstName = strings.TrimSpace(a.Contact.FirstName)
	a.Contact.LastName = strings.TrimSpace(a.Contact.LastName)
	a.Contact.Phone = strings.TrimSpace(a.Contact.Phone)
	a.Contact.Locale = strings.TrimSpace(a.Contact.Locale)
	a.Contact.Email = NormalizeEmail(a.Contact.Email)

	if a.Contact.FirstName == "" || a.Contact.LastName == "" {
		return fmt.Errorf("%w: contact name is required", domain.ErrInvalidApplicant)
	}
	if a.Contact.Email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidApplicant)
	}
	if _, err := mail.ParseAddress(a.Contact.Email); err != nil {
		return fmt.Errorf("%w: email is not a valid address", domain.ErrInvalidApplicant)
	}
	if len(a.Children) == 0 {
		return fmt.Errorf("%w: at least one child is required", domain.ErrInvalidApplicant)
	}
	for i := range a.Children {
		c := &a.Children[i]
		c.FirstName = strings.TrimSpace(c.FirstName)
		c.LastName = strings.TrimSpace(c.LastName)
		c.HealthInfo = strings.TrimSpace(c.HealthInfo)
		if c.FirstName == "" {
			return fmt.Errorf("%w: child %d has no first name", domain.ErrInvalidApplicant, i+1)
		}
		if c.LastName == "" {
			c.LastName = a.Contact.LastName
		}
	}
	return nil
}
