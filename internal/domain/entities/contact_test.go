package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"knallbonbon/internal/domain"
)

func TestApplicant_Normalize(t *testing.T) {
	a := Applicant{
		Contact: Contact{FirstName: " Anna ", LastName: "Schmidt ", Email: "  Anna.Schmidt@Example.ORG "},
		Children: []Child{
			{FirstName: "Mia", BirthDate: time.Date(2018, 5, 1, 0, 0, 0, 0, time.UTC)},
			{FirstName: " Ben ", LastName: "Meyer"},
		},
	}
	require.NoError(t, a.Normalize())
	require.Equal(t, "Anna", a.Contact.FirstName)
	require.Equal(t, "anna.schmidt@example.org", a.Contact.Email)
	require.Equal(t, "Schmidt", a.Children[0].LastName, "child inherits the contact's last name")
	require.Equal(t, "Ben", a.Children[1].FirstName)
	require.Equal(t, "Meyer", a.Children[1].LastName)
	require.Equal(t, "Anna Schmidt", a.Contact.FullName())
}

func TestApplicant_NormalizeRejects(t *testing.T) {
	cases := map[string]Applicant{
		"missing name": {
			Contact:  Contact{FirstName: "Anna", Email: "anna@example.org"},
			Children: []Child{{FirstName: "Mia"}},
		},
		"missing email": {
			Contact:  Contact{FirstName: "Anna", LastName: "Schmidt"},
			Children: []Child{{FirstName: "Mia"}},
		},
		"invalid email": {
			Contact:  Contact{FirstName: "Anna", LastName: "Schmidt", Email: "not-an-address"},
			Children: []Child{{FirstName: "Mia"}},
		},
		"no children": {
			Contact: Contact{FirstName: "Anna", LastName: "Schmidt", Email: "anna@example.org"},
		},
		"unnamed child": {
			Contact:  Contact{FirstName: "Anna", LastName: "Schmidt", Email: "anna@example.org"},
			Children: []Child{{FirstName: "  "}},
		},
	}
	for name, a := range cases {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, a.Normalize(), domain.ErrInvalidApplicant)
		})
	}
}

func TestSettings(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())
	require.True(t, s.EnableAutoPromotion)

	now := time.Date(2026, 3, 28, 12, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 4, 4, 12, 0, 0, 0, time.UTC), s.Deadline(now))

	require.ErrorIs(t, Settings{ConfirmationDeadlineDays: 0}.Validate(), domain.ErrInvalidSettings)
}

func TestEvent_FreeSlots(t *testing.T) {
	e := &Event{Capacity: 2}
	require.Equal(t, 2, e.FreeSlots(0))
	require.Equal(t, 0, e.FreeSlots(2))
	require.Equal(t, 0, e.FreeSlots(3))
	require.True(t, e.IsFull(2))
	require.False(t, e.IsFull(1))
}
