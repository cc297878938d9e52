package rest

import (
	"fmt"
	"strings"
	"time"

	"knallbonbon/internal/domain"
	"knallbonbon/internal/domain/entities"
)

const dateLayout = "2006-01-02"

type eventResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Capacity    int       `json:"capacity"`
	StartsAt    time.Time `json:"startsAt,omitzero"`
	EndsAt      time.Time `json:"endsAt,omitzero"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toEventResponse(e *entities.Event) eventResponse {
	return eventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Capacity:    e.Capacity,
		StartsAt:    e.StartsAt,
		EndsAt:      e.EndsAt,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

type createEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Capacity    int       `json:"capacity"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
}

func (r createEventRequest) toEntity() *entities.Event {
	return &entities.Event{
		Title:       r.Title,
		Description: r.Description,
		Capacity:    r.Capacity,
		StartsAt:    r.StartsAt,
		EndsAt:      r.EndsAt,
	}
}

type capacityRequest struct {
	Capacity *int `json:"capacity"`
}

type childPayload struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName,omitempty"`
	BirthDate      string `json:"birthDate,omitempty"`
	HealthInfo     string `json:"healthInfo,omitempty"`
	MayGoHomeAlone bool   `json:"mayGoHomeAlone"`
	PhotoConsent   bool   `json:"photoConsent"`
}

type submitRequest struct {
	Contact  entities.Contact `json:"contact"`
	Children []childPayload   `json:"children"`
}

// toApplicant parses birth dates as YYYY-MM-DD.
func (r submitRequest) toApplicant() (entities.Applicant, error) {
	a := entities.Applicant{Contact: r.Contact, Children: make([]entities.Child, 0, len(r.Children))}
	for i, c := range r.Children {
		child := entities.Child{
			FirstName:      c.FirstName,
			LastName:       c.LastName,
			HealthInfo:     c.HealthInfo,
			MayGoHomeAlone: c.MayGoHomeAlone,
			PhotoConsent:   c.PhotoConsent,
		}
		if s := strings.TrimSpace(c.BirthDate); s != "" {
			d, err := time.Parse(dateLayout, s)
			if err != nil {
				return entities.Applicant{}, fmt.Errorf("%w: child %d: birth date must be YYYY-MM-DD", domain.ErrInvalidApplicant, i+1)
			}
			child.BirthDate = d
		}
		a.Children = append(a.Children, child)
	}
	return a, nil
}

func toChildPayloads(children []entities.Child) []childPayload {
	out := make([]childPayload, 0, len(children))
	for _, c := range children {
		p := childPayload{
			FirstName:      c.FirstName,
			LastName:       c.LastName,
			HealthInfo:     c.HealthInfo,
			MayGoHomeAlone: c.MayGoHomeAlone,
			PhotoConsent:   c.PhotoConsent,
		}
		if !c.BirthDate.IsZero() {
			p.BirthDate = c.BirthDate.Format(dateLayout)
		}
		out = append(out, p)
	}
	return out
}

type registrationResponse struct {
	ID              string           `json:"id"`
	EventID         string           `json:"eventId"`
	Status          domain.Status    `json:"status"`
	Contact         entities.Contact `json:"contact"`
	Children        []childPayload   `json:"children"`
	WaitlistEntryID string           `json:"waitlistEntryId,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	CancelledAt     time.Time        `json:"cancelledAt,omitzero"`
}

func toRegistrationResponse(r *entities.Registration) registrationResponse {
	return registrationResponse{
		ID:              r.ID,
		EventID:         r.EventID,
		Status:          r.Status,
		Contact:         r.Contact,
		Children:        toChildPayloads(r.Children),
		WaitlistEntryID: r.WaitlistEntryID,
		CreatedAt:       r.CreatedAt,
		CancelledAt:     r.CancelledAt,
	}
}

type entryResponse struct {
	ID                   string           `json:"id"`
	EventID              string           `json:"eventId"`
	Status               domain.Status    `json:"status"`
	Contact              entities.Contact `json:"contact"`
	Children             []childPayload   `json:"children"`
	SubmittedAt          time.Time        `json:"submittedAt"`
	PromotedAt           time.Time        `json:"promotedAt,omitzero"`
	ConfirmationDeadline time.Time        `json:"confirmationDeadline,omitzero"`
	ConfirmedAt          time.Time        `json:"confirmedAt,omitzero"`
	ExpiredAt            time.Time        `json:"expiredAt,omitzero"`
	CancelledAt          time.Time        `json:"cancelledAt,omitzero"`
}

func toEntryResponse(e *entities.WaitlistEntry) entryResponse {
	return entryResponse{
		ID:                   e.ID,
		EventID:              e.EventID,
		Status:               e.Status,
		Contact:              e.Contact,
		Children:             toChildPayloads(e.Children),
		SubmittedAt:          e.SubmittedAt,
		PromotedAt:           e.PromotedAt,
		ConfirmationDeadline: e.ConfirmationDeadline,
		ConfirmedAt:          e.ConfirmedAt,
		ExpiredAt:            e.ExpiredAt,
		CancelledAt:          e.CancelledAt,
	}
}
