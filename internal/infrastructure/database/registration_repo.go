package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"knallbonbon/internal/domain"
	"knallbonbon/internal/domain/entities"
	"knallbonbon/internal/ports/output"
)

var _ output.RegistrationRepository = (*RegistrationRepository)(nil)

const registrationColumns = `id, event_id, first_name, last_name, email, phone, locale, children,
	status, waitlist_entry_id, created_at, cancelled_at`

// RegistrationRepository implements output.RegistrationRepository with pgx.
type RegistrationRepository struct {
	q querier
}

func scanRegistration(row pgx.Row) (*entities.Registration, error) {
	var (
		reg         entities.Registration
		status      string
		entryID     pgtype.Text
		createdAt   pgtype.Timestamptz
		cancelledAt pgtype.Timestamptz
	)
	err := row.Scan(
		&reg.ID, &reg.EventID,
		&reg.Contact.FirstName, &reg.Contact.LastName, &reg.Contact.Email, &reg.Contact.Phone, &reg.Contact.Locale,
		&reg.Children, &status, &entryID, &createdAt, &cancelledAt,
	)
	if err != nil {
		return nil, err
	}
	reg.Status = domain.Status(status)
	reg.WaitlistEntryID = entryID.String
	reg.CreatedAt = pgtypeTimestamptzToTime(createdAt)
	reg.CancelledAt = pgtypeTimestamptzToTime(cancelledAt)
	return &reg, nil
}

func (r *RegistrationRepository) Create(ctx context.Context, reg *entities.Registration) error {
	var entryID pgtype.Text
	if reg.WaitlistEntryID != "" {
		entryID = pgtype.Text{String: reg.WaitlistEntryID, Valid: true}
	}
	_, err := r.q.Exec(ctx,
		`INSERT INTO registrations (`+registrationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		reg.ID, reg.EventID,
		reg.Contact.FirstName, reg.Contact.LastName, reg.Contact.Email, reg.Contact.Phone, reg.Contact.Locale,
		childrenOrEmpty(reg.Children), string(reg.Status), entryID,
		reg.CreatedAt, timeToPgtypeTimestamptz(reg.CancelledAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateSubmission
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*entities.Registration, error) {
	if err := checkID("registration", id, domain.ErrRegistrationNotFound); err != nil {
		return nil, err
	}
	reg, err := scanRegistration(r.q.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get registration %s: %w", id, domain.ErrRegistrationNotFound)
		}
		return nil, fmt.Errorf("get registration %s: %w", id, err)
	}
	return reg, nil
}

func (r *RegistrationRepository) list(ctx context.Context, query string, args ...any) ([]entities.Registration, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var out []entities.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, *reg)
	}
	return out, rows.Err()
}

func (r *RegistrationRepository) FindByEventID(ctx context.Context, eventID string) ([]entities.Registration, error) {
	return r.list(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1 ORDER BY created_at, id`,
		eventID)
}

func (r *RegistrationRepository) FindByEventIDAndStatus(ctx context.Context, eventID string, status domain.Status) ([]entities.Registration, error) {
	return r.list(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1 AND status = $2 ORDER BY created_at, id`,
		eventID, string(status))
}

func (r *RegistrationRepository) CountByEventIDAndStatus(ctx context.Context, eventID string, status domain.Status) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = $2`,
		eventID, string(status),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}

func (r *RegistrationRepository) HasConfirmed(ctx context.Context, eventID, email string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND email = $2 AND status = 'confirmed')`,
		eventID, entities.NormalizeEmail(email),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check confirmed registration: %w", err)
	}
	return exists, nil
}

func (r *RegistrationRepository) UpdateIfStatus(ctx context.Context, reg *entities.Registration, expected domain.Status) (bool, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE registrations SET status = $2, cancelled_at = $3 WHERE id = $1 AND status = $4`,
		reg.ID, string(reg.Status), timeToPgtypeTimestamptz(reg.CancelledAt), string(expected),
	)
	if err != nil {
		return false, fmt.Errorf("update registration: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
