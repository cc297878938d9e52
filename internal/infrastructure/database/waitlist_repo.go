package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"knallbonbon/internal/domain"
	"knallbonbon/internal/domain/entities"
	"knallbonbon/internal/ports/output"
)

var _ output.WaitlistRepository = (*WaitlistRepository)(nil)

const waitlistColumns = `id, event_id, first_name, last_name, email, phone, locale, children, status,
	submitted_at, promoted_at, confirmation_deadline, confirmed_at, expired_at, cancelled_at`

// WaitlistRepository implements output.WaitlistRepository with pgx.
type WaitlistRepository struct {
	q querier
}

func scanEntry(row pgx.Row) (*entities.WaitlistEntry, error) {
	var (
		e                                   entities.WaitlistEntry
		status                              string
		submittedAt, promotedAt, deadline   pgtype.Timestamptz
		confirmedAt, expiredAt, cancelledAt pgtype.Timestamptz
	)
	err := row.Scan(
		&e.ID, &e.EventID,
		&e.Contact.FirstName, &e.Contact.LastName, &e.Contact.Email, &e.Contact.Phone, &e.Contact.Locale,
		&e.Children, &status,
		&submittedAt, &promotedAt, &deadline, &confirmedAt, &expiredAt, &cancelledAt,
	)
	if err != nil {
		return nil, err
	}
	e.Status = domain.Status(status)
	e.SubmittedAt = pgtypeTimestamptzToTime(submittedAt)
	e.PromotedAt = pgtypeTimestamptzToTime(promotedAt)
	e.ConfirmationDeadline = pgtypeTimestamptzToTime(deadline)
	e.ConfirmedAt = pgtypeTimestamptzToTime(confirmedAt)
	e.ExpiredAt = pgtypeTimestamptzToTime(expiredAt)
	e.CancelledAt = pgtypeTimestamptzToTime(cancelledAt)
	return &e, nil
}

func (r *WaitlistRepository) Create(ctx context.Context, e *entities.WaitlistEntry) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO waitlist_entries (`+waitlistColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		e.ID, e.EventID,
		e.Contact.FirstName, e.Contact.LastName, e.Contact.Email, e.Contact.Phone, e.Contact.Locale,
		childrenOrEmpty(e.Children), string(e.Status),
		e.SubmittedAt,
		timeToPgtypeTimestamptz(e.PromotedAt), timeToPgtypeTimestamptz(e.ConfirmationDeadline),
		timeToPgtypeTimestamptz(e.ConfirmedAt), timeToPgtypeTimestamptz(e.ExpiredAt),
		timeToPgtypeTimestamptz(e.CancelledAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateSubmission
		}
		return fmt.Errorf("insert waitlist entry: %w", err)
	}
	return nil
}

func (r *WaitlistRepository) FindByID(ctx context.Context, id string) (*entities.WaitlistEntry, error) {
	if err := checkID("waitlist entry", id, domain.ErrEntryNotFound); err != nil {
		return nil, err
	}
	e, err := scanEntry(r.q.QueryRow(ctx,
		`SELECT `+waitlistColumns+` FROM waitlist_entries WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get waitlist entry %s: %w", id, domain.ErrEntryNotFound)
		}
		return nil, fmt.Errorf("get waitlist entry %s: %w", id, err)
	}
	return e, nil
}

func (r *WaitlistRepository) list(ctx context.Context, query string, args ...any) ([]entities.WaitlistEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list waitlist entries: %w", err)
	}
	defer rows.Close()

	var out []entities.WaitlistEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan waitlist entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *WaitlistRepository) FindByEventIDAndStatus(ctx context.Context, eventID string, status domain.Status) ([]entities.WaitlistEntry, error) {
	return r.list(ctx,
		`SELECT `+waitlistColumns+` FROM waitlist_entries
		 WHERE event_id = $1 AND status = $2
		 ORDER BY submitted_at, id`,
		eventID, string(status))
}

// FindNextWaiting locks the head of the queue. Callers hold the event lock
// already; the row lock guards against a concurrent withdrawal.
func (r *WaitlistRepository) FindNextWaiting(ctx context.Context, eventID string) (*entities.WaitlistEntry, error) {
	e, err := scanEntry(r.q.QueryRow(ctx,
		`SELECT `+waitlistColumns+` FROM waitlist_entries
		 WHERE event_id = $1 AND status = 'waiting'
		 ORDER BY submitted_at, id
		 LIMIT 1
		 FOR UPDATE`,
		eventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find next waiting: %w", err)
	}
	return e, nil
}

func (r *WaitlistRepository) FindOverdue(ctx context.Context, now time.Time, limit int) ([]entities.WaitlistEntry, error) {
	return r.list(ctx,
		`SELECT `+waitlistColumns+` FROM waitlist_entries
		 WHERE status = 'promoted' AND confirmation_deadline < $1
		 ORDER BY confirmation_deadline, id
		 LIMIT $2`,
		now, limit)
}

func (r *WaitlistRepository) CountByEventIDAndStatus(ctx context.Context, eventID string, status domain.Status) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM waitlist_entries WHERE event_id = $1 AND status = $2`,
		eventID, string(status),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count waitlist entries: %w", err)
	}
	return n, nil
}

func (r *WaitlistRepository) HasOpen(ctx context.Context, eventID, email string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM waitlist_entries
			WHERE event_id = $1 AND email = $2 AND status IN ('waiting', 'promoted')
		)`,
		eventID, entities.NormalizeEmail(email),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check open waitlist entry: %w", err)
	}
	return exists, nil
}

func (r *WaitlistRepository) UpdateIfStatus(ctx context.Context, e *entities.WaitlistEntry, expected domain.Status) (bool, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE waitlist_entries
		 SET status = $2, promoted_at = $3, confirmation_deadline = $4,
		     confirmed_at = $5, expired_at = $6, cancelled_at = $7
		 WHERE id = $1 AND status = $8`,
		e.ID, string(e.Status),
		timeToPgtypeTimestamptz(e.PromotedAt), timeToPgtypeTimestamptz(e.ConfirmationDeadline),
		timeToPgtypeTimestamptz(e.ConfirmedAt), timeToPgtypeTimestamptz(e.ExpiredAt),
		timeToPgtypeTimestamptz(e.CancelledAt),
		string(expected),
	)
	if err != nil {
		return false, fmt.Errorf("update waitlist entry: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
