package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"knallbonbon/internal/domain/entities"
)

// pgtypeTimestamptzToTime returns t.Time when Valid, else zero time.
func pgtypeTimestamptzToTime(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

// timeToPgtypeTimestamptz maps the zero time to NULL.
func timeToPgtypeTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// childrenOrEmpty keeps the JSONB column from receiving a JSON null.
func childrenOrEmpty(children []entities.Child) []entities.Child {
	if children == nil {
		return []entities.Child{}
	}
	return children
}

// checkID rejects ids that cannot match a UUID column. PostgreSQL would fail
// the cast with 22P02 instead of returning no rows.
func checkID(what, id string, notFound error) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("get %s %s: %w", what, id, notFound)
	}
	return nil
}
