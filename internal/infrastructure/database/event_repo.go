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

var _ output.EventRepository = (*EventRepository)(nil)

const eventColumns = `id, title, description, capacity, starts_at, ends_at, created_at, updated_at`

type EventRepository struct {
	q querier
}

func scanEvent(row pgx.Row) (*entities.Event, error) {
	var (
		e                    entities.Event
		startsAt, endsAt     pgtype.Timestamptz
		createdAt, updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Capacity, &startsAt, &endsAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.StartsAt = pgtypeTimestamptzToTime(startsAt)
	e.EndsAt = pgtypeTimestamptzToTime(endsAt)
	e.CreatedAt = pgtypeTimestamptzToTime(createdAt)
	e.UpdatedAt = pgtypeTimestamptzToTime(updatedAt)
	return &e, nil
}

func (r *EventRepository) Create(ctx context.Context, event *entities.Event) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.Title, event.Description, event.Capacity,
		timeToPgtypeTimestamptz(event.StartsAt), timeToPgtypeTimestamptz(event.EndsAt),
		event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *EventRepository) findOne(ctx context.Context, query, id string) (*entities.Event, error) {
	if err := checkID("event", id, domain.ErrEventNotFound); err != nil {
		return nil, err
	}
	e, err := scanEvent(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get event %s: %w", id, domain.ErrEventNotFound)
		}
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return e, nil
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (*entities.Event, error) {
	return r.findOne(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

func (r *EventRepository) FindByIDForUpdate(ctx context.Context, id string) (*entities.Event, error) {
	return r.findOne(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
}

func (r *EventRepository) List(ctx context.Context) ([]entities.Event, error) {
	rows, err := r.q.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY starts_at NULLS LAST, id`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []entities.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *EventRepository) Update(ctx context.Context, event *entities.Event) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE events
		 SET title = $2, description = $3, capacity = $4, starts_at = $5, ends_at = $6, updated_at = $7
		 WHERE id = $1`,
		event.ID, event.Title, event.Description, event.Capacity,
		timeToPgtypeTimestamptz(event.StartsAt), timeToPgtypeTimestamptz(event.EndsAt), event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update event %s: %w", event.ID, domain.ErrEventNotFound)
	}
	return nil
}
