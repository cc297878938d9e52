package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"knallbonbon/internal/domain"
	"knallbonbon/internal/ports/output"
)

var _ output.Store = (*Store)(nil)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so repositories
// work the same inside and outside of a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements output.Store on PostgreSQL.
//
// Capacity decisions lock the event row with SELECT ... FOR UPDATE. Two
// transactions deciding about the same event therefore run one after the
// other, and the second one sees the registrations the first one created.
// Status changes additionally use UPDATE ... WHERE status = $expected so a
// lost race shows up as zero affected rows instead of a silent overwrite.
type Store struct {
	pool   *pgxpool.Pool
	logger *logrus.Entry
}

func NewStore(pool *pgxpool.Pool, logger *logrus.Entry) *Store {
	return &Store{pool: pool, logger: logger}
}

func (s *Store) Repos() output.Repositories {
	return repositories(s.pool)
}

func repositories(q querier) output.Repositories {
	return output.Repositories{
		Events:        &EventRepository{q: q},
		Registrations: &RegistrationRepository{q: q},
		Waitlist:      &WaitlistRepository{q: q},
	}
}

// SettingsRepository returns the settings repository on the same pool.
func (s *Store) SettingsRepository() *SettingsRepository {
	return NewSettingsRepository(s.pool)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, r output.Repositories) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", domain.ErrStoreUnavailable, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.WithError(rbErr).Warn("Rollback failed")
			}
		}
	}()

	if err = fn(ctx, repositories(tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports a unique index rejection (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
