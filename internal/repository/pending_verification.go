package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/inknote/backend/internal/domain"
)

type pendingVerificationRepository struct {
	db *sqlx.DB
}

func newPendingVerificationRepository(db *sqlx.DB) *pendingVerificationRepository {
	return &pendingVerificationRepository{
		db: db,
	}
}

func (r *pendingVerificationRepository) Create(ctx context.Context, record *domain.PendingVerification) error {
	const op = "repository.pendingVerification.Create"

	const query = `
    INSERT INTO pending_verification (id, email, code, pending_account, expires_at)
    VALUES (uuid_to_bin(:id), :email, :code, :pending_account, :expires_at)
    `

	res, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("%s: insert pending verification failed: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: get rows affected failed: %w", op, err)
	}

	if rows != 1 {
		return fmt.Errorf("%s: expected 1 row affected, got %d", op, rows)
	}

	return nil
}

// GetUnconsumed returns the newest unconsumed record matching email and code.
// Expiry is deliberately not filtered here so the caller can tell an expired
// code apart from an unknown one.
func (r *pendingVerificationRepository) GetUnconsumed(ctx context.Context, email string, code string) (*domain.PendingVerification, error) {
	const op = "repository.pendingVerification.GetUnconsumed"

	const query = `
    SELECT id, email, code, pending_account, consumed, created_at, expires_at
    FROM pending_verification
    WHERE email = ? AND code = ? AND consumed = false
    ORDER BY created_at DESC
    LIMIT 1
    `

	var record domain.PendingVerification
	if err := r.db.GetContext(ctx, &record, query, email, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: select pending verification failed: %w", op, err)
	}

	return &record, nil
}

// ConsumeIfUnconsumed flips the record to consumed in a single conditional
// update. Of N concurrent callers exactly one sees the row flip; the rest get
// domain.ErrNoRowsAffected.
func (r *pendingVerificationRepository) ConsumeIfUnconsumed(ctx context.Context, id uuid.UUID) error {
	const op = "repository.pendingVerification.ConsumeIfUnconsumed"

	const query = `
    UPDATE pending_verification
    SET consumed = true
    WHERE id = uuid_to_bin(?) AND consumed = false
    `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: update pending verification failed: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: get rows affected failed: %w", op, err)
	}

	if rows == 0 {
		return domain.ErrNoRowsAffected
	}

	return nil
}

func (r *pendingVerificationRepository) GetLatestPendingSignup(ctx context.Context, email string) (*domain.PendingVerification, error) {
	const op = "repository.pendingVerification.GetLatestPendingSignup"

	const query = `
    SELECT id, email, code, pending_account, consumed, created_at, expires_at
    FROM pending_verification
    WHERE email = ? AND consumed = false AND pending_account IS NOT NULL
    ORDER BY created_at DESC
    LIMIT 1
    `

	var record domain.PendingVerification
	if err := r.db.GetContext(ctx, &record, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: select latest pending signup failed: %w", op, err)
	}

	return &record, nil
}

func (r *pendingVerificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const op = "repository.pendingVerification.DeleteExpired"

	const query = `
    DELETE FROM pending_verification WHERE expires_at <= ?
    `

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("%s: delete expired pending verifications failed: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: get rows affected failed: %w", op, err)
	}

	return rows, nil
}
