package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/inknote/backend/internal/db"
	"github.com/inknote/backend/internal/domain"

	"github.com/go-sql-driver/mysql"
)

type accountRepository struct {
	db *sqlx.DB
}

func newAccountRepository(db *sqlx.DB) *accountRepository {
	return &accountRepository{
		db: db,
	}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const op = "repository.account.Create"

	const query = `
    INSERT INTO account (id, email, display_name, date_of_birth, oauth_subject, email_verified, profile_image_ref)
    VALUES (uuid_to_bin(?), ?, ?, ?, ?, ?, ?)
    `

	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.DisplayName,
		account.DateOfBirth,
		account.OAuthSubject,
		account.EmailVerified,
		account.ProfileImageRef,
	)
	if err != nil {
		//nolint:errorlint
		if mysqlError, ok := err.(*mysql.MySQLError); ok && mysqlError.Number == db.DuplicateEntry {
			return domain.ErrDuplicateEntry
		}
		return fmt.Errorf("%s: insert account failed: %w", op, err)
	}

	return nil
}

func (r *accountRepository) GetOneByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	const op = "repository.account.GetOneByID"

	const query = `
    SELECT id, email, display_name, date_of_birth, oauth_subject, email_verified, profile_image_ref, created_at, updated_at, deleted_at
    FROM account
    WHERE id = uuid_to_bin(?) AND deleted_at IS NULL
    `

	var account domain.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: select account failed: %w", op, err)
	}

	return &account, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const op = "repository.account.GetByEmail"

	const query = `
    SELECT id, email, display_name, date_of_birth, oauth_subject, email_verified, profile_image_ref, created_at, updated_at, deleted_at
    FROM account
    WHERE email = ? AND deleted_at IS NULL
    `

	var account domain.Account
	if err := r.db.GetContext(ctx, &account, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: select account by email failed: %w", op, err)
	}

	return &account, nil
}

func (r *accountRepository) GetByOAuthSubject(ctx context.Context, subject string) (*domain.Account, error) {
	const op = "repository.account.GetByOAuthSubject"

	const query = `
    SELECT id, email, display_name, date_of_birth, oauth_subject, email_verified, profile_image_ref, created_at, updated_at, deleted_at
    FROM account
    WHERE oauth_subject = ? AND deleted_at IS NULL
    `

	var account domain.Account
	if err := r.db.GetContext(ctx, &account, query, subject); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: select account by oauth subject failed: %w", op, err)
	}

	return &account, nil
}

func (r *accountRepository) SetEmailVerified(ctx context.Context, id uuid.UUID) error {
	const op = "repository.account.SetEmailVerified"

	const query = `
    UPDATE account SET email_verified = true WHERE id = uuid_to_bin(?)
    `

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%s: update account failed: %w", op, err)
	}

	return nil
}

// BindOAuthSubject links an external identity to the account. The binding is
// one-way: the guard on a NULL oauth_subject makes a second bind a no-op,
// reported as domain.ErrNoRowsAffected.
func (r *accountRepository) BindOAuthSubject(ctx context.Context, id uuid.UUID, subject string, profileImageRef string) error {
	const op = "repository.account.BindOAuthSubject"

	const query = `
    UPDATE account
    SET oauth_subject = ?, email_verified = true, profile_image_ref = ?
    WHERE id = uuid_to_bin(?) AND oauth_subject IS NULL
    `

	res, err := r.db.ExecContext(ctx, query, subject, profileImageRef, id)
	if err != nil {
		return fmt.Errorf("%s: update account failed: %w", op, err)
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
