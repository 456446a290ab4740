package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/inknote/backend/internal/domain"
)

type noteRepository struct {
	db *sqlx.DB
}

func newNoteRepository(db *sqlx.DB) *noteRepository {
	return &noteRepository{
		db: db,
	}
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	const op = "repository.note.Create"

	const query = `
    INSERT INTO note (id, account_id, title, content)
    VALUES (uuid_to_bin(:id), uuid_to_bin(:account_id), :title, :content)
    `

	res, err := r.db.NamedExecContext(ctx, query, note)
	if err != nil {
		return fmt.Errorf("%s: insert note failed: %w", op, err)
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

func (r *noteRepository) GetOneByID(ctx context.Context, id uuid.UUID, accountID uuid.UUID) (*domain.Note, error) {
	const op = "repository.note.GetOneByID"

	const query = `
    SELECT id, account_id, title, content, created_at, updated_at, deleted_at
    FROM note
    WHERE id = uuid_to_bin(?) AND account_id = uuid_to_bin(?) AND deleted_at IS NULL
    `

	var note domain.Note
	if err := r.db.GetContext(ctx, &note, query, id, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: select note failed: %w", op, err)
	}

	return &note, nil
}

func (r *noteRepository) GetAllByAccount(ctx context.Context, accountID uuid.UUID, page int, limit int) ([]domain.Note, int64, error) {
	const op = "repository.note.GetAllByAccount"

	const query = `
    SELECT id, account_id, title, content, created_at, updated_at, deleted_at
    FROM note
    WHERE account_id = uuid_to_bin(?) AND deleted_at IS NULL
    ORDER BY created_at DESC
    LIMIT ? OFFSET ?
    `

	offset := (page - 1) * limit

	notes := make([]domain.Note, 0, limit)
	if err := r.db.SelectContext(ctx, &notes, query, accountID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("%s: select notes failed: %w", op, err)
	}

	const countQuery = `
    SELECT COUNT(*) FROM note WHERE account_id = uuid_to_bin(?) AND deleted_at IS NULL
    `

	var total int64
	if err := r.db.GetContext(ctx, &total, countQuery, accountID); err != nil {
		return nil, 0, fmt.Errorf("%s: count notes failed: %w", op, err)
	}

	return notes, total, nil
}

func (r *noteRepository) Update(ctx context.Context, note *domain.Note) error {
	const op = "repository.note.Update"

	const query = `
    UPDATE note
    SET title = ?, content = ?
    WHERE id = uuid_to_bin(?) AND account_id = uuid_to_bin(?) AND deleted_at IS NULL
    `

	res, err := r.db.ExecContext(ctx, query, note.Title, note.Content, note.ID, note.AccountID)
	if err != nil {
		return fmt.Errorf("%s: update note failed: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: get rows affected failed: %w", op, err)
	}

	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *noteRepository) Delete(ctx context.Context, id uuid.UUID, accountID uuid.UUID) error {
	const op = "repository.note.Delete"

	const query = `
    UPDATE note
    SET deleted_at = now()
    WHERE id = uuid_to_bin(?) AND account_id = uuid_to_bin(?) AND deleted_at IS NULL
    `

	res, err := r.db.ExecContext(ctx, query, id, accountID)
	if err != nil {
		return fmt.Errorf("%s: delete note failed: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: get rows affected failed: %w", op, err)
	}

	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}
