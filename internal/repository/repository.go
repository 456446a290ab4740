package repository

import (
	"context"
	"time"

	"github.com/inknote/backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	Accounts             Accounts
	PendingVerifications PendingVerifications
	Notes                Notes
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Accounts:             newAccountRepository(db),
		PendingVerifications: newPendingVerificationRepository(db),
		Notes:                newNoteRepository(db),
	}
}

type Accounts interface {
	Create(ctx context.Context, account *domain.Account) error
	GetOneByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByOAuthSubject(ctx context.Context, subject string) (*domain.Account, error)
	SetEmailVerified(ctx context.Context, id uuid.UUID) error
	BindOAuthSubject(ctx context.Context, id uuid.UUID, subject string, profileImageRef string) error
}

type PendingVerifications interface {
	Create(ctx context.Context, record *domain.PendingVerification) error
	GetUnconsumed(ctx context.Context, email string, code string) (*domain.PendingVerification, error)
	ConsumeIfUnconsumed(ctx context.Context, id uuid.UUID) error
	GetLatestPendingSignup(ctx context.Context, email string) (*domain.PendingVerification, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Notes interface {
	Create(ctx context.Context, note *domain.Note) error
	GetOneByID(ctx context.Context, id uuid.UUID, accountID uuid.UUID) (*domain.Note, error)
	GetAllByAccount(ctx context.Context, accountID uuid.UUID, page int, limit int) ([]domain.Note, int64, error)
	Update(ctx context.Context, note *domain.Note) error
	Delete(ctx context.Context, id uuid.UUID, accountID uuid.UUID) error
}
