package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/inknote/backend/internal/config"
	"github.com/inknote/backend/internal/domain"
	"github.com/inknote/backend/internal/googleauth"
	"github.com/inknote/backend/internal/repository"
	"github.com/inknote/backend/pkg/auth"
	"github.com/inknote/backend/pkg/otp"
)

type Services struct {
	Auth  Auth
	Notes Notes
}

type Deps struct {
	Config         *config.Config
	TokenManager   auth.TokenManager
	OtpGenerator   otp.Generator
	GoogleVerifier googleauth.Verifier
	Notifier       Notifier
	Repos          *repository.Repositories
}

func NewServices(deps Deps) *Services {
	return &Services{
		Auth: newAuthService(
			deps.Repos.Accounts,
			deps.Repos.PendingVerifications,
			deps.TokenManager,
			deps.OtpGenerator,
			deps.GoogleVerifier,
			deps.Notifier,
			deps.Config.Auth,
		),
		Notes: newNoteService(deps.Repos.Notes),
	}
}

// Notifier delivers a verification code to an email address. Delivery failure
// is reported to the caller but never fails the issuing operation.
type Notifier interface {
	NotifyVerificationCode(ctx context.Context, email string, code string) error
}

// IssueResult is the outcome of issuing a verification code.
type IssueResult struct {
	Code     string
	Notified bool
}

// AuthResult pairs a freshly minted session token with its account.
type AuthResult struct {
	Token     string
	ExpiresIn time.Duration
	Account   *domain.Account
}

type SignUpInput struct {
	Email       string
	DisplayName string
	DateOfBirth string
}

type Auth interface {
	SignUp(ctx context.Context, input SignUpInput) (*IssueResult, error)
	SignIn(ctx context.Context, email string) (*IssueResult, error)
	VerifyCode(ctx context.Context, email string, code string) (*AuthResult, error)
	AuthenticateWithGoogle(ctx context.Context, rawToken string) (*AuthResult, error)
	Resend(ctx context.Context, email string) (*IssueResult, error)
	GetAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

type NoteInput struct {
	Title   string
	Content string
}

type NotesPage struct {
	Notes      []domain.Note
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

type Notes interface {
	Create(ctx context.Context, accountID uuid.UUID, input NoteInput) (*domain.Note, error)
	GetAll(ctx context.Context, accountID uuid.UUID, page int, limit int) (*NotesPage, error)
	GetOneByID(ctx context.Context, accountID uuid.UUID, id uuid.UUID) (*domain.Note, error)
	Update(ctx context.Context, accountID uuid.UUID, id uuid.UUID, input NoteInput) (*domain.Note, error)
	Delete(ctx context.Context, accountID uuid.UUID, id uuid.UUID) error
}
