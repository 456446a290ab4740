package worker

import (
	"context"

	"github.com/inknote/backend/internal/config"
	"github.com/inknote/backend/internal/repository"
	emailProvider "github.com/inknote/backend/pkg/email"
)

type Workers struct {
	EmailSender         EmailSender
	VerificationJanitor VerificationJanitor
}

type Deps struct {
	EmailProvider emailProvider.Sender
	Repos         *repository.Repositories
	Config        *config.Config
}

type EmailSender interface {
	SendVerificationEmail(ctx context.Context, email string, verificationCode string) error
}

type VerificationJanitor interface {
	PurgeExpired(ctx context.Context) error
}

func NewWorkers(deps Deps) *Workers {
	return &Workers{
		EmailSender:         newEmailSender(deps.EmailProvider, deps.Config.Email),
		VerificationJanitor: newVerificationJanitor(deps.Repos.PendingVerifications),
	}
}
