package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inknote/backend/internal/config"
	"github.com/inknote/backend/internal/domain"
	"github.com/inknote/backend/internal/googleauth"
	"github.com/inknote/backend/internal/repository"
	"github.com/inknote/backend/pkg/auth"
	"github.com/inknote/backend/pkg/logger"
	"github.com/inknote/backend/pkg/otp"
)

type authService struct {
	accountRepository repository.Accounts
	pendingRepository repository.PendingVerifications
	tokenManager      auth.TokenManager
	otpGenerator      otp.Generator
	googleVerifier    googleauth.Verifier
	notifier          Notifier
	authConfig        config.AuthConfig
}

func newAuthService(accountRepository repository.Accounts,
	pendingRepository repository.PendingVerifications,
	tokenManager auth.TokenManager,
	otpGenerator otp.Generator,
	googleVerifier googleauth.Verifier,
	notifier Notifier,
	authConfig config.AuthConfig,
) *authService {
	return &authService{
		accountRepository: accountRepository,
		pendingRepository: pendingRepository,
		tokenManager:      tokenManager,
		otpGenerator:      otpGenerator,
		googleVerifier:    googleVerifier,
		notifier:          notifier,
		authConfig:        authConfig,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// issue creates a fresh verification code for the email and hands it to the
// notifier. Earlier unconsumed codes for the same email stay valid. Delivery
// failure degrades the result to Notified=false instead of failing the call.
func (s *authService) issue(ctx context.Context, email string, pendingData *domain.PendingAccountData) (*IssueResult, error) {
	code, err := s.otpGenerator.RandomCode(s.authConfig.VerificationCodeLength)
	if err != nil {
		return nil, fmt.Errorf("generate verification code failed: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate pending verification id failed: %w", err)
	}

	record := &domain.PendingVerification{
		ID:             id,
		Email:          email,
		Code:           code,
		PendingAccount: domain.PendingAccountSnapshot{Data: pendingData},
		ExpiresAt:      time.Now().Add(s.authConfig.VerificationCodeTTL),
	}

	if err := s.pendingRepository.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create pending verification failed: %w", err)
	}

	notified := true
	if err := s.notifier.NotifyVerificationCode(ctx, email, code); err != nil {
		logger.Warn("verification code delivery failed", zap.String("email", email), zap.Error(err))
		notified = false
	}

	return &IssueResult{Code: code, Notified: notified}, nil
}

func (s *authService) SignUp(ctx context.Context, input SignUpInput) (*IssueResult, error) {
	email := normalizeEmail(input.Email)

	_, err := s.accountRepository.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrAccountAlreadyExists
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get account by email failed: %w", err)
	}

	return s.issue(ctx, email, &domain.PendingAccountData{
		DisplayName: strings.TrimSpace(input.DisplayName),
		DateOfBirth: input.DateOfBirth,
	})
}

func (s *authService) SignIn(ctx context.Context, email string) (*IssueResult, error) {
	email = normalizeEmail(email)

	if _, err := s.accountRepository.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account by email failed: %w", err)
	}

	return s.issue(ctx, email, nil)
}

func (s *authService) Resend(ctx context.Context, email string) (*IssueResult, error) {
	email = normalizeEmail(email)

	pendingSignup, err := s.pendingRepository.GetLatestPendingSignup(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get latest pending signup failed: %w", err)
	}

	account, err := s.accountRepository.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get account by email failed: %w", err)
	}

	if account == nil && pendingSignup == nil {
		return nil, ErrAccountNotFound
	}

	if account != nil && account.EmailVerified && pendingSignup == nil {
		return nil, ErrEmailAlreadyVerified
	}

	// Carry the signup snapshot forward so a later verify can still
	// materialize the account.
	var pendingData *domain.PendingAccountData
	if pendingSignup != nil {
		pendingData = pendingSignup.PendingAccount.Data
	}

	return s.issue(ctx, email, pendingData)
}

func (s *authService) VerifyCode(ctx context.Context, email string, code string) (*AuthResult, error) {
	email = normalizeEmail(email)

	record, err := s.pendingRepository.GetUnconsumed(ctx, email, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("get pending verification failed: %w", err)
	}

	if !time.Now().Before(record.ExpiresAt) {
		return nil, ErrCodeExpired
	}

	// Single conditional check-and-set. Of any number of concurrent
	// verifications for this record exactly one passes this point.
	if err := s.pendingRepository.ConsumeIfUnconsumed(ctx, record.ID); err != nil {
		if errors.Is(err, domain.ErrNoRowsAffected) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("consume pending verification failed: %w", err)
	}

	account, err := s.materializeFromEmail(ctx, email, record.PendingAccount.Data)
	if err != nil {
		return nil, err
	}

	return s.createSession(account)
}

// materializeFromEmail resolves the account for a freshly verified email:
// an existing account gets email_verified set, a missing one is created from
// the signup snapshot. A creation conflict means a concurrent verify won the
// insert, so the loser retries as lookup-then-update.
func (s *authService) materializeFromEmail(ctx context.Context, email string, pendingData *domain.PendingAccountData) (*domain.Account, error) {
	account, err := s.accountRepository.GetByEmail(ctx, email)
	if err == nil {
		return s.markEmailVerified(ctx, account)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get account by email failed: %w", err)
	}

	if pendingData == nil {
		return nil, ErrSignupDataMissing
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate account id failed: %w", err)
	}

	account = &domain.Account{
		ID:          id,
		Email:       email,
		DisplayName: pendingData.DisplayName,
		DateOfBirth: sql.NullString{
			String: pendingData.DateOfBirth,
			Valid:  pendingData.DateOfBirth != "",
		},
		EmailVerified: true,
	}

	if err := s.accountRepository.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			existing, lookupErr := s.accountRepository.GetByEmail(ctx, email)
			if lookupErr != nil {
				return nil, fmt.Errorf("get account after create conflict failed: %w", lookupErr)
			}
			return s.markEmailVerified(ctx, existing)
		}
		return nil, fmt.Errorf("create account failed: %w", err)
	}

	return account, nil
}

func (s *authService) markEmailVerified(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if account.EmailVerified {
		return account, nil
	}

	if err := s.accountRepository.SetEmailVerified(ctx, account.ID); err != nil {
		return nil, fmt.Errorf("set email verified failed: %w", err)
	}
	account.EmailVerified = true

	return account, nil
}

func (s *authService) AuthenticateWithGoogle(ctx context.Context, rawToken string) (*AuthResult, error) {
	identity, err := s.googleVerifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("verify google token failed: %w", err)
	}

	account, err := s.resolveFromGoogle(ctx, identity)
	if err != nil {
		return nil, err
	}

	return s.createSession(account)
}

// resolveFromGoogle merges a verified Google identity into account space.
// An email match wins over a subject match; binding the subject to an account
// is one-way and happens at most once. The resolution is idempotent: repeated
// calls with the same subject land on the same account.
func (s *authService) resolveFromGoogle(ctx context.Context, identity *googleauth.Identity) (*domain.Account, error) {
	email := normalizeEmail(identity.Email)

	account, err := s.accountRepository.GetByEmail(ctx, email)
	if err == nil {
		return s.bindGoogleSubject(ctx, account, identity)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get account by email failed: %w", err)
	}

	account, err = s.accountRepository.GetByOAuthSubject(ctx, identity.Subject)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get account by oauth subject failed: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate account id failed: %w", err)
	}

	account = &domain.Account{
		ID:          id,
		Email:       email,
		DisplayName: identity.Name,
		OAuthSubject: sql.NullString{
			String: identity.Subject,
			Valid:  true,
		},
		ProfileImageRef: sql.NullString{
			String: identity.Picture,
			Valid:  identity.Picture != "",
		},
		EmailVerified: true,
	}

	if err := s.accountRepository.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			// Lost the first-creation race on email or subject; the
			// winner's row is authoritative now.
			existing, lookupErr := s.accountRepository.GetByEmail(ctx, email)
			if lookupErr != nil {
				if !errors.Is(lookupErr, domain.ErrNotFound) {
					return nil, fmt.Errorf("get account after create conflict failed: %w", lookupErr)
				}
				existing, lookupErr = s.accountRepository.GetByOAuthSubject(ctx, identity.Subject)
				if lookupErr != nil {
					return nil, fmt.Errorf("get account after create conflict failed: %w", lookupErr)
				}
			}
			return s.bindGoogleSubject(ctx, existing, identity)
		}
		return nil, fmt.Errorf("create account failed: %w", err)
	}

	return account, nil
}

func (s *authService) bindGoogleSubject(ctx context.Context, account *domain.Account, identity *googleauth.Identity) (*domain.Account, error) {
	if account.OAuthSubject.Valid {
		return account, nil
	}

	err := s.accountRepository.BindOAuthSubject(ctx, account.ID, identity.Subject, identity.Picture)
	if err != nil && !errors.Is(err, domain.ErrNoRowsAffected) {
		return nil, fmt.Errorf("bind oauth subject failed: %w", err)
	}
	if errors.Is(err, domain.ErrNoRowsAffected) {
		// A concurrent call bound the subject first; re-read the result.
		bound, lookupErr := s.accountRepository.GetOneByID(ctx, account.ID)
		if lookupErr != nil {
			return nil, fmt.Errorf("get account after bind conflict failed: %w", lookupErr)
		}
		return bound, nil
	}

	account.OAuthSubject = sql.NullString{String: identity.Subject, Valid: true}
	account.ProfileImageRef = sql.NullString{String: identity.Picture, Valid: identity.Picture != ""}
	account.EmailVerified = true

	return account, nil
}

func (s *authService) createSession(account *domain.Account) (*AuthResult, error) {
	token, ttl, err := s.tokenManager.NewJWT(account.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("generate access token failed: %w", err)
	}

	return &AuthResult{
		Token:     token,
		ExpiresIn: ttl,
		Account:   account,
	}, nil
}

func (s *authService) GetAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, err := s.accountRepository.GetOneByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account by id failed: %w", err)
	}

	return account, nil
}
