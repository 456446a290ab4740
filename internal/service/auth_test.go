package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/inknote/backend/internal/config"
	"github.com/inknote/backend/internal/domain"
	"github.com/inknote/backend/internal/googleauth"
	"github.com/inknote/backend/pkg/auth"
	"github.com/inknote/backend/pkg/otp"
)

type memoryAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.Account
}

func newMemoryAccountRepo() *memoryAccountRepo {
	return &memoryAccountRepo{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (r *memoryAccountRepo) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if existing.Email == account.Email {
			return domain.ErrDuplicateEntry
		}
		if account.OAuthSubject.Valid && existing.OAuthSubject.Valid &&
			existing.OAuthSubject.String == account.OAuthSubject.String {
			return domain.ErrDuplicateEntry
		}
	}

	stored := *account
	r.accounts[account.ID] = &stored

	return nil
}

func (r *memoryAccountRepo) GetOneByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	copied := *account
	return &copied, nil
}

func (r *memoryAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, account := range r.accounts {
		if account.Email == email {
			copied := *account
			return &copied, nil
		}
	}

	return nil, domain.ErrNotFound
}

func (r *memoryAccountRepo) GetByOAuthSubject(_ context.Context, subject string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, account := range r.accounts {
		if account.OAuthSubject.Valid && account.OAuthSubject.String == subject {
			copied := *account
			return &copied, nil
		}
	}

	return nil, domain.ErrNotFound
}

func (r *memoryAccountRepo) SetEmailVerified(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	account.EmailVerified = true

	return nil
}

func (r *memoryAccountRepo) BindOAuthSubject(_ context.Context, id uuid.UUID, subject string, profileImageRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	if account.OAuthSubject.Valid {
		return domain.ErrNoRowsAffected
	}

	account.OAuthSubject.String = subject
	account.OAuthSubject.Valid = true
	account.EmailVerified = true
	if profileImageRef != "" {
		account.ProfileImageRef.String = profileImageRef
		account.ProfileImageRef.Valid = true
	}

	return nil
}

func (r *memoryAccountRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.accounts)
}

type memoryPendingRepo struct {
	mu      sync.Mutex
	records []*domain.PendingVerification
}

func newMemoryPendingRepo() *memoryPendingRepo {
	return &memoryPendingRepo{}
}

func (r *memoryPendingRepo) Create(_ context.Context, record *domain.PendingVerification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *record
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	r.records = append(r.records, &stored)

	return nil
}

func (r *memoryPendingRepo) GetUnconsumed(_ context.Context, email string, code string) (*domain.PendingVerification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.records) - 1; i >= 0; i-- {
		record := r.records[i]
		if record.Email == email && record.Code == code && !record.Consumed {
			copied := *record
			return &copied, nil
		}
	}

	return nil, domain.ErrNotFound
}

func (r *memoryPendingRepo) ConsumeIfUnconsumed(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, record := range r.records {
		if record.ID == id {
			if record.Consumed {
				return domain.ErrNoRowsAffected
			}
			record.Consumed = true
			return nil
		}
	}

	return domain.ErrNoRowsAffected
}

func (r *memoryPendingRepo) GetLatestPendingSignup(_ context.Context, email string) (*domain.PendingVerification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.records) - 1; i >= 0; i-- {
		record := r.records[i]
		if record.Email == email && !record.Consumed && record.PendingAccount.Data != nil {
			copied := *record
			return &copied, nil
		}
	}

	return nil, domain.ErrNotFound
}

func (r *memoryPendingRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var kept []*domain.PendingVerification
	var purged int64
	for _, record := range r.records {
		if record.ExpiresAt.After(now) {
			kept = append(kept, record)
		} else {
			purged++
		}
	}
	r.records = kept

	return purged, nil
}

func (r *memoryPendingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.records)
}

func (r *memoryPendingRepo) expireAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, record := range r.records {
		record.ExpiresAt = time.Now().Add(-time.Minute)
	}
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (n *recordingNotifier) NotifyVerificationCode(_ context.Context, email string, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.fail {
		return errors.New("delivery down")
	}
	n.sent = append(n.sent, email)

	return nil
}

type staticGoogleVerifier struct {
	identities map[string]*googleauth.Identity
}

func (v *staticGoogleVerifier) Verify(_ context.Context, rawToken string) (*googleauth.Identity, error) {
	identity, ok := v.identities[rawToken]
	if !ok {
		return nil, googleauth.ErrInvalidToken
	}

	return identity, nil
}

type authFixture struct {
	service  *authService
	accounts *memoryAccountRepo
	pending  *memoryPendingRepo
	notifier *recordingNotifier
	google   *staticGoogleVerifier
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	tokenManager, err := auth.NewManager(config.JWTConfig{
		AccessTokenTTL: 168 * time.Hour,
		SigningKey:     "test-signing-key",
	})
	require.NoError(t, err)

	fixture := &authFixture{
		accounts: newMemoryAccountRepo(),
		pending:  newMemoryPendingRepo(),
		notifier: &recordingNotifier{},
		google:   &staticGoogleVerifier{identities: make(map[string]*googleauth.Identity)},
	}

	fixture.service = newAuthService(
		fixture.accounts,
		fixture.pending,
		tokenManager,
		otp.NewRandomGenerator(),
		fixture.google,
		fixture.notifier,
		config.AuthConfig{
			VerificationCodeTTL:    10 * time.Minute,
			VerificationCodeLength: 6,
		},
	)

	return fixture
}

func TestSignUpIssuesCodeWithSnapshot(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	result, err := f.service.SignUp(ctx, SignUpInput{
		Email:       "Ann@Example.com",
		DisplayName: "Ann",
		DateOfBirth: "1990-04-01",
	})
	require.NoError(t, err)
	require.Len(t, result.Code, 6)
	require.True(t, result.Notified)

	record, err := f.pending.GetLatestPendingSignup(ctx, "ann@example.com")
	require.NoError(t, err)
	require.Equal(t, result.Code, record.Code)
	require.NotNil(t, record.PendingAccount.Data)
	require.Equal(t, "Ann", record.PendingAccount.Data.DisplayName)
	require.Equal(t, "1990-04-01", record.PendingAccount.Data.DateOfBirth)

	require.Equal(t, []string{"ann@example.com"}, f.notifier.sent)
	require.Equal(t, 0, f.accounts.count())
}

func TestSignUpExistingAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.accounts.Create(ctx, &domain.Account{
		ID:    uuid.New(),
		Email: "ann@example.com",
	}))

	_, err := f.service.SignUp(ctx, SignUpInput{Email: "ann@example.com", DisplayName: "Ann"})
	require.ErrorIs(t, err, ErrAccountAlreadyExists)
}

func TestSignInUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.SignIn(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSignUpThenVerifyCreatesAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	issued, err := f.service.SignUp(ctx, SignUpInput{
		Email:       "ann@example.com",
		DisplayName: "Ann",
		DateOfBirth: "1990-04-01",
	})
	require.NoError(t, err)

	result, err := f.service.VerifyCode(ctx, "ann@example.com", issued.Code)
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, 168*time.Hour, result.ExpiresIn)

	account := result.Account
	require.Equal(t, "ann@example.com", account.Email)
	require.Equal(t, "Ann", account.DisplayName)
	require.True(t, account.EmailVerified)
	require.True(t, account.DateOfBirth.Valid)
	require.Equal(t, "1990-04-01", account.DateOfBirth.String)

	claims, err := f.service.tokenManager.Parse(result.Token)
	require.NoError(t, err)
	require.Equal(t, account.ID, claims.AccountID)
	require.Equal(t, "ann@example.com", claims.Email)
}

func TestSignInVerifyMarksEmailVerified(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	accountID := uuid.New()
	require.NoError(t, f.accounts.Create(ctx, &domain.Account{
		ID:          accountID,
		Email:       "bob@example.com",
		DisplayName: "Bob",
	}))

	issued, err := f.service.SignIn(ctx, "bob@example.com")
	require.NoError(t, err)

	result, err := f.service.VerifyCode(ctx, "bob@example.com", issued.Code)
	require.NoError(t, err)
	require.Equal(t, accountID, result.Account.ID)
	require.True(t, result.Account.EmailVerified)
	require.Equal(t, 1, f.accounts.count())
}

func TestVerifyUnknownCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.SignUp(ctx, SignUpInput{Email: "ann@example.com", DisplayName: "Ann"})
	require.NoError(t, err)

	_, err = f.service.VerifyCode(ctx, "ann@example.com", "000000")
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestVerifyExpiredCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	issued, err := f.service.SignUp(ctx, SignUpInput{Email: "ann@example.com", DisplayName: "Ann"})
	require.NoError(t, err)

	f.pending.expireAll()

	_, err = f.service.VerifyCode(ctx, "ann@example.com", issued.Code)
	require.ErrorIs(t, err, ErrCodeExpired)
}

func TestVerifyConsumesCodeOnce(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	issued, err := f.service.SignUp(ctx, SignUpInput{Email: "ann@example.com", DisplayName: "Ann"})
	require.NoError(t, err)

	_, err = f.service.VerifyCode(ctx, "ann@example.com", issued.Code)
	require.NoError(t, err)

	_, err = f.service.VerifyCode(ctx, "ann@example.com", issued.Code)
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestOverlappingCodesEachVerifyOnce(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	first, err := f.service.SignUp(ctx, SignUpInput{Email: "ann@example.com", DisplayName: "Ann"})
	require.NoError(t, err)

	second, err := f.service.Resend(ctx, "ann@example.com")
	require.NoError(t, err)
	require.NotEqual(t, first.Code, second.Code)

	_, err = f.service.VerifyCode(ctx, "ann@example.com", second.Code)
	require.NoError(t, err)

	_, err = f.service.VerifyCode(ctx, "ann@example.com", first.Code)
	require.NoError(t, err)

	_, err = f.service.VerifyCode(ctx, "ann@example.com", first.Code)
	require.ErrorIs(t, err, ErrInvalidCode)
	require.Equal(t, 1, f.accounts.count())
}

func TestConcurrentVerifySingleWinner(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	issued, err := f.service.SignUp(ctx, SignUpInput{Email: "ann@example.com", DisplayName: "Ann"})
	require.NoError(t, err)

	const attempts = 16

	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.service.VerifyCode(ctx, "ann@example.com", issued.Code)
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInvalidCode):
			rejected++
		default:
			t.Fatalf("unexpected verify error: %v", err)
		}
	}

	require.Equal(t, 1, succeeded)
	require.Equal(t, attempts-1, rejected)
	require.Equal(t, 1, f.accounts.count())
}

func TestVerifyWithoutSignupData(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	// A login-style record for an email with no account and no snapshot
	// cannot materialize anything.
	record := &domain.PendingVerification{
		ID:        uuid.New(),
		Email:     "ghost@example.com",
		Code:      "123456",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	require.NoError(t, f.pending.Create(ctx, record))

	_, err := f.service.VerifyCode(ctx, "ghost@example.com", "123456")
	require.ErrorIs(t, err, ErrSignupDataMissing)
}

func TestResendCarriesSnapshotForward(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.SignUp(ctx, SignUpInput{
		Email:       "ann@example.com",
		DisplayName: "Ann",
		DateOfBirth: "1990-04-01",
	})
	require.NoError(t, err)

	resent, err := f.service.Resend(ctx, "ann@example.com")
	require.NoError(t, err)
	require.Equal(t, 2, f.pending.count())

	result, err := f.service.VerifyCode(ctx, "ann@example.com", resent.Code)
	require.NoError(t, err)
	require.Equal(t, "Ann", result.Account.DisplayName)
	require.True(t, result.Account.EmailVerified)
}

func TestResendUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.Resend(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestResendVerifiedAccountWithoutPendingSignup(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.accounts.Create(ctx, &domain.Account{
		ID:            uuid.New(),
		Email:         "ann@example.com",
		EmailVerified: true,
	}))

	_, err := f.service.Resend(ctx, "ann@example.com")
	require.ErrorIs(t, err, ErrEmailAlreadyVerified)
}

func TestResendUnverifiedAccountIssuesLoginCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	accountID := uuid.New()
	require.NoError(t, f.accounts.Create(ctx, &domain.Account{
		ID:    accountID,
		Email: "bob@example.com",
	}))

	resent, err := f.service.Resend(ctx, "bob@example.com")
	require.NoError(t, err)

	result, err := f.service.VerifyCode(ctx, "bob@example.com", resent.Code)
	require.NoError(t, err)
	require.Equal(t, accountID, result.Account.ID)
	require.True(t, result.Account.EmailVerified)
}

func TestNotifierFailureDegradesToNotNotified(t *testing.T) {
	f := newAuthFixture(t)
	f.notifier.fail = true
	ctx := context.Background()

	result, err := f.service.SignUp(ctx, SignUpInput{Email: "ann@example.com", DisplayName: "Ann"})
	require.NoError(t, err)
	require.False(t, result.Notified)
	require.Equal(t, 1, f.pending.count())

	// The record is live in spite of the delivery failure.
	_, err = f.service.VerifyCode(ctx, "ann@example.com", result.Code)
	require.NoError(t, err)
}

func TestGoogleAuthCreatesAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.google.identities["token-carol"] = &googleauth.Identity{
		Subject: "google-sub-1",
		Email:   "Carol@Example.com",
		Name:    "Carol",
		Picture: "https://example.com/carol.png",
	}

	result, err := f.service.AuthenticateWithGoogle(ctx, "token-carol")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)

	account := result.Account
	require.Equal(t, "carol@example.com", account.Email)
	require.Equal(t, "Carol", account.DisplayName)
	require.True(t, account.EmailVerified)
	require.True(t, account.OAuthSubject.Valid)
	require.Equal(t, "google-sub-1", account.OAuthSubject.String)
	require.True(t, account.ProfileImageRef.Valid)
}

func TestGoogleAuthIsIdempotent(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.google.identities["token-carol"] = &googleauth.Identity{
		Subject: "google-sub-1",
		Email:   "carol@example.com",
		Name:    "Carol",
	}

	first, err := f.service.AuthenticateWithGoogle(ctx, "token-carol")
	require.NoError(t, err)

	second, err := f.service.AuthenticateWithGoogle(ctx, "token-carol")
	require.NoError(t, err)

	require.Equal(t, first.Account.ID, second.Account.ID)
	require.Equal(t, 1, f.accounts.count())
}

func TestGoogleAuthBindsExistingAccountByEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	accountID := uuid.New()
	require.NoError(t, f.accounts.Create(ctx, &domain.Account{
		ID:          accountID,
		Email:       "dave@example.com",
		DisplayName: "Dave",
	}))

	f.google.identities["token-dave"] = &googleauth.Identity{
		Subject: "google-sub-2",
		Email:   "dave@example.com",
		Name:    "David",
		Picture: "https://example.com/dave.png",
	}

	result, err := f.service.AuthenticateWithGoogle(ctx, "token-dave")
	require.NoError(t, err)
	require.Equal(t, accountID, result.Account.ID)
	require.Equal(t, "Dave", result.Account.DisplayName)
	require.True(t, result.Account.EmailVerified)
	require.Equal(t, "google-sub-2", result.Account.OAuthSubject.String)
	require.Equal(t, "https://example.com/dave.png", result.Account.ProfileImageRef.String)
	require.Equal(t, 1, f.accounts.count())
}

func TestGoogleAuthFindsAccountBySubject(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	accountID := uuid.New()
	account := &domain.Account{
		ID:            accountID,
		Email:         "old@example.com",
		EmailVerified: true,
	}
	account.OAuthSubject.String = "google-sub-3"
	account.OAuthSubject.Valid = true
	require.NoError(t, f.accounts.Create(ctx, account))

	// Google reports a changed email; the subject still pins the account.
	f.google.identities["token-erin"] = &googleauth.Identity{
		Subject: "google-sub-3",
		Email:   "new@example.com",
		Name:    "Erin",
	}

	result, err := f.service.AuthenticateWithGoogle(ctx, "token-erin")
	require.NoError(t, err)
	require.Equal(t, accountID, result.Account.ID)
	require.Equal(t, 1, f.accounts.count())
}

func TestGoogleAuthInvalidToken(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.AuthenticateWithGoogle(context.Background(), "garbage")
	require.ErrorIs(t, err, googleauth.ErrInvalidToken)
}

func TestConcurrentGoogleAuthSingleAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.google.identities["token-carol"] = &googleauth.Identity{
		Subject: "google-sub-1",
		Email:   "carol@example.com",
		Name:    "Carol",
	}

	const attempts = 8

	var wg sync.WaitGroup
	ids := make([]uuid.UUID, attempts)
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := f.service.AuthenticateWithGoogle(ctx, "token-carol")
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = result.Account.ID
		}(i)
	}
	wg.Wait()

	for i := 0; i < attempts; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, ids[0], ids[i])
	}
	require.Equal(t, 1, f.accounts.count())
}

func TestGetAccountByID(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	accountID := uuid.New()
	require.NoError(t, f.accounts.Create(ctx, &domain.Account{
		ID:    accountID,
		Email: "ann@example.com",
	}))

	account, err := f.service.GetAccountByID(ctx, accountID)
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", account.Email)

	_, err = f.service.GetAccountByID(ctx, uuid.New())
	require.ErrorIs(t, err, ErrAccountNotFound)
}
