package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/inknote/backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired = errors.New("token is expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// SessionClaims is what a bearer token asserts about its holder. Tokens are
// self-contained; there is no server-side session state to invalidate.
type SessionClaims struct {
	AccountID uuid.UUID
	Email     string
}

// TokenManager provides logic for session JWT generation and parsing.
type TokenManager interface {
	NewJWT(accountID uuid.UUID, email string) (string, time.Duration, error)
	Parse(accessToken string) (*SessionClaims, error)
}

type Manager struct {
	signingKey     string
	accessTokenTTL time.Duration
}

func NewManager(cfg config.JWTConfig) (*Manager, error) {
	if cfg.SigningKey == "" {
		return nil, errors.New("empty signing key")
	}

	if cfg.AccessTokenTTL == 0 {
		return nil, errors.New("empty access token ttl")
	}

	return &Manager{
		signingKey:     cfg.SigningKey,
		accessTokenTTL: cfg.AccessTokenTTL,
	}, nil
}

type sessionTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (m *Manager) NewJWT(accountID uuid.UUID, email string) (string, time.Duration, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionTokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.accessTokenTTL)),
		},
	})

	accessToken, err := token.SignedString([]byte(m.signingKey))
	if err != nil {
		return "", 0, errors.New("sign jwt failed")
	}

	return accessToken, m.accessTokenTTL, nil
}

func (m *Manager) Parse(accessToken string) (*SessionClaims, error) {
	var claims sessionTokenClaims

	_, err := jwt.ParseWithClaims(accessToken, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return []byte(m.signingKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrTokenInvalid, err)
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: parse subject: %s", ErrTokenInvalid, err)
	}

	return &SessionClaims{
		AccountID: accountID,
		Email:     claims.Email,
	}, nil
}
