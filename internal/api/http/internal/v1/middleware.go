package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inknote/backend/internal/domain"
	"github.com/inknote/backend/pkg/auth"
	"github.com/inknote/backend/pkg/logger"
)

const (
	authorizationHeader = "Authorization"
	accountCtx          = "account"
)

func (h *Handler) accountIdentityMiddleware(c *gin.Context) {
	claims, err := h.parseAuthHeader(c)
	if err != nil {
		if !errors.Is(err, auth.ErrTokenExpired) {
			logger.Debug("parse auth header failed", zap.Error(err))
		}
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	account, err := h.services.Auth.GetAccountByID(c.Request.Context(), claims.AccountID)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	if !account.EmailVerified {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	c.Set(accountCtx, account)
}

func (h *Handler) parseAuthHeader(c *gin.Context) (*auth.SessionClaims, error) {
	header := c.GetHeader(authorizationHeader)
	if header == "" {
		return nil, errors.New("empty auth header")
	}

	headerParts := strings.Split(header, " ")
	if len(headerParts) != 2 || headerParts[0] != "Bearer" {
		return nil, errors.New("invalid auth header")
	}

	if len(headerParts[1]) == 0 {
		return nil, errors.New("token is empty")
	}

	return h.tokenManager.Parse(headerParts[1])
}

func (h *Handler) getAccount(c *gin.Context) (*domain.Account, error) {
	value, ok := c.Get(accountCtx)
	if !ok {
		return nil, errors.New("account not found in context")
	}

	account, ok := value.(*domain.Account)
	if !ok {
		return nil, errors.New("account context has wrong type")
	}

	return account, nil
}

func (h *Handler) getAccountID(c *gin.Context) (uuid.UUID, error) {
	account, err := h.getAccount(c)
	if err != nil {
		return uuid.Nil, err
	}

	return account.ID, nil
}
