package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/inknote/backend/internal/domain"
	"github.com/inknote/backend/internal/googleauth"
	"github.com/inknote/backend/internal/service"
	"github.com/inknote/backend/pkg/logger"
)

func (h *Handler) initAuthRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.signUp)
		auth.POST("/login", h.signIn)
		auth.POST("/verify-otp", h.verifyCode)
		auth.POST("/google", h.googleAuth)
		auth.POST("/resend", h.resendCode)
		auth.GET("/me", h.accountIdentityMiddleware, h.getProfile)
	}
}

type accountResponse struct {
	ID            string  `json:"id"`
	Email         string  `json:"email"`
	DisplayName   string  `json:"display_name"`
	DateOfBirth   *string `json:"date_of_birth,omitempty"`
	EmailVerified bool    `json:"email_verified"`
	ProfileImage  *string `json:"profile_image,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func newAccountResponse(account *domain.Account) accountResponse {
	resp := accountResponse{
		ID:            account.ID.String(),
		Email:         account.Email,
		DisplayName:   account.DisplayName,
		EmailVerified: account.EmailVerified,
		CreatedAt:     account.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if account.DateOfBirth.Valid {
		resp.DateOfBirth = &account.DateOfBirth.String
	}
	if account.ProfileImageRef.Valid {
		resp.ProfileImage = &account.ProfileImageRef.String
	}
	return resp
}

type issueCodeResponse struct {
	Notified bool   `json:"notified"`
	DevCode  string `json:"dev_code,omitempty"`
}

func (h *Handler) newIssueCodeResponse(result *service.IssueResult) issueCodeResponse {
	resp := issueCodeResponse{Notified: result.Notified}
	if h.config.Email.ExposeDevCode {
		resp.DevCode = result.Code
	}
	return resp
}

type authResponse struct {
	Token     string          `json:"token"`
	ExpiresIn int64           `json:"expires_in"`
	Account   accountResponse `json:"account"`
}

type signUpRequest struct {
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"display_name" binding:"required,min=2,max=50"`
	DateOfBirth string `json:"date_of_birth" binding:"required,dateofbirth"`
}

// @Summary Begin signup
// @Tags Auth
// @Description Issues a verification code for a new account
// @ModuleID signUp
// @Accept json
// @Produce json
// @Param input body signUpRequest true "signup data"
// @Success 200 {object} issueCodeResponse
// @Failure 400 {object} ErrorStruct
// @Failure 500
// @Router /auth/signup [post]
func (h *Handler) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	result, err := h.services.Auth.SignUp(c.Request.Context(), service.SignUpInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		if errors.Is(err, service.ErrAccountAlreadyExists) {
			errorResponse(c, http.StatusBadRequest, AccountAlreadyExistsCode)
			return
		}
		logger.Error("signup failed", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, h.newIssueCodeResponse(result))
}

type signInRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// @Summary Begin login
// @Tags Auth
// @Description Issues a verification code for an existing account
// @ModuleID signIn
// @Accept json
// @Produce json
// @Param input body signInRequest true "login data"
// @Success 200 {object} issueCodeResponse
// @Failure 400 {object} ErrorStruct
// @Failure 404 {object} ErrorStruct
// @Failure 500
// @Router /auth/login [post]
func (h *Handler) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	result, err := h.services.Auth.SignIn(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			errorResponse(c, http.StatusNotFound, AccountNotFoundCode)
			return
		}
		logger.Error("login failed", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, h.newIssueCodeResponse(result))
}

type verifyCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

// @Summary Verify code
// @Tags Auth
// @Description Verifies a one-time code and returns a session token
// @ModuleID verifyCode
// @Accept json
// @Produce json
// @Param input body verifyCodeRequest true "email and code"
// @Success 200 {object} authResponse
// @Failure 400 {object} ErrorStruct
// @Failure 500
// @Router /auth/verify-otp [post]
func (h *Handler) verifyCode(c *gin.Context) {
	var req verifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	result, err := h.services.Auth.VerifyCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		// wrong, consumed and expired codes are indistinguishable here
		if errors.Is(err, service.ErrInvalidCode) || errors.Is(err, service.ErrCodeExpired) {
			errorResponse(c, http.StatusBadRequest, InvalidVerificationCodeCode)
			return
		}
		logger.Error("verify code failed", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, authResponse{
		Token:     result.Token,
		ExpiresIn: int64(result.ExpiresIn.Seconds()),
		Account:   newAccountResponse(result.Account),
	})
}

type googleAuthRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

// @Summary Google auth
// @Tags Auth
// @Description Authenticates with a Google ID token
// @ModuleID googleAuth
// @Accept json
// @Produce json
// @Param input body googleAuthRequest true "google id token"
// @Success 200 {object} authResponse
// @Failure 400 {object} ErrorStruct
// @Failure 500
// @Router /auth/google [post]
func (h *Handler) googleAuth(c *gin.Context) {
	var req googleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	result, err := h.services.Auth.AuthenticateWithGoogle(c.Request.Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, googleauth.ErrInvalidToken) {
			errorResponse(c, http.StatusBadRequest, InvalidGoogleTokenCode)
			return
		}
		logger.Error("google auth failed", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, authResponse{
		Token:     result.Token,
		ExpiresIn: int64(result.ExpiresIn.Seconds()),
		Account:   newAccountResponse(result.Account),
	})
}

type resendCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// @Summary Resend code
// @Tags Auth
// @Description Re-issues a verification code for a pending signup or an existing account
// @ModuleID resendCode
// @Accept json
// @Produce json
// @Param input body resendCodeRequest true "email"
// @Success 200 {object} issueCodeResponse
// @Failure 400 {object} ErrorStruct
// @Failure 404 {object} ErrorStruct
// @Failure 500
// @Router /auth/resend [post]
func (h *Handler) resendCode(c *gin.Context) {
	var req resendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	result, err := h.services.Auth.Resend(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			errorResponse(c, http.StatusNotFound, AccountNotFoundCode)
			return
		}
		if errors.Is(err, service.ErrEmailAlreadyVerified) {
			errorResponse(c, http.StatusBadRequest, EmailAlreadyVerifiedCode)
			return
		}
		logger.Error("resend code failed", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, h.newIssueCodeResponse(result))
}

// @Summary Get profile
// @Tags Auth
// @Description Returns the authenticated account
// @ModuleID getProfile
// @Accept json
// @Produce json
// @Success 200 {object} accountResponse
// @Failure 401
// @Security UserAuth
// @Router /auth/me [get]
func (h *Handler) getProfile(c *gin.Context) {
	account, err := h.getAccount(c)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	c.JSON(http.StatusOK, newAccountResponse(account))
}
