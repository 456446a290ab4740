package v1

import (
	"github.com/inknote/backend/internal/config"
	"github.com/inknote/backend/internal/service"
	"github.com/inknote/backend/pkg/auth"

	"github.com/gin-gonic/gin"
)

// @title Inknote Backend API
// @version 1.0
// @description Passwordless notes backend

// @BasePath /api/v1

// @securityDefinitions.apikey UserAuth
// @in header
// @name Authorization

type Handler struct {
	services     *service.Services
	tokenManager auth.TokenManager
	config       *config.Config
}

func NewHandler(
	services *service.Services,
	tokenManager auth.TokenManager,
	config *config.Config,
) *Handler {
	return &Handler{
		services:     services,
		tokenManager: tokenManager,
		config:       config,
	}
}

func (h *Handler) Init(api *gin.RouterGroup) {
	v1 := api.Group("v1")

	h.initAuthRoutes(v1)
	h.initNotesRoutes(v1)
}
