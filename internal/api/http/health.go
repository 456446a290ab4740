package apiHttp

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

const healthCheckTimeout = 2 * time.Second

type healthChecker struct {
	db    *sqlx.DB
	redis redis.UniversalClient
}

func NewHealthChecker(db *sqlx.DB, redisClient redis.UniversalClient) HealthChecker {
	return &healthChecker{db: db, redis: redisClient}
}

func (h *healthChecker) Check() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	status := map[string]string{"mysql": "ok", "redis": "ok"}

	if err := h.db.PingContext(ctx); err != nil {
		status["mysql"] = err.Error()
	}

	if _, err := h.redis.Ping(ctx).Result(); err != nil {
		status["redis"] = err.Error()
	}

	return status
}

// @Summary Health
// @Tags Health
// @Description Reports MySQL and Redis connectivity
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	status := h.health.Check()

	code := http.StatusOK
	for _, v := range status {
		if v != "ok" {
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, status)
}
