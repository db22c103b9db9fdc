package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/callcard/internal/config"
	"github.com/localnerve/callcard/internal/services"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthHandler reports service health. Redis may be nil.
type HealthHandler struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  redis.UniversalClient
	Log    *zap.Logger
}

// GetHealth handles GET /api/health
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	result := services.HealthCheck(c.UserContext(), h.Config, h.DB, h.Redis, h.Log)
	status := fiber.StatusOK
	if result.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}
