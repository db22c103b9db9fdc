package services

import (
	"context"
	"fmt"

	"github.com/localnerve/callcard/internal/config"
	"github.com/localnerve/callcard/internal/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Cache        string            `json:"cache,omitempty"`
	Authorizer   string            `json:"authorizer,omitempty"`
	Events       string            `json:"events,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

func (r *HealthCheckResult) fail(component, message string, err error) {
	r.Status = "unhealthy"
	r.Details[component+"_error"] = err.Error()
	if r.ErrorMessage == "" {
		r.ErrorMessage = fmt.Sprintf("%s: %v", message, err)
	} else {
		r.ErrorMessage += fmt.Sprintf("; %s: %v", message, err)
	}
}

// HealthCheck pings the database plus redis, the authorizer and the kafka
// brokers when each is configured.
func HealthCheck(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb redis.UniversalClient, log *zap.Logger) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	sqlDB, err := db.DB()
	if err != nil {
		result.Database = "error"
		result.fail("database", "Database connection error", err)
		log.Warn("health check failed: database connection", zap.Error(err))
	} else if err := sqlDB.PingContext(ctx); err != nil {
		result.Database = "unreachable"
		result.fail("database_ping", "Database ping failed", err)
		log.Warn("health check failed: database ping", zap.Error(err))
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBDatabase
	}

	if rdb != nil {
		if err := rdb.Ping(ctx).Err(); err != nil {
			result.Cache = "unreachable"
			result.fail("cache", "Redis ping failed", err)
			log.Warn("health check failed: redis ping", zap.Error(err))
		} else {
			result.Cache = "ok"
		}
	}

	if cfg.AuthzURL != "" {
		if err := utils.PingAuthorizer(cfg.AuthzURL); err != nil {
			result.Authorizer = "unreachable"
			result.fail("authorizer", "Authorizer ping failed", err)
			log.Warn("health check failed: authorizer ping", zap.Error(err))
		} else {
			result.Authorizer = "ok"
			result.Details["authorizer_url"] = cfg.AuthzURL
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		if err := utils.PingAny(ctx, cfg.KafkaBrokers); err != nil {
			result.Events = "unreachable"
			result.fail("events", "Kafka brokers unreachable", err)
			log.Warn("health check failed: kafka brokers", zap.Error(err))
		} else {
			result.Events = "ok"
		}
	}

	if result.Status == "healthy" {
		log.Debug("health check passed")
	}
	return result
}
