package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/callcard/internal/callcard"
	"github.com/localnerve/callcard/internal/config"
	"github.com/localnerve/callcard/internal/database"
	"github.com/localnerve/callcard/internal/events"
	"github.com/localnerve/callcard/internal/handlers"
	"github.com/localnerve/callcard/internal/logging"
	"github.com/localnerve/callcard/internal/metrics"
	"github.com/localnerve/callcard/internal/middleware"
	"github.com/localnerve/callcard/internal/services"
	"github.com/localnerve/callcard/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/localnerve/callcard/docs/api" // Swagger docs
)

// @title CallCard API
// @version 1.0.0
// @description Visit card assembly and reconciliation service
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/callcard
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	cfg, err := config.Load()
	if err != nil {
		// no logger yet
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic("Failed to create logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	var rdb redis.UniversalClient
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal("Invalid REDIS_URL", zap.Error(err))
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	sinks := events.Multi{}
	var kafka *events.KafkaSink
	if cfg.EventOutbox {
		sinks = append(sinks, events.NewOutboxSink(db, log))
	}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err = events.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Fatal("Failed to create kafka producer", zap.Error(err))
		}
		sinks = append(sinks, kafka)
	}
	if len(sinks) == 0 {
		sinks = append(sinks, events.NewLogSink(log))
	}
	emitter := events.NewAsync(m.Emitter(sinks), 1024, log)

	var settings callcard.Settings = services.NewDBSettings(db)
	if cfg.SettingsFile != "" {
		fs, err := services.LoadFileSettings(cfg.SettingsFile, settings)
		if err != nil {
			log.Fatal("Failed to load settings file", zap.String("path", cfg.SettingsFile), zap.Error(err))
		}
		settings = fs
	}

	var properties callcard.PropertyCatalog = services.NewPropertyService(db)
	if rdb != nil {
		properties = services.NewCachedProperties(properties, rdb, 0, log)
	}

	cards := callcard.New(callcard.Deps{
		Store:      services.NewCardStore(db),
		Templates:  services.NewTemplateService(db),
		Categories: services.NewCategoryService(db),
		Properties: properties,
		History:    services.NewHistoryService(db),
		Orders:     m.Ledger(services.NewOrderService(db)),
		Geo:        services.NewAddressService(db),
		Settings:   settings,
		Events:     emitter,
		Audit:      services.NewAuditLog(db),
	}, callcard.WithLogger(log.Named("callcard")))

	sessions := services.NewAuthorizerSessions(cfg, log.Named("authorizer"))

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	prom := fiberprometheus.New("callcard")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)

	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api")
	api.Use(middleware.VersionMiddleware())

	health := &handlers.HealthHandler{Config: cfg, DB: db, Redis: rdb, Log: log}
	api.Get("/health", health.GetHealth)

	cardHandler := &handlers.CallCardHandler{Cards: cards, Metrics: m}
	cc := api.Group("/callcard", middleware.AuthUser(sessions))
	cc.Get("/card", cardHandler.GetCard)
	cc.Post("/card", cardHandler.SyncCard)
	cc.Get("/card/pending", cardHandler.GetPending)
	cc.Post("/card/simplified", cardHandler.SyncSimplified)
	cc.Post("/card/indirect/:userId", cardHandler.SubmitIndirect)
	cc.Get("/statistics", cardHandler.GetStatistics)
	cc.Get("/cards", cardHandler.ListCards)
	cc.Get("/cards/:id", cardHandler.GetSimplifiedCard)
	cc.Get("/templates", cardHandler.GetTemplateCards)

	admin := api.Group("/admin/callcard", middleware.AuthAdmin(sessions))
	admin.Get("/summaries", cardHandler.GetGroupSummaries)
	admin.Get("/transactions", cardHandler.GetTransactions)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	log.Info("Starting server", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error("Server failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := emitter.Close(ctx); err != nil {
		log.Warn("Event buffer not drained", zap.Error(err))
	}
	if kafka != nil {
		if err := kafka.Close(ctx); err != nil {
			log.Warn("Kafka flush failed", zap.Error(err))
		}
	}
	log.Info("Server stopped")
}

// customErrorHandler renders errors returned by handlers and middleware
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	var fe *fiber.Error
	var ce *types.CustomError
	switch {
	case errors.As(err, &ce):
		code, message, errorType = ce.Code, ce.Message, ce.Type
	case errors.As(err, &fe):
		code, message = fe.Code, fe.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    code,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}
