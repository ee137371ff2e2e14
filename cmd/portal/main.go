package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/aktp/portal/app/controllers"
	"github.com/aktp/portal/app/repository"
	"github.com/aktp/portal/internal/pkg/archive"
	"github.com/aktp/portal/internal/pkg/billing"
	"github.com/aktp/portal/internal/pkg/cache"
	"github.com/aktp/portal/internal/pkg/database"
	"github.com/aktp/portal/internal/pkg/env"
	"github.com/aktp/portal/internal/pkg/mail"
	"github.com/aktp/portal/internal/pkg/notify"
	"github.com/aktp/portal/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	// Define possible base paths
	basePaths := []string{
		"./",     // Current directory
		"../../", // From cmd/portal to project root
	}
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public/docs/v1/openapi.yml"); err == nil {
			basePath = path
			break
		}
	}
	if basePath == "" {
		panic("Could not find project root directory")
	}

	wireControllers()

	app := fiber.New(fiber.Config{
		BodyLimit: 1 << 20,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}))

	// ROUTER
	router.InstallRouter(app, limiterStorage())

	return app
}

func wireControllers() {
	dispatcher, err := notify.NewDispatcher(mail.NewSMTPMailer(mail.SMTPConfigFromEnv()), notify.SiteFromEnv())
	if err != nil {
		panic(fmt.Sprintf("failed to load email templates: %v", err))
	}

	cfg := billing.ConfigFromEnv()
	if cfg.WebhookSecret == "" {
		log.Warn("[Portal] STRIPE_WEBHOOK_SECRET is not set, every webhook will be rejected")
	}
	service := billing.NewServiceFromDB(database.GetDB(), dispatcher, cfg, billing.WithMetrics(billing.DefaultMetrics()))

	rdb := cache.GetClient()
	controllers.InitializeBillingController(service, cache.NewRedisLocker(rdb), payloadArchiver())
	controllers.InitializeDirectoryController(cache.NewRedisStore(rdb))
	controllers.InitializeHealthController(func(ctx context.Context) error {
		sqlDB, err := database.GetDB().DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
}

// payloadArchiver returns nil unless the S3 archive is enabled and configured.
func payloadArchiver() archive.Archiver {
	cfg, err := archive.LoadConfig()
	if err != nil {
		log.Errorf("[Portal] Payload archive disabled: %v", err)
		return nil
	}
	if !cfg.Enabled {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := archive.NewClient(ctx, cfg)
	if err != nil {
		log.Errorf("[Portal] Payload archive disabled: %v", err)
		return nil
	}
	log.Infof("[Portal] Archiving webhook payloads to s3://%s/%s", cfg.BucketName, cfg.Prefix)
	return client
}

// limiterStorage shares rate limit counters through redis when it is reachable.
func limiterStorage() fiber.Storage {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := cache.GetClient().Ping(ctx).Err(); err != nil {
		log.Warnf("[Portal] Redis unavailable, rate limits are per process: %v", err)
		return nil
	}
	return cache.NewFiberStorage(cache.LimiterDatabase)
}
