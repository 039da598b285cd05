package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/staffdesk/roster-service/internal/config"
	"github.com/staffdesk/roster-service/internal/observability"
)

// NewApp builds the fiber application with global middlewares attached.
func NewApp(cfg config.Config, logger *zap.Logger, metrics *observability.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		BodyLimit:             cfg.Ingest.MaxUploadBytes,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	return app
}
