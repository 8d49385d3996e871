package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"docuflow/internal/config"
	"docuflow/internal/delivery/http/handler"
	"docuflow/internal/delivery/http/middleware"
)

type Router struct {
	app             *fiber.App
	config          *config.Config
	documentHandler *handler.DocumentHandler
	signingHandler  *handler.SigningHandler
	healthHandler   *handler.HealthHandler
}

func NewRouter(
	cfg *config.Config,
	documentHandler *handler.DocumentHandler,
	signingHandler *handler.SigningHandler,
	healthHandler *handler.HealthHandler,
) *Router {
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: customErrorHandler,
	})

	return &Router{
		app:             app,
		config:          cfg,
		documentHandler: documentHandler,
		signingHandler:  signingHandler,
		healthHandler:   healthHandler,
	}
}

func (r *Router) Setup() *fiber.App {
	// Middleware
	r.app.Use(recover.New())
	r.app.Use(requestid.New())
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Actor-Id,X-Actor-Role",
	}))

	if r.config.IsDevelopment() {
		r.app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}

	// Health check route
	r.app.Get("/health", r.healthHandler.Health)

	// API v1 routes, all behind the resolved identity claim
	api := r.app.Group("/api/v1", middleware.Identity())
	{
		documents := api.Group("/documents")
		{
			documents.Post("", r.documentHandler.Create)
			documents.Get("", r.documentHandler.List)
			documents.Get("/inbox", r.documentHandler.Inbox)
			documents.Get("/:id", r.documentHandler.Get)
			documents.Get("/:id/blob", r.documentHandler.GetBlob)
			documents.Get("/:id/audit", r.documentHandler.Audit)
			documents.Post("/:id/route", r.signingHandler.Route)
			documents.Post("/:id/sign", r.signingHandler.Sign)
			documents.Delete("/:id", r.documentHandler.Delete)
		}

		api.Put("/signatures", r.documentHandler.SaveSignature)
	}

	return r.app
}

func (r *Router) GetApp() *fiber.App {
	return r.app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
		"error": fiber.Map{
			"code":    code,
			"message": err.Error(),
		},
	})
}
