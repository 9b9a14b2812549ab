// Package webapi provides the HTTP API of the upload service.
// Routes are organized into sub-packages per resource:
// - upload: CSV ingestion and upload history endpoints
package webapi

import (
	"errors"
	"slices"
	"strings"

	"github.com/entuziaz/csvup-server/pkg/app"
	"github.com/entuziaz/csvup-server/webapi/common"
	uploadweb "github.com/entuziaz/csvup-server/webapi/upload"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const defaultBodyLimit = 50 * 1024 * 1024

// SetupApp Initialize Fiber with custom configuration
func SetupApp(a *app.App) *fiber.App {
	cfg := a.Config

	bodyLimit := defaultBodyLimit
	if cfg.Server != nil && cfg.Server.BodyLimit > 0 {
		bodyLimit = cfg.Server.BodyLimit
	}

	fiberApp := fiber.New(fiber.Config{
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ErrorJSON(c, "Internal Server Error", err)
		},
	})

	if cfg.RateLimit != nil && cfg.RateLimit.MaxRequests > 0 {
		// Uses X-Forwarded-For header when behind a proxy
		fiberApp.Use(limiter.New(limiter.Config{
			Max:          cfg.RateLimit.MaxRequests,
			Expiration:   cfg.RateLimit.Window,
			KeyGenerator: clientKey,
			LimitReached: func(c *fiber.Ctx) error {
				return common.ErrorJSON(
					c,
					"Too Many Requests",
					errors.New("rate limit exceeded"),
					fiber.StatusTooManyRequests,
				)
			},
		}))
	}
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())
	if cfg.Server != nil && len(cfg.Server.CORSOrigins) > 0 {
		fiberApp.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(cfg.Server.CORSOrigins, ","),
			AllowCredentials: !slices.Contains(cfg.Server.CORSOrigins, "*"),
		}))
	}

	// Health check endpoint
	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("CSV Upload API is running! 🚀")
	})

	uploadweb.Routes(fiberApp, a.UploadService)
	return fiberApp
}

// clientKey takes the first X-Forwarded-For hop, then X-Real-IP, then the
// peer address.
func clientKey(c *fiber.Ctx) string {
	if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.IP()
}
