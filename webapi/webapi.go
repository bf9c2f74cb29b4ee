// Package webapi provides the HTTP API of the voice payments assistant.
// It is organized into sub-packages per area:
// - auth: OTP and sign up
// - user: lookups and profile
// - account: balance, transfers and history
// - request: money requests
// - voice: transcribed voice commands
package webapi

import (
	"strings"

	_ "github.com/amirasaad/voicepay/cmd/server/swagger"
	"github.com/amirasaad/voicepay/pkg/app"
	accountweb "github.com/amirasaad/voicepay/webapi/account"
	authweb "github.com/amirasaad/voicepay/webapi/auth"
	"github.com/amirasaad/voicepay/webapi/common"
	requestweb "github.com/amirasaad/voicepay/webapi/request"
	userweb "github.com/amirasaad/voicepay/webapi/user"
	voiceweb "github.com/amirasaad/voicepay/webapi/voice"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
)

// metricsExporter is implemented by recorders that can also serve HTTP.
type metricsExporter interface {
	Middleware() fiber.Handler
	Handler() fiber.Handler
}

// SetupApp Initialize Fiber with custom configuration
func SetupApp(app *app.App) *fiber.App {
	cfg := app.Config

	fiberApp := fiber.New(fiber.Config{
		AppName: "VoicePay",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Request failed", err)
		},
	})
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	// Configure rate limiting middleware
	// Uses X-Forwarded-For header when behind a proxy
	// Falls back to X-Real-IP or direct IP if needed
	if cfg.RateLimit != nil && cfg.RateLimit.MaxRequests > 0 {
		fiberApp.Use(limiter.New(limiter.Config{
			Max:          cfg.RateLimit.MaxRequests,
			Expiration:   cfg.RateLimit.Window,
			KeyGenerator: clientKey,
			LimitReached: func(c *fiber.Ctx) error {
				return common.ProblemDetailsJSON(
					c,
					"Too Many Requests",
					nil,
					"rate limit exceeded",
					fiber.StatusTooManyRequests,
				)
			},
		}))
	}

	if exporter, ok := app.Deps.Metrics.(metricsExporter); ok {
		fiberApp.Use(exporter.Middleware())
		fiberApp.Get("/metrics", exporter.Handler())
	}

	fiberApp.Get("/swagger/*", swagger.New(swagger.Config{
		TryItOutEnabled:      true,
		PersistAuthorization: true,
	}))

	// Health check endpoint
	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("VoicePay API is running! 🚀")
	})

	authweb.Routes(fiberApp, app.IdentityService, app.AuthService, app.AccountService)
	userweb.Routes(fiberApp, app.AccountService, app.AuthService, cfg)
	accountweb.Routes(fiberApp, app.AccountService, app.AuthService, cfg)
	requestweb.Routes(fiberApp, app.RequestService, app.AuthService, cfg)
	voiceweb.Routes(fiberApp, app.Dispatcher, app.AuthService, cfg)
	return fiberApp
}

// clientKey identifies the caller for rate limiting: the first
// X-Forwarded-For hop, then X-Real-IP, then the socket address.
func clientKey(c *fiber.Ctx) string {
	if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
		if first, _, found := strings.Cut(forwardedFor, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwardedFor)
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.IP()
}
