// Package handler exposes the HTTP API as a single serverless function.
package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/amirasaad/voicepay/infra/initializer"
	"github.com/amirasaad/voicepay/pkg/app"
	"github.com/amirasaad/voicepay/pkg/config"
	"github.com/amirasaad/voicepay/webapi"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

var (
	once    sync.Once
	handler http.HandlerFunc
	initErr error
)

// Handler is the main entry point of the application.
// Think of it like the main() method
func Handler(w http.ResponseWriter, r *http.Request) {
	// This is needed to set the proper request path in `*fiber.Ctx`
	r.RequestURI = r.URL.String()

	once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			initErr = fmt.Errorf("failed to load application configuration: %w", err)
			return
		}
		// Instances are reused across invocations; dependencies live as long
		// as the instance does.
		handler, initErr = newHandler(cfg)
	})
	if initErr != nil {
		slog.Error("Handler unavailable", "error", initErr)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	handler.ServeHTTP(w, r)
}

// newHandler builds the fiber application behind a net/http adaptor.
func newHandler(cfg *config.App) (http.HandlerFunc, error) {
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return nil, err
	}
	a, err := app.New(deps, cfg)
	if err != nil {
		_ = deps.Close()
		return nil, err
	}
	slog.SetDefault(deps.Logger)
	return adaptor.FiberApp(webapi.SetupApp(a)), nil
}
