package main

import (
	"context"
	"fmt"
	"os"

	"github.com/NeKzor/svm/cmd/svm-server/container"
	"github.com/NeKzor/svm/cmd/svm-server/routes"
	"github.com/NeKzor/svm/common/bootstrap"
	"github.com/NeKzor/svm/common/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (config, logger, kv store, telemetry)
	components, err := bootstrap.Setup(ctx, "svm-server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap svm-server: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}
	defer serviceContainer.PageCache.Close()

	// Initialize Echo server with middleware and routes
	e := newEcho(serviceContainer)

	// Start with graceful shutdown
	srv := server.New(
		"svm-server",
		components.Config.Service.Host,
		components.Config.Service.Port,
		e,
		components.Logger,
	)
	if err := srv.Start(); err != nil {
		components.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newEcho builds the fully wired Echo instance
func newEcho(serviceContainer *container.Container) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	setupMiddleware(e)
	setupHealthCheck(e)
	registerRoutes(e, serviceContainer)

	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "ok",
			"service": "svm-server",
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterIndexRoutes(e, serviceContainer)
	routes.RegisterDownloadRoutes(e, serviceContainer)
	routes.RegisterAPIRoutes(e, serviceContainer)
}
