// Package http holds what the composition root hands to the router: the
// registered modules, their readiness checks and the HTTP settings.
package http

import (
	"context"

	"dashboard_backend/platform/config"
	"dashboard_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// RouterConfig is the slice of configuration the router reads.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker is one dependency probed by /api/ready.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Module mounts its own routes. Name is only used for logging.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext gives modules the /api/v1 groups.
type RouterContext struct {
	// V1 is rate limited but unauthenticated.
	V1 *gin.RouterGroup
	// Protected additionally requires a valid access token.
	Protected *gin.RouterGroup
}

// App is built by cmd/api and passed to router.New.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	Health  map[string]HealthChecker
	Modules []Module
}
