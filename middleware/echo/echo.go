// Package echo mounts billing webhook handlers on an Echo router
package echo

import (
	"github.com/labstack/echo/v4"

	httpmw "github.com/mihaimyh/orderhook/middleware/http"
)

// Config holds mount configuration
type Config = httpmw.Config

// Router is satisfied by *echo.Echo and *echo.Group
type Router interface {
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// Handler wraps the provider's webhook handler as an Echo handler
func Handler(config Config) echo.HandlerFunc {
	if config.Provider == nil {
		panic("middleware/echo: Provider is required")
	}
	return echo.WrapHandler(config.Provider.WebhookHandler())
}

// Register adds a POST route for the webhook to r
func Register(r Router, config Config) *echo.Route {
	return r.POST(config.WebhookPath(), Handler(config))
}
