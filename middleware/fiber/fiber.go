// Package fiber mounts billing webhook handlers on a Fiber app
package fiber

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	httpmw "github.com/mihaimyh/orderhook/middleware/http"
)

// Config holds mount configuration
type Config = httpmw.Config

// Handler converts the provider's net/http webhook handler to a Fiber handler.
// The raw request body is passed through unchanged so signatures still verify.
func Handler(config Config) fiber.Handler {
	if config.Provider == nil {
		panic("middleware/fiber: Provider is required")
	}
	return adaptor.HTTPHandler(config.Provider.WebhookHandler())
}

// Register adds a POST route for the webhook to r
func Register(r fiber.Router, config Config) fiber.Router {
	return r.Post(config.WebhookPath(), Handler(config))
}
