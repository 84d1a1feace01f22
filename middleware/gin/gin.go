// Package gin mounts billing webhook handlers on a Gin router
package gin

import (
	gongin "github.com/gin-gonic/gin"

	httpmw "github.com/mihaimyh/orderhook/middleware/http"
)

// Config holds mount configuration
type Config = httpmw.Config

// Handler wraps the provider's webhook handler as a Gin handler
func Handler(config Config) gongin.HandlerFunc {
	if config.Provider == nil {
		panic("middleware/gin: Provider is required")
	}
	return gongin.WrapH(config.Provider.WebhookHandler())
}

// Register adds a POST route for the webhook to r
func Register(r gongin.IRoutes, config Config) {
	r.POST(config.WebhookPath(), Handler(config))
}
