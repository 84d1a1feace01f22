// Package mux mounts billing webhook handlers on a gorilla/mux router
package mux

import (
	"net/http"

	"github.com/gorilla/mux"

	httpmw "github.com/mihaimyh/orderhook/middleware/http"
)

// Config holds mount configuration
type Config = httpmw.Config

// Register adds a POST-only route for the webhook to r
func Register(r *mux.Router, config Config) *mux.Route {
	if config.Provider == nil {
		panic("middleware/mux: Provider is required")
	}
	return r.Handle(config.WebhookPath(), config.Provider.WebhookHandler()).Methods(http.MethodPost)
}
