// Package api wires the versioned HTTP surface: the public chat relay/poll
// endpoints, lead capture, and the admin content API.
package api

import (
	"github.com/gorilla/mux"

	"chatrelay/pkg/api/handlers"
	"chatrelay/pkg/notify"
	"chatrelay/pkg/relay"
	"chatrelay/pkg/store"
)

// Deps carries the collaborators the handlers depend on.
type Deps struct {
	Relay    *relay.Service
	Store    store.ContentStore
	Notifier notify.Notifier
}

// NewRouter builds the /v1 router. Gateway concerns (CORS, admin keys, rate
// limiting) are applied by the caller around the returned handler.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterChat(v1, d.Relay)
	handlers.RegisterLeads(v1, d.Store, d.Notifier)
	handlers.RegisterContent(v1, d.Store)
	return r
}
