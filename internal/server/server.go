package server

import "net/http"

// Middleware decorates a handler, e.g. with logging or panic recovery.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the mux patterns it serves, e.g. "GET /auth/callback".
type Handler interface {
	http.Handler
	Routes() []string
}
