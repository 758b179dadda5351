package handlers

import (
	"net/http"

	"github.com/rs/zerolog"
)

// RegisterRoutes mounts the routes on mux and wraps it in the middleware
// stack.
func RegisterRoutes(mux *http.ServeMux, h *Handler, logger zerolog.Logger) http.Handler {
	mux.HandleFunc("/", h.Root)
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/predict", h.Predict)

	return Chain(
		mux,
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(),
	)
}
