package httpx

import (
	"log/slog"
	"net/http"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Status StatusService // Required
	Logger *slog.Logger  // Optional: defaults to slog.Default()
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *RateLimiter
}

// NewRouter creates the HTTP router with its middleware stack.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	registerJobRoutes(mux, &JobHandlers{Svc: services.Status, Logger: logger.With("component", "http")})

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readyHandler(services.Status))

	mws := []Middleware{RequestID(), Recover(logger), Logging(logger)}
	if services.RateLimiter != nil {
		mws = append(mws, services.RateLimiter.Middleware())
	}
	return Chain(mux, mws...)
}

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers) {
	mux.HandleFunc("POST /submit/{job_id}", h.Submit)
	mux.HandleFunc("GET /status/{job_id}", h.GetStatus)
}
