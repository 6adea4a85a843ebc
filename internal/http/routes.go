package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

// NewRouter wires the relay routes and middleware. limiter may be nil.
func NewRouter(h *Handler, logger *zap.Logger, limiter *rate.Limiter, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(RateLimitMiddleware(limiter))
	api.HandleFunc("/weather", h.GetWeather).Methods(http.MethodGet)

	return CORS(allowedOrigins)(router)
}
