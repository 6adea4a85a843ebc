package http

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/lifecycle"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/service"
	"github.com/kjstillabower/weather-dashboard/internal/traffic"
)

// FetchFailedMessage is the only error text the relay ever returns for a failed lookup.
const FetchFailedMessage = "Failed to fetch weather data"

// HealthConfig holds the thresholds the health handler evaluates.
type HealthConfig struct {
	DegradedWindow   time.Duration
	DegradedErrorPct int
	APIKeyConfigured bool
	// CachePing, when set, is called to check cache reachability. Used when backend is memcached.
	CachePing func() error
}

// Handler holds dependencies for relay HTTP handlers.
type Handler struct {
	relay            *service.RelayService
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(relay *service.RelayService, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	if healthConfig == nil {
		healthConfig = &HealthConfig{}
	}
	return &Handler{
		relay:        relay,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// GetWeather handles GET /api/weather?loc=<location>&unit=<marker>.
// The provider body is written verbatim; every failure becomes the same 500.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	location := params.Get("loc")
	if !params.Has("loc") {
		location = params.Get("location")
	}
	query := models.Query{
		Location: location,
		Unit:     models.UnitPreference(params.Get("unit")),
	}

	body, err := h.relay.GetWeather(r.Context(), query)
	if err != nil {
		h.requestLogger(r).Error("Error fetching weather",
			zap.String("location", query.Location),
			zap.String("unit_group", query.UnitGroup()),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: FetchFailedMessage})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) requestLogger(r *http.Request) *zap.Logger {
	if logger := observability.LoggerFromContext(r.Context()); logger != nil {
		return logger
	}
	return h.logger
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{"weatherApi": "healthy"}
	if result.reason == "error_rate_breach" {
		checks["weatherApi"] = "unhealthy"
	}
	if !h.healthConfig.APIKeyConfigured {
		checks["apiKey"] = "missing"
	}
	if h.healthConfig.CachePing != nil {
		if h.healthConfig.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}
	writeJSON(w, result.statusCode, map[string]interface{}{
		"status":    result.status,
		"service":   "weather-relay",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// computeHealthStatus evaluates, in order: shutting-down, then upstream error rate.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.healthConfig.DegradedWindow > 0 && h.healthConfig.DegradedErrorPct > 0 {
		errors, total := traffic.ErrorRate(h.healthConfig.DegradedWindow)
		if total > 0 && errors*100 >= h.healthConfig.DegradedErrorPct*total {
			return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
