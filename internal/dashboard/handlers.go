package dashboard

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	apihttp "github.com/kjstillabower/weather-dashboard/internal/http"
	"github.com/kjstillabower/weather-dashboard/internal/lifecycle"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

//go:embed templates/*.html
var templateFS embed.FS

var glyphs = map[Icon]string{
	IconSun:       "☀️",
	IconRain:      "🌧️",
	IconSnow:      "🌨️",
	IconLightning: "🌩️",
	IconFog:       "🌫️",
	IconDrizzle:   "🌦️",
	IconCloudy:    "☁️",
}

// Handler serves the dashboard page and its form actions.
type Handler struct {
	ctrl    *Controller
	tmpl    *template.Template
	refresh time.Duration
	logger  *zap.Logger
}

// NewHandler parses the embedded page template.
func NewHandler(ctrl *Controller, refresh time.Duration, logger *zap.Logger) (*Handler, error) {
	tmpl, err := template.New("dashboard").
		Funcs(template.FuncMap{"glyph": func(i Icon) string { return glyphs[i] }}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handler{ctrl: ctrl, tmpl: tmpl, refresh: refresh, logger: logger}, nil
}

// Index renders the page from the current state.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	view := BuildView(h.ctrl.Snapshot(), h.refresh)

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "dashboard.html", view); err != nil {
		h.requestLogger(r).Error("render dashboard", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// Search commits the submitted location.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if h.ctrl.SubmitSearch(r.PostFormValue("location")) {
		h.requestLogger(r).Debug("search submitted", zap.String("location", r.PostFormValue("location")))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Unit selects °F or °C. Any other value is rejected.
func (h *Handler) Unit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	unit := models.UnitPreference(r.PostFormValue("unit"))
	if unit != models.Fahrenheit && unit != models.Celsius {
		http.Error(w, "unit must be °F or °C", http.StatusBadRequest)
		return
	}
	h.ctrl.SetUnit(unit)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Toggle expands or collapses the outlook.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	h.ctrl.ToggleExpanded()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// State returns the UIState as JSON.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// Health reports liveness; 503 while shutting down.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	if lifecycle.IsShuttingDown() {
		status, code = "shutting-down", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{
		"status":    status,
		"service":   "weather-dashboard",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) requestLogger(r *http.Request) *zap.Logger {
	if logger := observability.LoggerFromContext(r.Context()); logger != nil {
		return logger
	}
	return h.logger
}

// NewRouter wires the dashboard routes with the same middleware chain as the relay.
func NewRouter(h *Handler, logger *zap.Logger) http.Handler {
	router := mux.NewRouter()
	router.Use(apihttp.CorrelationIDMiddleware(logger))
	router.Use(apihttp.MetricsMiddleware)
	router.HandleFunc("/", h.Index).Methods(http.MethodGet)
	router.HandleFunc("/search", h.Search).Methods(http.MethodPost)
	router.HandleFunc("/unit", h.Unit).Methods(http.MethodPost)
	router.HandleFunc("/toggle", h.Toggle).Methods(http.MethodPost)
	router.HandleFunc("/state", h.State).Methods(http.MethodGet)
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)
	return router
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
