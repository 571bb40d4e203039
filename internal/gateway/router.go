// ABOUTME: Route table for the taskgate HTTP API, docs, health and metrics
// ABOUTME: Wraps the router in request instrumentation and the access gate

package gateway

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2389/taskgate/internal/assets"
	"github.com/2389/taskgate/internal/auth"
)

// extraPublicPatterns are operational endpoints reachable without a token
// in addition to auth.DefaultPublicPatterns.
var extraPublicPatterns = []string{
	"/health",
	"/health/**",
}

// handlerConfig is everything newHandler needs to assemble the HTTP stack.
type handlerConfig struct {
	api         *api
	authn       auth.Authenticator
	health      *healthHandlers
	gatherer    prometheus.Gatherer // nil disables the metrics endpoint
	metricsPath string              // ignored while gatherer is nil
	httpMetrics *httpMetrics
	logger      *slog.Logger
}

// publicPatterns returns the full public path list for the given metrics path.
func publicPatterns(metricsPath string) []string {
	patterns := make([]string, 0, len(auth.DefaultPublicPatterns)+len(extraPublicPatterns)+1)
	patterns = append(patterns, auth.DefaultPublicPatterns...)
	patterns = append(patterns, extraPublicPatterns...)
	if metricsPath != "" {
		patterns = append(patterns, metricsPath)
	}
	return patterns
}

// exposedMetricsPath is the metrics path, or "" when metrics are disabled.
func (cfg handlerConfig) exposedMetricsPath() string {
	if cfg.gatherer == nil {
		return ""
	}
	return cfg.metricsPath
}

func newRouter(cfg handlerConfig) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	a := cfg.api
	router.HandleFunc("/api/auth/register", a.handleRegister).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", a.handleLogin).Methods(http.MethodPost)
	router.HandleFunc("/api/user/showAll", a.handleListUsers).Methods(http.MethodGet)

	task := router.PathPrefix("/api/task").Subrouter()
	task.HandleFunc("/create", a.handleCreateTask).Methods(http.MethodPost)
	task.HandleFunc("/delete/{title}", a.handleDeleteTask).Methods(http.MethodDelete)
	task.HandleFunc("/show/myTasks", a.handleMyTasks).Methods(http.MethodGet)
	task.HandleFunc("/edit/{title}/title", a.editHandler("newTitle", msgTitleChanged, a.editTitle)).Methods(http.MethodPatch)
	task.HandleFunc("/edit/{title}/description", a.editHandler("newDescription", msgDescriptionChanged, a.editDescription)).Methods(http.MethodPatch)
	task.HandleFunc("/edit/{title}/Date", a.editHandler("Date", msgDateChanged, a.editDate)).Methods(http.MethodPatch)
	task.HandleFunc("/edit/{title}/User", a.editHandler("newUser", msgUserChanged, a.editOwner)).Methods(http.MethodPatch)

	// API documentation
	router.HandleFunc("/v3/api-docs", handleOpenAPI).Methods(http.MethodGet)
	router.HandleFunc("/v3/api-docs/swagger-config", handleSwaggerConfig).Methods(http.MethodGet)
	router.HandleFunc("/swagger-ui.html", handleReference).Methods(http.MethodGet)
	router.HandleFunc("/swagger-ui/", handleReference).Methods(http.MethodGet)
	router.PathPrefix(assets.StaticPrefix).Handler(http.StripPrefix(assets.StaticPrefix, assets.FileServer()))

	// Health endpoints - no auth required
	router.HandleFunc("/health", cfg.health.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", cfg.health.handleReady).Methods(http.MethodGet)

	if path := cfg.exposedMetricsPath(); path != "" {
		router.Handle(path, promhttp.HandlerFor(cfg.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	return router
}

// newHandler builds the complete HTTP stack: instrumentation outermost, then
// the access gate, then the router.
func newHandler(cfg handlerConfig) http.Handler {
	router := newRouter(cfg)
	gate := auth.NewAccessGate(cfg.authn, publicPatterns(cfg.exposedMetricsPath()), cfg.logger)
	return instrument(router, cfg.httpMetrics, cfg.logger, gate.Middleware(router))
}

func handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(assets.OpenAPI())
}

func handleSwaggerConfig(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{
		"url":       "/v3/api-docs",
		"configUrl": "/v3/api-docs/swagger-config",
	})
}

func handleReference(w http.ResponseWriter, _ *http.Request) {
	page, err := assets.ReferenceHTML()
	if err != nil {
		sendJSONError(w, http.StatusInternalServerError, "documentation unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}
