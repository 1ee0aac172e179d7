package ui

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusFunc reports what the process has loaded, for /healthz
type StatusFunc func() map[string]interface{}

// App is the operational listener: health and Prometheus scrape endpoints
type App struct {
	router   *chi.Mux
	gatherer prometheus.Gatherer
	status   StatusFunc
}

// NewApp creates the operational router
func NewApp(gatherer prometheus.Gatherer, status StatusFunc) *App {
	app := &App{
		router:   chi.NewRouter(),
		gatherer: gatherer,
		status:   status,
	}

	app.setupMiddleware()
	app.setupRoutes()

	return app
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/healthz", a.handleHealth)
	a.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))
}

// Handler exposes the router
func (a *App) Handler() http.Handler {
	return a.router
}

// Start serves the operational endpoints on addr
func (a *App) Start(addr string) error {
	return http.ListenAndServe(addr, a.router)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{"status": "ok"}
	if a.status != nil {
		for k, v := range a.status() {
			body[k] = v
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(body)
}
