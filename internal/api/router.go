package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/semmidev/keeper/internal/infrastructure/logger"
)

type RouterConfig struct {
	StaticDir   string
	LogRequests bool
}

type Handlers struct {
	Backup   *BackupHandler
	Schedule *ScheduleHandler
	Items    *ItemHandler
	// OAuth is optional; set while a gdrive target still lacks a refresh token.
	OAuth *OAuthHandler
}

// NewRouter wires every route. The returned handler already carries the
// request id and logging middleware.
func NewRouter(cfg RouterConfig, log *logger.Logger, h Handlers) http.Handler {
	router := mux.NewRouter()
	router.Use(WithMetrics)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auto-backup-config", h.Schedule.Get).Methods(http.MethodGet)
	api.HandleFunc("/configure-auto-backup", h.Schedule.Configure).Methods(http.MethodPost)
	api.HandleFunc("/current-time", h.Schedule.CurrentTime).Methods(http.MethodGet)
	api.HandleFunc("/trigger-backup", h.Backup.Trigger).Methods(http.MethodPost)
	api.HandleFunc("/trigger-restore", h.Backup.Restore).Methods(http.MethodPost)
	api.HandleFunc("/backups", h.Backup.List).Methods(http.MethodGet)
	api.HandleFunc("/items", h.Items.List).Methods(http.MethodGet)
	api.HandleFunc("/item", h.Items.Create).Methods(http.MethodPost)
	api.HandleFunc("/delete-all", h.Items.DeleteAll).Methods(http.MethodPost)

	router.HandleFunc("/health", h.Items.Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	if h.OAuth != nil {
		router.HandleFunc("/auth/google/drive", h.OAuth.Start).Methods(http.MethodGet)
		router.HandleFunc("/auth/google/callback", h.OAuth.Callback).Methods(http.MethodGet)
	}

	if cfg.StaticDir != "" {
		router.PathPrefix("/").Handler(withCacheControl(http.FileServer(http.Dir(cfg.StaticDir))))
	}

	var handler http.Handler = router
	if cfg.LogRequests {
		handler = WithRequestLogging(handler, log)
	}

	return WithRequestID(handler, DefaultRequestIDProvider)
}

func withCacheControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
