package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"statuspage/app/internal/alerts"
	"statuspage/app/internal/cache"
	"statuspage/app/internal/models"
	"statuspage/app/internal/ratelimit"
	"statuspage/app/internal/stats"
)

// PageStore is the read side behind the public status page API
type PageStore interface {
	stats.HeartbeatReader
	StatusPageBySlug(ctx context.Context, slug string) (*models.StatusPage, error)
	PublicGroups(ctx context.Context, pageID int64) ([]models.PublicGroup, error)
	PublicMonitorIDs(ctx context.Context, pageID int64) ([]int64, error)
	RecentHeartbeats(ctx context.Context, monitorID int64, limit int) ([]stats.Heartbeat, error)
}

// HeartbeatRecorder accepts heartbeats pushed by monitored services
type HeartbeatRecorder interface {
	MonitorByPushToken(ctx context.Context, token string) (*models.Monitor, error)
	RecordHeartbeat(ctx context.Context, hb *stats.Heartbeat) error
}

// Notifier announces monitor status changes
type Notifier interface {
	Notify(ctx context.Context, ev alerts.Event) error
}

// Deps wires the stores and services used by the handlers
type Deps struct {
	Store       PageStore
	Recorder    HeartbeatRecorder // nil disables the push endpoint
	Notifier    Notifier          // nil disables status change alerts
	Downsampler *stats.Downsampler
	Evaluator   *stats.Evaluator
	Uptime      *stats.UptimeCalculator
	Cache       *cache.Cache       // nil disables response caching
	Limiter     *ratelimit.Limiter // nil disables rate limiting
	Metrics     http.Handler       // nil leaves /metrics unmounted
	Log         *zap.Logger

	DefaultMaxBeat  int
	AllowAllOrigins bool
}

// Cache lifetimes per endpoint
const (
	pageTTL      = 5 * time.Minute
	heartbeatTTL = time.Minute
	manifestTTL  = 24 * time.Hour
	badgeTTL     = 5 * time.Minute
)

// Cache key prefixes; the push endpoint drops heartbeatPrefix entries
const (
	pagePrefix      = "page:"
	heartbeatPrefix = "heartbeat:"
	manifestPrefix  = "manifest:"
	badgePrefix     = "badge:"
)

// SetupRoutes configures all HTTP routes and middlewares
func SetupRoutes(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(d.Log))
	r.Use(SecureHeaders)
	if d.AllowAllOrigins {
		r.Use(cors.AllowAll().Handler)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// promhttp negotiates its own compression
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(GzipMiddleware)
		if d.Limiter != nil {
			r.Use(RateLimit(d.Limiter))
		}

		r.With(CacheResponses(d.Cache, heartbeatPrefix, heartbeatTTL)).
			Get("/api/status-page/heartbeat/{slug}", HandleHeartbeat(d))
		r.With(CacheResponses(d.Cache, pagePrefix, pageTTL)).
			Get("/api/status-page/{slug}", HandleStatusPage(d.Store, d.Log))
		r.With(CacheResponses(d.Cache, manifestPrefix, manifestTTL)).
			Get("/api/status-page/{slug}/manifest.json", HandleManifest(d.Store, d.Log))
		r.With(CacheResponses(d.Cache, badgePrefix, badgeTTL)).
			Get("/api/status-page/{slug}/badge", HandleBadge(d.Store, d.Evaluator, d.Log))

		if d.Recorder != nil {
			push := HandlePush(d.Recorder, d.Notifier, d.Cache, d.Log)
			r.Get("/api/push/{pushToken}", push)
			r.Post("/api/push/{pushToken}", push)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	return r
}
