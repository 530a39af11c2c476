package api

import (
	"context"
	"net/http"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	icache "MarketPulse/internal/service/cache"
	"MarketPulse/internal/service/ratelimit"
	"MarketPulse/internal/usecase"
	xhttp "MarketPulse/pkg/http"
	applogger "MarketPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// HealthChecker reports backend connectivity for the health endpoint.
type HealthChecker func(ctx context.Context) error

// Handler serves the batch trigger, read, and dashboard endpoints.
type Handler struct {
	indicatorBatch *usecase.IndicatorBatch
	signalBatch    *usecase.SignalBatch
	dashboard      *usecase.Dashboard

	indicators domrepo.IndicatorStore
	signals    domrepo.SignalStore

	cache    icache.BytesCache
	limiter  *ratelimit.Limiter
	health   HealthChecker
	l        *applogger.Logger
	wl       models.Watchlist
	cacheTTL time.Duration
}

type Config struct {
	Watchlist models.Watchlist
	CacheTTL  time.Duration
}

func NewHandler(
	indicatorBatch *usecase.IndicatorBatch,
	signalBatch *usecase.SignalBatch,
	dashboard *usecase.Dashboard,
	indicators domrepo.IndicatorStore,
	signals domrepo.SignalStore,
	cache icache.BytesCache,
	health HealthChecker,
	cfg Config,
) *Handler {
	return &Handler{
		indicatorBatch: indicatorBatch,
		signalBatch:    signalBatch,
		dashboard:      dashboard,
		indicators:     indicators,
		signals:        signals,
		cache:          cache,
		limiter:        ratelimit.New(),
		health:         health,
		wl:             cfg.Watchlist,
		cacheTTL:       cfg.CacheTTL,
	}
}

// SetLogger injects a structured logger.
func (h *Handler) SetLogger(l *applogger.Logger) { h.l = l }

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)

	g := e.Group("/api")
	g.POST("/indicators/compute", h.ComputeIndicators)
	g.GET("/indicators/recent", h.RecentIndicators)
	g.POST("/signals/compute", h.ComputeSignals)
	g.POST("/signals/expire", h.ExpireSignals)
	g.GET("/signals/active", h.ActiveSignal)
	g.GET("/dashboard/watchlist", h.WatchlistSummary)
}

// Healthz reports liveness plus backend connectivity. Probes need the real
// transport status code, so this bypasses the response envelope.
func (h *Handler) Healthz(c echo.Context) error {
	if h.health != nil {
		if err := h.health(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

var _ xhttp.Handler = (*Handler)(nil)
