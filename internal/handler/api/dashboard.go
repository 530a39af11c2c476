package api

import (
	"encoding/json"
	"strings"
	"time"

	"MarketPulse/internal/domain/models"
	xhttp "MarketPulse/pkg/http"
	applogger "MarketPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AssetPerformanceResponse is one watchlist row. Null fields mean the
// underlying value was undefined for the asset's history.
type AssetPerformanceResponse struct {
	Symbol      string     `json:"symbol"`
	LastPrice   *float64   `json:"last_price"`
	LastUpdated *time.Time `json:"last_updated"`
	Change1D    *float64   `json:"change_1d"`
	Change1W    *float64   `json:"change_1w"`
	Change1M    *float64   `json:"change_1m"`
	Change1Y    *float64   `json:"change_1y"`
	Sparkline   []float64  `json:"sparkline"`
	MA200       *float64   `json:"ma_200"`
	Status      string     `json:"status"`
}

// WatchlistResponse is the aggregated dashboard view.
type WatchlistResponse struct {
	Watchlist   string                     `json:"watchlist"`
	Assets      []AssetPerformanceResponse `json:"assets"`
	Index       *float64                   `json:"index"`
	GeneratedAt time.Time                  `json:"generated_at"`
}

// WatchlistSummary handles GET /api/dashboard/watchlist.
// Query: symbols (comma separated, defaults to the configured watchlist),
// name (defaults to the configured watchlist name).
func (h *Handler) WatchlistSummary(c echo.Context) error {
	wl := h.wl
	if s := c.QueryParam("symbols"); s != "" {
		wl = models.Watchlist{Name: c.QueryParam("name"), Symbols: splitSymbols(s)}
		if wl.Name == "" {
			wl.Name = "custom"
		}
	}
	if len(wl.Symbols) == 0 {
		return xhttp.BadRequestResponse(c, "no symbols configured or supplied")
	}

	ctx := c.Request().Context()
	key := cacheKey(wl)
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(ctx, key); err == nil && ok {
			return xhttp.SuccessResponse(c, json.RawMessage(b))
		}
	}

	snap, err := h.dashboard.WatchlistSummary(ctx, wl)
	if err != nil {
		if h.l != nil {
			h.l.Error("watchlist summary failed", applogger.String("watchlist", wl.Name), applogger.Error(err))
		}
		return xhttp.InternalServerErrorResponse(c)
	}

	resp := watchlistResponse(snap)
	if h.cache != nil && h.cacheTTL > 0 {
		if b, err := json.Marshal(resp); err == nil {
			if err := h.cache.SetBytes(ctx, key, b, h.cacheTTL); err != nil && h.l != nil {
				h.l.Warn("dashboard cache write failed", applogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, resp)
}

func watchlistResponse(snap *models.WatchlistSnapshot) *WatchlistResponse {
	out := &WatchlistResponse{
		Watchlist:   snap.Watchlist,
		Assets:      make([]AssetPerformanceResponse, 0, len(snap.Assets)),
		Index:       snap.Index,
		GeneratedAt: snap.GeneratedAt,
	}
	for _, a := range snap.Assets {
		spark := a.Sparkline
		if spark == nil {
			spark = []float64{}
		}
		out.Assets = append(out.Assets, AssetPerformanceResponse{
			Symbol:      a.Symbol,
			LastPrice:   a.LastPrice,
			LastUpdated: a.LastUpdated,
			Change1D:    a.Change1D,
			Change1W:    a.Change1W,
			Change1M:    a.Change1M,
			Change1Y:    a.Change1Y,
			Sparkline:   spark,
			MA200:       a.MA200,
			Status:      string(a.Status),
		})
	}
	return out
}

func splitSymbols(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// cacheKey keys on the exact symbol order since row order follows it.
func cacheKey(wl models.Watchlist) string {
	return "dashboard:watchlist:" + strings.Join(wl.Symbols, ",")
}
