package api

import (
	"errors"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	xhttp "MarketPulse/pkg/http"
	applogger "MarketPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

const defaultRecentWindow = 48 * time.Hour

// IndicatorResponse is one indicator snapshot row.
type IndicatorResponse struct {
	AssetID    string             `json:"asset_id"`
	TS         time.Time          `json:"ts"`
	Name       string             `json:"name"`
	Value      float64            `json:"value"`
	Value2     *float64           `json:"value2,omitempty"`
	Value3     *float64           `json:"value3,omitempty"`
	Parameters map[string]float64 `json:"parameters,omitempty"`
	Interval   string             `json:"interval"`
}

// SignalResponse is the active signal for an asset.
type SignalResponse struct {
	ID             int64      `json:"id"`
	AssetID        string     `json:"asset_id"`
	TS             time.Time  `json:"ts"`
	Type           string     `json:"type"`
	Strength       string     `json:"strength"`
	Confidence     float64    `json:"confidence"`
	Price          *float64   `json:"price,omitempty"`
	Strategy       string     `json:"strategy"`
	Rationale      string     `json:"rationale"`
	IndicatorsUsed []string   `json:"indicators_used"`
	Interval       string     `json:"interval"`
	IsActive       bool       `json:"is_active"`
	GeneratedAt    time.Time  `json:"generated_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// RecentIndicators handles GET /api/indicators/recent.
// Query: asset (required), since (RFC3339 or unix seconds, default now-48h).
func (h *Handler) RecentIndicators(c echo.Context) error {
	asset := c.QueryParam("asset")
	if asset == "" {
		return xhttp.BadRequestResponse(c, "asset is required")
	}
	since := xhttp.ParseTimeDefault(c.QueryParam("since"), time.Now().Add(-defaultRecentWindow))

	snaps, err := h.indicators.GetRecent(c.Request().Context(), asset, since)
	if err != nil {
		if h.l != nil {
			h.l.Error("recent indicators failed", applogger.String("asset", asset), applogger.Error(err))
		}
		return xhttp.InternalServerErrorResponse(c)
	}

	rows := make([]IndicatorResponse, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, IndicatorResponse{
			AssetID:    s.AssetID,
			TS:         s.TS,
			Name:       s.Name,
			Value:      s.Value,
			Value2:     s.Value2,
			Value3:     s.Value3,
			Parameters: s.Parameters,
			Interval:   s.Interval,
		})
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// ActiveSignal handles GET /api/signals/active.
// Query: asset (required), type (optional filter, unknown tokens are rejected).
func (h *Handler) ActiveSignal(c echo.Context) error {
	asset := c.QueryParam("asset")
	if asset == "" {
		return xhttp.BadRequestResponse(c, "asset is required")
	}
	var want models.SignalType
	if s := c.QueryParam("type"); s != "" {
		st, err := models.ParseSignalType(s)
		if err != nil {
			return xhttp.BadRequestResponse(c, err.Error())
		}
		want = st
	}

	sig, err := h.signals.GetActive(c.Request().Context(), asset)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return xhttp.NotFoundResponse(c, err.Error())
		}
		if h.l != nil {
			h.l.Error("active signal failed", applogger.String("asset", asset), applogger.Error(err))
		}
		return xhttp.InternalServerErrorResponse(c)
	}
	if want != "" && sig.Type != want {
		return xhttp.NotFoundResponse(c, fmt.Sprintf("no active %s signal for %s", want, asset))
	}

	return xhttp.SuccessResponse(c, &SignalResponse{
		ID:             sig.ID,
		AssetID:        sig.AssetID,
		TS:             sig.TS,
		Type:           string(sig.Type),
		Strength:       string(sig.Strength),
		Confidence:     sig.Confidence,
		Price:          sig.Price,
		Strategy:       sig.Strategy,
		Rationale:      sig.Rationale,
		IndicatorsUsed: sig.IndicatorsUsed,
		Interval:       sig.Interval,
		IsActive:       sig.IsActive,
		GeneratedAt:    sig.GeneratedAt,
		ExpiresAt:      sig.ExpiresAt,
	})
}
