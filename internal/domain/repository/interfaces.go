package repository

import (
	"context"
	"time"

	"MarketPulse/internal/domain/models"
)

// CandleStore provides read-only access to ordered OHLCV series. All results
// are sorted by timestamp ascending.
type CandleStore interface {
	GetCandles(ctx context.Context, assetID string, iv Interval, from, to time.Time) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, assetID string, iv Interval, n int) ([]models.Candle, error)
	LatestCandle(ctx context.Context, assetID string, iv Interval) (*models.Candle, error)
	CloseAtOrBefore(ctx context.Context, assetID string, iv Interval, at time.Time) (float64, bool, error)
}

// AssetStore resolves tracked instruments.
type AssetStore interface {
	Get(ctx context.Context, id string) (*models.Asset, error)
	ListActive(ctx context.Context) ([]models.Asset, error)
}

// IndicatorStore persists and reads indicator snapshots. Rows are append-only.
type IndicatorStore interface {
	PutSnapshots(ctx context.Context, snaps []models.IndicatorSnapshot) error
	// GetRecent returns all snapshots for the asset with TS >= since,
	// newest first. Deduplication per name is the caller's reduction.
	GetRecent(ctx context.Context, assetID string, since time.Time) ([]models.IndicatorSnapshot, error)
}

// SignalStore persists signals. Supersede must deactivate every previously
// active signal for the asset and insert the new one in a single atomic unit,
// serialized per asset across concurrent runs.
type SignalStore interface {
	Supersede(ctx context.Context, sig *models.Signal) error
	GetActive(ctx context.Context, assetID string) (*models.Signal, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}
