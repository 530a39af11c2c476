package models

import "time"

// DataStatus qualifies a per-asset dashboard record.
type DataStatus string

const (
	DataOK     DataStatus = "ok"
	DataNone   DataStatus = "no_data"
	DataFailed DataStatus = "error"
)

// Watchlist is an ordered list of asset symbols to aggregate. It is supplied
// by the caller; persistence of watchlists belongs to the excluded CRUD layer.
type Watchlist struct {
	Name    string
	Symbols []string
}

// AssetPerformance is one watchlist row. Percentage changes are anchored to
// the asset's latest candle timestamp, not wall-clock now; nil means the
// comparison price was missing or zero.
type AssetPerformance struct {
	Symbol      string
	LastPrice   *float64
	LastUpdated *time.Time
	Change1D    *float64
	Change1W    *float64
	Change1M    *float64
	Change1Y    *float64
	Sparkline   []float64
	MA200       *float64
	Status      DataStatus
}

// WatchlistSnapshot is the computed dashboard view for one watchlist. It is
// valid only for the instant it was computed and is never persisted.
type WatchlistSnapshot struct {
	Watchlist   string
	Assets      []AssetPerformance
	Index       *float64
	GeneratedAt time.Time
}
