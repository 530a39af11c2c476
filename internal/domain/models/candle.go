package models

import "time"

// Candle represents one OHLCV sample for an asset over a fixed interval.
// The interval is carried by the query, not the row: candles are ordered by
// timestamp ascending per (asset, interval) and are immutable once written
// except for appends of later timestamps.
type Candle struct {
	TS      time.Time
	AssetID string
	Open    float64
	High    float64
	Low     float64
	Close   float64
	Volume  float64
	Trades  int64
	VWAP    float64
}
