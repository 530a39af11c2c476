package models

import "time"

// IndicatorSnapshot is one named indicator value computed as of a specific
// candle timestamp (the last row of the computation window, never wall-clock).
// Value2/Value3 carry secondary series where the indicator has them: the MACD
// signal line and histogram, the Bollinger upper and lower bands.
type IndicatorSnapshot struct {
	AssetID    string
	TS         time.Time
	Name       string // "SMA_20", "RSI_14", "MACD_12_26_9", ...
	Value      float64
	Value2     *float64
	Value3     *float64
	Parameters map[string]float64
	Interval   string
}
