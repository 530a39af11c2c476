package usecase

import (
	"context"
	"math"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/service/metrics"
	"MarketPulse/internal/services/ta"
	applogger "MarketPulse/pkg/logger"
	pkgmetrics "MarketPulse/pkg/metrics"
)

const (
	sparklineDays = 30
	ma200Window   = 200
)

// Dashboard computes watchlist-level performance views straight from the
// candle store. It is pure and read-only: concurrent invocations never
// conflict and nothing is persisted.
type Dashboard struct {
	candles domrepo.CandleStore
	l       *applogger.Logger
	rec     *pkgmetrics.Recorder
	now     func() time.Time
}

func NewDashboard(candles domrepo.CandleStore) *Dashboard {
	metrics.Register()
	return &Dashboard{candles: candles, now: time.Now}
}

// SetLogger injects a structured logger.
func (d *Dashboard) SetLogger(l *applogger.Logger) { d.l = l }

// SetClock overrides the clock used for GeneratedAt.
func (d *Dashboard) SetClock(now func() time.Time) { d.now = now }

// SetRecorder injects an application metrics recorder.
func (d *Dashboard) SetRecorder(rec *pkgmetrics.Recorder) { d.rec = rec }

// WatchlistSummary builds per-asset performance records plus the normalized
// cross-asset index. Every relative comparison is anchored to the asset's
// latest candle timestamp, never to wall-clock now. Missing data for any
// subset of assets degrades those records only.
func (d *Dashboard) WatchlistSummary(ctx context.Context, wl models.Watchlist) (*models.WatchlistSnapshot, error) {
	start := time.Now()
	defer func() { metrics.DashboardDuration.Observe(time.Since(start).Seconds()) }()

	snap := &models.WatchlistSnapshot{
		Watchlist:   wl.Name,
		Assets:      make([]models.AssetPerformance, 0, len(wl.Symbols)),
		GeneratedAt: d.now(),
	}

	var normalized []float64
	for _, symbol := range wl.Symbols {
		rec, norm := d.assetRecord(ctx, symbol)
		snap.Assets = append(snap.Assets, rec)
		if norm != nil {
			normalized = append(normalized, *norm)
		}
	}

	if len(normalized) > 0 {
		sum := 0.0
		for _, v := range normalized {
			sum += v
		}
		idx := round2(sum / float64(len(normalized)) * 100)
		snap.Index = &idx
	}
	return snap, nil
}

// assetRecord computes one watchlist row and, when the asset has a defined
// 200-day moving average, its P0/MA200 contribution to the index.
func (d *Dashboard) assetRecord(ctx context.Context, symbol string) (models.AssetPerformance, *float64) {
	rec := models.AssetPerformance{Symbol: symbol, Sparkline: []float64{}, Status: models.DataOK}

	latest, err := d.candles.LatestCandle(ctx, symbol, domrepo.DefaultInterval())
	if err != nil {
		if d.l != nil {
			d.l.Error("dashboard latest candle error", applogger.String("asset", symbol), applogger.Error(err))
		}
		rec.Status = models.DataFailed
		return rec, nil
	}
	if latest == nil {
		rec.Status = models.DataNone
		return rec, nil
	}

	anchor := latest.TS
	p0 := latest.Close
	last := round2(p0)
	rec.LastPrice = &last
	rec.LastUpdated = &anchor
	if d.rec != nil {
		d.rec.RecordLastPrice(symbol, p0)
	}

	rec.Change1D = d.change(ctx, symbol, p0, anchor.AddDate(0, 0, -1))
	rec.Change1W = d.change(ctx, symbol, p0, anchor.AddDate(0, 0, -7))
	rec.Change1M = d.change(ctx, symbol, p0, anchor.AddDate(0, 0, -30))
	rec.Change1Y = d.change(ctx, symbol, p0, anchor.AddDate(0, 0, -365))

	spark, err := d.candles.GetCandles(ctx, symbol, domrepo.DefaultInterval(), anchor.AddDate(0, 0, -sparklineDays), anchor)
	if err != nil {
		if d.l != nil {
			d.l.Error("dashboard sparkline error", applogger.String("asset", symbol), applogger.Error(err))
		}
		rec.Status = models.DataFailed
		return rec, nil
	}
	rec.Sparkline = ta.Closes(spark)

	window, err := d.candles.GetLatestNCandles(ctx, symbol, domrepo.DefaultInterval(), ma200Window)
	if err != nil {
		if d.l != nil {
			d.l.Error("dashboard ma200 error", applogger.String("asset", symbol), applogger.Error(err))
		}
		rec.Status = models.DataFailed
		return rec, nil
	}
	var norm *float64
	if len(window) >= ma200Window {
		ma := ta.SMA(ta.Closes(window), ma200Window)
		if !math.IsNaN(ma) && ma != 0 {
			rma := round2(ma)
			rec.MA200 = &rma
			v := p0 / ma
			norm = &v
		}
	}
	return rec, norm
}

// change returns the percentage move from the close at or before `at` to cur,
// nil when there is no comparison price or it is zero.
func (d *Dashboard) change(ctx context.Context, symbol string, cur float64, at time.Time) *float64 {
	prev, ok, err := d.candles.CloseAtOrBefore(ctx, symbol, domrepo.DefaultInterval(), at)
	if err != nil {
		if d.l != nil {
			d.l.Warn("dashboard price lookup error", applogger.String("asset", symbol), applogger.Error(err))
		}
		return nil
	}
	if !ok {
		return nil
	}
	return pct(cur, prev)
}

// pct is (cur-prev)/prev*100 rounded to 2 decimals, nil when prev is zero.
func pct(cur, prev float64) *float64 {
	if prev == 0 {
		return nil
	}
	v := round2((cur - prev) / prev * 100)
	return &v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
