package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/service/metrics"
	"MarketPulse/internal/services/ta"
	applogger "MarketPulse/pkg/logger"
)

// minCandles is the floor below which an asset is skipped entirely. Skipping
// is an insufficient-data condition, not an error.
const minCandles = 20

// IndicatorBatch computes the fixed indicator set per asset and persists one
// snapshot per well-defined indicator at the latest candle's timestamp.
type IndicatorBatch struct {
	candles    domrepo.CandleStore
	assets     domrepo.AssetStore
	indicators domrepo.IndicatorStore
	l          *applogger.Logger
	now        func() time.Time
}

func NewIndicatorBatch(candles domrepo.CandleStore, assets domrepo.AssetStore, indicators domrepo.IndicatorStore) *IndicatorBatch {
	metrics.Register()
	return &IndicatorBatch{
		candles:    candles,
		assets:     assets,
		indicators: indicators,
		now:        time.Now,
	}
}

// SetLogger injects a structured logger.
func (b *IndicatorBatch) SetLogger(l *applogger.Logger) { b.l = l }

// SetClock overrides the batch clock.
func (b *IndicatorBatch) SetClock(now func() time.Time) { b.now = now }

type ComputeIndicatorsParams struct {
	AssetID      string
	LookbackDays int
}

// Compute runs the indicator batch. A failure for one asset is recorded in
// the result and never aborts sibling assets.
func (b *IndicatorBatch) Compute(ctx context.Context, p ComputeIndicatorsParams) (*models.BatchResult, error) {
	start := b.now()
	defer func() {
		metrics.BatchDuration.WithLabelValues("indicators").Observe(time.Since(start).Seconds())
	}()

	if p.LookbackDays <= 0 {
		p.LookbackDays = 100
	}

	targets, err := resolveTargets(ctx, b.assets, p.AssetID)
	if err != nil {
		return nil, err
	}

	res := &models.BatchResult{}
	since := start.AddDate(0, 0, -p.LookbackDays)

	for _, asset := range targets {
		n, err := b.computeOne(ctx, asset.ID, since)
		if err != nil {
			metrics.BatchErrors.WithLabelValues("indicators").Inc()
			res.AddError(fmt.Sprintf("%s: %v", asset.Symbol, err))
			if b.l != nil {
				b.l.Error("indicator batch asset error",
					applogger.String("asset", asset.Symbol),
					applogger.Error(err),
				)
			}
			continue
		}
		if n == 0 {
			// insufficient data, skip without counting
			continue
		}
		res.Processed++
		res.Created += n
	}

	if b.l != nil {
		b.l.Info("indicator batch complete",
			applogger.Int("processed", res.Processed),
			applogger.Int("created", res.Created),
			applogger.Int("errors", len(res.Errors)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return res, nil
}

// computeOne returns the number of snapshots written, 0 when the asset has
// too little history.
func (b *IndicatorBatch) computeOne(ctx context.Context, assetID string, since time.Time) (int, error) {
	candles, err := b.candles.GetCandles(ctx, assetID, domrepo.DefaultInterval(), since, b.now())
	if err != nil {
		return 0, fmt.Errorf("get candles: %w", err)
	}
	if len(candles) < minCandles {
		if b.l != nil {
			b.l.Info("not enough candles, skipping",
				applogger.String("asset", assetID),
				applogger.Int("candles", len(candles)),
			)
		}
		return 0, nil
	}

	closes := ta.Closes(candles)
	at := candles[len(candles)-1].TS

	macdLine, macdSig, macdHist := ta.MACD(closes, 12, 26, 9)
	bbMid, bbUp, bbLo := ta.Bollinger(closes, 20, 2)

	defs := []struct {
		name           string
		value          float64
		value2, value3 float64
		params         map[string]float64
	}{
		{"SMA_20", ta.SMA(closes, 20), math.NaN(), math.NaN(), map[string]float64{"period": 20}},
		{"SMA_50", ta.SMA(closes, 50), math.NaN(), math.NaN(), map[string]float64{"period": 50}},
		{"EMA_20", ta.EMA(closes, 20), math.NaN(), math.NaN(), map[string]float64{"period": 20}},
		{"EMA_50", ta.EMA(closes, 50), math.NaN(), math.NaN(), map[string]float64{"period": 50}},
		{"RSI_14", ta.RSI(closes, 14), math.NaN(), math.NaN(), map[string]float64{"period": 14}},
		{"MACD_12_26_9", macdLine, macdSig, macdHist, map[string]float64{"fast": 12, "slow": 26, "signal": 9}},
		{"BBANDS_20_2", bbMid, bbUp, bbLo, map[string]float64{"period": 20, "std": 2}},
		{"ATR_14", ta.ATR(candles, 14), math.NaN(), math.NaN(), map[string]float64{"period": 14}},
		{"OBV", ta.OBV(candles), math.NaN(), math.NaN(), map[string]float64{}},
	}

	snaps := make([]models.IndicatorSnapshot, 0, len(defs))
	for _, d := range defs {
		if math.IsNaN(d.value) {
			continue // undefined, not persisted
		}
		snaps = append(snaps, models.IndicatorSnapshot{
			AssetID:    assetID,
			TS:         at,
			Name:       d.name,
			Value:      d.value,
			Value2:     optFloat(d.value2),
			Value3:     optFloat(d.value3),
			Parameters: d.params,
			Interval:   string(domrepo.DefaultInterval()),
		})
	}
	if len(snaps) == 0 {
		return 0, nil
	}
	if err := b.indicators.PutSnapshots(ctx, snaps); err != nil {
		return 0, fmt.Errorf("put snapshots: %w", err)
	}
	return len(snaps), nil
}

// resolveTargets picks the batch scope: one asset by id, or all active ones.
func resolveTargets(ctx context.Context, assets domrepo.AssetStore, assetID string) ([]models.Asset, error) {
	if assetID != "" {
		a, err := assets.Get(ctx, assetID)
		if err != nil {
			return nil, err
		}
		return []models.Asset{*a}, nil
	}
	list, err := assets.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return list, nil
}

func optFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
