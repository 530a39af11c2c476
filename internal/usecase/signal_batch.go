package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/service/events"
	"MarketPulse/internal/service/metrics"
	applogger "MarketPulse/pkg/logger"
)

// indicatorMaxAge is how far back the signal engine looks for snapshots.
const indicatorMaxAge = 48 * time.Hour

const strategyName = "RSI_MA_MACD_Combined"

// SignalBatch turns the latest indicator snapshots into directional signals,
// superseding the previously active signal per asset.
type SignalBatch struct {
	assets     domrepo.AssetStore
	indicators domrepo.IndicatorStore
	signals    domrepo.SignalStore
	candles    domrepo.CandleStore
	publisher  events.Publisher
	l          *applogger.Logger
	now        func() time.Time
	ttl        time.Duration
}

func NewSignalBatch(assets domrepo.AssetStore, indicators domrepo.IndicatorStore, signals domrepo.SignalStore, candles domrepo.CandleStore) *SignalBatch {
	metrics.Register()
	return &SignalBatch{
		assets:     assets,
		indicators: indicators,
		signals:    signals,
		candles:    candles,
		publisher:  events.NopPublisher{},
		now:        time.Now,
	}
}

// SetLogger injects a structured logger.
func (b *SignalBatch) SetLogger(l *applogger.Logger) { b.l = l }

// SetClock overrides the batch clock.
func (b *SignalBatch) SetClock(now func() time.Time) { b.now = now }

// SetPublisher wires signal event publication.
func (b *SignalBatch) SetPublisher(p events.Publisher) { b.publisher = p }

// SetSignalTTL sets the lifetime of newly created signals. Zero disables
// expiry stamping.
func (b *SignalBatch) SetSignalTTL(ttl time.Duration) { b.ttl = ttl }

type ComputeSignalsParams struct {
	AssetID string
}

// Compute runs the signal batch. Assets without recent indicators are
// skipped; per-asset failures land in the result's error list.
func (b *SignalBatch) Compute(ctx context.Context, p ComputeSignalsParams) (*models.BatchResult, error) {
	start := b.now()
	defer func() {
		metrics.BatchDuration.WithLabelValues("signals").Observe(time.Since(start).Seconds())
	}()

	targets, err := resolveTargets(ctx, b.assets, p.AssetID)
	if err != nil {
		return nil, err
	}

	res := &models.BatchResult{}
	since := start.Add(-indicatorMaxAge)

	for _, asset := range targets {
		created, err := b.computeOne(ctx, asset.ID, since)
		if err != nil {
			metrics.BatchErrors.WithLabelValues("signals").Inc()
			res.AddError(fmt.Sprintf("%s: %v", asset.Symbol, err))
			if b.l != nil {
				b.l.Error("signal batch asset error",
					applogger.String("asset", asset.Symbol),
					applogger.Error(err),
				)
			}
			continue
		}
		if created == nil {
			continue // no recent indicators, skip
		}
		res.Processed++
		if created.signal != nil {
			res.Created++
		}
	}

	if b.l != nil {
		b.l.Info("signal batch complete",
			applogger.Int("processed", res.Processed),
			applogger.Int("created", res.Created),
			applogger.Int("errors", len(res.Errors)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return res, nil
}

type signalOutcome struct {
	signal *models.Signal
}

// computeOne returns nil when the asset has no recent indicators (skip), an
// outcome with a nil signal when indicators existed but none fed a rule.
func (b *SignalBatch) computeOne(ctx context.Context, assetID string, since time.Time) (*signalOutcome, error) {
	snaps, err := b.indicators.GetRecent(ctx, assetID, since)
	if err != nil {
		return nil, fmt.Errorf("get indicators: %w", err)
	}
	if len(snaps) == 0 {
		if b.l != nil {
			b.l.Info("no recent indicators, skipping", applogger.String("asset", assetID))
		}
		return nil, nil
	}

	sc, ok := buildScorecard(latestByName(snaps))
	if !ok {
		return &signalOutcome{}, nil
	}

	sig := &models.Signal{
		AssetID:        assetID,
		TS:             sc.TS,
		Type:           sc.Type,
		Strength:       sc.Strength,
		Confidence:     sc.Confidence,
		Strategy:       strategyName,
		Rationale:      sc.Rationale,
		IndicatorsUsed: sc.IndicatorsUsed,
		Interval:       string(domrepo.DefaultInterval()),
		IsActive:       true,
		GeneratedAt:    b.now(),
	}
	if b.ttl > 0 {
		exp := sig.TS.Add(b.ttl)
		sig.ExpiresAt = &exp
	}
	latest, err := b.candles.LatestCandle(ctx, assetID, domrepo.DefaultInterval())
	if err != nil && b.l != nil {
		b.l.Warn("signal price lookup failed",
			applogger.String("asset", assetID),
			applogger.Error(err),
		)
	}
	if latest != nil {
		price := latest.Close
		sig.Price = &price
	}

	// Deactivation of previous signals and the insert happen inside one
	// store transaction, serialized per asset.
	if err := b.signals.Supersede(ctx, sig); err != nil {
		return nil, fmt.Errorf("supersede signal: %w", err)
	}
	metrics.SignalsCreated.WithLabelValues(string(sig.Type)).Inc()

	if err := b.publisher.PublishSignal(ctx, sig); err != nil && b.l != nil {
		b.l.Warn("signal event publish failed",
			applogger.String("asset", assetID),
			applogger.Error(err),
		)
	}
	if b.l != nil {
		b.l.Info("signal created",
			applogger.String("asset", assetID),
			applogger.String("type", string(sig.Type)),
			applogger.Float64("confidence", sig.Confidence),
		)
	}
	return &signalOutcome{signal: sig}, nil
}

// DeactivateExpired sweeps active signals whose expiry has passed. It is
// idempotent and safe to run at any cadence.
func (b *SignalBatch) DeactivateExpired(ctx context.Context) (int64, error) {
	n, err := b.signals.DeactivateExpired(ctx, b.now())
	if err != nil {
		return 0, fmt.Errorf("deactivate expired: %w", err)
	}
	if b.l != nil && n > 0 {
		b.l.Info("expired signals deactivated", applogger.Int64("count", n))
	}
	return n, nil
}
