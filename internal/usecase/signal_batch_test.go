package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/domain/models"
)

func newSignalFixture(now time.Time) (*SignalBatch, *fakeIndicatorStore, *fakeSignalStore, *fakeCandleStore) {
	assets := &fakeAssetStore{assets: []models.Asset{{ID: "a1", Symbol: "AAPL", IsActive: true}}}
	indicators := &fakeIndicatorStore{}
	signals := &fakeSignalStore{}
	candles := newFakeCandleStore()

	b := NewSignalBatch(assets, indicators, signals, candles)
	b.SetClock(fixedClock(now))
	return b, indicators, signals, candles
}

func TestSignalBatch_CreatesBuySignal(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	ts := now.Add(-12 * time.Hour)
	b, indicators, signals, candles := newSignalFixture(now)

	indicators.snaps = []models.IndicatorSnapshot{
		{AssetID: "a1", Name: "RSI_14", Value: 25, TS: ts},
		{AssetID: "a1", Name: "SMA_20", Value: 105, TS: ts},
		{AssetID: "a1", Name: "SMA_50", Value: 100, TS: ts},
	}
	candles.candles["a1"] = dailyCandles("a1", ts.AddDate(0, 0, -1), []float64{110, 112})

	res, err := b.Compute(context.Background(), ComputeSignalsParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Created)

	sig, err := signals.GetActive(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, models.SignalBuy, sig.Type)
	assert.Equal(t, models.StrengthModerate, sig.Strength)
	assert.Equal(t, 60.0, sig.Confidence)
	assert.Equal(t, ts, sig.TS, "signal timestamp follows the indicators, not the clock")
	assert.Equal(t, "RSI_MA_MACD_Combined", sig.Strategy)
	require.NotNil(t, sig.Price)
	assert.Equal(t, 112.0, *sig.Price)
}

func TestSignalBatch_SupersessionLeavesOneActive(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	b, indicators, signals, _ := newSignalFixture(now)

	indicators.snaps = []models.IndicatorSnapshot{
		{AssetID: "a1", Name: "RSI_14", Value: 25, TS: now.Add(-time.Hour)},
	}
	_, err := b.Compute(context.Background(), ComputeSignalsParams{})
	require.NoError(t, err)

	// fresher indicators flip the direction
	indicators.snaps = []models.IndicatorSnapshot{
		{AssetID: "a1", Name: "RSI_14", Value: 80, TS: now.Add(-time.Minute)},
	}
	_, err = b.Compute(context.Background(), ComputeSignalsParams{})
	require.NoError(t, err)

	assert.Equal(t, 1, signals.activeCount("a1"), "exactly one active signal after two runs")
	assert.Len(t, signals.signals, 2, "history is retained, not deleted")

	active, err := signals.GetActive(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, models.SignalSell, active.Type)
}

func TestSignalBatch_SkipsAssetWithoutIndicators(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	b, _, signals, _ := newSignalFixture(now)

	res, err := b.Compute(context.Background(), ComputeSignalsParams{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 0, res.Created)
	assert.Empty(t, signals.signals)
}

func TestSignalBatch_StaleIndicatorsNotConsulted(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	b, indicators, signals, _ := newSignalFixture(now)

	// older than the 2-day window
	indicators.snaps = []models.IndicatorSnapshot{
		{AssetID: "a1", Name: "RSI_14", Value: 25, TS: now.AddDate(0, 0, -3)},
	}
	res, err := b.Compute(context.Background(), ComputeSignalsParams{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	assert.Empty(t, signals.signals)
}

func TestSignalBatch_ProcessedWithoutCreationWhenNoRuleInputs(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	b, indicators, signals, _ := newSignalFixture(now)

	indicators.snaps = []models.IndicatorSnapshot{
		{AssetID: "a1", Name: "OBV", Value: 12345, TS: now.Add(-time.Hour)},
	}
	res, err := b.Compute(context.Background(), ComputeSignalsParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 0, res.Created)
	assert.Empty(t, signals.signals)
}

func TestSignalBatch_PriceLookupFailureStillCreatesSignal(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	b, indicators, signals, candles := newSignalFixture(now)
	candles.failOn["a1"] = assert.AnError

	indicators.snaps = []models.IndicatorSnapshot{
		{AssetID: "a1", Name: "RSI_14", Value: 25, TS: now.Add(-time.Hour)},
	}
	res, err := b.Compute(context.Background(), ComputeSignalsParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Empty(t, res.Errors, "price enrichment is best effort")

	sig, err := signals.GetActive(context.Background(), "a1")
	require.NoError(t, err)
	assert.Nil(t, sig.Price)
}

func TestSignalBatch_TTLStampsExpiry(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	ts := now.Add(-time.Hour)
	b, indicators, signals, _ := newSignalFixture(now)
	b.SetSignalTTL(72 * time.Hour)

	indicators.snaps = []models.IndicatorSnapshot{
		{AssetID: "a1", Name: "RSI_14", Value: 25, TS: ts},
	}
	_, err := b.Compute(context.Background(), ComputeSignalsParams{})
	require.NoError(t, err)

	sig, err := signals.GetActive(context.Background(), "a1")
	require.NoError(t, err)
	require.NotNil(t, sig.ExpiresAt)
	assert.Equal(t, ts.Add(72*time.Hour), *sig.ExpiresAt)
}

func TestSignalBatch_DeactivateExpired(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	b, _, signals, _ := newSignalFixture(now)

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	signals.signals = []*models.Signal{
		{AssetID: "a1", IsActive: true, ExpiresAt: &past},
		{AssetID: "a2", IsActive: true, ExpiresAt: &future},
		{AssetID: "a3", IsActive: true}, // no expiry, untouched
	}

	n, err := b.DeactivateExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// idempotent: a second sweep finds nothing
	n, err = b.DeactivateExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestSignalBatch_PublisherReceivesCreatedSignal(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	b, indicators, _, _ := newSignalFixture(now)

	var (
		mu        sync.Mutex
		published []*models.Signal
	)
	b.SetPublisher(publisherFunc(func(_ context.Context, sig *models.Signal) error {
		mu.Lock()
		published = append(published, sig)
		mu.Unlock()
		return nil
	}))

	indicators.snaps = []models.IndicatorSnapshot{
		{AssetID: "a1", Name: "RSI_14", Value: 25, TS: now.Add(-time.Hour)},
	}
	_, err := b.Compute(context.Background(), ComputeSignalsParams{})
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, models.SignalBuy, published[0].Type)
}

type publisherFunc func(ctx context.Context, sig *models.Signal) error

func (f publisherFunc) PublishSignal(ctx context.Context, sig *models.Signal) error {
	return f(ctx, sig)
}
func (publisherFunc) Close() error { return nil }
