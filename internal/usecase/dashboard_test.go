package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/domain/models"
)

func TestDashboard_ChangesAnchoredToLatestCandle(t *testing.T) {
	// anchor T0 is the latest candle, deliberately in the past relative to now
	anchor := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	now := anchor.AddDate(0, 0, 10)

	candles := newFakeCandleStore()
	candles.candles["AAPL"] = []models.Candle{
		{TS: anchor.AddDate(0, 0, -30), AssetID: "AAPL", Close: 80},
		{TS: anchor.AddDate(0, 0, -7), AssetID: "AAPL", Close: 90},
		{TS: anchor.AddDate(0, 0, -1), AssetID: "AAPL", Close: 100},
		{TS: anchor, AssetID: "AAPL", Close: 110},
	}

	d := NewDashboard(candles)
	d.SetClock(fixedClock(now))

	snap, err := d.WatchlistSummary(context.Background(), models.Watchlist{Name: "tech", Symbols: []string{"AAPL"}})
	require.NoError(t, err)
	require.Len(t, snap.Assets, 1)

	rec := snap.Assets[0]
	assert.Equal(t, models.DataOK, rec.Status)
	require.NotNil(t, rec.LastPrice)
	assert.Equal(t, 110.0, *rec.LastPrice)
	require.NotNil(t, rec.LastUpdated)
	assert.Equal(t, anchor, *rec.LastUpdated)

	require.NotNil(t, rec.Change1D)
	assert.Equal(t, 10.0, *rec.Change1D) // (110-100)/100
	require.NotNil(t, rec.Change1W)
	assert.Equal(t, 22.22, *rec.Change1W) // (110-90)/90 rounded
	require.NotNil(t, rec.Change1M)
	assert.Equal(t, 37.5, *rec.Change1M) // (110-80)/80
	assert.Nil(t, rec.Change1Y, "no candle a year before the anchor")

	// sparkline covers the 30 days up to and including T0, ascending
	assert.Equal(t, []float64{80, 90, 100, 110}, rec.Sparkline)
	assert.Nil(t, rec.MA200, "fewer than 200 candles")
	assert.Nil(t, snap.Index, "no asset qualifies for the index")
	assert.Equal(t, now, snap.GeneratedAt)
}

func TestDashboard_NoDataAssetDoesNotBreakOthers(t *testing.T) {
	anchor := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	candles := newFakeCandleStore()
	candles.candles["AAPL"] = dailyCandles("AAPL", anchor.AddDate(0, 0, -5), []float64{100, 101, 102, 103, 104})

	d := NewDashboard(candles)
	snap, err := d.WatchlistSummary(context.Background(), models.Watchlist{Symbols: []string{"GHOST", "AAPL"}})
	require.NoError(t, err)
	require.Len(t, snap.Assets, 2)

	ghost := snap.Assets[0]
	assert.Equal(t, models.DataNone, ghost.Status)
	assert.Nil(t, ghost.LastPrice)
	assert.Empty(t, ghost.Sparkline)
	assert.Nil(t, ghost.Change1D)

	assert.Equal(t, models.DataOK, snap.Assets[1].Status)
	require.NotNil(t, snap.Assets[1].LastPrice)
}

func TestDashboard_IndexFromQualifyingAssetsOnly(t *testing.T) {
	anchor := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	// flat at 100 for 250 days: MA200 = 100, P0 = 100, P0/MA200 = 1
	flat := make([]float64, 250)
	for i := range flat {
		flat[i] = 100
	}
	candles := newFakeCandleStore()
	candles.candles["FLAT"] = dailyCandles("FLAT", anchor.AddDate(0, 0, -250), flat)
	candles.candles["SHORT"] = dailyCandles("SHORT", anchor.AddDate(0, 0, -10), []float64{5, 6, 7, 8, 9, 10, 11, 12, 13, 14})

	d := NewDashboard(candles)
	snap, err := d.WatchlistSummary(context.Background(), models.Watchlist{Symbols: []string{"FLAT", "SHORT"}})
	require.NoError(t, err)

	require.NotNil(t, snap.Assets[0].MA200)
	assert.Equal(t, 100.0, *snap.Assets[0].MA200)
	assert.Nil(t, snap.Assets[1].MA200)

	require.NotNil(t, snap.Index)
	assert.Equal(t, 100.0, *snap.Index) // mean(1.0) * 100
}

func TestDashboard_StoreFailureMarksRecordOnly(t *testing.T) {
	anchor := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	candles := newFakeCandleStore()
	candles.candles["AAPL"] = dailyCandles("AAPL", anchor.AddDate(0, 0, -5), []float64{100, 101, 102, 103, 104})
	candles.failOn["BROKE"] = assert.AnError

	d := NewDashboard(candles)
	snap, err := d.WatchlistSummary(context.Background(), models.Watchlist{Symbols: []string{"BROKE", "AAPL"}})
	require.NoError(t, err, "a failing asset must not fail the watchlist")
	require.Len(t, snap.Assets, 2)
	assert.Equal(t, models.DataFailed, snap.Assets[0].Status)
	assert.Equal(t, models.DataOK, snap.Assets[1].Status)
}

func TestPct(t *testing.T) {
	assert.Nil(t, pct(10, 0), "zero base is undefined")

	v := pct(110, 100)
	require.NotNil(t, v)
	assert.Equal(t, 10.0, *v)

	v = pct(90, 100)
	require.NotNil(t, v)
	assert.Equal(t, -10.0, *v)

	v = pct(110, 90)
	require.NotNil(t, v)
	assert.Equal(t, 22.22, *v)
}
