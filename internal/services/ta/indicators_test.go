package ta

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/domain/models"
)

func candlesFromCloses(closes []float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = models.Candle{
			TS:     ts.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return out
}

func TestSMA(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 4.0, SMA(vals, 3), 1e-12) // (3+4+5)/3
	assert.InDelta(t, 3.0, SMA(vals, 5), 1e-12)
	assert.True(t, math.IsNaN(SMA(vals, 6)), "window larger than series is undefined")
	assert.True(t, math.IsNaN(SMA(vals, 0)))
}

func TestEMASeries_SeededWithSMA(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5}
	s := EMASeries(vals, 3)
	require.Len(t, s, 5)
	assert.True(t, math.IsNaN(s[0]))
	assert.True(t, math.IsNaN(s[1]))
	assert.InDelta(t, 2.0, s[2], 1e-12) // seed = SMA(1,2,3)
	// k = 2/(3+1) = 0.5
	assert.InDelta(t, 3.0, s[3], 1e-12) // (4-2)*0.5 + 2
	assert.InDelta(t, 4.0, s[4], 1e-12) // (5-3)*0.5 + 3
}

func TestRSI_BoundedBetween0And100(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vals := make([]float64, 0, 300)
	price := 100.0
	for i := 0; i < 300; i++ {
		price *= 1 + (rng.Float64()-0.5)*0.04
		vals = append(vals, price)
	}
	for n := 15; n <= len(vals); n++ {
		r := RSI(vals[:n], 14)
		if math.IsNaN(r) {
			continue // zero average loss is a legitimate gap
		}
		require.GreaterOrEqual(t, r, 0.0, "n=%d", n)
		require.LessOrEqual(t, r, 100.0, "n=%d", n)
	}
}

func TestRSI_InsufficientDeltas(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14}
	// 13 deltas < window 14
	assert.True(t, math.IsNaN(RSI(vals, 14)))
}

func TestRSI_ZeroAverageLossUndefined(t *testing.T) {
	vals := make([]float64, 20)
	for i := range vals {
		vals[i] = float64(i + 1) // strictly rising, no losses
	}
	assert.True(t, math.IsNaN(RSI(vals, 14)), "RS has no finite value without losses")
}

func TestRSI_AllLossesIsZero(t *testing.T) {
	vals := make([]float64, 20)
	for i := range vals {
		vals[i] = float64(100 - i)
	}
	assert.InDelta(t, 0.0, RSI(vals, 14), 1e-12)
}

func TestMACD_HistogramIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	vals := make([]float64, 0, 120)
	price := 50.0
	for i := 0; i < 120; i++ {
		price *= 1 + (rng.Float64()-0.5)*0.02
		vals = append(vals, price)
	}
	for n := 40; n <= len(vals); n++ {
		line, sig, hist := MACD(vals[:n], 12, 26, 9)
		require.False(t, math.IsNaN(line))
		require.False(t, math.IsNaN(sig))
		require.InDelta(t, line-sig, hist, 1e-9)
	}
}

func TestMACD_SignalUndefinedWithShortHistory(t *testing.T) {
	vals := make([]float64, 30)
	for i := range vals {
		vals[i] = float64(i)
	}
	// 30 points: MACD line defined (>= 26), signal needs 26+9-1 = 34.
	line, sig, hist := MACD(vals, 12, 26, 9)
	assert.False(t, math.IsNaN(line))
	assert.True(t, math.IsNaN(sig))
	assert.True(t, math.IsNaN(hist))
}

func TestBollinger_BandOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	vals := make([]float64, 0, 100)
	for i := 0; i < 100; i++ {
		vals = append(vals, 100+rng.NormFloat64()*5)
	}
	for n := 20; n <= len(vals); n++ {
		mid, up, lo := Bollinger(vals[:n], 20, 2)
		require.False(t, math.IsNaN(mid))
		require.GreaterOrEqual(t, up, mid)
		require.GreaterOrEqual(t, mid, lo)
	}
}

func TestBollinger_FlatSeriesCollapses(t *testing.T) {
	vals := make([]float64, 25)
	for i := range vals {
		vals[i] = 42.0
	}
	mid, up, lo := Bollinger(vals, 20, 2)
	assert.InDelta(t, 42.0, mid, 1e-12)
	assert.InDelta(t, 42.0, up, 1e-12)
	assert.InDelta(t, 42.0, lo, 1e-12)
}

func TestATR_Wilder(t *testing.T) {
	candles := candlesFromCloses([]float64{10, 11, 12, 11, 10, 11, 12, 13, 12, 11, 10, 11, 12, 13, 14, 15})
	atr := ATR(candles, 14)
	require.False(t, math.IsNaN(atr))
	assert.Greater(t, atr, 0.0)

	short := candlesFromCloses([]float64{10, 11, 12})
	assert.True(t, math.IsNaN(ATR(short, 14)))
}

func TestOBV_SignFollowsCloseDirection(t *testing.T) {
	closes := []float64{10, 11, 11, 9, 12}
	candles := candlesFromCloses(closes)
	for i := range candles {
		candles[i].Volume = 100
	}
	// +100 (up), 0 (flat), -100 (down), +100 (up) = 100
	assert.InDelta(t, 100.0, OBV(candles), 1e-12)
	assert.True(t, math.IsNaN(OBV(nil)))
}
