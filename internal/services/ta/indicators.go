package ta

import (
	"math"

	"MarketPulse/internal/domain/models"
)

// Undefined values are reported as NaN and filtered out by the caller before
// persistence; they are never coerced to zero.

// Closes extracts the closing-price series from an ordered candle window.
func Closes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// SMA returns the simple moving average of the last `window` values.
func SMA(values []float64, window int) float64 {
	if window <= 0 || len(values) < window {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values[len(values)-window:] {
		sum += v
	}
	return sum / float64(window)
}

// EMASeries returns the exponential moving average aligned to values: NaN
// until the series has `window` points, seeded with the SMA of the first
// window, then smoothed with multiplier 2/(window+1).
func EMASeries(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if window <= 0 || len(values) < window {
		return out
	}
	seed := 0.0
	for _, v := range values[:window] {
		seed += v
	}
	prev := seed / float64(window)
	out[window-1] = prev
	k := 2.0 / float64(window+1)
	for i := window; i < len(values); i++ {
		prev = (values[i]-prev)*k + prev
		out[i] = prev
	}
	return out
}

// EMA returns the latest exponential moving average value.
func EMA(values []float64, window int) float64 {
	s := EMASeries(values, window)
	if len(s) == 0 {
		return math.NaN()
	}
	return s[len(s)-1]
}

// RSI computes the Relative Strength Index with Wilder smoothing of average
// gains and losses. It is undefined while fewer than `window` deltas exist,
// and undefined when the average loss is zero (RS has no finite value).
func RSI(values []float64, window int) float64 {
	if window <= 0 || len(values) < window+1 {
		return math.NaN()
	}
	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= window; i++ {
		d := values[i] - values[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(window)
	avgLoss /= float64(window)
	for i := window + 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(window-1) + gain) / float64(window)
		avgLoss = (avgLoss*float64(window-1) + loss) / float64(window)
	}
	if avgLoss == 0 {
		return math.NaN()
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the latest MACD line (EMA(fast) - EMA(slow)), its EMA(signal)
// signal line and the histogram (line - signal). Each value is NaN until its
// own history requirement is met.
func MACD(values []float64, fast, slow, signal int) (line, sig, hist float64) {
	if len(values) < slow {
		nan := math.NaN()
		return nan, nan, nan
	}
	ef := EMASeries(values, fast)
	es := EMASeries(values, slow)
	macd := make([]float64, 0, len(values)-slow+1)
	for i := slow - 1; i < len(values); i++ {
		macd = append(macd, ef[i]-es[i])
	}
	line = macd[len(macd)-1]
	ss := EMASeries(macd, signal)
	sig = ss[len(ss)-1]
	hist = line - sig
	return line, sig, hist
}

// Bollinger returns the middle band (SMA) and the bands at middle ± k
// population standard deviations of the last `window` values.
func Bollinger(values []float64, window int, k float64) (middle, upper, lower float64) {
	if window <= 0 || len(values) < window {
		nan := math.NaN()
		return nan, nan, nan
	}
	middle = SMA(values, window)
	sum2 := 0.0
	for _, v := range values[len(values)-window:] {
		d := v - middle
		sum2 += d * d
	}
	std := math.Sqrt(sum2 / float64(window))
	return middle, middle + k*std, middle - k*std
}

// ATR computes the Wilder-smoothed Average True Range where the true range is
// max(high-low, |high-prev_close|, |low-prev_close|). Needs window+1 candles.
func ATR(candles []models.Candle, window int) float64 {
	if window <= 0 || len(candles) < window+1 {
		return math.NaN()
	}
	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		c, prev := candles[i], candles[i-1]
		tr := c.High - c.Low
		if hc := math.Abs(c.High - prev.Close); hc > tr {
			tr = hc
		}
		if lc := math.Abs(c.Low - prev.Close); lc > tr {
			tr = lc
		}
		trs = append(trs, tr)
	}
	atr := 0.0
	for _, tr := range trs[:window] {
		atr += tr
	}
	atr /= float64(window)
	for _, tr := range trs[window:] {
		atr = (atr*float64(window-1) + tr) / float64(window)
	}
	return atr
}

// OBV computes On-Balance Volume over the entire window: a cumulative sum of
// ±volume following the direction of the close-to-close change. A flat change
// contributes zero.
func OBV(candles []models.Candle) float64 {
	if len(candles) == 0 {
		return math.NaN()
	}
	obv := 0.0
	for i := 1; i < len(candles); i++ {
		switch {
		case candles[i].Close > candles[i-1].Close:
			obv += candles[i].Volume
		case candles[i].Close < candles[i-1].Close:
			obv -= candles[i].Volume
		}
	}
	return obv
}
