package usecase

import (
	"fmt"
	"strings"
	"time"

	"MarketPulse/internal/domain/models"
)

// latestByName reduces a snapshot list to the newest row per indicator name.
// The reduction is explicit max-by-timestamp, independent of the store's row
// ordering.
func latestByName(snaps []models.IndicatorSnapshot) map[string]models.IndicatorSnapshot {
	out := make(map[string]models.IndicatorSnapshot, len(snaps))
	for _, s := range snaps {
		if cur, ok := out[s.Name]; !ok || s.TS.After(cur.TS) {
			out[s.Name] = s
		}
	}
	return out
}

// scorecard is the outcome of the three-rule vote over one asset's latest
// indicator values.
type scorecard struct {
	Type           models.SignalType
	Strength       models.SignalStrength
	Confidence     float64
	Rationale      string
	IndicatorsUsed []string
	TS             time.Time
}

// buildScorecard runs the fixed RSI / MA-crossover / MACD vote. It returns
// false when none of the rule inputs were present, in which case no signal
// should be created. The scorecard timestamp is the maximum timestamp among
// the indicators consulted.
func buildScorecard(latest map[string]models.IndicatorSnapshot) (*scorecard, bool) {
	var (
		buy, sell int
		parts     []string
		used      []string
	)

	if rsi, ok := latest["RSI_14"]; ok {
		used = append(used, "RSI_14")
		switch {
		case rsi.Value < 30:
			buy++
			parts = append(parts, fmt.Sprintf("RSI oversold (%.1f)", rsi.Value))
		case rsi.Value > 70:
			sell++
			parts = append(parts, fmt.Sprintf("RSI overbought (%.1f)", rsi.Value))
		}
	}

	sma20, ok20 := latest["SMA_20"]
	sma50, ok50 := latest["SMA_50"]
	if ok20 && ok50 {
		used = append(used, "SMA_20", "SMA_50")
		switch {
		case sma20.Value > sma50.Value:
			buy++
			parts = append(parts, "SMA 20 above SMA 50 (bullish trend)")
		case sma20.Value < sma50.Value:
			sell++
			parts = append(parts, "SMA 20 below SMA 50 (bearish trend)")
		}
	}

	if macd, ok := latest["MACD_12_26_9"]; ok && macd.Value2 != nil {
		used = append(used, "MACD_12_26_9")
		line, sig := macd.Value, *macd.Value2
		switch {
		case line > sig && line > 0:
			buy++
			parts = append(parts, "MACD bullish crossover")
		case line < sig && line < 0:
			sell++
			parts = append(parts, "MACD bearish crossover")
		}
	}

	if len(used) == 0 {
		return nil, false
	}

	sc := &scorecard{IndicatorsUsed: used}
	switch {
	case buy > sell:
		if buy >= 3 {
			sc.Type, sc.Strength, sc.Confidence = models.SignalStrongBuy, models.StrengthStrong, 75
		} else {
			sc.Type, sc.Strength, sc.Confidence = models.SignalBuy, models.StrengthModerate, 60
		}
	case sell > buy:
		if sell >= 3 {
			sc.Type, sc.Strength, sc.Confidence = models.SignalStrongSell, models.StrengthStrong, 75
		} else {
			sc.Type, sc.Strength, sc.Confidence = models.SignalSell, models.StrengthModerate, 60
		}
	default:
		sc.Type, sc.Strength, sc.Confidence = models.SignalHold, models.StrengthWeak, 50
		if buy == 0 && sell == 0 {
			parts = append(parts, "No clear signals")
		} else {
			parts = append(parts, "Mixed signals")
		}
	}
	sc.Rationale = strings.Join(parts, "; ")

	for _, name := range used {
		if s := latest[name]; s.TS.After(sc.TS) {
			sc.TS = s.TS
		}
	}
	return sc, true
}
