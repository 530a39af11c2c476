package models

import (
	"fmt"
	"time"
)

// SignalType is the direction of a trading signal.
type SignalType string

const (
	SignalStrongSell SignalType = "strong_sell"
	SignalSell       SignalType = "sell"
	SignalHold       SignalType = "hold"
	SignalBuy        SignalType = "buy"
	SignalStrongBuy  SignalType = "strong_buy"
)

// ParseSignalType rejects unknown tokens at the boundary.
func ParseSignalType(s string) (SignalType, error) {
	switch st := SignalType(s); st {
	case SignalStrongSell, SignalSell, SignalHold, SignalBuy, SignalStrongBuy:
		return st, nil
	default:
		return "", fmt.Errorf("%w: signal type %q", ErrInvalidEnum, s)
	}
}

// SignalStrength grades how decisive the contributing evidence was.
type SignalStrength string

const (
	StrengthWeak     SignalStrength = "weak"
	StrengthModerate SignalStrength = "moderate"
	StrengthStrong   SignalStrength = "strong"
)

// Signal is a directional trading signal derived from indicator snapshots.
// At most one signal per asset is active at a time; newer signals supersede
// older ones by deactivation, never deletion.
type Signal struct {
	ID             int64
	AssetID        string
	TS             time.Time
	Type           SignalType
	Strength       SignalStrength
	Confidence     float64 // 0..100
	Price          *float64
	Strategy       string
	Rationale      string
	IndicatorsUsed []string
	Interval       string
	IsActive       bool
	GeneratedAt    time.Time
	ExpiresAt      *time.Time
}
