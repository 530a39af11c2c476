package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	applogger "MarketPulse/pkg/logger"
	pkgpg "MarketPulse/pkg/postgres"
)

// PGSignalStore implements SignalStore backed by Postgres. Supersession runs
// inside one transaction under a per-asset advisory lock, so concurrent runs
// can never leave an asset with two active signals.
type PGSignalStore struct {
	pg *pkgpg.Client
	l  *applogger.Logger
}

func NewPGSignalStore(pg *pkgpg.Client) *PGSignalStore {
	return &PGSignalStore{pg: pg}
}

// SetLogger injects a structured logger.
func (s *PGSignalStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *PGSignalStore) Supersede(ctx context.Context, sig *models.Signal) error {
	used, err := json.Marshal(sig.IndicatorsUsed)
	if err != nil {
		return fmt.Errorf("marshal indicators_used: %w", err)
	}

	tx, err := s.pg.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// serialize per asset across concurrent batch runs
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sig.AssetID); err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE signals SET is_active = FALSE WHERE asset_id = $1 AND is_active`,
		sig.AssetID,
	); err != nil {
		return fmt.Errorf("deactivate previous: %w", err)
	}

	const q = `
        INSERT INTO signals (asset_id, ts, signal_type, strength, confidence, price,
                             strategy, rationale, indicators_used, interval, is_active,
                             generated_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE, $11, $12)
        RETURNING id
    `
	if err := tx.QueryRow(ctx, q,
		sig.AssetID, sig.TS, string(sig.Type), string(sig.Strength), sig.Confidence, sig.Price,
		sig.Strategy, sig.Rationale, used, sig.Interval, sig.GeneratedAt, sig.ExpiresAt,
	).Scan(&sig.ID); err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if s.l != nil {
		s.l.Debug("signal superseded",
			applogger.String("asset", sig.AssetID),
			applogger.String("type", string(sig.Type)),
			applogger.Int64("id", sig.ID),
		)
	}
	return nil
}

func (s *PGSignalStore) GetActive(ctx context.Context, assetID string) (*models.Signal, error) {
	const q = `
        SELECT id, asset_id, ts, signal_type, strength, confidence, price,
               strategy, rationale, indicators_used, interval, is_active,
               generated_at, expires_at
        FROM signals
        WHERE asset_id = $1 AND is_active
        ORDER BY ts DESC
        LIMIT 1
    `
	var (
		sig      models.Signal
		sigType  string
		strength string
		used     []byte
	)
	err := s.pg.Pool().QueryRow(ctx, q, assetID).Scan(
		&sig.ID, &sig.AssetID, &sig.TS, &sigType, &strength, &sig.Confidence, &sig.Price,
		&sig.Strategy, &sig.Rationale, &used, &sig.Interval, &sig.IsActive,
		&sig.GeneratedAt, &sig.ExpiresAt,
	)
	if err != nil {
		if pkgpg.IsNoRows(err) {
			return nil, fmt.Errorf("active signal for %s: %w", assetID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("get active signal: %w", err)
	}
	sig.Type = models.SignalType(sigType)
	sig.Strength = models.SignalStrength(strength)
	if len(used) > 0 {
		if err := json.Unmarshal(used, &sig.IndicatorsUsed); err != nil {
			return nil, fmt.Errorf("unmarshal indicators_used: %w", err)
		}
	}
	return &sig, nil
}

func (s *PGSignalStore) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pg.Pool().Exec(ctx,
		`UPDATE signals SET is_active = FALSE WHERE is_active AND expires_at IS NOT NULL AND expires_at <= $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ domrepo.SignalStore = (*PGSignalStore)(nil)
