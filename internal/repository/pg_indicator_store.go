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

// PGIndicatorStore implements IndicatorStore backed by Postgres. Rows are
// append-only; there is no update path.
type PGIndicatorStore struct {
	pg *pkgpg.Client
	l  *applogger.Logger
}

func NewPGIndicatorStore(pg *pkgpg.Client) *PGIndicatorStore {
	return &PGIndicatorStore{pg: pg}
}

// SetLogger injects a structured logger.
func (s *PGIndicatorStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *PGIndicatorStore) PutSnapshots(ctx context.Context, snaps []models.IndicatorSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	const q = `
        INSERT INTO indicators (asset_id, ts, name, value, value2, value3, parameters, interval)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	tx, err := s.pg.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, sn := range snaps {
		params, err := json.Marshal(sn.Parameters)
		if err != nil {
			return fmt.Errorf("marshal parameters: %w", err)
		}
		if _, err := tx.Exec(ctx, q,
			sn.AssetID, sn.TS, sn.Name, sn.Value, sn.Value2, sn.Value3, params, sn.Interval,
		); err != nil {
			return fmt.Errorf("insert indicator %s: %w", sn.Name, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if s.l != nil {
		s.l.Debug("indicator snapshots written",
			applogger.String("asset", snaps[0].AssetID),
			applogger.Int("rows", len(snaps)),
		)
	}
	return nil
}

func (s *PGIndicatorStore) GetRecent(ctx context.Context, assetID string, since time.Time) ([]models.IndicatorSnapshot, error) {
	const q = `
        SELECT asset_id, ts, name, value, value2, value3, parameters, interval
        FROM indicators
        WHERE asset_id = $1 AND ts >= $2
        ORDER BY ts DESC
    `
	rows, err := s.pg.Pool().Query(ctx, q, assetID, since)
	if err != nil {
		return nil, fmt.Errorf("get recent indicators: %w", err)
	}
	defer rows.Close()

	var out []models.IndicatorSnapshot
	for rows.Next() {
		var (
			sn     models.IndicatorSnapshot
			params []byte
		)
		if err := rows.Scan(&sn.AssetID, &sn.TS, &sn.Name, &sn.Value, &sn.Value2, &sn.Value3, &params, &sn.Interval); err != nil {
			return nil, fmt.Errorf("scan indicator: %w", err)
		}
		if len(params) > 0 {
			if err := json.Unmarshal(params, &sn.Parameters); err != nil {
				return nil, fmt.Errorf("unmarshal parameters: %w", err)
			}
		}
		out = append(out, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

var _ domrepo.IndicatorStore = (*PGIndicatorStore)(nil)
