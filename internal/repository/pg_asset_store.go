package repository

import (
	"context"
	"fmt"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	pkgpg "MarketPulse/pkg/postgres"
)

// PGAssetStore implements AssetStore backed by Postgres.
type PGAssetStore struct {
	pg *pkgpg.Client
}

func NewPGAssetStore(pg *pkgpg.Client) *PGAssetStore {
	return &PGAssetStore{pg: pg}
}

func (s *PGAssetStore) Get(ctx context.Context, id string) (*models.Asset, error) {
	const q = `
        SELECT id, symbol, name, asset_type, is_active
        FROM assets
        WHERE id = $1
    `
	var a models.Asset
	err := s.pg.Pool().QueryRow(ctx, q, id).Scan(&a.ID, &a.Symbol, &a.Name, &a.Type, &a.IsActive)
	if err != nil {
		if pkgpg.IsNoRows(err) {
			return nil, fmt.Errorf("asset %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return &a, nil
}

func (s *PGAssetStore) ListActive(ctx context.Context) ([]models.Asset, error) {
	const q = `
        SELECT id, symbol, name, asset_type, is_active
        FROM assets
        WHERE is_active
        ORDER BY symbol ASC
    `
	rows, err := s.pg.Pool().Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var out []models.Asset
	for rows.Next() {
		var a models.Asset
		if err := rows.Scan(&a.ID, &a.Symbol, &a.Name, &a.Type, &a.IsActive); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

var _ domrepo.AssetStore = (*PGAssetStore)(nil)
