package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	pkgch "MarketPulse/pkg/clickhouse"
	applogger "MarketPulse/pkg/logger"
	"MarketPulse/pkg/util"
)

// CHCandleStore implements CandleStore backed by ClickHouse, one table per
// interval. All reads come back ordered by timestamp ascending.
type CHCandleStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHCandleStore(ch *pkgch.Client) *CHCandleStore {
	return &CHCandleStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHCandleStore) SetLogger(l *applogger.Logger) { s.l = l }

const candleColumns = "ts, asset_id, open, high, low, close, volume, trades, vwap"

func (s *CHCandleStore) GetCandles(ctx context.Context, assetID string, iv domrepo.Interval, from, to time.Time) ([]models.Candle, error) {
	start := time.Now()
	table, err := tableForInterval(iv)
	if err != nil {
		return nil, err
	}
	from, to = util.AlignFromTo(from, to, string(iv))
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s
        WHERE asset_id = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
    `, candleColumns, table)
	rows, err := s.db.QueryContext(ctx, q, assetID, from, to)
	if err != nil {
		s.logQueryError("get_candles", table, assetID, iv, err)
		return nil, fmt.Errorf("get candles: %w", err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0, 256)
	for rows.Next() {
		c, err := scanCandle(rows)
		if err != nil {
			s.logQueryError("get_candles", table, assetID, iv, err)
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		s.logQueryError("get_candles", table, assetID, iv, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse get_candles ok",
			applogger.String("table", table),
			applogger.String("asset", assetID),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHCandleStore) GetLatestNCandles(ctx context.Context, assetID string, iv domrepo.Interval, n int) ([]models.Candle, error) {
	table, err := tableForInterval(iv)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s
        WHERE asset_id = ?
        ORDER BY ts DESC
        LIMIT ?
    `, candleColumns, table)
	rows, err := s.db.QueryContext(ctx, q, assetID, n)
	if err != nil {
		s.logQueryError("latest_candles", table, assetID, iv, err)
		return nil, fmt.Errorf("get latest candles: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.Candle, 0, n)
	for rows.Next() {
		c, err := scanCandle(rows)
		if err != nil {
			s.logQueryError("latest_candles", table, assetID, iv, err)
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		tmp = append(tmp, c)
	}
	if err := rows.Err(); err != nil {
		s.logQueryError("latest_candles", table, assetID, iv, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	return tmp, nil
}

func (s *CHCandleStore) LatestCandle(ctx context.Context, assetID string, iv domrepo.Interval) (*models.Candle, error) {
	table, err := tableForInterval(iv)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s
        WHERE asset_id = ?
        ORDER BY ts DESC
        LIMIT 1
    `, candleColumns, table)
	row := s.db.QueryRowContext(ctx, q, assetID)
	c, err := scanCandle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logQueryError("latest_candle", table, assetID, iv, err)
		return nil, fmt.Errorf("latest candle: %w", err)
	}
	return &c, nil
}

func (s *CHCandleStore) CloseAtOrBefore(ctx context.Context, assetID string, iv domrepo.Interval, at time.Time) (float64, bool, error) {
	table, err := tableForInterval(iv)
	if err != nil {
		return 0, false, err
	}
	q := fmt.Sprintf(`
        SELECT close
        FROM %s
        WHERE asset_id = ? AND ts <= ?
        ORDER BY ts DESC
        LIMIT 1
    `, table)
	var px float64
	if err := s.db.QueryRowContext(ctx, q, assetID, at).Scan(&px); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		s.logQueryError("close_at_or_before", table, assetID, iv, err)
		return 0, false, fmt.Errorf("close at or before: %w", err)
	}
	return px, true, nil
}

func (s *CHCandleStore) logQueryError(op, table, assetID string, iv domrepo.Interval, err error) {
	if s.l == nil {
		return
	}
	s.l.Error("clickhouse "+op+" error",
		applogger.String("table", table),
		applogger.String("asset", assetID),
		applogger.String("interval", string(iv)),
		applogger.Error(err),
	)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandle(r rowScanner) (models.Candle, error) {
	var c models.Candle
	err := r.Scan(&c.TS, &c.AssetID, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.Trades, &c.VWAP)
	return c, err
}

func tableForInterval(iv domrepo.Interval) (string, error) {
	switch iv {
	case domrepo.IV1m:
		return "marketpulse.candles_1m", nil
	case domrepo.IV5m:
		return "marketpulse.candles_5m", nil
	case domrepo.IV15m:
		return "marketpulse.candles_15m", nil
	case domrepo.IV30m:
		return "marketpulse.candles_30m", nil
	case domrepo.IV1h:
		return "marketpulse.candles_1h", nil
	case domrepo.IV4h:
		return "marketpulse.candles_4h", nil
	case domrepo.IV1d:
		return "marketpulse.candles_1d", nil
	case domrepo.IV1w:
		return "marketpulse.candles_1w", nil
	case domrepo.IV1M:
		return "marketpulse.candles_1mo", nil
	default:
		return "", fmt.Errorf("%w: interval %q", models.ErrInvalidEnum, iv)
	}
}

var _ domrepo.CandleStore = (*CHCandleStore)(nil)
