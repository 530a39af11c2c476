package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
)

// In-memory store fakes. The signal fake mirrors the real store's contract:
// Supersede deactivates and inserts in one locked step.

type fakeCandleStore struct {
	candles map[string][]models.Candle // ascending per asset
	failOn  map[string]error
}

func newFakeCandleStore() *fakeCandleStore {
	return &fakeCandleStore{candles: map[string][]models.Candle{}, failOn: map[string]error{}}
}

func (s *fakeCandleStore) GetCandles(_ context.Context, assetID string, _ domrepo.Interval, from, to time.Time) ([]models.Candle, error) {
	if err := s.failOn[assetID]; err != nil {
		return nil, err
	}
	var out []models.Candle
	for _, c := range s.candles[assetID] {
		if !c.TS.Before(from) && !c.TS.After(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeCandleStore) GetLatestNCandles(_ context.Context, assetID string, _ domrepo.Interval, n int) ([]models.Candle, error) {
	if err := s.failOn[assetID]; err != nil {
		return nil, err
	}
	all := s.candles[assetID]
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

func (s *fakeCandleStore) LatestCandle(_ context.Context, assetID string, _ domrepo.Interval) (*models.Candle, error) {
	if err := s.failOn[assetID]; err != nil {
		return nil, err
	}
	all := s.candles[assetID]
	if len(all) == 0 {
		return nil, nil
	}
	c := all[len(all)-1]
	return &c, nil
}

func (s *fakeCandleStore) CloseAtOrBefore(_ context.Context, assetID string, _ domrepo.Interval, at time.Time) (float64, bool, error) {
	if err := s.failOn[assetID]; err != nil {
		return 0, false, err
	}
	all := s.candles[assetID]
	for i := len(all) - 1; i >= 0; i-- {
		if !all[i].TS.After(at) {
			return all[i].Close, true, nil
		}
	}
	return 0, false, nil
}

type fakeAssetStore struct {
	assets []models.Asset
}

func (s *fakeAssetStore) Get(_ context.Context, id string) (*models.Asset, error) {
	for _, a := range s.assets {
		if a.ID == id {
			cp := a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("asset %s: %w", id, models.ErrNotFound)
}

func (s *fakeAssetStore) ListActive(_ context.Context) ([]models.Asset, error) {
	var out []models.Asset
	for _, a := range s.assets {
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeIndicatorStore struct {
	mu     sync.Mutex
	snaps  []models.IndicatorSnapshot
	putErr error
}

func (s *fakeIndicatorStore) PutSnapshots(_ context.Context, snaps []models.IndicatorSnapshot) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	s.snaps = append(s.snaps, snaps...)
	s.mu.Unlock()
	return nil
}

func (s *fakeIndicatorStore) GetRecent(_ context.Context, assetID string, since time.Time) ([]models.IndicatorSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.IndicatorSnapshot
	for _, sn := range s.snaps {
		if sn.AssetID == assetID && !sn.TS.Before(since) {
			out = append(out, sn)
		}
	}
	return out, nil
}

func (s *fakeIndicatorStore) byName(assetID string) map[string]models.IndicatorSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]models.IndicatorSnapshot{}
	for _, sn := range s.snaps {
		if sn.AssetID == assetID {
			out[sn.Name] = sn
		}
	}
	return out
}

type fakeSignalStore struct {
	mu      sync.Mutex
	nextID  int64
	signals []*models.Signal
}

func (s *fakeSignalStore) Supersede(_ context.Context, sig *models.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, prev := range s.signals {
		if prev.AssetID == sig.AssetID {
			prev.IsActive = false
		}
	}
	s.nextID++
	cp := *sig
	cp.ID = s.nextID
	s.signals = append(s.signals, &cp)
	return nil
}

func (s *fakeSignalStore) GetActive(_ context.Context, assetID string) (*models.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.signals) - 1; i >= 0; i-- {
		if s.signals[i].AssetID == assetID && s.signals[i].IsActive {
			cp := *s.signals[i]
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("active signal for %s: %w", assetID, models.ErrNotFound)
}

func (s *fakeSignalStore) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, sig := range s.signals {
		if sig.IsActive && sig.ExpiresAt != nil && !sig.ExpiresAt.After(now) {
			sig.IsActive = false
			n++
		}
	}
	return n, nil
}

func (s *fakeSignalStore) activeCount(assetID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sig := range s.signals {
		if sig.AssetID == assetID && sig.IsActive {
			n++
		}
	}
	return n
}

var (
	_ domrepo.CandleStore    = (*fakeCandleStore)(nil)
	_ domrepo.AssetStore     = (*fakeAssetStore)(nil)
	_ domrepo.IndicatorStore = (*fakeIndicatorStore)(nil)
	_ domrepo.SignalStore    = (*fakeSignalStore)(nil)
)

func dailyCandles(assetID string, start time.Time, closes []float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{
			TS:      start.AddDate(0, 0, i),
			AssetID: assetID,
			Open:    c,
			High:    c * 1.01,
			Low:     c * 0.99,
			Close:   c,
			Volume:  1000,
		}
	}
	return out
}
