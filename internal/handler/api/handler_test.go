package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	icache "MarketPulse/internal/service/cache"
	"MarketPulse/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCandleStore struct {
	candles map[string][]models.Candle
}

func (s *stubCandleStore) GetCandles(_ context.Context, assetID string, _ domrepo.Interval, from, to time.Time) ([]models.Candle, error) {
	var out []models.Candle
	for _, c := range s.candles[assetID] {
		if !c.TS.Before(from) && !c.TS.After(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubCandleStore) GetLatestNCandles(_ context.Context, assetID string, _ domrepo.Interval, n int) ([]models.Candle, error) {
	all := s.candles[assetID]
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

func (s *stubCandleStore) LatestCandle(_ context.Context, assetID string, _ domrepo.Interval) (*models.Candle, error) {
	all := s.candles[assetID]
	if len(all) == 0 {
		return nil, nil
	}
	c := all[len(all)-1]
	return &c, nil
}

func (s *stubCandleStore) CloseAtOrBefore(_ context.Context, assetID string, _ domrepo.Interval, at time.Time) (float64, bool, error) {
	var best *models.Candle
	for i := range s.candles[assetID] {
		c := s.candles[assetID][i]
		if !c.TS.After(at) {
			best = &c
		}
	}
	if best == nil {
		return 0, false, nil
	}
	return best.Close, true, nil
}

type stubAssetStore struct{ assets map[string]*models.Asset }

func (s *stubAssetStore) Get(_ context.Context, id string) (*models.Asset, error) {
	a, ok := s.assets[id]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", id, models.ErrNotFound)
	}
	return a, nil
}

func (s *stubAssetStore) ListActive(_ context.Context) ([]models.Asset, error) {
	var out []models.Asset
	for _, a := range s.assets {
		if a.IsActive {
			out = append(out, *a)
		}
	}
	return out, nil
}

type stubIndicatorStore struct{ snaps []models.IndicatorSnapshot }

func (s *stubIndicatorStore) PutSnapshots(_ context.Context, snaps []models.IndicatorSnapshot) error {
	s.snaps = append(s.snaps, snaps...)
	return nil
}

func (s *stubIndicatorStore) GetRecent(_ context.Context, assetID string, since time.Time) ([]models.IndicatorSnapshot, error) {
	var out []models.IndicatorSnapshot
	for _, sn := range s.snaps {
		if sn.AssetID == assetID && !sn.TS.Before(since) {
			out = append(out, sn)
		}
	}
	return out, nil
}

type stubSignalStore struct{ active map[string]*models.Signal }

func (s *stubSignalStore) Supersede(_ context.Context, sig *models.Signal) error {
	sig.ID = int64(len(s.active) + 1)
	sig.IsActive = true
	s.active[sig.AssetID] = sig
	return nil
}

func (s *stubSignalStore) GetActive(_ context.Context, assetID string) (*models.Signal, error) {
	sig, ok := s.active[assetID]
	if !ok {
		return nil, fmt.Errorf("active signal for %s: %w", assetID, models.ErrNotFound)
	}
	return sig, nil
}

func (s *stubSignalStore) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, sig := range s.active {
		if sig.ExpiresAt != nil && !sig.ExpiresAt.After(now) {
			delete(s.active, id)
			n++
		}
	}
	return n, nil
}

func testHandler(t *testing.T) (*Handler, *stubSignalStore, *stubIndicatorStore) {
	t.Helper()

	candles := &stubCandleStore{candles: map[string][]models.Candle{}}
	base := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 40; i++ {
		candles.candles["AAPL"] = append(candles.candles["AAPL"], models.Candle{
			TS: base.AddDate(0, 0, i), AssetID: "AAPL",
			Open: 100, High: 101, Low: 99, Close: 100 + float64(i), Volume: 1000,
		})
	}

	assets := &stubAssetStore{assets: map[string]*models.Asset{
		"AAPL": {ID: "AAPL", Symbol: "AAPL", IsActive: true},
	}}
	indicators := &stubIndicatorStore{}
	signals := &stubSignalStore{active: map[string]*models.Signal{}}

	// pin the batch clocks just past the last candle so lookback and
	// indicator recency windows cover the fixture data
	now := base.AddDate(0, 0, 39).Add(time.Hour)
	ib := usecase.NewIndicatorBatch(candles, assets, indicators)
	ib.SetClock(func() time.Time { return now })
	sb := usecase.NewSignalBatch(assets, indicators, signals, candles)
	sb.SetClock(func() time.Time { return now })
	db := usecase.NewDashboard(candles)

	h := NewHandler(ib, sb, db, indicators, signals, icache.NewTTLCache(), nil, Config{
		Watchlist: models.Watchlist{Name: "default", Symbols: []string{"AAPL"}},
		CacheTTL:  time.Minute,
	})
	return h, signals, indicators
}

func doRequest(t *testing.T, h *Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestComputeIndicatorsEndpoint(t *testing.T) {
	h, _, indicators := testHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/indicators/compute", `{"asset_id":"AAPL"}`)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusOK, env.Status)

	var res BatchResultResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 1, res.Processed)
	assert.Greater(t, res.Created, 0)
	assert.NotEmpty(t, indicators.snaps)
}

func TestComputeIndicatorsUnknownAsset(t *testing.T) {
	h, _, _ := testHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/indicators/compute", `{"asset_id":"NOPE"}`)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusNotFound, env.Status)
}

func TestComputeIndicatorsRejectsBadLookback(t *testing.T) {
	h, _, _ := testHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/indicators/compute", `{"lookback_days":-5}`)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusBadRequest, env.Status)
}

func TestSignalLifecycleOverHTTP(t *testing.T) {
	h, signals, _ := testHandler(t)

	// no indicators yet: asset is skipped, nothing created
	rec := doRequest(t, h, http.MethodPost, "/api/signals/compute", `{"asset_id":"AAPL"}`)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusOK, env.Status)
	var res BatchResultResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 0, res.Created)

	// compute indicators, then signals
	doRequest(t, h, http.MethodPost, "/api/indicators/compute", `{"asset_id":"AAPL"}`)
	rec = doRequest(t, h, http.MethodPost, "/api/signals/compute", `{"asset_id":"AAPL"}`)
	env = decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusOK, env.Status)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 1, res.Created)
	require.NotNil(t, signals.active["AAPL"])

	// active signal readable
	rec = doRequest(t, h, http.MethodGet, "/api/signals/active?asset=AAPL", "")
	env = decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusOK, env.Status)
	var sig SignalResponse
	require.NoError(t, json.Unmarshal(env.Data, &sig))
	assert.Equal(t, "AAPL", sig.AssetID)
	assert.True(t, sig.IsActive)
}

func TestActiveSignalNotFound(t *testing.T) {
	h, _, _ := testHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/signals/active?asset=AAPL", "")
	env := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusNotFound, env.Status)
}

func TestActiveSignalTypeFilter(t *testing.T) {
	h, signals, _ := testHandler(t)
	signals.active["AAPL"] = &models.Signal{
		AssetID: "AAPL", Type: models.SignalBuy, IsActive: true,
	}

	// unknown token is rejected before the store is consulted
	rec := doRequest(t, h, http.MethodGet, "/api/signals/active?asset=AAPL&type=moon", "")
	env := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusBadRequest, env.Status)

	// valid token that does not match the active signal
	rec = doRequest(t, h, http.MethodGet, "/api/signals/active?asset=AAPL&type=sell", "")
	env = decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusNotFound, env.Status)

	// matching filter returns the signal
	rec = doRequest(t, h, http.MethodGet, "/api/signals/active?asset=AAPL&type=buy", "")
	env = decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusOK, env.Status)
	var sig SignalResponse
	require.NoError(t, json.Unmarshal(env.Data, &sig))
	assert.Equal(t, "buy", sig.Type)
}

func TestRecentIndicatorsRequiresAsset(t *testing.T) {
	h, _, _ := testHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/indicators/recent", "")
	env := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusBadRequest, env.Status)
}

func TestWatchlistSummaryEndpoint(t *testing.T) {
	h, _, _ := testHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/dashboard/watchlist", "")
	env := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusOK, env.Status)

	var wl WatchlistResponse
	require.NoError(t, json.Unmarshal(env.Data, &wl))
	assert.Equal(t, "default", wl.Watchlist)
	require.Len(t, wl.Assets, 1)
	assert.Equal(t, "ok", wl.Assets[0].Status)
	assert.NotNil(t, wl.Assets[0].LastPrice)

	// second call is served from cache and stays identical
	rec2 := doRequest(t, h, http.MethodGet, "/api/dashboard/watchlist", "")
	env2 := decodeEnvelope(t, rec2)
	assert.Equal(t, http.StatusOK, env2.Status)
	assert.JSONEq(t, string(env.Data), string(env2.Data))
}

func TestWatchlistSummaryCustomSymbols(t *testing.T) {
	h, _, _ := testHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/dashboard/watchlist?symbols=AAPL,UNKNOWN", "")
	env := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusOK, env.Status)

	var wl WatchlistResponse
	require.NoError(t, json.Unmarshal(env.Data, &wl))
	require.Len(t, wl.Assets, 2)
	assert.Equal(t, "no_data", wl.Assets[1].Status)
}

func TestHealthzOK(t *testing.T) {
	h, _, _ := testHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
