package api

import (
	"errors"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/usecase"
	xhttp "MarketPulse/pkg/http"
	applogger "MarketPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ComputeIndicatorsRequest triggers an indicator batch run. An empty asset_id
// targets every active asset.
type ComputeIndicatorsRequest struct {
	AssetID      string `json:"asset_id" validate:"omitempty,max=64"`
	LookbackDays int    `json:"lookback_days" default:"100" validate:"gte=1,lte=3650"`
}

// ComputeSignalsRequest triggers a signal batch run.
type ComputeSignalsRequest struct {
	AssetID string `json:"asset_id" validate:"omitempty,max=64"`
}

// BatchResultResponse reports partial success of a batch run.
type BatchResultResponse struct {
	Processed int      `json:"processed"`
	Created   int      `json:"created"`
	Errors    []string `json:"errors"`
}

func batchResponse(res *models.BatchResult) *BatchResultResponse {
	out := &BatchResultResponse{
		Processed: res.Processed,
		Created:   res.Created,
		Errors:    res.Errors,
	}
	if out.Errors == nil {
		out.Errors = []string{}
	}
	return out
}

// ComputeIndicators handles POST /api/indicators/compute.
func (h *Handler) ComputeIndicators(c echo.Context) error {
	if !h.limiter.Allow("indicators:compute", 2, 0.2) {
		return xhttp.DataResponse(c, 429, "batch already running, retry later")
	}

	req := new(ComputeIndicatorsRequest)
	if errs := xhttp.ReadAndValidateRequest(c, req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}

	res, err := h.indicatorBatch.Compute(c.Request().Context(), usecase.ComputeIndicatorsParams{
		AssetID:      req.AssetID,
		LookbackDays: req.LookbackDays,
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return xhttp.NotFoundResponse(c, err.Error())
		}
		if h.l != nil {
			h.l.Error("indicator batch failed", applogger.Error(err))
		}
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, batchResponse(res))
}

// ComputeSignals handles POST /api/signals/compute.
func (h *Handler) ComputeSignals(c echo.Context) error {
	if !h.limiter.Allow("signals:compute", 2, 0.2) {
		return xhttp.DataResponse(c, 429, "batch already running, retry later")
	}

	req := new(ComputeSignalsRequest)
	if errs := xhttp.ReadAndValidateRequest(c, req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}

	res, err := h.signalBatch.Compute(c.Request().Context(), usecase.ComputeSignalsParams{
		AssetID: req.AssetID,
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return xhttp.NotFoundResponse(c, err.Error())
		}
		if h.l != nil {
			h.l.Error("signal batch failed", applogger.Error(err))
		}
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, batchResponse(res))
}

// ExpireSignals handles POST /api/signals/expire.
func (h *Handler) ExpireSignals(c echo.Context) error {
	n, err := h.signalBatch.DeactivateExpired(c.Request().Context())
	if err != nil {
		if h.l != nil {
			h.l.Error("expire signals failed", applogger.Error(err))
		}
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, map[string]int64{"deactivated": n})
}
