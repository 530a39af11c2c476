package scheduler

import (
	"context"
	"sync"
	"time"

	"MarketPulse/internal/usecase"
	applogger "MarketPulse/pkg/logger"
)

// Config holds periodic batch intervals. A zero interval disables that job.
type Config struct {
	IndicatorInterval time.Duration
	SignalInterval    time.Duration
	ExpiryInterval    time.Duration
	LookbackDays      int
}

// Scheduler drives the periodic batch jobs. Each job runs on its own ticker
// so a slow indicator pass never delays signal expiry.
type Scheduler struct {
	indicators *usecase.IndicatorBatch
	signals    *usecase.SignalBatch
	cfg        Config
	l          *applogger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(indicators *usecase.IndicatorBatch, signals *usecase.SignalBatch, cfg Config) *Scheduler {
	return &Scheduler{indicators: indicators, signals: signals, cfg: cfg}
}

// SetLogger injects a structured logger.
func (s *Scheduler) SetLogger(l *applogger.Logger) { s.l = l }

// Start launches the enabled job loops. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	if s.cfg.IndicatorInterval > 0 {
		s.loop(ctx, "indicators", s.cfg.IndicatorInterval, s.runIndicators)
	}
	if s.cfg.SignalInterval > 0 {
		s.loop(ctx, "signals", s.cfg.SignalInterval, s.runSignals)
	}
	if s.cfg.ExpiryInterval > 0 {
		s.loop(ctx, "expiry", s.cfg.ExpiryInterval, s.runExpiry)
	}
}

// Stop cancels the job loops and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, name string, every time.Duration, run func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		t := time.NewTicker(every)
		defer t.Stop()
		if s.l != nil {
			s.l.Info("scheduler job started", applogger.String("job", name), applogger.Duration("every", every))
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				run(ctx)
			}
		}
	}()
}

func (s *Scheduler) runIndicators(ctx context.Context) {
	res, err := s.indicators.Compute(ctx, usecase.ComputeIndicatorsParams{LookbackDays: s.cfg.LookbackDays})
	if err != nil {
		if s.l != nil {
			s.l.Error("scheduled indicator batch failed", applogger.Error(err))
		}
		return
	}
	if s.l != nil {
		s.l.Info("scheduled indicator batch done",
			applogger.Int("processed", res.Processed),
			applogger.Int("created", res.Created),
			applogger.Int("errors", len(res.Errors)),
		)
	}
}

func (s *Scheduler) runSignals(ctx context.Context) {
	res, err := s.signals.Compute(ctx, usecase.ComputeSignalsParams{})
	if err != nil {
		if s.l != nil {
			s.l.Error("scheduled signal batch failed", applogger.Error(err))
		}
		return
	}
	if s.l != nil {
		s.l.Info("scheduled signal batch done",
			applogger.Int("processed", res.Processed),
			applogger.Int("created", res.Created),
			applogger.Int("errors", len(res.Errors)),
		)
	}
}

func (s *Scheduler) runExpiry(ctx context.Context) {
	n, err := s.signals.DeactivateExpired(ctx)
	if err != nil {
		if s.l != nil {
			s.l.Error("scheduled signal expiry failed", applogger.Error(err))
		}
		return
	}
	if n > 0 && s.l != nil {
		s.l.Info("expired signals deactivated", applogger.Int64("count", n))
	}
}
