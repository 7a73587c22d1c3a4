package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron"

	"server-invest-app/config"
	"server-invest-app/internal/app/invest"
	"server-invest-app/internal/app/metrics"
	"server-invest-app/internal/app/warn"
)

const jobTimeout = 5 * time.Minute

// job runs fn unless its previous run is still in progress.
func job(name string, fn func(ctx context.Context) error) func() {
	var running int32
	return func() {
		if !atomic.CompareAndSwapInt32(&running, 0, 1) {
			metrics.JobRuns.WithLabelValues(name, "skipped").Inc()
			return
		}
		defer atomic.StoreInt32(&running, 0)

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if warn.Must(name, fn(ctx)) != nil {
			metrics.JobRuns.WithLabelValues(name, "failed").Inc()
			return
		}
		metrics.JobRuns.WithLabelValues(name, "ok").Inc()
	}
}

func InvestTicker(s *invest.Service) *cron.Cron {
	c := cron.New()
	cfg := config.Referral
	if cfg.ExpireSchedule != "" {
		_ = warn.Must("add expire job", c.AddFunc(cfg.ExpireSchedule, job("expire", func(ctx context.Context) error {
			return invest.ExpireDue(ctx, time.Now())
		})))
	}
	if cfg.SweepSchedule != "" {
		_ = warn.Must("add sweep job", c.AddFunc(cfg.SweepSchedule, job("sweep", func(ctx context.Context) error {
			_, err := s.Sweeper.SweepUndistributed(ctx)
			return err
		})))
	}
	c.Start()
	return c
}
