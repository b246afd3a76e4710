package main

import (
	"context"
	"errors"

	"wavesight/internal/services"

	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"go.uber.org/zap"
)

type AutoRejectJob struct {
	serviceConfig    *services.ServiceConfig
	serviceConsensus *services.ServiceConsensus
}

func NewAutoRejectJob(container *do.Injector) (*AutoRejectJob, error) {
	serviceConfig, err := do.Invoke[*services.ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	serviceConsensus, err := do.Invoke[*services.ServiceConsensus](container)
	if err != nil {
		return nil, err
	}

	return &AutoRejectJob{serviceConfig, serviceConsensus}, nil
}

func (j *AutoRejectJob) Start(cronRunner *cron.Cron) error {
	ctx, cancel := context.WithTimeout(context.Background(), services.STORAGE_TIMEOUT)
	defer cancel()

	schedule, err := j.serviceConfig.GetStringConfig(ctx, services.CONFIG_CRONJOB_AUTO_REJECT, services.DEFAULT_CRONJOB_AUTO_REJECT)
	if err != nil {
		zap.L().Warn("cron schedule not configured, using default", zap.String("cron", schedule), zap.Error(err))
	}

	_, err = cronRunner.AddFunc(schedule, j.run)
	if err != nil {
		return err
	}

	zap.L().Info("auto reject cronjob scheduled", zap.String("cron", schedule))
	return nil
}

func (j *AutoRejectJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*services.STORAGE_TIMEOUT)
	defer cancel()

	rejected, err := j.serviceConsensus.AutoRejectStale(ctx)
	if errors.Is(err, services.ErrAutoRejectLock) {
		zap.L().Info("auto reject skipped, another run holds the lock")
		return
	}
	if err != nil {
		zap.L().Error("auto reject", zap.Error(err))
		return
	}

	zap.L().Info("auto reject finished", zap.Int("rejected", rejected))
}
