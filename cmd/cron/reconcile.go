package main

import (
	"context"
	"errors"

	"wavesight/internal/services"

	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"go.uber.org/zap"
)

// ReconcileJob periodically reports tally drift and validations without a reward.
type ReconcileJob struct {
	serviceConfig    *services.ServiceConfig
	serviceReconcile *services.ServiceReconcile
}

func NewReconcileJob(container *do.Injector) (*ReconcileJob, error) {
	serviceConfig, err := do.Invoke[*services.ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	serviceReconcile, err := do.Invoke[*services.ServiceReconcile](container)
	if err != nil {
		return nil, err
	}

	return &ReconcileJob{serviceConfig, serviceReconcile}, nil
}

func (j *ReconcileJob) Start(cronRunner *cron.Cron) error {
	ctx, cancel := context.WithTimeout(context.Background(), services.STORAGE_TIMEOUT)
	defer cancel()

	schedule, err := j.serviceConfig.GetStringConfig(ctx, services.CONFIG_CRONJOB_RECONCILE, services.DEFAULT_CRONJOB_RECONCILE)
	if err != nil {
		zap.L().Warn("cron schedule not configured, using default", zap.String("cron", schedule), zap.Error(err))
	}

	_, err = cronRunner.AddFunc(schedule, j.run)
	if err != nil {
		return err
	}

	zap.L().Info("reconcile cronjob scheduled", zap.String("cron", schedule))
	return nil
}

func (j *ReconcileJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*services.STORAGE_TIMEOUT)
	defer cancel()

	report, err := j.serviceReconcile.Report(ctx)
	if errors.Is(err, services.ErrReconcileLock) {
		return
	}
	if err != nil {
		zap.L().Error("reconcile", zap.Error(err))
		return
	}

	if len(report.TallyMismatches) > 0 || len(report.UnrewardedValidations) > 0 {
		zap.L().Warn("reconcile found drift",
			zap.Int("tally_mismatches", len(report.TallyMismatches)),
			zap.Int("unrewarded_validations", len(report.UnrewardedValidations)),
		)
	}
}
