package main

import (
	"log"
	"os"

	"wavesight/internal/container"
	"wavesight/internal/pkg/logger"

	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

var requiredEnvs = []string{"DB_DSN"}

type CronJob interface {
	Start(cronRunner *cron.Cron) error
}

func main() {
	app := &cli.App{
		Name: "cronjob",
		Commands: []*cli.Command{
			commandCronjob(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandCronjob() *cli.Command {
	return &cli.Command{
		Name: "cron",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "store",
				Value: container.StorePostgres,
				Usage: "storage backend: postgres or memory",
			},
		},
		Action: func(c *cli.Context) error {
			vs, err := env.EnvsRequired(requiredEnvs...)
			if err != nil {
				return err
			}

			logger.New(os.Getenv("API_MODE"), "cron")
			//nolint:errcheck
			defer zap.L().Sync()

			injector := container.NewContainer(vs, c.String("store"))

			autoReject, err := NewAutoRejectJob(injector)
			if err != nil {
				return err
			}
			reconcile, err := NewReconcileJob(injector)
			if err != nil {
				return err
			}

			cronRunner := cron.New()
			for _, job := range []CronJob{autoReject, reconcile} {
				if err := job.Start(cronRunner); err != nil {
					return err
				}
			}

			zap.L().Info("start cronjob")
			cronRunner.Run()
			return nil
		},
	}
}
