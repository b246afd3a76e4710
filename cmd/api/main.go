package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"wavesight/internal/api/handler"
	"wavesight/internal/container"
	"wavesight/internal/pkg/logger"

	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name: "api",
		Commands: []*cli.Command{
			commandServer(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandServer() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "start the web server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: "0.0.0.0:8080",
				Usage: "serve address",
			},
			&cli.StringFlag{
				Name:  "store",
				Value: container.StorePostgres,
				Usage: "storage backend: postgres or memory",
			},
		},
		Action: func(c *cli.Context) error {
			required := []string{"JWT_SECRET"}
			if c.String("store") != container.StoreMemory {
				required = append(required, "DB_DSN")
			}
			vs, err := env.EnvsRequired(required...)
			if err != nil {
				return err
			}

			logger.New(os.Getenv("API_MODE"), "api")
			//nolint:errcheck
			defer zap.L().Sync()

			injector := container.NewContainer(vs, c.String("store"))
			//nolint:errcheck
			defer injector.Shutdown()

			router, err := handler.New(&handler.Config{
				Container: injector,
				Mode:      vs["API_MODE"],
				Origins:   strings.Split(vs["API_ORIGINS"], ","),
			})
			if err != nil {
				zap.L().Error("build router", zap.Error(err))
				return err
			}

			srv := &http.Server{
				Addr:    c.String("addr"),
				Handler: router,
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errWg, errCtx := errgroup.WithContext(ctx)

			errWg.Go(func() error {
				zap.L().Info("listen and serve",
					zap.String("addr", c.String("addr")),
					zap.String("mode", vs["API_MODE"]),
					zap.String("store", c.String("store")),
				)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			})

			errWg.Go(func() error {
				<-errCtx.Done()
				return srv.Shutdown(context.TODO())
			})

			return errWg.Wait()
		},
	}
}
