package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"wavesight/internal/datastore"
	"wavesight/internal/models"
	"wavesight/internal/pkg/caching"
	"wavesight/internal/services"

	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
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
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigration(),
			commandConfigMigration(),
			commandInsertProfiles(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandMigration() *cli.Command {
	return &cli.Command{
		Name: "migrate",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			steps := []func(context.Context, *bun.DB) error{
				datastore.CreateTableConfig,
				datastore.CreateTableUserProfile,
				datastore.CreateTableSubmission,
				datastore.CreateTableValidation,
				datastore.CreateTableEarning,
				datastore.CreateTableRateLimit,
				datastore.CreateTableHeatVote,
				datastore.CreateViewTrendStatus,
			}
			for _, step := range steps {
				if err := step(ctx, db); err != nil {
					log.Fatal(err)
				}
			}

			log.Println("Migration success")
			return nil
		},
	}
}

func commandConfigMigration() *cli.Command {
	return &cli.Command{
		Name:        "migrate-config",
		Description: "Upsert default configs, then drop cached config values",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "set",
				Usage: "override a config as KEY=VALUE",
			},
		},
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			values := map[string]string{
				services.CONFIG_APPROVAL_THRESHOLD:      strconv.Itoa(services.DEFAULT_APPROVAL_THRESHOLD),
				services.CONFIG_REJECTION_THRESHOLD:     strconv.Itoa(services.DEFAULT_REJECTION_THRESHOLD),
				services.CONFIG_HOURLY_VALIDATION_LIMIT: strconv.Itoa(services.DEFAULT_HOURLY_VALIDATION_LIMIT),
				services.CONFIG_DAILY_VALIDATION_LIMIT:  strconv.Itoa(services.DEFAULT_DAILY_VALIDATION_LIMIT),
				services.CONFIG_SUBMISSION_BASE_REWARD:  fmt.Sprint(services.DEFAULT_SUBMISSION_BASE_REWARD),
				services.CONFIG_VALIDATION_REWARD:       fmt.Sprint(services.DEFAULT_VALIDATION_REWARD),
				services.CONFIG_APPROVAL_BONUS:          fmt.Sprint(services.DEFAULT_APPROVAL_BONUS),
				services.CONFIG_MAX_SUBMISSION_REWARD:   fmt.Sprint(services.DEFAULT_MAX_SUBMISSION_REWARD),
				services.CONFIG_AUTO_REJECT_AFTER_HOURS: strconv.Itoa(services.DEFAULT_AUTO_REJECT_AFTER_HOURS),
				services.CONFIG_VOTE_BURST_PER_MINUTE:   strconv.Itoa(services.DEFAULT_VOTE_BURST_PER_MINUTE),
				services.CONFIG_CRONJOB_AUTO_REJECT:     services.DEFAULT_CRONJOB_AUTO_REJECT,
				services.CONFIG_CRONJOB_RECONCILE:       services.DEFAULT_CRONJOB_RECONCILE,
			}

			for _, kv := range c.StringSlice("set") {
				key, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("invalid config override %q", kv)
				}
				values[strings.ToUpper(strings.TrimSpace(key))] = value
			}

			for key, value := range values {
				err = datastore.UpsertConfig(ctx, db, &models.Config{Key: key, Value: value})
				if err != nil {
					log.Println(err)
				}
			}

			dbRedis, err := getRedis()
			if err != nil {
				log.Println("skip cache invalidation:", err)
				return nil
			}

			deleted, err := caching.DeleteKeys(ctx, dbRedis, "config:*")
			if err != nil {
				log.Println(err)
			}

			log.Println("Migration success, cached configs dropped:", deleted)
			return nil
		},
	}
}

func commandInsertProfiles() *cli.Command {
	return &cli.Command{
		Name:        "insert-profiles",
		Description: "Insert user profiles from a csv of id,username,tier,streak",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "input",
				Value: "./profiles.csv",
			},
		},
		Action: func(c *cli.Context) error {
			ctx := context.Background()

			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			file, err := os.Open(c.String("input"))
			if err != nil {
				return err
			}
			defer file.Close()

			r := csv.NewReader(file)
			r.FieldsPerRecord = 4

			inserted := 0
			for {
				row, err := r.Read()
				if err == io.EOF {
					break
				}
				if err != nil {
					return err
				}

				profile, err := parseProfileRow(row)
				if err != nil {
					log.Println(err)
					continue
				}

				err = datastore.InsertUserProfile(ctx, db, profile)
				if err != nil {
					log.Println(err)
					continue
				}
				inserted++
			}

			log.Println("Profiles inserted:", inserted)
			return nil
		},
	}
}

func parseProfileRow(row []string) (*models.UserProfile, error) {
	id, err := uuid.Parse(strings.TrimSpace(row[0]))
	if err != nil {
		return nil, fmt.Errorf("profile id %q: %w", row[0], err)
	}

	tier := strings.ToLower(strings.TrimSpace(row[2]))
	switch tier {
	case models.TierRestricted, models.TierLearning, models.TierVerified, models.TierElite, models.TierMaster:
	default:
		return nil, fmt.Errorf("profile %s: unknown tier %q", id, row[2])
	}

	streak, err := strconv.Atoi(strings.TrimSpace(row[3]))
	if err != nil || streak < 0 {
		return nil, fmt.Errorf("profile %s: invalid streak %q", id, row[3])
	}

	return &models.UserProfile{
		ID:            id,
		Username:      strings.TrimSpace(row[1]),
		Tier:          tier,
		CurrentStreak: streak,
	}, nil
}

func getDb() (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(os.Getenv("DB_DSN")),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	db := bun.NewDB(sqldb, pgdialect.New())
	return db, nil
}

func getRedis() (redis.UniversalClient, error) {
	clusterRedisCache := os.Getenv("CLUSTER_REDIS_CACHE")
	if clusterRedisCache != "" {
		clusterOpts, err := redis.ParseClusterURL(clusterRedisCache)
		if err != nil {
			return nil, err
		}
		return redis.NewClusterClient(clusterOpts), nil
	}

	return db.InitRedis(&db.RedisConfig{
		URL: os.Getenv("REDIS_CACHE"),
	})
}
