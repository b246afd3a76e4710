package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"wavesight/internal/datastore/redis_store"
	"wavesight/internal/models"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
)

// ServiceNotifier fans status changes out to the Redis channel and the
// optional webhook. Delivery is best effort; clients can always poll.
type ServiceNotifier struct {
	container  *do.Injector
	redisDB    redis.UniversalClient
	client     heimdall.Doer
	webhookURL string
}

func NewServiceNotifier(container *do.Injector) (*ServiceNotifier, error) {
	redisDB, err := do.InvokeNamed[redis.UniversalClient](container, "redis-events")
	if err != nil {
		return nil, err
	}

	vs, err := do.InvokeNamed[map[string]string](container, "envs")
	if err != nil {
		return nil, err
	}

	backoff := heimdall.NewConstantBackoff(200*time.Millisecond, 100*time.Millisecond)
	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(5*time.Second),
		httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
		httpclient.WithRetryCount(2),
	)

	return &ServiceNotifier{container, redisDB, client, vs["NOTIFY_WEBHOOK_URL"]}, nil
}

func (service *ServiceNotifier) Publish(ctx context.Context, event *models.StatusEvent) {
	if event == nil {
		return
	}

	logger := zap.L().With(
		zap.String("submission_id", event.SubmissionID.String()),
		zap.String("from", event.From),
		zap.String("to", event.To),
	)
	logger.Info("submission status changed")

	if err := redis_store.PublishStatusEvent(ctx, service.redisDB, event); err != nil {
		logger.Warn("publish status event", zap.Error(err))
	}

	if service.webhookURL == "" {
		return
	}

	go func() {
		if err := service.postWebhook(event); err != nil {
			logger.Warn("status webhook", zap.Error(err))
		}
	}()
}

func (service *ServiceNotifier) postWebhook(event *models.StatusEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, service.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := service.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook responded %d", res.StatusCode)
	}
	return nil
}
