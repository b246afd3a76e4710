package redis_store

import (
	"context"

	"wavesight/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const ChannelTrendStatus = "trend:status"

func PublishStatusEvent(ctx context.Context, cmd redis.Cmdable, v *models.StatusEvent) error {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}

	return cmd.Publish(ctx, ChannelTrendStatus, b).Err()
}

func SubscribeStatusEvents(ctx context.Context, client redis.UniversalClient) *redis.PubSub {
	return client.Subscribe(ctx, ChannelTrendStatus)
}

func DecodeStatusEvent(msg *redis.Message) (*models.StatusEvent, error) {
	var v *models.StatusEvent
	err := msgpack.Unmarshal([]byte(msg.Payload), &v)
	return v, err
}
