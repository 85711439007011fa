package updates

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"storebridge/internal/bridge/models"
)

// Redis publishes update events to a Redis pub/sub channel as JSON. The
// application process subscribes to the channel to receive its
// onTransactionsUpdated pushes.
type Redis struct {
	client  redis.UniversalClient
	channel string
}

// NewRedis constructs a Redis publisher on the given channel.
func NewRedis(client redis.UniversalClient, channel string) *Redis {
	return &Redis{client: client, channel: channel}
}

func (r *Redis) Publish(ctx context.Context, txns []models.Transaction) error {
	payload, err := json.Marshal(txns)
	if err != nil {
		return fmt.Errorf("marshal transactions: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", r.channel, err)
	}
	return nil
}
