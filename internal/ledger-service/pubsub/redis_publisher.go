package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/predictor/prediction-ledger-poc/pkg/contracts/events"
)

const ChannelMarketBroadcast = "market_updates_broadcast"

// RedisBroadcaster repassa avisos de ciclo de vida de mercado pro canal que
// o market-feed assina.
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	if channel == "" {
		channel = ChannelMarketBroadcast
	}
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) PublishMarketUpdate(ctx context.Context, u events.MarketUpdate) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return b.r.Publish(ctx, b.channel, payload).Err()
}
