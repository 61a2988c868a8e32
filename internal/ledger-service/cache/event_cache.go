package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/predictor/prediction-ledger-poc/internal/ledger-service/dto"
)

// EventCache guarda a visão atual de cada evento no Redis, escrita junto com
// cada mutação (write-through) e lida pelos caminhos de consulta.
type EventCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewEventCache(c *redis.Client, ttl time.Duration) *EventCache {
	return &EventCache{Client: c, TTL: ttl}
}

func key(eventID uint32) string { return fmt.Sprintf("event:current:%d", eventID) }

// SetCurrent armazena a visão atual do evento com TTL definido.
func (c *EventCache) SetCurrent(ctx context.Context, v dto.EventView) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key(v.EventID), b, c.TTL).Err()
}

// GetCurrent lê a visão cacheada; miss vira (nil, nil).
func (c *EventCache) GetCurrent(ctx context.Context, eventID uint32) (*dto.EventView, error) {
	b, err := c.Client.Get(ctx, key(eventID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var v dto.EventView
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
