package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
)

// ReportCache keeps generated report envelopes close to the API
type ReportCache interface {
	Get(ctx context.Context, publicID string) (*model.ReportEnvelope, error)
	Set(ctx context.Context, envelope *model.ReportEnvelope) error
	Delete(ctx context.Context, publicID string) error
}

type reportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache creates a new report cache
func NewReportCache(client *redis.Client, ttl time.Duration) ReportCache {
	return &reportCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *reportCache) key(publicID string) string {
	return fmt.Sprintf("purchase:%s:report", publicID)
}

func (c *reportCache) Get(ctx context.Context, publicID string) (*model.ReportEnvelope, error) {
	data, err := c.client.Get(ctx, c.key(publicID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var envelope model.ReportEnvelope
	if err := json.Unmarshal([]byte(data), &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}

func (c *reportCache) Set(ctx context.Context, envelope *model.ReportEnvelope) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(envelope.PurchaseID), data, c.ttl).Err()
}

func (c *reportCache) Delete(ctx context.Context, publicID string) error {
	return c.client.Del(ctx, c.key(publicID)).Err()
}
