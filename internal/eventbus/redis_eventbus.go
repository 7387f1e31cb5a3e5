package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisEventBus publishes insight events onto redis streams so report
// consumers can pick them up with consumer groups at their own pace.
type RedisEventBus struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisEventBus connects to redis and verifies the connection.
func NewRedisEventBus(addr, password string, db int, logger *zap.Logger) (*RedisEventBus, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisEventBus{
		client: client,
		logger: logger.Named("eventbus"),
	}, nil
}

// Publish appends the event to the topic's stream as a JSON payload.
func (r *RedisEventBus) Publish(ctx context.Context, topic string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		Values: map[string]interface{}{"payload": data},
	}).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	r.logger.Debug("published event", zap.String("topic", topic))
	return nil
}

// Close releases the redis connection.
func (r *RedisEventBus) Close() error {
	return r.client.Close()
}
