package alerting

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisOptions locate the Redis server and pub/sub channel.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// RedisSink publishes each status message to a Redis channel.
type RedisSink struct {
	client  *redis.Client
	channel string
}

// OpenRedis connects and pings the server.
func OpenRedis(ctx context.Context, opts RedisOptions) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisSink{client: client, channel: opts.Channel}, nil
}

// LogAlert publishes message to the configured channel.
func (r *RedisSink) LogAlert(ctx context.Context, message string) error {
	if err := r.client.Publish(ctx, r.channel, message).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", r.channel, err)
	}
	return nil
}

// Close closes the client.
func (r *RedisSink) Close() error {
	return r.client.Close()
}

var _ Sink = (*RedisSink)(nil)
