package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// CodeRequestKey scopes login code requests per email.
func CodeRequestKey(email string) string {
	return fmt.Sprintf("auth:request:%s", email)
}

// CodeVerifyKey scopes login code verification attempts per email.
func CodeVerifyKey(email string) string {
	return fmt.Sprintf("auth:verify:%s", email)
}

// MessageRateKey scopes message posting per identity.
func MessageRateKey(identity string) string {
	return fmt.Sprintf("messages:%s", identity)
}
