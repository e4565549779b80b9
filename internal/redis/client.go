// Package redis wraps the go-redis client so repositories depend on a small,
// replaceable interface.
package redis

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
)

// DefaultPingTimeout bounds the reachability check done by Connect
const DefaultPingTimeout = 5 * time.Second

// Options configures the connection used for profile and character documents
type Options struct {
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	UseTLS       bool

	// PingTimeout bounds Connect's reachability check. Zero uses DefaultPingTimeout.
	PingTimeout time.Duration
}

// NewClient creates a client for a single instance without touching the network
func NewClient(endpoint string, opts *Options) (Client, error) {
	if endpoint == "" {
		return nil, errors.InvalidArgument("redis endpoint is required")
	}
	if opts == nil {
		opts = &Options{}
	}

	redisOpts := &redis.Options{
		Addr:         endpoint,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		MaxRetries:   opts.MaxRetries,
	}
	if opts.UseTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return redis.NewClient(redisOpts), nil
}

// Connect creates a client and verifies the server answers a PING. The client
// is closed again when the check fails.
func Connect(ctx context.Context, endpoint string, opts *Options) (Client, error) {
	client, err := NewClient(endpoint, opts)
	if err != nil {
		return nil, err
	}

	timeout := DefaultPingTimeout
	if opts != nil && opts.PingTimeout > 0 {
		timeout = opts.PingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "redis is unreachable").
			WithMeta("endpoint", endpoint)
	}
	return client, nil
}
