// Package redis provides connection helpers for the go-redis client.
//
// Connect establishes a client from a Config (URL, retry attempts, retry
// interval, connect timeout) and verifies it with a ping before returning.
// Config fields carry env tags so they can be populated through the config
// package.
//
//	cfg := redis.Config{
//	    ConnectionURL:  "redis://localhost:6379/0",
//	    RetryAttempts:  3,
//	    RetryInterval:  5 * time.Second,
//	    ConnectTimeout: 30 * time.Second,
//	}
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// Healthcheck returns a probe function suitable for readiness endpoints:
//
//	check := redis.Healthcheck(client)
//	if err := check(ctx); err != nil {
//	    // redis is not healthy
//	}
//
// Sentinel errors wrap the underlying client errors with errors.Join, so
// errors.Is works against ErrRedisNotReady and friends.
package redis
