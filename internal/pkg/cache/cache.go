package cache

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/voxnote/voxnote/internal/pkg/env"
)

var client *redis.Client

// SetupCache connects to the redis server. The rate limiter is the only
// consumer and fails open, so an unreachable redis is logged, not fatal.
func SetupCache() {
	client = redis.NewClient(&redis.Options{
		Addr:     env.GetEnv("CACHE_HOST", "localhost") + ":" + env.GetEnv("CACHE_PORT", "6379"),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("Warning: Could not connect to redis cache: %v", err)
		return
	}
	log.Printf("Connected to redis cache at %s", client.Options().Addr)
}

// GetClient returns the redis client, connecting lazily if needed.
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// SetClient overrides the client; tests use this with miniredis.
func SetClient(c *redis.Client) {
	client = c
}
