package config

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns a client when REDIS_URL is set, or nil when Redis is not configured.
func ConnectRedis() *redis.Client {
	raw := EnvOrDefault("REDIS_URL", "")
	if raw == "" {
		log.Println("⚠️  REDIS_URL not set, audit events will not be published")
		return nil
	}

	var opts *redis.Options
	if strings.HasPrefix(raw, "redis://") || strings.HasPrefix(raw, "rediss://") {
		parsed, err := redis.ParseURL(raw)
		if err != nil {
			log.Printf("⚠️  invalid REDIS_URL: %v", err)
			return nil
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: raw}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  redis ping failed (%v); continuing without audit publishing", err)
		_ = client.Close()
		return nil
	}

	log.Println("🔧 Redis connected:", opts.Addr)
	return client
}
