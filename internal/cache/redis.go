// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rdb is the global Redis client. Connect it once at application startup;
// when nil, play logging is disabled.
var Rdb *redis.Client

// DefaultQueueName is the Redis list (queue) name for card-play logs.
var DefaultQueueName = "kierki_plays"

// PlayRecord is one accepted card play, queued for an external historian.
type PlayRecord struct {
	RoomID    int    `json:"room_id"`
	PlayerID  int    `json:"player_id"`
	Round     int    `json:"round"`
	Trick     int    `json:"trick"`
	Suit      string `json:"suit"`
	Rank      int    `json:"rank"`
	Timestamp int64  `json:"timestamp"`
}

// ConnectRedis initializes the global Redis client from environment
// variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		Rdb = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// Enabled reports whether a Redis client is connected.
func Enabled() bool {
	return Rdb != nil
}

// PublishPlay serializes the record to JSON and pushes it onto the play
// queue. A quick network send; never called while a room lock is held.
func PublishPlay(ctx context.Context, record PlayRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal PlayRecord: %w", err)
	}

	queueName := getEnv("PLAY_QUEUE_NAME", DefaultQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt parses an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
