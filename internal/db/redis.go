package db

import (
	"context"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient подключается к Redis по REDIS_HOST/REDIS_PORT/REDIS_PASSWORD.
// Redis используется только для кулдауна уведомлений, поэтому ошибка
// подключения не фатальна для вызывающего кода.
func NewRedisClient() (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
	}

	return client, nil
}
