package cache

import (
	"context"
	"time"
)

// BytesCache: минимальный kv-кэш, которым пользуются сервисы.
// Реализация: rediscache.RedisCache.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// LookupKey: ключ кэша публичного поиска по трек-номеру.
func LookupKey(trackingNumber string) string {
	return "lookup:" + trackingNumber
}

// RateDecision: результат проверки лимита для одного ключа.
type RateDecision struct {
	Allowed bool
	Count   int64
	// RetryAfter: сколько осталось до конца текущего окна.
	RetryAfter time.Duration
}

// RateLimitKey: счётчик вебхука на IP клиента.
func RateLimitKey(scope, clientIP string) string {
	return "ratelimit:" + scope + ":" + clientIP
}
