package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"scanpay/internal/models"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

func GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

// Receipt caching. Receipts are cached by order id only; verification always
// reads through to the database.
func (s *CacheService) CacheReceipt(ctx context.Context, receipt *models.Receipt) error {
	if receipt == nil {
		return errors.New("cannot cache nil receipt")
	}
	return s.Set(ctx, GenerateKey("receipt", "order", receipt.OrderID), receipt)
}

func (s *CacheService) GetReceipt(ctx context.Context, orderID string) (*models.Receipt, error) {
	var receipt models.Receipt
	found, err := s.Get(ctx, GenerateKey("receipt", "order", orderID), &receipt)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrCacheMiss
	}
	return &receipt, nil
}

func (s *CacheService) InvalidateReceipt(ctx context.Context, orderID string) error {
	return s.Delete(ctx, GenerateKey("receipt", "order", orderID))
}

// HealthCheck pings Redis.
func (s *CacheService) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
