// Package cache is the Redis-backed wallet balance cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"upipay/internal/models"
	"upipay/internal/repositories"

	"github.com/redis/go-redis/v9"
)

var _ repositories.WalletCache = (*CacheService)(nil)

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = repositories.DefaultExpiration
	}
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
		if errors.Is(err, redis.Nil) {
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
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// Key generation
func (s *CacheService) GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

func (s *CacheService) walletKey(address string) string {
	return s.GenerateKey("wallet", "upi", address)
}

// cachedWallet carries the version stamp that models.Wallet hides from JSON.
type cachedWallet struct {
	*models.Wallet
	Version int64 `json:"version"`
}

// setIfNewer stores ARGV[1] unless the key already holds a wallet with a
// higher version.
var setIfNewer = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current then
	local ok, cached = pcall(cjson.decode, current)
	if ok and type(cached) == 'table' then
		local version = tonumber(cached['version'])
		if version and version > tonumber(ARGV[2]) then
			return 0
		end
	end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// SetWallet caches wallet unless a newer version is already cached, so a
// slow read can never overwrite the result of a later write.
func (s *CacheService) SetWallet(ctx context.Context, wallet *models.Wallet) error {
	if wallet == nil {
		return errors.New("cannot cache nil wallet")
	}
	data, err := json.Marshal(cachedWallet{Wallet: wallet, Version: wallet.Version})
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	err = setIfNewer.Run(ctx, s.client, []string{s.walletKey(wallet.Address)},
		string(data), wallet.Version, s.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("failed to cache wallet: %w", err)
	}
	return nil
}

func (s *CacheService) GetWallet(ctx context.Context, address string) (*models.Wallet, error) {
	cached := cachedWallet{Wallet: &models.Wallet{}}
	found, err := s.Get(ctx, s.walletKey(address), &cached)
	if err != nil || !found {
		return nil, err
	}
	cached.Wallet.Version = cached.Version
	return cached.Wallet, nil
}

func (s *CacheService) DeleteWallet(ctx context.Context, addresses ...string) error {
	keys := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		keys = append(keys, s.walletKey(addr))
	}
	return s.Delete(ctx, keys...)
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
