// Package cachestore keeps per-user verification contexts in redis.
package cachestore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/topsell/tams/core"
	"github.com/topsell/tams/core/verification"
)

const keyPrefix = "tams:verification:"

// Open connects to the configured redis server. An empty address disables the cache.
func Open(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	if conf.Redis.Address == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return rdb, nil
}

// userStorage is the verification.Storage of a single user, bound to one request context.
type userStorage struct {
	ctx    context.Context
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

var _ verification.Storage = (*userStorage)(nil)

// NewUserStorage returns the storage of userID. Entries expire after ttl (0 keeps them).
func NewUserStorage(ctx context.Context, rdb *redis.Client, userID string, ttl time.Duration) verification.Storage {
	return &userStorage{
		ctx:    ctx,
		rdb:    rdb,
		prefix: keyPrefix + userID + ":",
		ttl:    ttl,
	}
}

func (s *userStorage) GetItem(key string) (string, bool, error) {
	val, err := s.rdb.Get(s.ctx, s.prefix+key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, "getting redis key")
	}
	return val, true, nil
}

func (s *userStorage) SetItem(key, value string) error {
	if err := s.rdb.Set(s.ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "setting redis key")
	}
	return nil
}

// Stores hands out per-user context stores. Without redis every user gets an in-process store.
type Stores struct {
	rdb *redis.Client
	ttl time.Duration

	mem *verification.MemoryStorage
}

func NewStores(rdb *redis.Client, ttl time.Duration) *Stores {
	return &Stores{rdb: rdb, ttl: ttl, mem: verification.NewMemoryStorage()}
}

func (s *Stores) ForUser(ctx context.Context, userID string) verification.ContextStore {
	if s.rdb == nil {
		return verification.NewStorageStore(prefixedStorage{s.mem, userID + ":"})
	}
	return verification.NewStorageStore(NewUserStorage(ctx, s.rdb, userID, s.ttl))
}

type prefixedStorage struct {
	verification.Storage
	prefix string
}

func (p prefixedStorage) GetItem(key string) (string, bool, error) {
	return p.Storage.GetItem(p.prefix + key)
}

func (p prefixedStorage) SetItem(key, value string) error {
	return p.Storage.SetItem(p.prefix+key, value)
}
