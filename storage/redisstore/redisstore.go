// Package redisstore keeps browser namespaces in Redis as prefix:namespace:key strings
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/atelier-portal/session"
	"github.com/redis/go-redis/v9"
)

// Provider maps namespaces onto keys of a Redis client. A positive ttl is refreshed on every write.
type Provider struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func New(client redis.UniversalClient, prefix string, ttl time.Duration) *Provider {
	return &Provider{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (p *Provider) For(namespace string) session.Storage {
	return &namespaceStorage{provider: p, namespace: namespace}
}

// Ping checks the connection at startup
func (p *Provider) Ping(ctx context.Context) error {
	if err := p.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("[redisstore.Ping] %w", err)
	}
	return nil
}

func (p *Provider) key(namespace, key string) string {
	return p.prefix + ":" + namespace + ":" + key
}

type namespaceStorage struct {
	provider  *Provider
	namespace string
}

func (n *namespaceStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := n.provider.redis.Get(ctx, n.provider.key(n.namespace, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("[redisstore.Get] %w", err)
	}
	return v, true, nil
}

func (n *namespaceStorage) Set(ctx context.Context, key, value string) error {
	if err := n.provider.redis.Set(ctx, n.provider.key(n.namespace, key), value, n.provider.ttl).Err(); err != nil {
		return fmt.Errorf("[redisstore.Set] %w", err)
	}
	return nil
}

func (n *namespaceStorage) Remove(ctx context.Context, key string) error {
	if err := n.provider.redis.Del(ctx, n.provider.key(n.namespace, key)).Err(); err != nil {
		return fmt.Errorf("[redisstore.Remove] %w", err)
	}
	return nil
}
