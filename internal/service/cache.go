package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/ticket-inventory/internal/domain"
)

// TicketCache is a read-through cache for tickets keyed by id. A nil or
// misconfigured cache degrades to a miss on every call.
type TicketCache interface {
	Get(ctx context.Context, id string) (*domain.Ticket, bool)
	Set(ctx context.Context, ticket *domain.Ticket)
	Invalidate(ctx context.Context, id string)
}

type redisTicketCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTicketCache wraps a redis client as a TicketCache.
func NewRedisTicketCache(client *redis.Client, ttl time.Duration) TicketCache {
	return &redisTicketCache{client: client, ttl: ttl}
}

func ticketCacheKey(id string) string {
	return "ticket:" + id
}

func (c *redisTicketCache) Get(ctx context.Context, id string) (*domain.Ticket, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, ticketCacheKey(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var ticket domain.Ticket
	if err := json.Unmarshal(raw, &ticket); err != nil {
		return nil, false
	}
	return &ticket, true
}

func (c *redisTicketCache) Set(ctx context.Context, ticket *domain.Ticket) {
	if c == nil || c.client == nil || ticket == nil {
		return
	}
	raw, err := json.Marshal(ticket)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, ticketCacheKey(ticket.ID), raw, c.ttl).Err()
}

func (c *redisTicketCache) Invalidate(ctx context.Context, id string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, ticketCacheKey(id)).Err()
}

// noopTicketCache is used when redis is not configured.
type noopTicketCache struct{}

// NewNoopTicketCache returns a cache that never hits.
func NewNoopTicketCache() TicketCache {
	return noopTicketCache{}
}

func (noopTicketCache) Get(context.Context, string) (*domain.Ticket, bool) { return nil, false }
func (noopTicketCache) Set(context.Context, *domain.Ticket)                {}
func (noopTicketCache) Invalidate(context.Context, string)                 {}
