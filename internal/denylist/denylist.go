// Package denylist checks email domains against a disposable-domain list.
package denylist

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

//go:embed seed.txt
var seedData string

const (
	redisKey     = "denylist:domains"
	redisStaging = "denylist:domains:staging"
	lookupWait   = 200 * time.Millisecond
)

// Checker answers domain membership queries. Lookups consult Redis first so
// an externally refreshed list takes effect without a restart; the embedded
// seed always remains blocked.
type Checker struct {
	client *redis.Client
	logger *slog.Logger
	seed   map[string]struct{}
}

// New constructs a Checker. The Redis client may be nil, in which case only
// the embedded seed list is consulted.
func New(client *redis.Client, logger *slog.Logger) *Checker {
	seed := make(map[string]struct{})
	scanner := bufio.NewScanner(strings.NewReader(seedData))
	for scanner.Scan() {
		domain := strings.TrimSpace(scanner.Text())
		if domain == "" || strings.HasPrefix(domain, "#") {
			continue
		}
		seed[strings.ToLower(domain)] = struct{}{}
	}
	return &Checker{client: client, logger: logger, seed: seed}
}

// IsBlocked reports whether the (already lowercased) domain is denylisted.
func (c *Checker) IsBlocked(ctx context.Context, domain string) bool {
	if _, ok := c.seed[domain]; ok {
		return true
	}
	if c.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, lookupWait)
	defer cancel()
	blocked, err := c.client.SIsMember(ctx, redisKey, domain).Result()
	if err != nil {
		// Redis being down must not block account creation.
		if c.logger != nil {
			c.logger.Warn("denylist lookup failed", slog.Any("error", err))
		}
		return false
	}
	return blocked
}

// Refresh atomically replaces the Redis-backed list with the given domains.
func (c *Checker) Refresh(ctx context.Context, domains []string) error {
	if c.client == nil {
		return fmt.Errorf("denylist: redis not configured")
	}
	if len(domains) == 0 {
		return fmt.Errorf("denylist: refusing to replace list with empty set")
	}
	members := make([]any, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		members = append(members, d)
	}
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, redisStaging)
	pipe.SAdd(ctx, redisStaging, members...)
	pipe.Rename(ctx, redisStaging, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("denylist: refresh: %w", err)
	}
	return nil
}

// Size returns the number of seed entries, used for diagnostics.
func (c *Checker) Size() int {
	return len(c.seed)
}
