package bas

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	versionKeyPrefix = "bas:version:"
	// InvalidationChannel carries the clinic id whose records changed.
	InvalidationChannel = "bas.invalidate"
)

// Cache stores generated reports in Redis under a per-clinic version so a
// change to a clinic's log or config invalidates every quarter at once. A nil
// Cache or client disables caching.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Version returns the clinic's current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context, clinicID string) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	key := versionKeyPrefix + clinicID
	ver, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, key, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, key).Int64()
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, key, ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

// ReportKey composes the versioned key for a clinic quarter.
func (c *Cache) ReportKey(ctx context.Context, clinicID string, q Quarter, year int) (string, error) {
	base := strings.Join([]string{"bas", "report", clinicID, strconv.Itoa(year), q.String()}, ":")
	if !c.enabled() {
		return base, nil
	}
	ver, err := c.Version(ctx, clinicID)
	if err != nil {
		return "", err
	}
	return base + ":v" + strconv.FormatInt(ver, 10), nil
}

// Get loads a cached report. ok is false on a miss or when caching is disabled.
func (c *Cache) Get(ctx context.Context, key string) (Report, bool, error) {
	if !c.enabled() {
		return Report{}, false, nil
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Report{}, false, nil
	}
	if err != nil {
		return Report{}, false, err
	}
	var report Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return Report{}, false, err
	}
	return report, true, nil
}

// Put stores a report with the configured TTL.
func (c *Cache) Put(ctx context.Context, key string, report Report) error {
	if !c.enabled() {
		return nil
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Invalidate bumps the clinic's version and notifies other instances.
func (c *Cache) Invalidate(ctx context.Context, clinicID string) error {
	if !c.enabled() {
		return nil
	}
	if err := c.client.Incr(ctx, versionKeyPrefix+clinicID).Err(); err != nil {
		return err
	}
	return c.client.Publish(ctx, InvalidationChannel, clinicID).Err()
}

// ListenForInvalidation subscribes to invalidations published by the records
// layer and calls onInvalidate with each clinic id until ctx ends.
func (c *Cache) ListenForInvalidation(ctx context.Context, onInvalidate func(clinicID string)) error {
	if !c.enabled() {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, InvalidationChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if msg.Payload != "" && onInvalidate != nil {
					onInvalidate(msg.Payload)
				}
			}
		}
	}()
	return nil
}
