package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/safar/shop-orders/internal/models"
)

const (
	// shop:{id} -> JSON shop
	keyShop = "catalog:shop:%d"

	// product:{id} -> JSON product
	keyProduct = "catalog:product:%d"
)

// Cache is a read-through decorator over a Gateway. Shop and product
// lookups are served from redis when possible; redis failures fall back
// to the inner gateway and are never surfaced.
type Cache struct {
	Inner Gateway
	Redis *redis.Client
	TTL   time.Duration
}

func NewCache(inner Gateway, rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{Inner: inner, Redis: rdb, TTL: ttl}
}

func (c *Cache) GetShop(ctx context.Context, id int64) (*models.Shop, error) {
	key := fmt.Sprintf(keyShop, id)
	if raw, err := c.Redis.Get(ctx, key).Bytes(); err == nil {
		var shop models.Shop
		if json.Unmarshal(raw, &shop) == nil {
			return &shop, nil
		}
	}

	shop, err := c.Inner.GetShop(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(shop); err == nil {
		_ = c.Redis.Set(ctx, key, raw, c.TTL).Err()
	}

	return shop, nil
}

func (c *Cache) GetProducts(ctx context.Context, ids []int64) (map[int64]models.Product, error) {
	out := make(map[int64]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf(keyProduct, id)
	}

	var missing []int64
	cached, err := c.Redis.MGet(ctx, keys...).Result()
	if err != nil {
		missing = ids
	} else {
		for i, v := range cached {
			raw, ok := v.(string)
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			var p models.Product
			if json.Unmarshal([]byte(raw), &p) != nil {
				missing = append(missing, ids[i])
				continue
			}
			out[ids[i]] = p
		}
	}

	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.Inner.GetProducts(ctx, missing)
	if err != nil {
		return nil, err
	}

	for id, p := range fetched {
		out[id] = p
		if raw, err := json.Marshal(p); err == nil {
			_ = c.Redis.Set(ctx, fmt.Sprintf(keyProduct, id), raw, c.TTL).Err()
		}
	}

	return out, nil
}

// Feature and delivery lookups change rarely but are cheap batched reads,
// so they pass straight through.

func (c *Cache) GetFeatures(ctx context.Context, ids []int64) (map[int64]models.Feature, error) {
	return c.Inner.GetFeatures(ctx, ids)
}

func (c *Cache) GetFeatureValues(ctx context.Context, ids []int64) (map[int64]models.FeatureValue, error) {
	return c.Inner.GetFeatureValues(ctx, ids)
}

func (c *Cache) GetDeliveryMethod(ctx context.Context, id int64) (*models.DeliveryMethod, error) {
	return c.Inner.GetDeliveryMethod(ctx, id)
}

func (c *Cache) GetDeliveryLocationMethod(ctx context.Context, id int64) (*models.DeliveryLocationMethod, error) {
	return c.Inner.GetDeliveryLocationMethod(ctx, id)
}
