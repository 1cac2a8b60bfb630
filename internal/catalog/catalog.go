package catalog

import (
	"context"

	"github.com/safar/shop-orders/internal/models"
)

// Gateway is read-only access to the pricing-relevant parts of the
// catalog. Batched getters return a map keyed by id; ids that do not
// resolve are simply absent from the map, so callers decide per item
// whether a miss is fatal.
type Gateway interface {
	GetShop(ctx context.Context, id int64) (*models.Shop, error)
	GetProducts(ctx context.Context, ids []int64) (map[int64]models.Product, error)
	GetFeatures(ctx context.Context, ids []int64) (map[int64]models.Feature, error)
	GetFeatureValues(ctx context.Context, ids []int64) (map[int64]models.FeatureValue, error)
	GetDeliveryMethod(ctx context.Context, id int64) (*models.DeliveryMethod, error)
	GetDeliveryLocationMethod(ctx context.Context, id int64) (*models.DeliveryLocationMethod, error)
}
