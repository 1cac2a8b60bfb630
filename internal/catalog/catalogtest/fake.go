package catalogtest

import (
	"context"

	"github.com/safar/shop-orders/internal/database"
	"github.com/safar/shop-orders/internal/models"
)

// Fake is an in-memory catalog gateway for tests. Missing ids behave
// exactly like the SQL gateway: absent from batched results, not-found
// errors from single-record getters. Err, when set, is returned by
// every method to simulate an infrastructure failure.
type Fake struct {
	Shops           map[int64]models.Shop
	Products        map[int64]models.Product
	Features        map[int64]models.Feature
	Values          map[int64]models.FeatureValue
	DeliveryMethods map[int64]models.DeliveryMethod
	LocationMethods map[int64]models.DeliveryLocationMethod
	Err             error
}

func (f *Fake) GetShop(_ context.Context, id int64) (*models.Shop, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	shop, ok := f.Shops[id]
	if !ok {
		return nil, database.ErrShopNotFound
	}
	return &shop, nil
}

func (f *Fake) GetProducts(_ context.Context, ids []int64) (map[int64]models.Product, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := make(map[int64]models.Product)
	for _, id := range ids {
		if p, ok := f.Products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *Fake) GetFeatures(_ context.Context, ids []int64) (map[int64]models.Feature, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := make(map[int64]models.Feature)
	for _, id := range ids {
		if ft, ok := f.Features[id]; ok {
			out[id] = ft
		}
	}
	return out, nil
}

func (f *Fake) GetFeatureValues(_ context.Context, ids []int64) (map[int64]models.FeatureValue, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := make(map[int64]models.FeatureValue)
	for _, id := range ids {
		if v, ok := f.Values[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (f *Fake) GetDeliveryMethod(_ context.Context, id int64) (*models.DeliveryMethod, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	m, ok := f.DeliveryMethods[id]
	if !ok {
		return nil, database.ErrDeliveryMethodNotFound
	}
	return &m, nil
}

func (f *Fake) GetDeliveryLocationMethod(_ context.Context, id int64) (*models.DeliveryLocationMethod, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	m, ok := f.LocationMethods[id]
	if !ok {
		return nil, database.ErrDeliveryMethodNotFound
	}
	return &m, nil
}
