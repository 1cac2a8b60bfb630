package pricing

import (
	"context"
	"errors"

	"github.com/safar/shop-orders/internal/catalog"
	"github.com/safar/shop-orders/internal/database"
	"github.com/safar/shop-orders/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// LineSelection is one cart line as submitted by the client: a product
// plus the feature values picked for it. Product ids may repeat across
// lines.
type LineSelection struct {
	ProductID        int64         `json:"product_id"`
	SelectedFeatures []FeaturePick `json:"selected_features,omitempty"`
}

type FeaturePick struct {
	FeatureID int64 `json:"feature_id"`
	ValueID   int64 `json:"value_id"`
}

type DeliverySelection struct {
	OrderType        string
	CompanyID        *int64
	MethodID         *int64
	LocationMethodID *int64
}

// Resolution holds every catalog record a cart needs, fetched up front
// in batched queries. Ids that did not resolve are absent; callers apply
// their own miss policy per item.
type Resolution struct {
	Products       map[int64]models.Product
	Features       map[int64]models.Feature
	Values         map[int64]models.FeatureValue
	DeliveryMethod *models.DeliveryMethod
	LocationMethod *models.DeliveryLocationMethod
}

// Resolve fetches products, feature definitions, feature values and the
// delivery selectors for the given cart. The independent lookup groups
// run concurrently; a batch query failure aborts, a missing delivery
// selector does not.
func Resolve(ctx context.Context, gw catalog.Gateway, lines []LineSelection, sel DeliverySelection) (*Resolution, error) {
	productIDs := make([]int64, 0, len(lines))
	seenProducts := make(map[int64]bool)
	var featureIDs, valueIDs []int64
	seenFeatures := make(map[int64]bool)
	seenValues := make(map[int64]bool)

	for _, line := range lines {
		if !seenProducts[line.ProductID] {
			seenProducts[line.ProductID] = true
			productIDs = append(productIDs, line.ProductID)
		}
		for _, pick := range line.SelectedFeatures {
			if !seenFeatures[pick.FeatureID] {
				seenFeatures[pick.FeatureID] = true
				featureIDs = append(featureIDs, pick.FeatureID)
			}
			if !seenValues[pick.ValueID] {
				seenValues[pick.ValueID] = true
				valueIDs = append(valueIDs, pick.ValueID)
			}
		}
	}

	res := &Resolution{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	g.Go(func() error {
		products, err := gw.GetProducts(ctx, productIDs)
		if err != nil {
			return err
		}
		res.Products = products
		return nil
	})

	g.Go(func() error {
		features, err := gw.GetFeatures(ctx, featureIDs)
		if err != nil {
			return err
		}
		res.Features = features
		return nil
	})

	g.Go(func() error {
		values, err := gw.GetFeatureValues(ctx, valueIDs)
		if err != nil {
			return err
		}
		res.Values = values
		return nil
	})

	if sel.OrderType == models.OrderTypeDelivery && sel.MethodID != nil {
		methodID := *sel.MethodID
		g.Go(func() error {
			method, err := gw.GetDeliveryMethod(ctx, methodID)
			if err != nil {
				if errors.Is(err, database.ErrDeliveryMethodNotFound) {
					return nil
				}
				return err
			}
			res.DeliveryMethod = method
			return nil
		})

		if sel.LocationMethodID != nil {
			locationID := *sel.LocationMethodID
			g.Go(func() error {
				location, err := gw.GetDeliveryLocationMethod(ctx, locationID)
				if err != nil {
					if errors.Is(err, database.ErrDeliveryMethodNotFound) {
						return nil
					}
					return err
				}
				res.LocationMethod = location
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return res, nil
}

// FinalUnitPrice returns the effective base price of a product: the sale
// price when the on-sale flag is set and a positive sale price exists,
// the regular price otherwise.
func FinalUnitPrice(p models.Product) decimal.Decimal {
	if p.OnSale && p.SalePrice.Valid && p.SalePrice.Decimal.IsPositive() {
		return p.SalePrice.Decimal
	}
	return p.Price
}

// FeatureValue resolves a pick against the fetched values. The pair must
// match: a value id that exists under a different feature is a miss.
func (r *Resolution) FeatureValue(pick FeaturePick) (models.FeatureValue, bool) {
	v, ok := r.Values[pick.ValueID]
	if !ok || v.FeatureID != pick.FeatureID {
		return models.FeatureValue{}, false
	}
	return v, true
}

// DeliveryCost is zero unless the order is a delivery order with a
// method selected. Selectors that did not resolve contribute zero.
func (r *Resolution) DeliveryCost(sel DeliverySelection) decimal.Decimal {
	if sel.OrderType != models.OrderTypeDelivery || sel.MethodID == nil {
		return decimal.Zero
	}
	cost := decimal.Zero
	if r.DeliveryMethod != nil {
		cost = cost.Add(r.DeliveryMethod.PriceAddition)
	}
	if sel.LocationMethodID != nil && r.LocationMethod != nil {
		cost = cost.Add(r.LocationMethod.PriceAddition)
	}
	return cost
}
