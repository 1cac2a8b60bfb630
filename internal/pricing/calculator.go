package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/safar/shop-orders/internal/catalog"
	"github.com/safar/shop-orders/internal/database"
	"github.com/shopspring/decimal"
)

var ErrInvalidInput = errors.New("shop id and a non-empty product list are required")

type Request struct {
	ShopID                   int64
	Lines                    []LineSelection
	OrderType                string
	DeliveryMethodID         *int64
	DeliveryLocationMethodID *int64
	DiscountPercentage       decimal.Decimal
}

// Breakdown is the price preview returned to the client. Every field is
// rounded to 2 decimal places.
type Breakdown struct {
	Subtotal           decimal.Decimal `json:"subtotal"`
	DeliveryCost       decimal.Decimal `json:"delivery_cost"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
}

// Calculator prices a cart without side effects. Safe for concurrent
// use; repeated calls with the same input give the same output.
type Calculator struct {
	Catalog catalog.Gateway
}

func NewCalculator(gw catalog.Gateway) *Calculator {
	return &Calculator{Catalog: gw}
}

// Quote computes the price breakdown for a cart. Every product must
// resolve; a missing product aborts the whole calculation. A feature
// value that does not resolve contributes zero to its line.
func (c *Calculator) Quote(ctx context.Context, req Request) (*Breakdown, error) {
	if req.ShopID == 0 || len(req.Lines) == 0 {
		return nil, ErrInvalidInput
	}

	if _, err := c.Catalog.GetShop(ctx, req.ShopID); err != nil {
		return nil, err
	}

	sel := DeliverySelection{
		OrderType:        req.OrderType,
		MethodID:         req.DeliveryMethodID,
		LocationMethodID: req.DeliveryLocationMethodID,
	}

	res, err := Resolve(ctx, c.Catalog, req.Lines, sel)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, line := range req.Lines {
		product, ok := res.Products[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, database.ErrProductNotFound)
		}

		itemTotal := FinalUnitPrice(product)
		for _, pick := range line.SelectedFeatures {
			value, ok := res.FeatureValue(pick)
			if !ok {
				slog.Warn("feature value not resolved, pricing without it",
					"feature_id", pick.FeatureID, "value_id", pick.ValueID)
				continue
			}
			itemTotal = itemTotal.Add(value.PriceAddition)
		}

		subtotal = subtotal.Add(itemTotal)
	}

	deliveryCost := res.DeliveryCost(sel)
	discountAmount := subtotal.Mul(req.DiscountPercentage).Div(decimal.NewFromInt(100))
	totalAmount := subtotal.Sub(discountAmount).Add(deliveryCost)

	return &Breakdown{
		Subtotal:           subtotal.Round(2),
		DeliveryCost:       deliveryCost.Round(2),
		DiscountPercentage: req.DiscountPercentage.Round(2),
		DiscountAmount:     discountAmount.Round(2),
		TotalAmount:        totalAmount.Round(2),
	}, nil
}
