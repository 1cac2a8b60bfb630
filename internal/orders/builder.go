package orders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/safar/shop-orders/internal/catalog"
	"github.com/safar/shop-orders/internal/models"
	"github.com/safar/shop-orders/internal/pricing"
	"github.com/shopspring/decimal"
)

// Submission is the full order payload. The pre-computed totals come
// from an earlier pricing preview and are written on the header as
// submitted; line items are always re-priced server-side.
type Submission struct {
	ShopID                   int64
	CustomerID               *int64
	CustomerName             string
	CustomerPhone            string
	CustomerEmail            string
	CustomerAddress          string
	OrderType                string
	PaymentMethod            string
	Subtotal                 decimal.NullDecimal
	DeliveryCost             decimal.Decimal
	DiscountPercentage       decimal.Decimal
	TotalAmount              decimal.NullDecimal
	DeliveryCompanyID        *int64
	DeliveryMethodID         *int64
	DeliveryLocationMethodID *int64
	DeliveryNotes            string
	Lines                    []pricing.LineSelection
}

// Store is the persistence gateway the builder writes through. Each
// insert stands alone; there is no cross-entity transaction.
type Store interface {
	InsertOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	InsertLineItem(ctx context.Context, item *models.OrderLineItem) (*models.OrderLineItem, error)
	InsertDeliveryRecord(ctx context.Context, record *models.DeliveryRecord) (*models.DeliveryRecord, error)
	InsertStatusEvent(ctx context.Context, event *models.StatusEvent) (*models.StatusEvent, error)
}

// CommitResult describes what actually committed. The commit sequence is
// best-effort: once the header is written nothing is rolled back, so
// Items may be shorter than the submitted cart and the delivery/status
// flags may be false.
type CommitResult struct {
	Header          *models.Order
	Items           []models.OrderLineItem
	DeliveryCreated bool
	StatusRecorded  bool
}

type Builder struct {
	Catalog catalog.Gateway
	Store   Store
}

func NewBuilder(gw catalog.Gateway, st Store) *Builder {
	return &Builder{Catalog: gw, Store: st}
}

func (s Submission) missingFields() []string {
	var missing []string
	if s.ShopID == 0 {
		missing = append(missing, "shop_id")
	}
	if s.CustomerName == "" {
		missing = append(missing, "customer_name")
	}
	if s.OrderType == "" {
		missing = append(missing, "order_type")
	}
	if s.PaymentMethod == "" {
		missing = append(missing, "payment_method")
	}
	if len(s.Lines) == 0 {
		missing = append(missing, "products")
	}
	if !s.Subtotal.Valid {
		missing = append(missing, "subtotal")
	}
	if !s.TotalAmount.Valid {
		missing = append(missing, "total_amount")
	}
	return missing
}

// Create validates the submission, writes the order header and then
// commits the dependent entities one by one. The header insert is the
// only hard failure after validation; every later step is logged and
// swallowed on error, and nothing already written is retracted.
func (b *Builder) Create(ctx context.Context, sub Submission) (*CommitResult, error) {
	if missing := sub.missingFields(); len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	if _, err := b.Catalog.GetShop(ctx, sub.ShopID); err != nil {
		return nil, err
	}

	header, err := b.Store.InsertOrder(ctx, &models.Order{
		ShopID:             sub.ShopID,
		CustomerID:         sub.CustomerID,
		CustomerName:       sub.CustomerName,
		CustomerPhone:      sub.CustomerPhone,
		CustomerEmail:      sub.CustomerEmail,
		CustomerAddress:    sub.CustomerAddress,
		OrderNumber:        generateOrderNumber(),
		OrderType:          sub.OrderType,
		PaymentMethod:      sub.PaymentMethod,
		Status:             models.OrderStatusPending,
		Subtotal:           sub.Subtotal.Decimal.Round(2),
		DeliveryCost:       sub.DeliveryCost.Round(2),
		DiscountPercentage: sub.DiscountPercentage,
		TotalAmount:        sub.TotalAmount.Decimal.Round(2),
	})
	if err != nil {
		return nil, err
	}

	result := &CommitResult{Header: header}

	sel := pricing.DeliverySelection{
		OrderType:        sub.OrderType,
		CompanyID:        sub.DeliveryCompanyID,
		MethodID:         sub.DeliveryMethodID,
		LocationMethodID: sub.DeliveryLocationMethodID,
	}

	res, err := pricing.Resolve(ctx, b.Catalog, sub.Lines, sel)
	if err != nil {
		// The header is already committed; without catalog data no line
		// item can be built, so the order stays empty.
		slog.Error("catalog resolution failed after header insert",
			"order_id", header.ID, "error", err)
		res = &pricing.Resolution{}
	}

	b.commitLineItems(ctx, header.ID, sub.Lines, res, result)
	b.commitDeliveryRecord(ctx, header, sub, sel, res, result)
	b.recordCreation(ctx, header.ID, result)

	// A soft-failed step is invisible to the caller, but an expired
	// deadline is not: everything committed so far stays in place and
	// the request itself fails hard.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("order %s: commit interrupted: %w", header.OrderNumber, err)
	}

	header.Items = result.Items
	if header.Items == nil {
		header.Items = []models.OrderLineItem{}
	}
	return result, nil
}

// commitLineItems re-prices each submitted line from the catalog and
// inserts the frozen snapshot. A line whose product did not resolve is
// dropped; a feature that did not resolve is omitted from the snapshot.
func (b *Builder) commitLineItems(ctx context.Context, orderID int64, lines []pricing.LineSelection, res *pricing.Resolution, result *CommitResult) {
	for _, line := range lines {
		product, ok := res.Products[line.ProductID]
		if !ok {
			slog.Warn("product not resolved, dropping line item",
				"order_id", orderID, "product_id", line.ProductID)
			continue
		}

		finalUnit := pricing.FinalUnitPrice(product)
		featuresTotal := decimal.Zero
		selections := models.FeatureSelections{}

		for _, pick := range line.SelectedFeatures {
			value, ok := res.FeatureValue(pick)
			if !ok {
				slog.Warn("feature value not resolved, dropping from snapshot",
					"order_id", orderID, "feature_id", pick.FeatureID, "value_id", pick.ValueID)
				continue
			}
			featureName := res.Features[pick.FeatureID].Name
			selections = append(selections, models.FeatureSelection{
				FeatureID:     pick.FeatureID,
				FeatureName:   featureName,
				ValueID:       value.ID,
				ValueName:     value.Name,
				PriceAddition: value.PriceAddition.Round(2),
			})
			featuresTotal = featuresTotal.Add(value.PriceAddition)
		}

		created, err := b.Store.InsertLineItem(ctx, &models.OrderLineItem{
			OrderID:        orderID,
			ProductID:      product.ID,
			ProductName:    product.Name,
			UnitPrice:      product.Price.Round(2),
			SalePrice:      product.SalePrice,
			FinalUnitPrice: finalUnit.Round(2),
			Features:       selections,
			FeaturesTotal:  featuresTotal.Round(2),
			ItemTotal:      finalUnit.Add(featuresTotal).Round(2),
		})
		if err != nil {
			slog.Error("line item insert failed, dropping",
				"order_id", orderID, "product_id", line.ProductID, "error", err)
			continue
		}

		result.Items = append(result.Items, *created)
	}
}

func (b *Builder) commitDeliveryRecord(ctx context.Context, header *models.Order, sub Submission, sel pricing.DeliverySelection, res *pricing.Resolution, result *CommitResult) {
	if sub.OrderType != models.OrderTypeDelivery ||
		sub.DeliveryCompanyID == nil || sub.DeliveryMethodID == nil {
		return
	}

	methodPrice := decimal.Zero
	if res.DeliveryMethod != nil {
		methodPrice = res.DeliveryMethod.PriceAddition
	}
	locationPrice := decimal.Zero
	if res.LocationMethod != nil {
		locationPrice = res.LocationMethod.PriceAddition
	}

	_, err := b.Store.InsertDeliveryRecord(ctx, &models.DeliveryRecord{
		OrderID:           header.ID,
		CompanyID:         *sub.DeliveryCompanyID,
		MethodID:          *sub.DeliveryMethodID,
		LocationMethodID:  sub.DeliveryLocationMethodID,
		MethodPrice:       methodPrice.Round(2),
		LocationPrice:     locationPrice.Round(2),
		TotalDeliveryCost: methodPrice.Add(locationPrice).Round(2),
		Address:           sub.CustomerAddress,
		Notes:             sub.DeliveryNotes,
	})
	if err != nil {
		slog.Error("delivery record insert failed",
			"order_id", header.ID, "error", err)
		return
	}

	result.DeliveryCreated = true
}

func (b *Builder) recordCreation(ctx context.Context, orderID int64, result *CommitResult) {
	_, err := b.Store.InsertStatusEvent(ctx, &models.StatusEvent{
		OrderID: orderID,
		Status:  models.OrderStatusPending,
		Actor:   "system",
		Notes:   "Order created",
	})
	if err != nil {
		slog.Error("status event insert failed",
			"order_id", orderID, "error", err)
		return
	}

	result.StatusRecorded = true
}
