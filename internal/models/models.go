package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Shop struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Product struct {
	ID        int64               `json:"id"`
	ShopID    int64               `json:"shop_id"`
	Name      string              `json:"name"`
	Price     decimal.Decimal     `json:"price"`
	SalePrice decimal.NullDecimal `json:"sale_price"`
	OnSale    bool                `json:"onsale"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type Feature struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type FeatureValue struct {
	ID            int64           `json:"id"`
	FeatureID     int64           `json:"feature_id"`
	Name          string          `json:"name"`
	PriceAddition decimal.Decimal `json:"price_addition"`
}

type DeliveryMethod struct {
	ID            int64           `json:"id"`
	CompanyID     int64           `json:"company_id"`
	Name          string          `json:"name"`
	PriceAddition decimal.Decimal `json:"price_addition"`
}

type DeliveryLocationMethod struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	PriceAddition decimal.Decimal `json:"price_addition"`
}

type Order struct {
	ID                 int64           `json:"id"`
	ShopID             int64           `json:"shop_id"`
	CustomerID         *int64          `json:"customer_id,omitempty"`
	CustomerName       string          `json:"customer_name"`
	CustomerPhone      string          `json:"customer_phone,omitempty"`
	CustomerEmail      string          `json:"customer_email,omitempty"`
	CustomerAddress    string          `json:"customer_address,omitempty"`
	OrderNumber        string          `json:"order_number"`
	OrderType          string          `json:"order_type"`
	PaymentMethod      string          `json:"payment_method"`
	Status             string          `json:"status"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	DeliveryCost       decimal.Decimal `json:"delivery_cost"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Items              []OrderLineItem `json:"products"`
}

// OrderLineItem freezes the catalog state of one cart line at order time.
// Prices are never re-read from the catalog after creation.
type OrderLineItem struct {
	ID             int64               `json:"id"`
	OrderID        int64               `json:"order_id"`
	ProductID      int64               `json:"product_id"`
	ProductName    string              `json:"product_name"`
	UnitPrice      decimal.Decimal     `json:"unit_price"`
	SalePrice      decimal.NullDecimal `json:"sale_price"`
	FinalUnitPrice decimal.Decimal     `json:"final_unit_price"`
	Features       FeatureSelections   `json:"features"`
	FeaturesTotal  decimal.Decimal     `json:"features_total"`
	ItemTotal      decimal.Decimal     `json:"item_total"`
	CreatedAt      time.Time           `json:"created_at"`
}

// FeatureSelection is part of a line item snapshot, not a row of its own.
type FeatureSelection struct {
	FeatureID     int64           `json:"feature_id"`
	FeatureName   string          `json:"feature_name"`
	ValueID       int64           `json:"value_id"`
	ValueName     string          `json:"value_name"`
	PriceAddition decimal.Decimal `json:"price_addition"`
}

// FeatureSelections is stored as a JSONB column on order_line_items.
type FeatureSelections []FeatureSelection

func (fs FeatureSelections) Value() (driver.Value, error) {
	if fs == nil {
		fs = FeatureSelections{}
	}
	raw, err := json.Marshal(fs)
	if err != nil {
		return nil, err
	}
	// string, not []byte: lib/pq would send []byte as bytea
	return string(raw), nil
}

func (fs *FeatureSelections) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*fs = FeatureSelections{}
		return nil
	case []byte:
		return json.Unmarshal(v, fs)
	case string:
		return json.Unmarshal([]byte(v), fs)
	default:
		return fmt.Errorf("scan feature selections: unexpected type %T", src)
	}
}

type DeliveryRecord struct {
	ID                int64           `json:"id"`
	OrderID           int64           `json:"order_id"`
	CompanyID         int64           `json:"company_id"`
	MethodID          int64           `json:"method_id"`
	LocationMethodID  *int64          `json:"location_method_id,omitempty"`
	MethodPrice       decimal.Decimal `json:"method_price"`
	LocationPrice     decimal.Decimal `json:"location_price"`
	TotalDeliveryCost decimal.Decimal `json:"total_delivery_cost"`
	Address           string          `json:"address,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

type StatusEvent struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Status    string    `json:"status"`
	Actor     string    `json:"actor,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	OrderTypeDelivery = "delivery"

	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)
