package orders

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/safar/shop-orders/internal/catalog/catalogtest"
	"github.com/safar/shop-orders/internal/database"
	"github.com/safar/shop-orders/internal/models"
	"github.com/safar/shop-orders/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

// fakeStore records every insert and can be told to fail specific steps.
type fakeStore struct {
	nextID int64

	orders   []models.Order
	items    []models.OrderLineItem
	delivery []models.DeliveryRecord
	events   []models.StatusEvent

	failHeader      bool
	failItemFor     map[int64]bool
	failDelivery    bool
	failStatusEvent bool

	// invoked after a successful header insert, before any dependent write
	afterHeader func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{failItemFor: map[int64]bool{}}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) InsertOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.failHeader {
		return nil, errors.New("insert order: connection reset")
	}
	created := *order
	created.ID = f.id()
	f.orders = append(f.orders, created)
	if f.afterHeader != nil {
		f.afterHeader()
	}
	return &created, nil
}

func (f *fakeStore) InsertLineItem(ctx context.Context, item *models.OrderLineItem) (*models.OrderLineItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.failItemFor[item.ProductID] {
		return nil, errors.New("insert line item: connection reset")
	}
	created := *item
	created.ID = f.id()
	f.items = append(f.items, created)
	return &created, nil
}

func (f *fakeStore) InsertDeliveryRecord(ctx context.Context, record *models.DeliveryRecord) (*models.DeliveryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.failDelivery {
		return nil, errors.New("insert delivery record: connection reset")
	}
	created := *record
	created.ID = f.id()
	f.delivery = append(f.delivery, created)
	return &created, nil
}

func (f *fakeStore) InsertStatusEvent(ctx context.Context, event *models.StatusEvent) (*models.StatusEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.failStatusEvent {
		return nil, errors.New("insert status event: connection reset")
	}
	created := *event
	created.ID = f.id()
	f.events = append(f.events, created)
	return &created, nil
}

func testGateway() *catalogtest.Fake {
	return &catalogtest.Fake{
		Shops: map[int64]models.Shop{
			1: {ID: 1, Name: "Flower Shop"},
		},
		Products: map[int64]models.Product{
			10: {ID: 10, ShopID: 1, Name: "Product A", Price: dec("10")},
			11: {ID: 11, ShopID: 1, Name: "Product B", Price: dec("15")},
			12: {ID: 12, ShopID: 1, Name: "On Sale", Price: dec("20"), SalePrice: nullDec("8"), OnSale: true},
		},
		Features: map[int64]models.Feature{
			100: {ID: 100, Name: "Size"},
		},
		Values: map[int64]models.FeatureValue{
			200: {ID: 200, FeatureID: 100, Name: "Large", PriceAddition: dec("2")},
		},
		DeliveryMethods: map[int64]models.DeliveryMethod{
			300: {ID: 300, CompanyID: 5, Name: "Courier", PriceAddition: dec("5")},
		},
		LocationMethods: map[int64]models.DeliveryLocationMethod{
			400: {ID: 400, Name: "Uptown", PriceAddition: dec("3")},
		},
	}
}

func deliverySubmission() Submission {
	companyID := int64(5)
	methodID := int64(300)
	return Submission{
		ShopID:             1,
		CustomerName:       "Aziza Karimova",
		CustomerPhone:      "+998901234567",
		CustomerAddress:    "12 Navoi Street",
		OrderType:          models.OrderTypeDelivery,
		PaymentMethod:      "cash",
		Subtotal:           nullDec("27"),
		DeliveryCost:       dec("5"),
		DiscountPercentage: dec("10"),
		TotalAmount:        nullDec("29.30"),
		DeliveryCompanyID:  &companyID,
		DeliveryMethodID:   &methodID,
		Lines: []pricing.LineSelection{
			{ProductID: 10, SelectedFeatures: []pricing.FeaturePick{{FeatureID: 100, ValueID: 200}}},
			{ProductID: 11},
		},
	}
}

func TestCreateValidationCollectsAllMissingFields(t *testing.T) {
	st := newFakeStore()
	builder := NewBuilder(testGateway(), st)

	_, err := builder.Create(context.Background(), Submission{})

	var missingErr *MissingFieldsError
	require.ErrorAs(t, err, &missingErr)
	assert.ElementsMatch(t, []string{
		"shop_id", "customer_name", "order_type", "payment_method",
		"products", "subtotal", "total_amount",
	}, missingErr.Fields)
	assert.Empty(t, st.orders, "validation failure must not write")
}

func TestCreateShopNotFound(t *testing.T) {
	st := newFakeStore()
	builder := NewBuilder(testGateway(), st)

	sub := deliverySubmission()
	sub.ShopID = 999

	_, err := builder.Create(context.Background(), sub)
	assert.ErrorIs(t, err, database.ErrShopNotFound)
	assert.Empty(t, st.orders)
	assert.Empty(t, st.items)
}

func TestCreateDeliveryOrder(t *testing.T) {
	st := newFakeStore()
	builder := NewBuilder(testGateway(), st)

	result, err := builder.Create(context.Background(), deliverySubmission())
	require.NoError(t, err)

	header := result.Header
	assert.Equal(t, models.OrderStatusPending, header.Status)
	assert.NotEmpty(t, header.OrderNumber)
	assert.True(t, header.Subtotal.Equal(dec("27")))
	assert.True(t, header.TotalAmount.Equal(dec("29.30")))

	require.Len(t, result.Items, 2)

	itemA := result.Items[0]
	assert.Equal(t, "Product A", itemA.ProductName)
	assert.True(t, itemA.FinalUnitPrice.Equal(dec("10")))
	assert.True(t, itemA.FeaturesTotal.Equal(dec("2")))
	assert.True(t, itemA.ItemTotal.Equal(dec("12")))
	require.Len(t, itemA.Features, 1)
	assert.Equal(t, "Size", itemA.Features[0].FeatureName)
	assert.Equal(t, "Large", itemA.Features[0].ValueName)

	itemB := result.Items[1]
	assert.True(t, itemB.ItemTotal.Equal(dec("15")))
	assert.Empty(t, itemB.Features)

	// subtotal over committed items
	sum := decimal.Zero
	for _, item := range result.Items {
		assert.True(t, item.ItemTotal.Equal(item.FinalUnitPrice.Add(item.FeaturesTotal)))
		sum = sum.Add(item.ItemTotal)
	}
	assert.True(t, sum.Equal(dec("27")))

	assert.True(t, result.DeliveryCreated)
	require.Len(t, st.delivery, 1)
	record := st.delivery[0]
	assert.Equal(t, header.ID, record.OrderID)
	assert.True(t, record.MethodPrice.Equal(dec("5")))
	assert.True(t, record.TotalDeliveryCost.Equal(dec("5")))
	assert.Equal(t, "12 Navoi Street", record.Address)

	assert.True(t, result.StatusRecorded)
	require.Len(t, st.events, 1)
	assert.Equal(t, models.OrderStatusPending, st.events[0].Status)
	assert.Equal(t, "Order created", st.events[0].Notes)
}

func TestCreateSkipsUnresolvedProduct(t *testing.T) {
	gw := testGateway()
	delete(gw.Products, 11)
	st := newFakeStore()
	builder := NewBuilder(gw, st)

	result, err := builder.Create(context.Background(), deliverySubmission())
	require.NoError(t, err, "a missing product at commit time is not an error")

	require.Len(t, result.Items, 1)
	assert.Equal(t, int64(10), result.Items[0].ProductID)

	// header keeps the client-submitted totals unchanged
	assert.True(t, result.Header.Subtotal.Equal(dec("27")))
	assert.True(t, result.Header.TotalAmount.Equal(dec("29.30")))
}

func TestCreateDropsUnresolvedFeatureFromSnapshot(t *testing.T) {
	gw := testGateway()
	delete(gw.Values, 200)
	st := newFakeStore()
	builder := NewBuilder(gw, st)

	result, err := builder.Create(context.Background(), deliverySubmission())
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	itemA := result.Items[0]
	assert.Empty(t, itemA.Features, "unresolved feature is omitted, not zeroed and kept")
	assert.True(t, itemA.FeaturesTotal.IsZero())
	assert.True(t, itemA.ItemTotal.Equal(dec("10")))
}

func TestCreateHeaderInsertFailureAborts(t *testing.T) {
	st := newFakeStore()
	st.failHeader = true
	builder := NewBuilder(testGateway(), st)

	_, err := builder.Create(context.Background(), deliverySubmission())
	require.Error(t, err)
	assert.Empty(t, st.items)
	assert.Empty(t, st.delivery)
	assert.Empty(t, st.events)
}

func TestCreateLineItemInsertFailureIsIsolated(t *testing.T) {
	st := newFakeStore()
	st.failItemFor[10] = true
	builder := NewBuilder(testGateway(), st)

	result, err := builder.Create(context.Background(), deliverySubmission())
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.Equal(t, int64(11), result.Items[0].ProductID)
	require.Len(t, st.orders, 1, "header stays committed")
}

func TestCreateContextExpiryAfterHeaderFailsHard(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := newFakeStore()
	st.afterHeader = cancel
	builder := NewBuilder(testGateway(), st)

	result, err := builder.Create(ctx, deliverySubmission())
	require.Error(t, err, "a dead context is not a skippable step")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)

	// the committed header is not rolled back; the dependent writes never landed
	require.Len(t, st.orders, 1)
	assert.Empty(t, st.items)
	assert.Empty(t, st.delivery)
	assert.Empty(t, st.events)
}

func TestCreateAllLinesDroppedStillReturnsProductsArray(t *testing.T) {
	gw := testGateway()
	delete(gw.Products, 10)
	delete(gw.Products, 11)
	st := newFakeStore()
	builder := NewBuilder(gw, st)

	result, err := builder.Create(context.Background(), deliverySubmission())
	require.NoError(t, err)

	require.NotNil(t, result.Header.Items)
	assert.Empty(t, result.Header.Items)

	body, err := json.Marshal(result.Header)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"products":[]`)
}

func TestCreateNonDeliveryNeverCreatesDeliveryRecord(t *testing.T) {
	st := newFakeStore()
	builder := NewBuilder(testGateway(), st)

	sub := deliverySubmission()
	sub.OrderType = "pickup"

	result, err := builder.Create(context.Background(), sub)
	require.NoError(t, err)
	assert.False(t, result.DeliveryCreated)
	assert.Empty(t, st.delivery)
}

func TestCreateDeliveryRecordNeedsCompanyAndMethod(t *testing.T) {
	st := newFakeStore()
	builder := NewBuilder(testGateway(), st)

	sub := deliverySubmission()
	sub.DeliveryCompanyID = nil

	result, err := builder.Create(context.Background(), sub)
	require.NoError(t, err)
	assert.False(t, result.DeliveryCreated)
	assert.Empty(t, st.delivery)
}

func TestCreateDeliveryInsertFailureIsSwallowed(t *testing.T) {
	st := newFakeStore()
	st.failDelivery = true
	builder := NewBuilder(testGateway(), st)

	result, err := builder.Create(context.Background(), deliverySubmission())
	require.NoError(t, err)
	assert.False(t, result.DeliveryCreated)
	assert.Len(t, result.Items, 2, "line items unaffected")
	assert.True(t, result.StatusRecorded, "status event still attempted")
}

func TestCreateStatusEventFailureIsSwallowed(t *testing.T) {
	st := newFakeStore()
	st.failStatusEvent = true
	builder := NewBuilder(testGateway(), st)

	result, err := builder.Create(context.Background(), deliverySubmission())
	require.NoError(t, err)
	assert.False(t, result.StatusRecorded)
	assert.Len(t, result.Items, 2)
}

func TestCreateNotIdempotent(t *testing.T) {
	st := newFakeStore()
	builder := NewBuilder(testGateway(), st)

	first, err := builder.Create(context.Background(), deliverySubmission())
	require.NoError(t, err)
	second, err := builder.Create(context.Background(), deliverySubmission())
	require.NoError(t, err)

	assert.NotEqual(t, first.Header.ID, second.Header.ID)
	assert.NotEqual(t, first.Header.OrderNumber, second.Header.OrderNumber)
	assert.Len(t, st.orders, 2)
}

func TestGenerateOrderNumberShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := generateOrderNumber()
		assert.Regexp(t, `^ORD-\d+-[0-9A-F]{8}$`, n)
		assert.False(t, seen[n], "duplicate order number %s", n)
		seen[n] = true
	}
}
