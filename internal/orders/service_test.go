package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushop/campushop/internal/catalog"
	"github.com/campushop/campushop/internal/docstore"
	"github.com/campushop/campushop/internal/docstore/storetest"
	"github.com/campushop/campushop/internal/domain"
)

type fakeSettings struct {
	fee       float64
	threshold float64
}

func (f fakeSettings) DeliveryFee() float64           { return f.fee }
func (f fakeSettings) FreeDeliveryThreshold() float64 { return f.threshold }

type recordingNotifier struct {
	orders []*domain.Order
}

func (n *recordingNotifier) OrderCreated(o *domain.Order) {
	n.orders = append(n.orders, o)
}

type recordingJournal struct {
	begun     []string
	committed []string
}

func (j *recordingJournal) Begin(id string, stocks map[int64]int, orderIDs []string) error {
	j.begun = append(j.begun, id)
	return nil
}

func (j *recordingJournal) MarkCommitted(id string) error {
	j.committed = append(j.committed, id)
	return nil
}

type serviceFixture struct {
	store    *storetest.Server
	svc      *Service
	repo     Repository
	notifier *recordingNotifier
	journal  *recordingJournal
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	store := storetest.New()
	t.Cleanup(store.Close)
	store.Seed("products", map[string]interface{}{
		"1": map[string]interface{}{"id": 1, "name": "Cola", "price": 20.0, "costPrice": 12.0, "stock": 10, "seller": "house", "approvalStatus": "approved"},
		"2": map[string]interface{}{"id": 2, "name": "Chips", "price": 15.0, "costPrice": 9.0, "stock": 3, "seller": "house", "approvalStatus": "approved"},
		"3": map[string]interface{}{"id": 3, "name": "Simit", "price": 10.0, "costPrice": 6.0, "stock": 5, "seller": "ayse", "approvalStatus": "approved"},
		"4": map[string]interface{}{"id": 4, "name": "Borek", "price": 12.0, "costPrice": 7.0, "stock": 8, "seller": "ayse", "approvalStatus": "pending"},
		"5": map[string]interface{}{"id": 5, "name": "Helva", "price": 18.0, "costPrice": 11.0, "stock": 4, "seller": "ayse", "approvalStatus": "rejected"},
	})

	client := docstore.NewClient(store.URL(), "", 5*time.Second)
	cat := catalog.NewStoreRepository(client)
	repo := NewStoreRepository(client)
	notifier := &recordingNotifier{}
	jrnl := &recordingJournal{}
	svc := NewService(cat, repo, fakeSettings{fee: 5, threshold: 150}, notifier, jrnl)
	svc.OverrideNow(func() time.Time {
		return time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
	})
	return &serviceFixture{store: store, svc: svc, repo: repo, notifier: notifier, journal: jrnl}
}

func TestSubmitMultiSellerBatch(t *testing.T) {
	f := newServiceFixture(t)

	receipts, err := f.svc.Submit(context.Background(), []domain.SubOrder{
		{
			Seller:         "house",
			Items:          []domain.CartLine{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}},
			DeliveryMethod: domain.DeliveryDelivery,
			PaymentMethod:  domain.PaymentCash,
			RoomNumber:     "B-204",
		},
		{
			Seller:         "ayse",
			Items:          []domain.CartLine{{ProductID: 3, Quantity: 2}},
			DeliveryMethod: domain.DeliveryPickup,
			PaymentMethod:  domain.PaymentIban,
		},
	})
	require.NoError(t, err)
	require.Len(t, receipts, 2)

	// Every stock change of the batch lands in exactly one store write.
	assert.Equal(t, 1, f.store.WriteCount["products"])

	var stock1, stock2, stock3 int
	require.True(t, f.store.ValueJSON("products/1/stock", &stock1))
	require.True(t, f.store.ValueJSON("products/2/stock", &stock2))
	require.True(t, f.store.ValueJSON("products/3/stock", &stock3))
	assert.Equal(t, 8, stock1)
	assert.Equal(t, 2, stock2)
	assert.Equal(t, 3, stock3)

	// House sub-order: subtotal 55 < threshold, delivery fee applies.
	house, err := f.repo.ByID(context.Background(), receipts[0].OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, house.Status)
	assert.Equal(t, "house", house.Seller)
	assert.Equal(t, 60.0, house.Total)
	assert.Equal(t, 27.0, house.Profit) // 2*(20-12) + (15-9) + fee 5
	assert.Equal(t, "2x Cola, 1x Chips", house.ItemsSummary)
	assert.Equal(t, "09 Mar 2024 14:30", house.Date)
	assert.Equal(t, "B-204", house.RoomNumber)

	// Third-party pickup sub-order: no fee ever.
	seller, err := f.repo.ByID(context.Background(), receipts[1].OrderID)
	require.NoError(t, err)
	assert.Equal(t, "ayse", seller.Seller)
	assert.Equal(t, 20.0, seller.Total)

	// One notification per sub-order, journal bracketed the writes.
	assert.Len(t, f.notifier.orders, 2)
	assert.Equal(t, []string{receipts[0].OrderID}, f.journal.begun)
	assert.Equal(t, []string{receipts[0].OrderID}, f.journal.committed)
}

func TestSubmitFeeWaivedAtThreshold(t *testing.T) {
	f := newServiceFixture(t)

	receipts, err := f.svc.Submit(context.Background(), []domain.SubOrder{{
		Seller:         "house",
		Items:          []domain.CartLine{{ProductID: 1, Quantity: 8}}, // subtotal 160
		DeliveryMethod: domain.DeliveryDelivery,
		PaymentMethod:  domain.PaymentCash,
		RoomNumber:     "A-101",
	}})
	require.NoError(t, err)
	assert.Equal(t, 160.0, receipts[0].Total)
}

func TestSubmitValidationFailureWritesNothing(t *testing.T) {
	f := newServiceFixture(t)

	cases := []domain.SubOrder{
		{DeliveryMethod: "drone", PaymentMethod: domain.PaymentCash},
		{DeliveryMethod: domain.DeliveryPickup, PaymentMethod: "gold"},
		{DeliveryMethod: domain.DeliveryDelivery, PaymentMethod: domain.PaymentCash}, // no room number
		{DeliveryMethod: domain.DeliveryPickup, PaymentMethod: domain.PaymentCash,
			Items: []domain.CartLine{{ProductID: 1, Quantity: 0}}},
	}
	for _, sub := range cases {
		_, err := f.svc.Submit(context.Background(), []domain.SubOrder{sub})
		require.True(t, IsValidation(err), "expected validation error, got %v", err)
	}

	_, err := f.svc.Submit(context.Background(), nil)
	assert.True(t, IsValidation(err))

	assert.Zero(t, f.store.WriteCount["products"])
	assert.Zero(t, f.store.WriteCount["orders"])
}

func TestSubmitOutOfStockWritesNothing(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Submit(context.Background(), []domain.SubOrder{{
		Seller:         "house",
		Items:          []domain.CartLine{{ProductID: 2, Quantity: 4}},
		DeliveryMethod: domain.DeliveryPickup,
		PaymentMethod:  domain.PaymentCash,
	}})
	require.True(t, IsOutOfStock(err))
	assert.Zero(t, f.store.WriteCount["products"])
	assert.Zero(t, f.store.WriteCount["orders"])
	assert.Empty(t, f.notifier.orders)
}

func TestSubmitSkipsEmptySubOrders(t *testing.T) {
	f := newServiceFixture(t)

	// A batch of nothing but empty sub-orders writes nothing: no order
	// document, no delivery fee, no notification.
	receipts, err := f.svc.Submit(context.Background(), []domain.SubOrder{{
		Seller:         "house",
		DeliveryMethod: domain.DeliveryDelivery,
		PaymentMethod:  domain.PaymentCash,
		RoomNumber:     "B-204",
	}})
	require.NoError(t, err)
	assert.Empty(t, receipts)
	assert.Zero(t, f.store.WriteCount["products"])
	assert.Zero(t, f.store.WriteCount["orders"])
	assert.Empty(t, f.notifier.orders)
	assert.Empty(t, f.journal.begun)

	// In a mixed batch only the non-empty sub-order lands.
	receipts, err = f.svc.Submit(context.Background(), []domain.SubOrder{
		{
			Seller:         "house",
			DeliveryMethod: domain.DeliveryDelivery,
			PaymentMethod:  domain.PaymentCash,
			RoomNumber:     "B-204",
		},
		{
			Seller:         "house",
			Items:          []domain.CartLine{{ProductID: 1, Quantity: 1}},
			DeliveryMethod: domain.DeliveryPickup,
			PaymentMethod:  domain.PaymentCash,
		},
	})
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, 20.0, receipts[0].Total)
	assert.Equal(t, 1, f.store.WriteCount["orders"])
	assert.Len(t, f.notifier.orders, 1)
}

func TestSubmitRejectsUnapprovedProducts(t *testing.T) {
	f := newServiceFixture(t)

	// Pending and rejected seller products are off the storefront; ordering
	// one by id fails the same way an unknown product does.
	for _, productID := range []int64{4, 5} {
		_, err := f.svc.Submit(context.Background(), []domain.SubOrder{{
			Seller:         "ayse",
			Items:          []domain.CartLine{{ProductID: productID, Quantity: 1}},
			DeliveryMethod: domain.DeliveryPickup,
			PaymentMethod:  domain.PaymentCash,
		}})
		require.True(t, IsOutOfStock(err), "product %d should not be orderable, got %v", productID, err)
		var oos *OutOfStockError
		require.ErrorAs(t, err, &oos)
		assert.Equal(t, productID, oos.ProductID)
	}
	assert.Zero(t, f.store.WriteCount["products"])
	assert.Zero(t, f.store.WriteCount["orders"])
	assert.Empty(t, f.notifier.orders)
}

func TestSubmitStockWriteFailureAbortsBatch(t *testing.T) {
	f := newServiceFixture(t)
	f.store.FailNext = true

	_, err := f.svc.Submit(context.Background(), []domain.SubOrder{{
		Seller:         "house",
		Items:          []domain.CartLine{{ProductID: 1, Quantity: 1}},
		DeliveryMethod: domain.DeliveryPickup,
		PaymentMethod:  domain.PaymentCash,
	}})
	require.Error(t, err)
	assert.False(t, IsValidation(err))
	assert.False(t, IsOutOfStock(err))
	assert.Zero(t, f.store.WriteCount["orders"])
	assert.Empty(t, f.notifier.orders)
	assert.Empty(t, f.journal.committed)
}
