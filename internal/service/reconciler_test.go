package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"stocktake-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePriceSource struct {
	price decimal.Decimal
	ok    bool
	calls int
}

func (f *fakePriceSource) FetchAuthoritativePrice(_ context.Context, _ string) (decimal.Decimal, bool) {
	f.calls++
	return f.price, f.ok
}

type fakePriceStore struct {
	casCalls int
	lastID   int64
	lastSet  decimal.Decimal
	result   bool
	err      error
}

func (f *fakePriceStore) UpdateProductPriceCAS(_ context.Context, id int64, price decimal.Decimal, _ decimal.NullDecimal) (bool, error) {
	f.casCalls++
	f.lastID = id
	f.lastSet = price
	return f.result, f.err
}

type fakeLocks struct {
	acquired int
	released int
}

func (f *fakeLocks) AcquireLock(_ context.Context, _, _ string, _ time.Duration) (bool, error) {
	f.acquired++
	return true, nil
}

func (f *fakeLocks) ReleaseLock(_ context.Context, _, _ string) error {
	f.released++
	return nil
}

type fakePricePublisher struct {
	events []*models.PriceUpdatedEvent
}

func (f *fakePricePublisher) PublishPriceUpdated(_ context.Context, event *models.PriceUpdatedEvent) error {
	f.events = append(f.events, event)
	return nil
}

func pricedProduct(id int64, name, price string) *models.Product {
	return &models.Product{
		ID:    id,
		Name:  name,
		Price: decimal.NullDecimal{Decimal: decimal.RequireFromString(price), Valid: true},
	}
}

func TestReconcileNoAuthoritativeData(t *testing.T) {
	st := &fakePriceStore{result: true}
	source := &fakePriceSource{ok: false}
	r := NewPriceReconciler(st, source, &fakeLocks{}, &fakePricePublisher{})

	product := pricedProduct(1, "Red Wine", "89.50")
	price, err := r.Reconcile(context.Background(), product)

	require.NoError(t, err)
	assert.Equal(t, "89.5", price.String())
	assert.Zero(t, st.casCalls, "no data must not trigger a write")
}

func TestReconcileNoDataUnpricedProduct(t *testing.T) {
	st := &fakePriceStore{result: true}
	source := &fakePriceSource{ok: false}
	r := NewPriceReconciler(st, source, &fakeLocks{}, &fakePricePublisher{})

	product := &models.Product{ID: 2, Name: "New Wine"}
	price, err := r.Reconcile(context.Background(), product)

	require.NoError(t, err)
	assert.True(t, price.IsZero())
	assert.Zero(t, st.casCalls)
}

func TestReconcilePriceUnchanged(t *testing.T) {
	st := &fakePriceStore{result: true}
	source := &fakePriceSource{price: decimal.RequireFromString("89.50"), ok: true}
	publisher := &fakePricePublisher{}
	r := NewPriceReconciler(st, source, &fakeLocks{}, publisher)

	product := pricedProduct(3, "Red Wine", "89.50")
	price, err := r.Reconcile(context.Background(), product)

	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("89.50")))
	assert.Zero(t, st.casCalls, "equal price must not trigger a write")
	assert.Empty(t, publisher.events)
}

func TestReconcilePriceDrift(t *testing.T) {
	st := &fakePriceStore{result: true}
	source := &fakePriceSource{price: decimal.RequireFromString("129.90"), ok: true}
	locks := &fakeLocks{}
	publisher := &fakePricePublisher{}
	r := NewPriceReconciler(st, source, locks, publisher)

	product := pricedProduct(4, "Red Wine Reserve 2020", "89.50")
	price, err := r.Reconcile(context.Background(), product)

	require.NoError(t, err)
	assert.Equal(t, "129.9", price.String())
	assert.Equal(t, 1, st.casCalls)
	assert.Equal(t, int64(4), st.lastID)
	assert.Equal(t, "129.9", st.lastSet.String())
	assert.Equal(t, 1, locks.acquired)
	assert.Equal(t, 1, locks.released)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, models.EventTypePriceUpdated, publisher.events[0].EventType)
	assert.Equal(t, "129.9", publisher.events[0].NewPrice.String())
	assert.True(t, publisher.events[0].OldPrice.Valid)
}

func TestReconcileFirstPriceForUnpricedProduct(t *testing.T) {
	st := &fakePriceStore{result: true}
	source := &fakePriceSource{price: decimal.RequireFromString("45"), ok: true}
	r := NewPriceReconciler(st, source, &fakeLocks{}, &fakePricePublisher{})

	product := &models.Product{ID: 5, Name: "New Wine"}
	price, err := r.Reconcile(context.Background(), product)

	require.NoError(t, err)
	assert.Equal(t, "45", price.String())
	assert.Equal(t, 1, st.casCalls)
	assert.True(t, product.Price.Valid, "reconcile should update the in-memory product")
}

func TestReconcileIdempotentWhenExternalUnchanged(t *testing.T) {
	st := &fakePriceStore{result: true}
	source := &fakePriceSource{price: decimal.RequireFromString("129.90"), ok: true}
	r := NewPriceReconciler(st, source, &fakeLocks{}, &fakePricePublisher{})

	product := pricedProduct(6, "Red Wine", "89.50")

	first, err := r.Reconcile(context.Background(), product)
	require.NoError(t, err)

	second, err := r.Reconcile(context.Background(), product)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.Equal(t, 1, st.casCalls, "second call with unchanged external price must not write")
}

func TestReconcileLostRace(t *testing.T) {
	st := &fakePriceStore{result: false}
	source := &fakePriceSource{price: decimal.RequireFromString("100"), ok: true}
	publisher := &fakePricePublisher{}
	r := NewPriceReconciler(st, source, &fakeLocks{}, publisher)

	product := pricedProduct(7, "Red Wine", "89.50")
	price, err := r.Reconcile(context.Background(), product)

	require.NoError(t, err)
	assert.Equal(t, "100", price.String(), "fetched price is still the effective price")
	assert.Empty(t, publisher.events, "a lost write publishes nothing")
}

func TestReconcileStoreFailure(t *testing.T) {
	st := &fakePriceStore{err: errors.New("connection reset")}
	source := &fakePriceSource{price: decimal.RequireFromString("100"), ok: true}
	r := NewPriceReconciler(st, source, &fakeLocks{}, &fakePricePublisher{})

	product := pricedProduct(8, "Red Wine", "89.50")
	_, err := r.Reconcile(context.Background(), product)

	assert.Error(t, err)
}
