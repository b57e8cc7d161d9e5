package catalog_test

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

func newRepo(t *testing.T) (catalog.Repository, *storetest.Server) {
	t.Helper()
	store := storetest.New()
	t.Cleanup(store.Close)
	client := docstore.NewClient(store.URL(), "", 5*time.Second)
	return catalog.NewStoreRepository(client), store
}

func TestAllDecodesMapShape(t *testing.T) {
	repo, store := newRepo(t)
	store.Seed("products", map[string]interface{}{
		"1": map[string]interface{}{"id": 1, "name": "Cola", "price": 20.0, "stock": 10},
		"7": map[string]interface{}{"name": "Chips", "price": 15.0, "stock": 3},
	})

	all, err := repo.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Cola", all[1].Name)
	// id backfilled from the document key
	assert.Equal(t, int64(7), all[7].ID)
}

func TestAllDecodesArrayShape(t *testing.T) {
	// small integer-keyed sets come back as arrays with null holes
	repo, store := newRepo(t)
	store.Seed("products", []interface{}{
		nil,
		map[string]interface{}{"name": "Cola", "price": 20.0, "stock": 10},
		map[string]interface{}{"name": "Chips", "price": 15.0, "stock": 3},
	})

	all, err := repo.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Cola", all[1].Name)
	assert.Equal(t, "Chips", all[2].Name)
}

func TestAllEmptyCatalog(t *testing.T) {
	repo, _ := newRepo(t)
	all, err := repo.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSaveAssignsNextID(t *testing.T) {
	repo, store := newRepo(t)
	store.Seed("products", map[string]interface{}{
		"3": map[string]interface{}{"id": 3, "name": "Cola", "stock": 1},
	})

	p := &domain.Product{Name: "Ayran", Price: 8, Stock: 12}
	require.NoError(t, repo.Save(context.Background(), p))
	assert.Equal(t, int64(4), p.ID)

	var name string
	require.True(t, store.ValueJSON("products/4/name", &name))
	assert.Equal(t, "Ayran", name)
}

func TestPatchStocksSingleWrite(t *testing.T) {
	repo, store := newRepo(t)
	store.Seed("products", map[string]interface{}{
		"1": map[string]interface{}{"id": 1, "name": "Cola", "price": 20.0, "stock": 10},
		"2": map[string]interface{}{"id": 2, "name": "Chips", "price": 15.0, "stock": 3},
	})

	err := repo.PatchStocks(context.Background(), map[int64]int{1: 8, 2: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, store.WriteCount["products"])

	var stock int
	require.True(t, store.ValueJSON("products/1/stock", &stock))
	assert.Equal(t, 8, stock)
	require.True(t, store.ValueJSON("products/2/stock", &stock))
	assert.Equal(t, 0, stock)

	// prices untouched
	var price float64
	require.True(t, store.ValueJSON("products/1/price", &price))
	assert.Equal(t, 20.0, price)

	// empty batch never talks to the store
	require.NoError(t, repo.PatchStocks(context.Background(), nil))
	assert.Equal(t, 1, store.WriteCount["products"])
}

func TestSetApprovalPatchesOnlyStatus(t *testing.T) {
	repo, store := newRepo(t)
	store.Seed("products/2", map[string]interface{}{"id": 2, "name": "Simit", "stock": 5, "approvalStatus": "pending"})

	require.NoError(t, repo.SetApproval(context.Background(), 2, domain.ProductApproved))

	var status string
	require.True(t, store.ValueJSON("products/2/approvalStatus", &status))
	assert.Equal(t, domain.ProductApproved, status)
	var stock int
	require.True(t, store.ValueJSON("products/2/stock", &stock))
	assert.Equal(t, 5, stock)
}

func TestSortedIDs(t *testing.T) {
	ids := catalog.SortedIDs(map[int64]domain.Product{9: {}, 1: {}, 4: {}})
	assert.Equal(t, []int64{1, 4, 9}, ids)
}
