package catalog

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/campushop/campushop/internal/docstore"
	"github.com/campushop/campushop/internal/domain"
)

const productsPath = "products"

// Repository handles catalog data access against the document store.
type Repository interface {
	// All retrieves the full product set keyed by product id.
	All(ctx context.Context) (map[int64]domain.Product, error)

	// ByID retrieves a single product.
	ByID(ctx context.Context, id int64) (*domain.Product, error)

	// Save writes a whole product document, assigning the next monotonic
	// id when the product has none.
	Save(ctx context.Context, p *domain.Product) error

	// Delete removes a product document.
	Delete(ctx context.Context, id int64) error

	// PatchStocks lands every stock change of a checkout batch in one
	// store write.
	PatchStocks(ctx context.Context, stocks map[int64]int) error

	// SetApproval updates only the approval status of a seller product.
	SetApproval(ctx context.Context, id int64, status string) error
}

// StoreRepository is the document-store implementation of Repository.
type StoreRepository struct {
	store *docstore.Client
}

func NewStoreRepository(store *docstore.Client) *StoreRepository {
	return &StoreRepository{store: store}
}

func (r *StoreRepository) All(ctx context.Context) (map[int64]domain.Product, error) {
	var raw interface{}
	err := r.store.Get(ctx, productsPath, &raw)
	if err != nil {
		if docstore.IsNotFound(err) {
			return map[int64]domain.Product{}, nil
		}
		return nil, err
	}
	return decodeProducts(raw)
}

func (r *StoreRepository) ByID(ctx context.Context, id int64) (*domain.Product, error) {
	var raw map[string]interface{}
	err := r.store.Get(ctx, productPath(id), &raw)
	if err != nil {
		return nil, err
	}
	p, err := decodeProduct(raw)
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		p.ID = id
	}
	return p, nil
}

func (r *StoreRepository) Save(ctx context.Context, p *domain.Product) error {
	if p.ID == 0 {
		all, err := r.All(ctx)
		if err != nil {
			return err
		}
		var max int64
		for id := range all {
			if id > max {
				max = id
			}
		}
		p.ID = max + 1
	}
	return r.store.Put(ctx, productPath(p.ID), p)
}

func (r *StoreRepository) Delete(ctx context.Context, id int64) error {
	return r.store.Delete(ctx, productPath(id))
}

func (r *StoreRepository) PatchStocks(ctx context.Context, stocks map[int64]int) error {
	if len(stocks) == 0 {
		return nil
	}
	fields := make(map[string]interface{}, len(stocks))
	for id, stock := range stocks {
		fields[fmt.Sprintf("%d/stock", id)] = stock
	}
	return r.store.Patch(ctx, productsPath, fields)
}

func (r *StoreRepository) SetApproval(ctx context.Context, id int64, status string) error {
	return r.store.Patch(ctx, productPath(id), map[string]interface{}{
		"approvalStatus": status,
	})
}

func productPath(id int64) string {
	return fmt.Sprintf("%s/%d", productsPath, id)
}

// decodeProducts accepts the two shapes the store serves the product set
// in: a map keyed by id string, or an array with ids as indexes (the store
// compacts small integer-keyed maps into arrays). Anything else is
// rejected at the boundary.
func decodeProducts(raw interface{}) (map[int64]domain.Product, error) {
	out := map[int64]domain.Product{}
	switch v := raw.(type) {
	case map[string]interface{}:
		for key, entry := range v {
			if entry == nil {
				continue
			}
			id, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				return nil, errors.Errorf("catalog: non-numeric product key %q", key)
			}
			p, err := decodeProduct(entry)
			if err != nil {
				return nil, err
			}
			if p.ID == 0 {
				p.ID = id
			}
			out[id] = *p
		}
	case []interface{}:
		for idx, entry := range v {
			if entry == nil {
				continue
			}
			p, err := decodeProduct(entry)
			if err != nil {
				return nil, err
			}
			if p.ID == 0 {
				p.ID = int64(idx)
			}
			out[p.ID] = *p
		}
	default:
		return nil, errors.Errorf("catalog: unexpected product set shape %T", raw)
	}
	return out, nil
}

func decodeProduct(entry interface{}) (*domain.Product, error) {
	var p domain.Product
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &p,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(entry); err != nil {
		return nil, errors.Wrap(err, "catalog: decode product")
	}
	return &p, nil
}

// SortedIDs returns product ids in ascending order, for stable listings.
func SortedIDs(products map[int64]domain.Product) []int64 {
	ids := make([]int64, 0, len(products))
	for id := range products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
