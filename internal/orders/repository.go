package orders

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/campushop/campushop/internal/docstore"
	"github.com/campushop/campushop/internal/domain"
)

const (
	ordersPath = "orders"
	salesPath  = "sales"
)

// Repository handles order and sales-ledger persistence.
type Repository interface {
	// Create persists a new order under its id.
	Create(ctx context.Context, o *domain.Order) error

	// ByID retrieves an order. ErrOrderNotFound when absent.
	ByID(ctx context.Context, id string) (*domain.Order, error)

	// UpdateStatus patches only the status field of an order document.
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error

	// All retrieves every stored order keyed by id (admin listing and
	// reminder job).
	All(ctx context.Context) (map[string]domain.Order, error)

	// AppendSale writes one row of the append-only sales ledger.
	AppendSale(ctx context.Context, s *domain.SaleRecord) error

	// Sales retrieves the full ledger keyed by sale id.
	Sales(ctx context.Context) (map[string]domain.SaleRecord, error)
}

// StoreRepository is the document-store implementation of Repository.
type StoreRepository struct {
	store *docstore.Client
}

func NewStoreRepository(store *docstore.Client) *StoreRepository {
	return &StoreRepository{store: store}
}

func (r *StoreRepository) Create(ctx context.Context, o *domain.Order) error {
	return r.store.Put(ctx, orderPath(o.ID), o)
}

func (r *StoreRepository) ByID(ctx context.Context, id string) (*domain.Order, error) {
	var raw map[string]interface{}
	err := r.store.Get(ctx, orderPath(id), &raw)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	var o domain.Order
	if err := decodeDocument(raw, &o); err != nil {
		return nil, errors.Wrapf(err, "orders: decode order %s", id)
	}
	if o.ID == "" {
		o.ID = id
	}
	return &o, nil
}

func (r *StoreRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	return r.store.Patch(ctx, orderPath(id), map[string]interface{}{
		"status": string(status),
	})
}

func (r *StoreRepository) All(ctx context.Context) (map[string]domain.Order, error) {
	var raw map[string]map[string]interface{}
	err := r.store.Get(ctx, ordersPath, &raw)
	if err != nil {
		if docstore.IsNotFound(err) {
			return map[string]domain.Order{}, nil
		}
		return nil, err
	}
	out := make(map[string]domain.Order, len(raw))
	for id, entry := range raw {
		var o domain.Order
		if err := decodeDocument(entry, &o); err != nil {
			return nil, errors.Wrapf(err, "orders: decode order %s", id)
		}
		if o.ID == "" {
			o.ID = id
		}
		out[id] = o
	}
	return out, nil
}

func (r *StoreRepository) AppendSale(ctx context.Context, s *domain.SaleRecord) error {
	return r.store.Put(ctx, fmt.Sprintf("%s/%s", salesPath, s.ID), s)
}

func (r *StoreRepository) Sales(ctx context.Context) (map[string]domain.SaleRecord, error) {
	var raw map[string]map[string]interface{}
	err := r.store.Get(ctx, salesPath, &raw)
	if err != nil {
		if docstore.IsNotFound(err) {
			return map[string]domain.SaleRecord{}, nil
		}
		return nil, err
	}
	out := make(map[string]domain.SaleRecord, len(raw))
	for id, entry := range raw {
		var s domain.SaleRecord
		if err := decodeDocument(entry, &s); err != nil {
			return nil, errors.Wrapf(err, "orders: decode sale %s", id)
		}
		if s.ID == "" {
			s.ID = id
		}
		out[id] = s
	}
	return out, nil
}

func orderPath(id string) string {
	return fmt.Sprintf("%s/%s", ordersPath, id)
}

func decodeDocument(entry interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(entry)
}
