package orders

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/campushop/campushop/internal/domain"
)

// Action is an approval decision on a pending order.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ParseAction validates an action string from either channel.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionApprove, ActionReject:
		return Action(s), true
	default:
		return "", false
	}
}

// Outcome is the result of an approval action. Already is set when the
// order had left pending before this call; callers treat that as a soft
// success, which is the defense against stale button presses and retries.
type Outcome struct {
	Order   *domain.Order
	Already bool
}

// Resolve applies approve/reject to one order. Both entry points, the
// admin API and the bot callback, funnel into this and nothing else.
//
// The status read and the status write are separate store calls; two truly
// simultaneous resolutions can both observe pending, in which case the
// last status write wins. The re-check below makes the common duplicate
// (delayed re-click, network retry) safe; closing the race fully would
// need a conditional write the store does not offer.
func (s *Service) Resolve(ctx context.Context, orderID string, action Action, channel string) (*Outcome, error) {
	o, err := s.repo.ByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var next domain.OrderStatus
	switch action {
	case ActionApprove:
		next = domain.OrderApproved
	case ActionReject:
		next = domain.OrderRejected
	default:
		return nil, &ValidationError{Reason: "unknown action " + string(action)}
	}
	if !domain.CanTransition(o.Status, next) {
		return &Outcome{Order: o, Already: true}, nil
	}

	switch next {
	case domain.OrderApproved:
		if err := s.commitSale(ctx, o, channel); err != nil {
			return nil, err
		}
	case domain.OrderRejected:
		if err := s.restoreStock(ctx, o); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateStatus(ctx, orderID, next); err != nil {
		return nil, errors.Wrapf(err, "update status of %s", orderID)
	}
	o.Status = next
	zap.L().Info("order resolved",
		zap.String("order_id", orderID),
		zap.String("action", string(action)),
		zap.String("channel", channel))
	return &Outcome{Order: o}, nil
}

// commitSale appends the ledger row for an approved order. Stock was
// deducted at submission time; approval changes no inventory.
func (s *Service) commitSale(ctx context.Context, o *domain.Order, channel string) error {
	sale := &domain.SaleRecord{
		ID:           o.ID,
		Date:         o.Date,
		ItemsSummary: o.ItemsSummary,
		Total:        o.Total,
		Profit:       o.Profit,
		Method:       channel,
	}
	return errors.Wrapf(s.repo.AppendSale(ctx, sale), "append sale %s", o.ID)
}

// restoreStock adds every snapshot quantity back onto the current stock,
// read-modify-write over the product set, landed in one patch.
func (s *Service) restoreStock(ctx context.Context, o *domain.Order) error {
	products, err := s.catalog.All(ctx)
	if err != nil {
		return errors.Wrap(err, "load products for restore")
	}
	restored := map[int64]int{}
	for _, it := range o.Items {
		p, ok := products[it.ProductID]
		if !ok {
			// product deleted since ordering; nothing to restore onto
			zap.L().Warn("orders: restore target missing",
				zap.Int64("product_id", it.ProductID), zap.String("order_id", o.ID))
			continue
		}
		stock := p.Stock
		if prev, seen := restored[it.ProductID]; seen {
			stock = prev
		}
		restored[it.ProductID] = stock + it.Quantity
	}
	return errors.Wrapf(s.catalog.PatchStocks(ctx, restored), "restore stock for %s", o.ID)
}
