package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/campushop/campushop/internal/catalog"
	"github.com/campushop/campushop/internal/domain"
)

// Settings exposes the runtime-tunable checkout knobs kept in the store's
// settings document.
type Settings interface {
	DeliveryFee() float64
	FreeDeliveryThreshold() float64
}

// Notifier dispatches the interactive new-order alert for one sub-order.
// Implementations must not block the checkout path; failures are theirs to
// log, a lost notification never fails an order.
type Notifier interface {
	OrderCreated(o *domain.Order)
}

// ReservationJournal records a reservation intent before the stock write
// and marks it committed once the order documents exist, so a crash in
// between leaves a trail operators can reconcile.
type ReservationJournal interface {
	Begin(id string, stocks map[int64]int, orderIDs []string) error
	MarkCommitted(id string) error
}

// Receipt is the per-sub-order result of a successful checkout.
type Receipt struct {
	OrderID string  `json:"orderId"`
	Seller  string  `json:"seller"`
	Total   float64 `json:"total"`
}

// Service owns the order intake and approval workflow.
type Service struct {
	catalog  catalog.Repository
	repo     Repository
	settings Settings
	notifier Notifier
	journal  ReservationJournal
	now      func() time.Time
}

func NewService(cat catalog.Repository, repo Repository, settings Settings, notifier Notifier, journal ReservationJournal) *Service {
	return &Service{
		catalog:  cat,
		repo:     repo,
		settings: settings,
		notifier: notifier,
		journal:  journal,
		now:      time.Now,
	}
}

// OverrideNow replaces the service clock (used in tests).
func (s *Service) OverrideNow(now func() time.Time) {
	s.now = now
}

// Submit runs one checkout: validate the batch shape, reserve stock across
// every sub-order in one pass, land the stock changes in a single store
// write, then persist one pending order per sub-order and fire its
// notification.
//
// Validation and the OutOfStock check both abort before any write. The
// stock write and the order writes are not one transaction; the journal
// brackets that window for post-crash reconciliation.
func (s *Service) Submit(ctx context.Context, batch []domain.SubOrder) ([]Receipt, error) {
	if len(batch) == 0 {
		return nil, &ValidationError{Reason: "empty order batch"}
	}
	for i := range batch {
		if err := batch[i].Validate(); err != nil {
			return nil, &ValidationError{Reason: err.Error()}
		}
	}

	products, err := s.catalog.All(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load products")
	}
	// pending and rejected seller products are off the storefront; a line
	// naming one by id fails the same way an unknown product does
	for id, p := range products {
		if p.ApprovalStatus != "" && p.ApprovalStatus != domain.ProductApproved {
			delete(products, id)
		}
	}

	touched, err := Reserve(products, batch)
	if err != nil {
		return nil, err
	}

	// Build every order before the first write so the stock patch and the
	// order writes sit as close together as possible. An empty sub-order
	// reserved nothing and produces no order.
	built := make([]*domain.Order, 0, len(batch))
	for i := range batch {
		if len(batch[i].Items) == 0 {
			continue
		}
		built = append(built, s.buildOrder(&batch[i], products))
	}
	if len(built) == 0 {
		return []Receipt{}, nil
	}

	if s.journal != nil {
		ids := make([]string, 0, len(built))
		for _, o := range built {
			ids = append(ids, o.ID)
		}
		if err := s.journal.Begin(built[0].ID, touched, ids); err != nil {
			zap.L().Warn("orders: journal begin failed", zap.Error(err))
		}
	}

	if err := s.catalog.PatchStocks(ctx, touched); err != nil {
		return nil, errors.Wrap(err, "write stock batch")
	}

	receipts := make([]Receipt, 0, len(built))
	for _, o := range built {
		if err := s.repo.Create(ctx, o); err != nil {
			// stock is already deducted; surface the failure, the journal
			// entry stays uncommitted for reconciliation
			return nil, errors.Wrapf(err, "persist order %s", o.ID)
		}
		receipts = append(receipts, Receipt{OrderID: o.ID, Seller: o.Seller, Total: o.Total})
	}

	if s.journal != nil {
		if err := s.journal.MarkCommitted(built[0].ID); err != nil {
			zap.L().Warn("orders: journal commit mark failed", zap.Error(err))
		}
	}

	if s.notifier != nil {
		for _, o := range built {
			s.notifier.OrderCreated(o)
		}
	}
	return receipts, nil
}

func (s *Service) buildOrder(sub *domain.SubOrder, products map[int64]domain.Product) *domain.Order {
	seller := domain.SellerOf(sub.Seller)

	items := make([]domain.OrderItem, 0, len(sub.Items))
	var subtotal, profit float64
	for _, line := range sub.Items {
		p := products[line.ProductID]
		items = append(items, domain.OrderItem{
			ProductID: line.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			Seller:    seller,
			Quantity:  line.Quantity,
		})
		subtotal += p.Price * float64(line.Quantity)
		profit += float64(line.Quantity) * (p.Price - p.CostPrice)
	}

	fee := s.deliveryFee(seller, sub.DeliveryMethod, subtotal)

	return &domain.Order{
		ID:             uuid.NewString(),
		Status:         domain.OrderPending,
		Date:           s.now().Format(domain.DateLayout),
		Items:          items,
		ItemsSummary:   domain.Summarize(items),
		Total:          subtotal + fee,
		Profit:         profit + fee,
		DeliveryMethod: sub.DeliveryMethod,
		RoomNumber:     sub.RoomNumber,
		PaymentMethod:  sub.PaymentMethod,
		Seller:         seller,
	}
}

// deliveryFee applies only to house-seller delivery orders and is waived
// once the pre-fee subtotal reaches the free-delivery threshold.
// Third-party sellers never carry a fee.
func (s *Service) deliveryFee(seller, deliveryMethod string, subtotal float64) float64 {
	if deliveryMethod != domain.DeliveryDelivery {
		return 0
	}
	if !domain.IsHouseSeller(seller) {
		return 0
	}
	if subtotal >= s.settings.FreeDeliveryThreshold() {
		return 0
	}
	return s.settings.DeliveryFee()
}
