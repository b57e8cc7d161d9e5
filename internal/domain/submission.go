package domain

import "fmt"

// Delivery and payment method values accepted at checkout.
const (
	DeliveryPickup   = "pickup"
	DeliveryDelivery = "delivery"

	PaymentCash = "cash"
	PaymentIban = "iban"
)

// CartLine is one client-supplied cart entry. Price and name are never
// trusted from the client; the server re-resolves them from the catalog.
type CartLine struct {
	ProductID int64 `json:"productId" form:"productId"`
	Quantity  int   `json:"quantity" form:"quantity"`
}

// SubOrder is the portion of one checkout belonging to a single seller.
// A checkout submits one SubOrder per distinct seller in the cart.
type SubOrder struct {
	Seller         string     `json:"seller"`
	Items          []CartLine `json:"items"`
	DeliveryMethod string     `json:"deliveryMethod"`
	PaymentMethod  string     `json:"paymentMethod"`
	RoomNumber     string     `json:"roomNumber"`
}

// Validate checks the client-controlled shape of a sub-order. Stock and
// product existence are checked later against the live catalog.
func (s *SubOrder) Validate() error {
	switch s.DeliveryMethod {
	case DeliveryPickup, DeliveryDelivery:
	default:
		return fmt.Errorf("invalid delivery method %q", s.DeliveryMethod)
	}
	switch s.PaymentMethod {
	case PaymentCash, PaymentIban:
	default:
		return fmt.Errorf("invalid payment method %q", s.PaymentMethod)
	}
	if s.DeliveryMethod == DeliveryDelivery && s.RoomNumber == "" {
		return fmt.Errorf("room number is required for delivery")
	}
	for _, line := range s.Items {
		if line.Quantity <= 0 {
			return fmt.Errorf("invalid quantity %d for product %d", line.Quantity, line.ProductID)
		}
	}
	return nil
}
