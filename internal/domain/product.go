package domain

// HouseSeller is the platform's own storefront. Sub-orders without an
// explicit seller belong to it.
const HouseSeller = "house"

// Approval states for seller-submitted products. House products are
// created approved.
const (
	ProductPending  = "pending"
	ProductApproved = "approved"
	ProductRejected = "rejected"
)

// Product is a catalog item. IDs are seller-assigned and monotonic.
type Product struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	CostPrice      float64 `json:"costPrice,omitempty"`
	Stock          int     `json:"stock"`
	Category       string  `json:"category"`
	Seller         string  `json:"seller,omitempty"`
	ApprovalStatus string  `json:"approvalStatus,omitempty"`
}

// SellerOf normalizes an optional seller identifier.
func SellerOf(seller string) string {
	if seller == "" {
		return HouseSeller
	}
	return seller
}

// IsHouseSeller reports whether the identifier names the platform seller.
func IsHouseSeller(seller string) bool {
	return seller == "" || seller == HouseSeller
}
