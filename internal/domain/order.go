package domain

import (
	"fmt"
	"strings"
)

type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderApproved OrderStatus = "approved"
	OrderRejected OrderStatus = "rejected"
)

// DateLayout is the human-readable creation timestamp format stored on
// orders and sales.
const DateLayout = "02 Jan 2006 15:04"

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:  {OrderApproved: true, OrderRejected: true},
	OrderApproved: {},
	OrderRejected: {},
}

// CanTransition reports whether an order may move from one status to
// another. Approved and rejected are terminal.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// OrderItem is a price/name snapshot of one cart line captured at order
// time, independent of later product edits.
type OrderItem struct {
	ProductID int64   `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Seller    string  `json:"seller"`
	Quantity  int     `json:"quantity"`
}

// Order is the persisted record of one sub-order. Immutable once created
// except for Status.
type Order struct {
	ID             string      `json:"id"`
	Status         OrderStatus `json:"status"`
	Date           string      `json:"date"`
	Items          []OrderItem `json:"items"`
	ItemsSummary   string      `json:"itemsSummary"`
	Total          float64     `json:"total"`
	Profit         float64     `json:"profit"`
	DeliveryMethod string      `json:"deliveryMethod"`
	RoomNumber     string      `json:"roomNumber,omitempty"`
	PaymentMethod  string      `json:"paymentMethod"`
	Seller         string      `json:"seller"`
}

// SaleRecord is one row of the append-only sales ledger, written when an
// order is approved. Its ID equals the order ID.
type SaleRecord struct {
	ID           string  `json:"id" csv:"id"`
	Date         string  `json:"date" csv:"date"`
	ItemsSummary string  `json:"itemsSummary" csv:"items"`
	Total        float64 `json:"total" csv:"total"`
	Profit       float64 `json:"profit" csv:"profit"`
	Method       string  `json:"method" csv:"method"`
}

// Summarize renders the "2x Cola, 1x Chips" line for notifications and the
// sales ledger.
func Summarize(items []OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%dx %s", it.Quantity, it.Name))
	}
	return strings.Join(parts, ", ")
}
