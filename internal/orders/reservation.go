package orders

import (
	"fmt"

	"github.com/campushop/campushop/internal/domain"
)

// Reserve validates every line of every sub-order in a checkout batch
// against the product set and computes the new stock for each touched
// product. Deductions accumulate across the whole pass, so sibling
// sub-orders competing for the same product are checked against each
// other's takes, not just the pre-request snapshot.
//
// The returned map holds only touched products. Nothing is written here;
// the caller persists the result in a single batch write after the entire
// batch has validated, so a late failure leaves no partial deduction.
func Reserve(products map[int64]domain.Product, batch []domain.SubOrder) (map[int64]int, error) {
	remaining := make(map[int64]int, len(products))
	for id, p := range products {
		remaining[id] = p.Stock
	}

	touched := map[int64]int{}
	for _, sub := range batch {
		// an empty sub-order is a no-op, not an error
		for _, line := range sub.Items {
			p, ok := products[line.ProductID]
			if !ok {
				return nil, &OutOfStockError{
					ProductID: line.ProductID,
					Name:      fmt.Sprintf("product %d", line.ProductID),
					Remaining: 0,
					Requested: line.Quantity,
				}
			}
			left := remaining[line.ProductID]
			if left < line.Quantity {
				return nil, &OutOfStockError{
					ProductID: line.ProductID,
					Name:      p.Name,
					Remaining: left,
					Requested: line.Quantity,
				}
			}
			remaining[line.ProductID] = left - line.Quantity
			touched[line.ProductID] = remaining[line.ProductID]
		}
	}
	return touched, nil
}
