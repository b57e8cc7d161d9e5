package orders

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrOrderNotFound is returned when an approval action names an unknown
// order id.
var ErrOrderNotFound = errors.New("order not found")

// ValidationError marks a malformed submission. Fatal to the request, no
// side effects committed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid submission: " + e.Reason
}

// OutOfStockError fails a whole checkout batch. It names the offending
// product and the stock remaining at the point of failure, counting
// deductions from earlier lines of the same batch.
type OutOfStockError struct {
	ProductID int64
	Name      string
	Remaining int
	Requested int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("%s is out of stock: %d left, %d requested", e.Name, e.Remaining, e.Requested)
}

// IsOutOfStock reports whether err is a batch stock failure.
func IsOutOfStock(err error) bool {
	var oos *OutOfStockError
	return errors.As(err, &oos)
}

// IsValidation reports whether err is a malformed-submission failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
