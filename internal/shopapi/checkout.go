package shopapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/campushop/campushop/internal/domain"
	"github.com/campushop/campushop/internal/orders"
	"github.com/campushop/campushop/internal/webserver"
)

// checkout accepts one multi-seller order batch. The whole batch is
// validated and reserved before anything is written; a single failing line
// fails the entire submission.
func checkout(c echo.Context) error {
	var batch []domain.SubOrder
	if err := c.Bind(&batch); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse order batch", err.Error())
	}

	receipts, err := webserver.GetApp(c).OrderService().Submit(c.Request().Context(), batch)
	if err != nil {
		var verr *orders.ValidationError
		if errors.As(err, &verr) {
			return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", verr.Reason, nil)
		}
		var serr *orders.OutOfStockError
		if errors.As(err, &serr) {
			return fail(c, http.StatusConflict, "OUT_OF_STOCK", serr.Error(), map[string]interface{}{
				"productId": serr.ProductID,
				"remaining": serr.Remaining,
				"requested": serr.Requested,
			})
		}
		zap.L().Error("checkout failed", zap.Error(err))
		return fail(c, http.StatusBadGateway, "STORE_ERROR", "Order could not be submitted, nothing was charged", nil)
	}
	return ok(c, receipts)
}
