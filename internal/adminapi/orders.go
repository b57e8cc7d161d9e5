package adminapi

import (
	"net/http"
	"sort"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/campushop/campushop/internal/domain"
	"github.com/campushop/campushop/internal/orders"
	"github.com/campushop/campushop/internal/webserver"
)

// registerOrderRoutes registers the admin order surface. Approve/reject
// here is the web half of the approval workflow; the bot callback is the
// other half, and both run the same resolver.
func registerOrderRoutes() {
	webserver.ApiGET("/orders", listOrders)
	webserver.ApiGET("/orders/:id", getOrder)
	webserver.ApiPOST("/orders/:id/approve", approveOrder)
	webserver.ApiPOST("/orders/:id/reject", rejectOrder)
}

func listOrders(c echo.Context) error {
	page, pageSize := parsePagination(c)
	statusFilter := c.QueryParam("status")

	all, err := webserver.GetApp(c).Orders().All(c.Request().Context())
	if err != nil {
		zap.L().Error("adminapi: list orders failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to load orders", nil)
	}

	rows := make([]domain.Order, 0, len(all))
	for _, o := range all {
		if statusFilter != "" && string(o.Status) != statusFilter {
			continue
		}
		rows = append(rows, o)
	}
	// newest first; fall back to id ordering when a date fails to parse
	sort.Slice(rows, func(i, j int) bool {
		ti, erri := dateparse.ParseLocal(rows[i].Date)
		tj, errj := dateparse.ParseLocal(rows[j].Date)
		if erri != nil || errj != nil {
			return rows[i].ID > rows[j].ID
		}
		return ti.After(tj)
	})

	total := int64(len(rows))
	start := (page - 1) * pageSize
	if start > len(rows) {
		start = len(rows)
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return paged(c, rows[start:end], total, page, pageSize)
}

func getOrder(c echo.Context) error {
	o, err := webserver.GetApp(c).Orders().ByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if err == orders.ErrOrderNotFound {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to load order", nil)
	}
	return ok(c, o)
}

func approveOrder(c echo.Context) error {
	return resolveOrder(c, orders.ActionApprove)
}

func rejectOrder(c echo.Context) error {
	return resolveOrder(c, orders.ActionReject)
}

func resolveOrder(c echo.Context, action orders.Action) error {
	id := c.Param("id")
	outcome, err := webserver.GetApp(c).OrderService().Resolve(c.Request().Context(), id, action, "admin")
	if err != nil {
		if err == orders.ErrOrderNotFound {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
		}
		zap.L().Error("adminapi: resolve failed",
			zap.String("order_id", id), zap.String("action", string(action)), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to update order", nil)
	}
	// a repeat click on an already-settled order is a soft success
	return ok(c, map[string]interface{}{
		"id":                outcome.Order.ID,
		"status":            outcome.Order.Status,
		"already_processed": outcome.Already,
	})
}
