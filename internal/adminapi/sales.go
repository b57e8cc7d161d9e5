package adminapi

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/araddon/dateparse"
	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/campushop/campushop/internal/domain"
	"github.com/campushop/campushop/internal/webserver"
)

func registerSalesRoutes() {
	webserver.ApiGET("/sales", listSales)
	webserver.ApiGET("/sales/export", exportSales)
}

func loadSortedSales(c echo.Context) ([]domain.SaleRecord, error) {
	ledger, err := webserver.GetApp(c).Orders().Sales(c.Request().Context())
	if err != nil {
		return nil, err
	}
	rows := make([]domain.SaleRecord, 0, len(ledger))
	for _, s := range ledger {
		rows = append(rows, s)
	}
	sort.Slice(rows, func(i, j int) bool {
		ti, erri := dateparse.ParseLocal(rows[i].Date)
		tj, errj := dateparse.ParseLocal(rows[j].Date)
		if erri != nil || errj != nil {
			return rows[i].Date > rows[j].Date
		}
		return ti.After(tj)
	})
	return rows, nil
}

func listSales(c echo.Context) error {
	page, pageSize := parsePagination(c)
	rows, err := loadSortedSales(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to load sales", nil)
	}

	var totalAmount, totalProfit float64
	for _, s := range rows {
		totalAmount += s.Total
		totalProfit += s.Profit
	}

	total := int64(len(rows))
	start := (page - 1) * pageSize
	if start > len(rows) {
		start = len(rows)
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return ok(c, map[string]interface{}{
		"rows":       rows[start:end],
		"total":      total,
		"page":       page,
		"page_size":  pageSize,
		"sum_total":  totalAmount,
		"sum_profit": totalProfit,
	})
}

// exportSales streams the full ledger as a CSV attachment.
func exportSales(c echo.Context) error {
	rows, err := loadSortedSales(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to load sales", nil)
	}

	filename := fmt.Sprintf("sales-%s.csv", time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Response().WriteHeader(http.StatusOK)

	if err := gocsv.Marshal(rows, c.Response()); err != nil {
		zap.L().Error("sales: csv export failed", zap.Error(err))
		return err
	}
	return nil
}
