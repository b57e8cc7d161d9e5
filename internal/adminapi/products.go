package adminapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/campushop/campushop/internal/catalog"
	"github.com/campushop/campushop/internal/docstore"
	"github.com/campushop/campushop/internal/domain"
	"github.com/campushop/campushop/internal/webserver"
)

type productPayload struct {
	Name      string  `json:"name" validate:"required,min=1,max=200"`
	Price     float64 `json:"price"`
	CostPrice float64 `json:"costPrice"`
	Stock     *int    `json:"stock"`
	Category  string  `json:"category"`
	Seller    string  `json:"seller"`
}

// registerProductRoutes registers catalog CRUD plus the seller-product
// approval actions.
func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiPUT("/products/:id", updateProduct)
	webserver.ApiDELETE("/products/:id", deleteProduct)
	webserver.ApiPOST("/products/:id/approve", approveProduct)
	webserver.ApiPOST("/products/:id/reject", rejectProduct)
}

func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)

	// Filters: q (name substring) and category
	q := strings.ToLower(strings.TrimSpace(c.QueryParam("q")))
	category := strings.TrimSpace(c.QueryParam("category"))
	approval := strings.TrimSpace(c.QueryParam("approval"))

	all, err := webserver.GetApp(c).Catalog().All(c.Request().Context())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to load products", nil)
	}

	rows := make([]domain.Product, 0, len(all))
	for _, id := range catalog.SortedIDs(all) {
		p := all[id]
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		if approval != "" && p.ApprovalStatus != approval {
			continue
		}
		rows = append(rows, p)
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
	return paged(c, rows[start:end], total, page, pageSize)
}

func getProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	p, err := webserver.GetApp(c).Catalog().ByID(c.Request().Context(), id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to load product", nil)
	}
	return ok(c, p)
}

func createProduct(c echo.Context) error {
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name is required", nil)
	}
	if payload.Stock == nil || *payload.Stock < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Stock is required and must be >= 0", nil)
	}
	if payload.Price < 0 || payload.CostPrice < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Prices must be >= 0", nil)
	}

	// admin-created products skip the approval queue
	p := domain.Product{
		Name:           payload.Name,
		Price:          payload.Price,
		CostPrice:      payload.CostPrice,
		Stock:          *payload.Stock,
		Category:       strings.TrimSpace(payload.Category),
		Seller:         domain.SellerOf(payload.Seller),
		ApprovalStatus: domain.ProductApproved,
	}
	if err := webserver.GetApp(c).Catalog().Save(c.Request().Context(), &p); err != nil {
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to create product", nil)
	}
	return ok(c, p)
}

func updateProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	cat := webserver.GetApp(c).Catalog()
	p, err := cat.ByID(c.Request().Context(), id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to load product", nil)
	}

	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name is required", nil)
	}
	if payload.Stock == nil || *payload.Stock < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Stock is required and must be >= 0", nil)
	}

	p.Name = payload.Name
	p.Price = payload.Price
	p.CostPrice = payload.CostPrice
	p.Stock = *payload.Stock
	p.Category = strings.TrimSpace(payload.Category)

	if err := cat.Save(c.Request().Context(), p); err != nil {
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to update product", nil)
	}
	return ok(c, p)
}

func deleteProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	if err := webserver.GetApp(c).Catalog().Delete(c.Request().Context(), id); err != nil {
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to delete product", nil)
	}
	return ok(c, map[string]interface{}{"id": id})
}

func approveProduct(c echo.Context) error {
	return setProductApproval(c, domain.ProductApproved)
}

func rejectProduct(c echo.Context) error {
	return setProductApproval(c, domain.ProductRejected)
}

func setProductApproval(c echo.Context, status string) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	cat := webserver.GetApp(c).Catalog()
	if _, err := cat.ByID(c.Request().Context(), id); err != nil {
		if docstore.IsNotFound(err) {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to load product", nil)
	}
	if err := cat.SetApproval(c.Request().Context(), id, status); err != nil {
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to update approval", nil)
	}
	return ok(c, map[string]interface{}{"id": id, "approvalStatus": status})
}
