package shopapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/campushop/campushop/internal/catalog"
	"github.com/campushop/campushop/internal/domain"
	"github.com/campushop/campushop/internal/webserver"
)

// storefrontProduct is the public projection of a catalog item. Cost price
// and approval state never leave the admin surface.
type storefrontProduct struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	Category string  `json:"category"`
	Seller   string  `json:"seller"`
}

func listProducts(c echo.Context) error {
	category := strings.TrimSpace(c.QueryParam("category"))
	seller := strings.TrimSpace(c.QueryParam("seller"))

	all, err := webserver.GetApp(c).Catalog().All(c.Request().Context())
	if err != nil {
		return fail(c, http.StatusBadGateway, "STORE_ERROR", "Catalog unavailable", nil)
	}

	rows := make([]storefrontProduct, 0, len(all))
	for _, id := range catalog.SortedIDs(all) {
		p := all[id]
		if p.ApprovalStatus != "" && p.ApprovalStatus != domain.ProductApproved {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		if seller != "" && domain.SellerOf(p.Seller) != seller {
			continue
		}
		rows = append(rows, storefrontProduct{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Stock:    p.Stock,
			Category: p.Category,
			Seller:   domain.SellerOf(p.Seller),
		})
	}
	return ok(c, rows)
}

func listCategories(c echo.Context) error {
	all, err := webserver.GetApp(c).Catalog().All(c.Request().Context())
	if err != nil {
		return fail(c, http.StatusBadGateway, "STORE_ERROR", "Catalog unavailable", nil)
	}
	seen := map[string]bool{}
	for _, p := range all {
		if p.ApprovalStatus != "" && p.ApprovalStatus != domain.ProductApproved {
			continue
		}
		if p.Category != "" {
			seen[p.Category] = true
		}
	}
	categories := make([]string, 0, len(seen))
	for cat := range seen {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	return ok(c, categories)
}

type productSubmission struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	Category string  `json:"category"`
	Seller   string  `json:"seller"`
}

// submitProduct takes a seller's listing request. The product lands in the
// pending queue and stays off the storefront until an admin approves it.
func submitProduct(c echo.Context) error {
	var payload productSubmission
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Seller = strings.TrimSpace(payload.Seller)
	if payload.Name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name is required", nil)
	}
	if domain.IsHouseSeller(payload.Seller) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Seller name is required", nil)
	}
	if payload.Price < 0 || payload.Stock < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Price and stock must be >= 0", nil)
	}

	p := domain.Product{
		Name:           payload.Name,
		Price:          payload.Price,
		Stock:          payload.Stock,
		Category:       strings.TrimSpace(payload.Category),
		Seller:         payload.Seller,
		ApprovalStatus: domain.ProductPending,
	}
	if err := webserver.GetApp(c).Catalog().Save(c.Request().Context(), &p); err != nil {
		return fail(c, http.StatusBadGateway, "STORE_ERROR", "Failed to submit product", nil)
	}
	return ok(c, map[string]interface{}{"id": p.ID, "approvalStatus": p.ApprovalStatus})
}
