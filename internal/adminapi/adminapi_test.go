package adminapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushop/campushop/config"
	"github.com/campushop/campushop/internal/app"
	"github.com/campushop/campushop/internal/docstore/storetest"
	"github.com/campushop/campushop/internal/domain"
	"github.com/campushop/campushop/internal/webserver"
)

type adminFixture struct {
	store *storetest.Server
	app   *app.Application
	echo  *echo.Echo
	token string
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	store := storetest.New()
	t.Cleanup(store.Close)
	store.Seed("products", map[string]interface{}{
		"1": map[string]interface{}{"id": 1, "name": "Cola", "price": 20.0, "costPrice": 12.0, "stock": 10, "seller": "house", "approvalStatus": "approved", "category": "drinks"},
		"2": map[string]interface{}{"id": 2, "name": "Simit", "price": 10.0, "costPrice": 6.0, "stock": 5, "seller": "ayse", "approvalStatus": "pending", "category": "snacks"},
	})

	// notifications go to a stub bot API so approvals never leave the test
	botAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true}`)
	}))
	t.Cleanup(botAPI.Close)

	cfg := *config.DefaultAppConfig
	cfg.System.Workdir = t.TempDir()
	cfg.Store.BaseURL = store.URL()
	cfg.Telegram.APIBase = botAPI.URL

	application := app.NewApplication(&cfg)
	require.NoError(t, application.Init(&cfg))
	t.Cleanup(application.Release)

	ws := webserver.Init(application)
	Register()

	f := &adminFixture{store: store, app: application, echo: ws.Echo()}
	f.token = f.login(t, "admin", "campushop")
	return f
}

func (f *adminFixture) login(t *testing.T, username, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	rec := f.request(http.MethodPost, "/api/login", body, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

func (f *adminFixture) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func (f *adminFixture) submitOrder(t *testing.T) string {
	t.Helper()
	receipts, err := f.app.OrderService().Submit(context.Background(), []domain.SubOrder{{
		Seller:         "house",
		Items:          []domain.CartLine{{ProductID: 1, Quantity: 2}},
		DeliveryMethod: domain.DeliveryPickup,
		PaymentMethod:  domain.PaymentCash,
	}})
	require.NoError(t, err)
	return receipts[0].OrderID
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newAdminFixture(t)

	rec := f.request(http.MethodPost, "/api/login", `{"username":"admin","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestAdminGroupRequiresSession(t *testing.T) {
	f := newAdminFixture(t)

	rec := f.request(http.MethodGet, "/api/admin/orders", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.request(http.MethodGet, "/api/admin/orders", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.request(http.MethodGet, "/api/admin/orders", "", f.token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminOrderLifecycle(t *testing.T) {
	f := newAdminFixture(t)
	id := f.submitOrder(t)

	rec := f.request(http.MethodGet, "/api/admin/orders?status=pending", "", f.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id)

	rec = f.request(http.MethodPost, "/api/admin/orders/"+id+"/approve", "", f.token)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data struct {
			Status           string `json:"status"`
			AlreadyProcessed bool   `json:"already_processed"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "approved", resp.Data.Status)
	assert.False(t, resp.Data.AlreadyProcessed)

	// repeat click: soft success
	rec = f.request(http.MethodPost, "/api/admin/orders/"+id+"/approve", "", f.token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.AlreadyProcessed)

	rec = f.request(http.MethodPost, "/api/admin/orders/missing/approve", "", f.token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// the approved sale shows in the ledger and its export
	rec = f.request(http.MethodGet, "/api/admin/sales", "", f.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id)

	rec = f.request(http.MethodGet, "/api/admin/sales/export", "", f.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
	assert.Contains(t, rec.Body.String(), "2x Cola")
}

func TestAdminProductCRUDAndApproval(t *testing.T) {
	f := newAdminFixture(t)

	rec := f.request(http.MethodPost, "/api/admin/products",
		`{"name":"Ayran","price":8,"costPrice":4,"stock":12,"category":"drinks"}`, f.token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var created struct {
		Data domain.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(3), created.Data.ID)
	assert.Equal(t, domain.ProductApproved, created.Data.ApprovalStatus)
	assert.Equal(t, domain.HouseSeller, created.Data.Seller)

	rec = f.request(http.MethodPut, "/api/admin/products/3",
		`{"name":"Ayran","price":9,"costPrice":4,"stock":10,"category":"drinks"}`, f.token)
	require.Equal(t, http.StatusOK, rec.Code)
	var price float64
	require.True(t, f.store.ValueJSON("products/3/price", &price))
	assert.Equal(t, 9.0, price)

	// seller product approval
	rec = f.request(http.MethodPost, "/api/admin/products/2/approve", "", f.token)
	require.Equal(t, http.StatusOK, rec.Code)
	var status string
	require.True(t, f.store.ValueJSON("products/2/approvalStatus", &status))
	assert.Equal(t, domain.ProductApproved, status)

	rec = f.request(http.MethodDelete, "/api/admin/products/3", "", f.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, f.store.Value("products/3"))

	rec = f.request(http.MethodGet, "/api/admin/products/99", "", f.token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminSettingsRoundTrip(t *testing.T) {
	f := newAdminFixture(t)

	rec := f.request(http.MethodGet, "/api/admin/settings", "", f.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "deliveryFee")

	rec = f.request(http.MethodPut, "/api/admin/settings", `{"deliveryFee":7.5}`, f.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7.5, f.app.Settings().DeliveryFee())

	rec = f.request(http.MethodPut, "/api/admin/settings", `{"deliveryFee":"cheap"}`, f.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
