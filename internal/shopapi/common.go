package shopapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campushop/campushop/internal/app"
	"github.com/campushop/campushop/internal/ratelimit"
	"github.com/campushop/campushop/internal/webserver"
)

// Register wires the public storefront routes and the bot webhook onto the
// running web server. Write endpoints sit behind the rate limiter.
func Register(application *app.Application) {
	limited := ratelimit.Middleware(application.Limiter())

	webserver.PubGET("/products", listProducts)
	webserver.PubGET("/categories", listCategories)
	webserver.PubPOST("/orders", checkout, limited)
	webserver.PubPOST("/products", submitProduct, limited)
	webserver.PubPOST("/telegram/webhook", telegramWebhook)
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code": "OK",
		"data": data,
	})
}

func fail(c echo.Context, status int, code, message string, detail interface{}) error {
	body := map[string]interface{}{
		"code":    code,
		"message": message,
	}
	if detail != nil {
		body["detail"] = detail
	}
	return c.JSON(status, body)
}
