package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/campushop/campushop/internal/app"
	"github.com/campushop/campushop/internal/webserver"
)

func registerSettingsRoutes() {
	webserver.ApiGET("/settings", getSettings)
	webserver.ApiPUT("/settings", updateSettings)
}

func getSettings(c echo.Context) error {
	m := webserver.GetApp(c).Settings()
	values := map[string]interface{}{
		app.KeyDeliveryFee:           m.DeliveryFee(),
		app.KeyFreeDeliveryThreshold: m.FreeDeliveryThreshold(),
	}
	for k, v := range m.All() {
		values[k] = v
	}
	return ok(c, values)
}

func updateSettings(c echo.Context) error {
	var payload map[string]interface{}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse settings", err.Error())
	}
	if len(payload) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "No settings provided", nil)
	}
	for _, key := range []string{app.KeyDeliveryFee, app.KeyFreeDeliveryThreshold} {
		if v, found := payload[key]; found {
			f, err := cast.ToFloat64E(v)
			if err != nil || f < 0 {
				return fail(c, http.StatusBadRequest, "INVALID_REQUEST", key+" must be a number >= 0", nil)
			}
			payload[key] = f
		}
	}
	if err := webserver.GetApp(c).Settings().Update(c.Request().Context(), payload); err != nil {
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to update settings", nil)
	}
	return ok(c, payload)
}
