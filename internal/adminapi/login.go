package adminapi

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/campushop/campushop/internal/webserver"
)

const sessionTTL = 12 * time.Hour

func registerLoginRoutes() {
	webserver.RootPOST("/api/login", postLogin)
}

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// postLogin issues the admin JWT consumed by the /api/admin group.
func postLogin(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}

	cfg := webserver.GetApp(c).Config().Web
	userOK := subtle.ConstantTimeCompare([]byte(payload.Username), []byte(cfg.AdminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(payload.Password), []byte(cfg.AdminPassword)) == 1
	if !userOK || !passOK {
		zap.L().Warn("admin login rejected", zap.String("username", payload.Username), zap.String("ip", c.RealIP()))
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials", nil)
	}

	claims := jwt.MapClaims{
		"sub": payload.Username,
		"exp": time.Now().Add(sessionTTL).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue session", nil)
	}
	return ok(c, map[string]interface{}{
		"token":      signed,
		"expires_in": int(sessionTTL.Seconds()),
	})
}
