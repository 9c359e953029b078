package middleware

import (
	"net/http"
	"slices"

	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
)

// Authenticate checks the access cookie and refreshes it through the auth service when it
// has expired. Refreshed cookies replace the old ones on the proxied request so the
// upstream service sees a valid session.
func Authenticate(secret []byte, refresher authmw.Refresher) echo.MiddlewareFunc {
	m := authmw.NewAutoRefreshMiddleware(secret, refresher)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return m.RequireAuth(func(c echo.Context) error {
			forwardRefreshedCookies(c)
			return next(c)
		})
	}
}

func forwardRefreshedCookies(c echo.Context) {
	fresh := map[string]string{}
	for _, line := range c.Response().Header().Values(echo.HeaderSetCookie) {
		ck, err := http.ParseSetCookie(line)
		if err != nil || ck.Value == "" {
			continue
		}
		if ck.Name == jwthelp.AccessCookie || ck.Name == jwthelp.RefreshCookie {
			fresh[ck.Name] = ck.Value
		}
	}
	if len(fresh) == 0 {
		return
	}

	req := c.Request()
	cookies := req.Cookies()
	req.Header.Del("Cookie")
	for _, ck := range cookies {
		if v, ok := fresh[ck.Name]; ok {
			ck.Value = v
			delete(fresh, ck.Name)
		}
		req.AddCookie(ck)
	}
	for name, v := range fresh {
		req.AddCookie(&http.Cookie{Name: name, Value: v})
	}
}

func RequireRole(required []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(authmw.CtxRole).(string)
			if role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing role")
			}
			if !slices.Contains(required, role) {
				return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights to see this page")
			}
			return next(c)
		}
	}
}
