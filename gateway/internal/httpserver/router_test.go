package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Skotchmaster/storefront/pkg/authclient"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("gateway-test-secret")

type seen struct {
	Path   string `json:"path"`
	Access string `json:"access"`
}

func upstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := seen{Path: r.URL.Path}
		if c, err := r.Cookie(jwthelp.AccessCookie); err == nil {
			s.Access = c.Value
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type stubRefresher struct {
	userID string
}

func (s stubRefresher) RefreshTokens(context.Context, string, string) (*authclient.RefreshResponse, error) {
	exp := time.Now().Add(15 * time.Minute)
	tok, err := tokens.SignAccess(testSecret, s.userID, "user", exp)
	if err != nil {
		return nil, err
	}
	return &authclient.RefreshResponse{
		AccessToken:  tok,
		RefreshToken: "rotated",
		AccessExp:    exp.Unix(),
		RefreshExp:   time.Now().Add(time.Hour).Unix(),
	}, nil
}

func newGateway(t *testing.T, refresher stubRefresher) *echo.Echo {
	t.Helper()
	up := upstream(t)
	cfg := csrf.DefaultConfig()
	cfg.SkipPaths = PublicPaths

	e := echo.New()
	require.NoError(t, Register(e, &Deps{
		AuthURL:       up.URL,
		CatalogURL:    up.URL,
		StorefrontURL: up.URL,
		CSRFConfig:    cfg,
		JWTSecret:     testSecret,
		Refresher:     refresher,
	}))
	return e
}

func accessCookie(t *testing.T, userID, role string, exp time.Time) *http.Cookie {
	t.Helper()
	tok, err := tokens.SignAccess(testSecret, userID, role, exp)
	require.NoError(t, err)
	return &http.Cookie{Name: jwthelp.AccessCookie, Value: tok}
}

func serve(e *echo.Echo, req *http.Request) (*httptest.ResponseRecorder, seen) {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var s seen
	_ = json.Unmarshal(rec.Body.Bytes(), &s)
	return rec, s
}

func TestAuthRoutesStripPrefix(t *testing.T) {
	e := newGateway(t, stubRefresher{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{}`))

	rec, s := serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/login", s.Path)
}

func TestCatalogReadIsPublic(t *testing.T) {
	e := newGateway(t, stubRefresher{})
	rec, s := serve(e, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/catalog/products", s.Path)
}

func TestCartRequiresSession(t *testing.T) {
	e := newGateway(t, stubRefresher{})
	rec, _ := serve(e, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(accessCookie(t, uuid.NewString(), "user", time.Now().Add(time.Minute)))
	rec, s := serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/cart", s.Path)
}

func TestWritesNeedCSRFToken(t *testing.T) {
	e := newGateway(t, stubRefresher{})
	session := accessCookie(t, uuid.NewString(), "user", time.Now().Add(time.Minute))

	req := httptest.NewRequest(http.MethodPost, "http://shop.test/api/v1/cart/add", strings.NewReader(`{}`))
	req.Header.Set("Origin", "http://shop.test")
	req.AddCookie(session)
	rec, _ := serve(e, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "http://shop.test/api/v1/cart/add", strings.NewReader(`{}`))
	req.Header.Set("Origin", "http://shop.test")
	req.Header.Set("X-CSRF-Token", "tok")
	req.AddCookie(session)
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
	rec, s := serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/cart/add", s.Path)
}

func TestExpiredSessionIsRefreshedBeforeProxying(t *testing.T) {
	userID := uuid.NewString()
	e := newGateway(t, stubRefresher{userID: userID})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.AddCookie(accessCookie(t, userID, "user", time.Now().Add(-time.Minute)))
	req.AddCookie(&http.Cookie{Name: jwthelp.RefreshCookie, Value: "old"})

	rec, s := serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code)

	claims, err := tokens.AccessClaimsFromToken(s.Access, testSecret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.Subject)
}

func TestStatusChangeRequiresAdmin(t *testing.T) {
	e := newGateway(t, stubRefresher{})
	path := "/api/v1/orders/" + uuid.NewString() + "/status"

	req := httptest.NewRequest(http.MethodPatch, "http://shop.test"+path, strings.NewReader(`{}`))
	req.Header.Set("Origin", "http://shop.test")
	req.Header.Set("X-CSRF-Token", "tok")
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
	req.AddCookie(accessCookie(t, uuid.NewString(), "user", time.Now().Add(time.Minute)))

	rec, _ := serve(e, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
