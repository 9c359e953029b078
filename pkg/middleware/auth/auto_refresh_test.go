package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Skotchmaster/storefront/pkg/authclient"
	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("mw-secret")

type stubRefresher struct {
	resp *authclient.RefreshResponse
	err  error
}

func (s stubRefresher) RefreshTokens(context.Context, string, string) (*authclient.RefreshResponse, error) {
	return s.resp, s.err
}

func newCtx(cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	id, err := UserID(c)
	if err != nil {
		return err
	}
	return c.String(http.StatusOK, id.String())
}

func accessToken(t *testing.T, userID, role string, exp time.Time) string {
	t.Helper()
	tok, err := tokens.SignAccess(secret, userID, role, exp)
	require.NoError(t, err)
	return tok
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	return he.Code
}

func TestRequireAuth_ValidToken(t *testing.T) {
	userID := uuid.NewString()
	c, rec := newCtx(&http.Cookie{Name: "accessToken", Value: accessToken(t, userID, "user", time.Now().Add(time.Minute))})

	mw := NewAutoRefreshMiddleware(secret, nil)
	require.NoError(t, mw.RequireAuth(okHandler)(c))
	assert.Equal(t, userID, rec.Body.String())
}

func TestRequireAuth_MissingCookie(t *testing.T) {
	c, _ := newCtx()
	err := NewAutoRefreshMiddleware(secret, nil).RequireAuth(okHandler)(c)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	c, _ := newCtx(&http.Cookie{Name: "accessToken", Value: "garbage"})
	err := NewAutoRefreshMiddleware(secret, nil).RequireAuth(okHandler)(c)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestRequireAdmin_RejectsUserRole(t *testing.T) {
	c, _ := newCtx(&http.Cookie{Name: "accessToken", Value: accessToken(t, uuid.NewString(), "user", time.Now().Add(time.Minute))})
	err := NewAutoRefreshMiddleware(secret, nil).RequireAdmin(okHandler)(c)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
}

func TestRequireAuth_ExpiredTokenIsRefreshed(t *testing.T) {
	userID := uuid.NewString()
	fresh := accessToken(t, userID, "user", time.Now().Add(time.Minute))
	refresher := stubRefresher{resp: &authclient.RefreshResponse{
		AccessToken:  fresh,
		RefreshToken: "new-refresh",
		AccessExp:    time.Now().Add(time.Minute).Unix(),
		RefreshExp:   time.Now().Add(time.Hour).Unix(),
	}}

	c, rec := newCtx(
		&http.Cookie{Name: "accessToken", Value: accessToken(t, userID, "user", time.Now().Add(-time.Minute))},
		&http.Cookie{Name: "refreshToken", Value: "old-refresh"},
	)

	require.NoError(t, NewAutoRefreshMiddleware(secret, refresher).RequireAuth(okHandler)(c))
	assert.Equal(t, userID, rec.Body.String())
	assert.Contains(t, rec.Header().Values("Set-Cookie")[0], "accessToken="+fresh)
}

func TestRequireAuth_RefreshFailure(t *testing.T) {
	c, _ := newCtx(
		&http.Cookie{Name: "accessToken", Value: accessToken(t, uuid.NewString(), "user", time.Now().Add(-time.Minute))},
		&http.Cookie{Name: "refreshToken", Value: "old-refresh"},
	)

	err := NewAutoRefreshMiddleware(secret, stubRefresher{err: errors.New("revoked")}).RequireAuth(okHandler)(c)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}
