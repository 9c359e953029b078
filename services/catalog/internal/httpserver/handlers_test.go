package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/Skotchmaster/storefront/services/catalog/internal/models"
	"github.com/Skotchmaster/storefront/services/catalog/internal/repo"
	"github.com/Skotchmaster/storefront/services/catalog/internal/service"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testSecret = []byte("catalog-test-secret")

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.Category{}, &models.Product{}, &models.Image{}, &models.Review{}))

	svc := &service.CatalogService{Repo: &repo.GormRepo{DB: db}, Events: &events.Recorder{}}
	e := echo.New()
	Register(e, &Deps{CatalogHandler: &CatalogHTTP{Svc: svc}, JWTSecret: testSecret})
	return e
}

func do(t *testing.T, e *echo.Echo, method, path, body, role string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if role != "" {
		tok, err := tokens.SignAccess(testSecret, uuid.NewString(), role, time.Now().Add(time.Minute))
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: tok})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateProduct_RequiresAdmin(t *testing.T) {
	e := newServer(t)
	body := `{"name":"mug","price":1200,"stock":4}`

	assert.Equal(t, http.StatusUnauthorized, do(t, e, http.MethodPost, "/catalog/products", body, "").Code)
	assert.Equal(t, http.StatusForbidden, do(t, e, http.MethodPost, "/catalog/products", body, "user").Code)

	rec := do(t, e, http.MethodPost, "/catalog/products", body, "admin")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var p models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "mug", p.Name)

	rec = do(t, e, http.MethodGet, "/catalog/products/"+p.ID.String(), "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateProduct_InvalidPrice(t *testing.T) {
	e := newServer(t)
	rec := do(t, e, http.MethodPost, "/catalog/products", `{"name":"mug","price":-5}`, "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProduct_BadAndUnknownID(t *testing.T) {
	e := newServer(t)
	assert.Equal(t, http.StatusBadRequest, do(t, e, http.MethodGet, "/catalog/products/nope", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, e, http.MethodGet, "/catalog/products/"+uuid.NewString(), "", "").Code)
}

func TestGetProducts_PaginationMeta(t *testing.T) {
	e := newServer(t)
	for _, name := range []string{"a", "b", "c"} {
		rec := do(t, e, http.MethodPost, "/catalog/products", `{"name":"`+name+`","price":100}`, "admin")
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(t, e, http.MethodGet, "/catalog/products?page=2&size=2&sort=name", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.Product `json:"data"`
		Meta struct {
			Total      int64 `json:"total"`
			TotalPages int64 `json:"total_pages"`
			HasPrev    bool  `json:"has_prev"`
			HasNext    bool  `json:"has_next"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "c", resp.Data[0].Name)
	assert.Equal(t, int64(3), resp.Meta.Total)
	assert.Equal(t, int64(2), resp.Meta.TotalPages)
	assert.True(t, resp.Meta.HasPrev)
	assert.False(t, resp.Meta.HasNext)

	assert.Equal(t, http.StatusBadRequest, do(t, e, http.MethodGet, "/catalog/products?min_price=x", "", "").Code)
}

func TestSearch_DatabaseFallback(t *testing.T) {
	e := newServer(t)
	require.Equal(t, http.StatusCreated, do(t, e, http.MethodPost, "/catalog/products", `{"name":"Steel Kettle","price":100}`, "admin").Code)

	rec := do(t, e, http.MethodGet, "/catalog/products/search?q=kettle", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Steel Kettle")

	assert.Equal(t, http.StatusBadRequest, do(t, e, http.MethodGet, "/catalog/products/search", "", "").Code)
}

func TestReviews_Flow(t *testing.T) {
	e := newServer(t)
	rec := do(t, e, http.MethodPost, "/catalog/products", `{"name":"desk","price":100}`, "admin")
	require.Equal(t, http.StatusCreated, rec.Code)
	var p models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	path := "/catalog/products/" + p.ID.String() + "/reviews"

	assert.Equal(t, http.StatusUnauthorized, do(t, e, http.MethodPost, path, `{"rating":4}`, "").Code)
	assert.Equal(t, http.StatusCreated, do(t, e, http.MethodPost, path, `{"rating":4,"comment":"solid"}`, "user").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, e, http.MethodPost, path, `{"rating":0}`, "user").Code)

	rec = do(t, e, http.MethodGet, path, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var reviews []models.Review
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reviews))
	assert.Len(t, reviews, 1)
}

func TestCategories(t *testing.T) {
	e := newServer(t)
	assert.Equal(t, http.StatusForbidden, do(t, e, http.MethodPost, "/catalog/categories", `{"name":"Books"}`, "user").Code)
	assert.Equal(t, http.StatusCreated, do(t, e, http.MethodPost, "/catalog/categories", `{"name":"Books"}`, "admin").Code)
	assert.Equal(t, http.StatusConflict, do(t, e, http.MethodPost, "/catalog/categories", `{"name":"books"}`, "admin").Code)

	rec := do(t, e, http.MethodGet, "/catalog/categories", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slug":"books"`)
}
