package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Skotchmaster/storefront/pkg/errs"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/services/catalog/internal/models"
	"github.com/Skotchmaster/storefront/services/catalog/internal/repo"
	"github.com/Skotchmaster/storefront/services/catalog/internal/search"
	"github.com/Skotchmaster/storefront/services/catalog/internal/transport"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeEngine struct {
	docs    map[string]search.Document
	hits    []uuid.UUID
	fail    error
	deleted []uuid.UUID
}

func (f *fakeEngine) Index(_ context.Context, doc search.Document) error {
	if f.docs == nil {
		f.docs = map[string]search.Document{}
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeEngine) Delete(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeEngine) Search(context.Context, string, int, int) (int64, []uuid.UUID, error) {
	if f.fail != nil {
		return 0, nil, f.fail
	}
	return int64(len(f.hits)), f.hits, nil
}

func newTestService(t *testing.T) (*CatalogService, *events.Recorder) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.Category{}, &models.Product{}, &models.Image{}, &models.Review{}))

	rec := &events.Recorder{}
	return &CatalogService{Repo: &repo.GormRepo{DB: db}, Events: rec}, rec
}

func createProduct(t *testing.T, s *CatalogService, name string, price int64) *models.Product {
	t.Helper()
	p, err := s.CreateProduct(context.Background(), transport.CreateProductRequest{
		Name:        name,
		Description: name + " description",
		Price:       price,
		Stock:       10,
		Images:      []transport.ImageDTO{{URL: "https://img.example/" + name + ".png"}},
	})
	require.NoError(t, err)
	return p
}

func TestCreateProduct_Validation(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	cases := []transport.CreateProductRequest{
		{Name: "  ", Price: 100},
		{Name: "mug", Price: -1},
		{Name: "mug", Price: 100, Stock: -3},
		{Name: "mug", Price: 100, Images: []transport.ImageDTO{{URL: ""}}},
	}
	for _, req := range cases {
		_, err := s.CreateProduct(ctx, req)
		assert.ErrorIs(t, err, errs.ErrValidation)
	}

	missing := uuid.New()
	_, err := s.CreateProduct(ctx, transport.CreateProductRequest{Name: "mug", Price: 100, CategoryID: &missing})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestCreateProduct_IndexesAndPublishes(t *testing.T) {
	s, rec := newTestService(t)
	engine := &fakeEngine{}
	s.Search = engine

	p := createProduct(t, s, "kettle", 2500)

	assert.Contains(t, engine.docs, p.ID.String())
	assert.Equal(t, int64(2500), engine.docs[p.ID.String()].Price)

	got := rec.Events(events.TopicProduct)
	require.Len(t, got, 1)
	assert.Equal(t, "product_created", got[0].Event.(productEvent).Type)

	loaded, err := s.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Images, 1)
}

func TestGetProduct_NotFound(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.GetProduct(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestPatchProduct_PartialUpdateAndImages(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	p := createProduct(t, s, "lamp", 4000)

	price := int64(3500)
	images := []transport.ImageDTO{{URL: "a.png"}, {URL: "b.png"}}
	got, err := s.PatchProduct(ctx, transport.PatchProductRequest{Price: &price, Images: &images}, p.ID)
	require.NoError(t, err)

	assert.Equal(t, "lamp", got.Name)
	assert.Equal(t, int64(3500), got.Price)
	assert.Len(t, got.Images, 2)

	empty := ""
	_, err = s.PatchProduct(ctx, transport.PatchProductRequest{Name: &empty}, p.ID)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = s.PatchProduct(ctx, transport.PatchProductRequest{Price: &price}, uuid.New())
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDeleteProduct(t *testing.T) {
	s, rec := newTestService(t)
	engine := &fakeEngine{}
	s.Search = engine
	ctx := context.Background()
	p := createProduct(t, s, "chair", 9000)

	require.NoError(t, s.DeleteProduct(ctx, p.ID))
	assert.Equal(t, []uuid.UUID{p.ID}, engine.deleted)
	assert.Len(t, rec.Events(events.TopicProduct), 2)

	assert.ErrorIs(t, s.DeleteProduct(ctx, p.ID), errs.ErrNotFound)
}

func TestGetProducts_FilterAndSort(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	createProduct(t, s, "a", 300)
	createProduct(t, s, "b", 100)
	createProduct(t, s, "c", 200)

	minPrice := int64(150)
	total, items, err := s.GetProducts(ctx, repo.ProductFilter{MinPrice: &minPrice, Sort: "price_asc"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, "c", items[0].Name)
	assert.Equal(t, "a", items[1].Name)

	maxPrice := int64(100)
	_, _, err = s.GetProducts(ctx, repo.ProductFilter{MinPrice: &minPrice, MaxPrice: &maxPrice}, 0, 10)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestSearchProducts_UsesEngineOrder(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	first := createProduct(t, s, "red mug", 100)
	second := createProduct(t, s, "blue mug", 100)

	s.Search = &fakeEngine{hits: []uuid.UUID{second.ID, first.ID}}
	total, items, err := s.SearchProducts(ctx, "mug", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
}

func TestSearchProducts_FallsBackToDatabase(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	createProduct(t, s, "Travel Mug", 100)
	createProduct(t, s, "Teapot", 100)

	s.Search = &fakeEngine{fail: errors.New("cluster down")}
	total, items, err := s.SearchProducts(ctx, "mug", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Travel Mug", items[0].Name)

	_, _, err = s.SearchProducts(ctx, "   ", 0, 10)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestAddReview_UpdatesRatingAndRejectsDuplicates(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	p := createProduct(t, s, "desk", 10000)
	alice, bob := uuid.New(), uuid.New()

	_, err := s.AddReview(ctx, p.ID, alice, transport.CreateReviewRequest{Rating: 5, Comment: "great"})
	require.NoError(t, err)
	_, err = s.AddReview(ctx, p.ID, bob, transport.CreateReviewRequest{Rating: 2})
	require.NoError(t, err)

	_, err = s.AddReview(ctx, p.ID, alice, transport.CreateReviewRequest{Rating: 4})
	assert.ErrorIs(t, err, errs.ErrConflict)

	_, err = s.AddReview(ctx, p.ID, uuid.New(), transport.CreateReviewRequest{Rating: 6})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = s.AddReview(ctx, uuid.New(), alice, transport.CreateReviewRequest{Rating: 3})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.NumReviews)
	assert.InDelta(t, 3.5, got.Rating, 0.001)

	reviews, err := s.ListReviews(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
}

func TestCreateCategory(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	c, err := s.CreateCategory(ctx, transport.CreateCategoryRequest{Name: "Home & Kitchen"})
	require.NoError(t, err)
	assert.Equal(t, "home-kitchen", c.Slug)

	_, err = s.CreateCategory(ctx, transport.CreateCategoryRequest{Name: "Home & Kitchen"})
	assert.ErrorIs(t, err, errs.ErrConflict)

	_, err = s.CreateCategory(ctx, transport.CreateCategoryRequest{Name: "!!"})
	assert.ErrorIs(t, err, errs.ErrValidation)

	p, err := s.CreateProduct(ctx, transport.CreateProductRequest{Name: "pan", Price: 100, CategoryID: &c.ID})
	require.NoError(t, err)
	total, _, err := s.GetProducts(ctx, repo.ProductFilter{CategoryID: &c.ID}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, &c.ID, p.CategoryID)

	list, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
