package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/services/catalog/internal/transport"
	"github.com/labstack/echo/v4"
)

func (h *CatalogHTTP) ListReviews(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.list")

	id, err := parseID(c, l, "list_reviews_error")
	if err != nil {
		return err
	}

	reviews, err := h.Svc.ListReviews(ctx, id)
	if err != nil {
		return httpError(l, "list_reviews_error", err)
	}
	return c.JSON(http.StatusOK, reviews)
}

func (h *CatalogHTTP) AddReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.add")

	userID, err := middleware.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	id, err := parseID(c, l, "add_review_error")
	if err != nil {
		return err
	}

	var req transport.CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_review_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	review, err := h.Svc.AddReview(ctx, id, userID, req)
	if err != nil {
		return httpError(l, "add_review_error", err)
	}

	l.Info("review added", "product_id", id, "rating", review.Rating)
	return c.JSON(http.StatusCreated, review)
}

func (h *CatalogHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.list")

	categories, err := h.Svc.ListCategories(ctx)
	if err != nil {
		return httpError(l, "list_categories_error", err)
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.create")

	var req transport.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_category_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	category, err := h.Svc.CreateCategory(ctx, req)
	if err != nil {
		return httpError(l, "create_category_error", err)
	}

	l.Info("category created", "slug", category.Slug)
	return c.JSON(http.StatusCreated, category)
}
