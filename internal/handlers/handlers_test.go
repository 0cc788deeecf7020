package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veloria/storefront/internal/cart"
	"github.com/veloria/storefront/internal/catalog"
	"github.com/veloria/storefront/internal/category"
	"github.com/veloria/storefront/internal/httpx"
	"github.com/veloria/storefront/internal/pricing"
	"github.com/veloria/storefront/internal/promo"
	"github.com/veloria/storefront/internal/stock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeBackend struct {
	result *catalog.Result
	err    error
	lastQ  catalog.Query
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Search(ctx context.Context, q catalog.Query) (*catalog.Result, error) {
	f.lastQ = q
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func perform(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListProductsClampsPagination(t *testing.T) {
	backend := &fakeBackend{result: &catalog.Result{
		Products: []catalog.Product{{ID: "p1", Title: "Pearl Pendant"}},
		Total:    1,
	}}
	h := NewCatalogHandler(catalog.NewCascade(catalog.DefaultCacheTTL, backend))

	router := gin.New()
	router.GET("/api/catalog/products", h.ListProducts)

	w := perform(router, http.MethodGet, "/api/catalog/products?limit=500&offset=-3&sort=bogus", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListProductsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 100, resp.Limit, "limit clamped to the maximum")
	assert.Zero(t, resp.Offset)
	assert.Equal(t, 1, resp.Total)

	assert.Equal(t, catalog.SortNewest, backend.lastQ.Sort, "unknown sort falls back to newest")
}

func TestListProductsRejectsNegativePrice(t *testing.T) {
	h := NewCatalogHandler(catalog.NewCascade(catalog.DefaultCacheTTL, &fakeBackend{result: catalog.EmptyResult()}))

	router := gin.New()
	router.GET("/api/catalog/products", h.ListProducts)

	w := perform(router, http.MethodGet, "/api/catalog/products?minPrice=-5", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func newCartRouter(t *testing.T) *gin.Engine {
	t.Helper()
	manager := cart.NewManager(cart.ManagerConfig{
		Calculator: pricing.NewCalculator(pricing.DefaultCalculatorConfig(), nil, nil),
		Stock:      stock.NewStaticValidator(map[string]int{"p1": 5}),
		Promos:     promo.NewStaticValidator(promo.DefaultCodes()),
		Repository: cart.NewMemoryRepository(),
	})
	h := NewCartHandler(manager)

	router := gin.New()
	api := router.Group("/api/cart/:sessionId")
	{
		api.GET("", h.GetCart)
		api.DELETE("", h.ClearCart)
		api.POST("/items", h.AddItem)
		api.PATCH("/items/:productId/quantity", h.UpdateQuantity)
		api.DELETE("/items/:productId", h.RemoveItem)
		api.POST("/promo", h.ApplyPromo)
		api.DELETE("/promo", h.RemovePromo)
		api.GET("/stock", h.ValidateCartStock)
		api.POST("/saved", h.SaveCart)
		api.GET("/saved", h.ListSaved)
	}
	return router
}

func TestCartEndpointsFlow(t *testing.T) {
	router := newCartRouter(t)

	w := perform(router, http.MethodPost, "/api/cart/s1/items",
		`{"product":{"id":"p1","name":"Signet Ring","basePriceHT":100,"stockStatus":"in_stock","available":5},"quantity":2}`)
	require.Equal(t, http.StatusOK, w.Code)

	var state cart.CartState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, 200.0, state.SubtotalHT)

	w = perform(router, http.MethodPost, "/api/cart/s1/promo", `{"code":"PRO20"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, 160.0, state.TotalHT)
	assert.Equal(t, "PRO20", state.PromoCode)

	// State persists across requests for the same session.
	w = perform(router, http.MethodGet, "/api/cart/s1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, 1, state.ItemCount)

	// A different session sees an empty cart.
	w = perform(router, http.MethodGet, "/api/cart/s2", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Empty(t, state.Items)

	w = perform(router, http.MethodDelete, "/api/cart/s1/items/p1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Zero(t, state.TotalHT)
}

func TestAddItemRejectsExcessQuantity(t *testing.T) {
	router := newCartRouter(t)

	w := perform(router, http.MethodPost, "/api/cart/s1/items",
		`{"product":{"id":"p1","name":"Signet Ring","basePriceHT":100},"quantity":9}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "available")
}

func TestUpdateQuantityUnknownItem(t *testing.T) {
	router := newCartRouter(t)

	w := perform(router, http.MethodPatch, "/api/cart/s1/items/ghost/quantity", `{"quantity":2}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveCartRejectsEmptyCart(t *testing.T) {
	router := newCartRouter(t)

	w := perform(router, http.MethodPost, "/api/cart/s1/saved", `{"name":"wishlist"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestValidatePromoEndpoint(t *testing.T) {
	h := NewValidationHandler(promo.NewStaticValidator(promo.DefaultCodes()), stock.NewStaticValidator(nil))
	router := gin.New()
	router.POST("/api/promo/validate", h.ValidatePromo)

	w := perform(router, http.MethodPost, "/api/promo/validate", `{"code":"pro20"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"discountPercent":20`)

	w = perform(router, http.MethodPost, "/api/promo/validate", `{"code":"NOPE"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(router, http.MethodPost, "/api/promo/validate", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateStockEndpoint(t *testing.T) {
	h := NewValidationHandler(promo.NewStaticValidator(nil), stock.NewStaticValidator(map[string]int{"p1": 3}))
	router := gin.New()
	router.POST("/api/stock/validate", h.ValidateStock)

	w := perform(router, http.MethodPost, "/api/stock/validate", `{"productId":"p1","quantity":5}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isValid":false`)
	assert.Contains(t, w.Body.String(), `"available":3`)

	w = perform(router, http.MethodPost, "/api/stock/validate", `{"quantity":5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func newCategoryRouter(t *testing.T) *gin.Engine {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"categories":[
			{"id":"c1","name":"Jewelry","handle":"jewelry"},
			{"id":"c2","name":"Rings","handle":"rings","parentId":"c1"}
		]}`))
	}))
	t.Cleanup(srv.Close)

	cfg := httpx.DefaultConfig(srv.URL)
	cfg.Retries = 0
	h := NewCategoryHandler(category.NewService(httpx.NewClient(cfg), 0))

	router := gin.New()
	router.GET("/api/catalog/categories/tree", h.GetCategoryTree)
	router.GET("/api/categories", h.ListCategories)
	router.GET("/api/catalog/categories/:handle/breadcrumbs", h.GetBreadcrumbs)
	return router
}

func TestCategoryEndpoints(t *testing.T) {
	router := newCategoryRouter(t)

	w := perform(router, http.MethodGet, "/api/catalog/categories/tree", "")
	require.Equal(t, http.StatusOK, w.Code)

	var tree CategoryTreeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tree))
	assert.Equal(t, 2, tree.Total)
	require.Len(t, tree.Tree, 1)
	assert.Equal(t, "jewelry", tree.Tree[0].Handle)

	w = perform(router, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":2`)

	w = perform(router, http.MethodGet, "/api/catalog/categories/rings/breadcrumbs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Jewelry")

	w = perform(router, http.MethodGet, "/api/catalog/categories/ghost/breadcrumbs", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCategoryEndpointsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	cfg := httpx.DefaultConfig(srv.URL)
	cfg.Retries = 0
	h := NewCategoryHandler(category.NewService(httpx.NewClient(cfg), 0))

	router := gin.New()
	router.GET("/api/categories", h.ListCategories)

	w := perform(router, http.MethodGet, "/api/categories", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthWithoutDependencies(t *testing.T) {
	h := NewHealthHandler(nil, nil, nil)
	router := gin.New()
	router.GET("/health", h.Check)

	w := perform(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "not configured")
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
