package catalog_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fasilahammed/snapmob-client/internal/catalog"
	"github.com/fasilahammed/snapmob-client/internal/testutil"
	pkgerrors "github.com/fasilahammed/snapmob-client/pkg/errors"
)

func seedStorefront(h *testutil.Harness) {
	h.Backend.SeedProduct(testutil.Product{
		ID: "p-pixel", Name: "Pixel 9", BrandID: "b-google", BrandName: "Google",
		Price: 699, Stock: 5, Active: true,
	})
	h.Backend.SeedProduct(testutil.Product{
		ID: "p-iphone", Name: "iPhone 16", BrandID: "b-apple", BrandName: "Apple",
		Price: 999, Stock: 3, Active: true,
	})
	h.Backend.SeedProduct(testutil.Product{
		ID: "p-galaxy", Name: "Galaxy S25", BrandID: "b-samsung", BrandName: "Samsung",
		Price: 899, Stock: 7, Active: true,
	})
}

func TestQueryValuesOmitsZeroFilters(t *testing.T) {
	values := catalog.Query{}.Values()

	assert.Empty(t, values.Get("search"))
	assert.False(t, values.Has("search"))
	assert.False(t, values.Has("brandId"))
	assert.False(t, values.Has("minPrice"))
	assert.False(t, values.Has("maxPrice"))
	assert.Equal(t, "1", values.Get("page"))
	assert.Equal(t, "12", values.Get("pageSize"))
}

func TestQueryValuesRendersFilters(t *testing.T) {
	values := catalog.Query{
		Search:   "pixel",
		BrandID:  "b-google",
		MinPrice: 500,
		MaxPrice: 1000,
		Page:     2,
		PageSize: 6,
	}.Values()

	assert.Equal(t, "pixel", values.Get("search"))
	assert.Equal(t, "b-google", values.Get("brandId"))
	assert.Equal(t, "500", values.Get("minPrice"))
	assert.Equal(t, "1000", values.Get("maxPrice"))
	assert.Equal(t, "2", values.Get("page"))
	assert.Equal(t, "6", values.Get("pageSize"))
}

func TestCollapseRanges(t *testing.T) {
	minPrice, maxPrice, ok := catalog.CollapseRanges([]catalog.PriceRange{
		{Min: 100, Max: 300},
		{Min: 800, Max: 1200},
	})
	require.True(t, ok)
	assert.Equal(t, 100, minPrice)
	assert.Equal(t, 1200, maxPrice)

	_, _, ok = catalog.CollapseRanges(nil)
	assert.False(t, ok)

	minPrice, maxPrice, ok = catalog.CollapseRanges([]catalog.PriceRange{{Min: 50, Max: 99}})
	require.True(t, ok)
	assert.Equal(t, 50, minPrice)
	assert.Equal(t, 99, maxPrice)
}

func TestGetProductsUnfiltered(t *testing.T) {
	h := testutil.NewHarness(t)
	seedStorefront(h)

	page, err := h.Catalog.GetProducts(context.Background(), catalog.Query{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	assert.Len(t, page.Products, 3)
}

func TestGetProductsPriceEnvelope(t *testing.T) {
	h := testutil.NewHarness(t)
	seedStorefront(h)

	minPrice, maxPrice, ok := catalog.CollapseRanges([]catalog.PriceRange{
		{Min: 600, Max: 700},
		{Min: 950, Max: 1000},
	})
	require.True(t, ok)

	page, err := h.Catalog.GetProducts(context.Background(), catalog.Query{
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	})
	require.NoError(t, err)

	// The collapsed envelope spans 600..1000, so the 899 Galaxy between the
	// two selected bands is included as well.
	assert.Equal(t, 3, page.TotalCount)
}

func TestGetProductsSearchAndBrand(t *testing.T) {
	h := testutil.NewHarness(t)
	seedStorefront(h)

	page, err := h.Catalog.GetProducts(context.Background(), catalog.Query{Search: "pixel"})
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalCount)
	assert.Equal(t, "Pixel 9", page.Products[0].Name)

	page, err = h.Catalog.GetProducts(context.Background(), catalog.Query{BrandID: "b-apple"})
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalCount)
	assert.Equal(t, "iPhone 16", page.Products[0].Name)
}

func TestGetProductsPagination(t *testing.T) {
	h := testutil.NewHarness(t)
	seedStorefront(h)

	first, err := h.Catalog.GetProducts(context.Background(), catalog.Query{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, first.TotalCount, "total reflects the filtered set, not the page")
	assert.Len(t, first.Products, 2)

	second, err := h.Catalog.GetProducts(context.Background(), catalog.Query{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, second.TotalCount)
	assert.Len(t, second.Products, 1)

	third, err := h.Catalog.GetProducts(context.Background(), catalog.Query{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, third.Products)
}

func TestGetProductByID(t *testing.T) {
	h := testutil.NewHarness(t)
	seedStorefront(h)

	product, err := h.Catalog.GetProductByID(context.Background(), "p-pixel")
	require.NoError(t, err)
	assert.Equal(t, "Pixel 9", product.Name)
	assert.True(t, decimal.NewFromInt(699).Equal(product.Price))
	assert.Equal(t, 5, product.Stock)

	_, err = h.Catalog.GetProductByID(context.Background(), "p-missing")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestGetAllBrands(t *testing.T) {
	h := testutil.NewHarness(t)
	seedStorefront(h)

	brands, err := h.Catalog.GetAllBrands(context.Background())
	require.NoError(t, err)
	assert.Len(t, brands, 3)
}

func TestAdminProductLifecycle(t *testing.T) {
	h := testutil.NewHarness(t)
	h.SignIn(t, testutil.Account{Email: "admin@example.com", Password: "secret1", Role: "admin"})

	created, err := h.Catalog.Create(context.Background(), catalog.ProductInput{
		Name:    "OnePlus 13",
		BrandID: "b-oneplus",
		Price:   649,
		Stock:   10,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)

	updated, err := h.Catalog.Update(context.Background(), created.ID, catalog.ProductInput{
		Name:    "OnePlus 13 Pro",
		BrandID: "b-oneplus",
		Price:   749,
		Stock:   8,
	})
	require.NoError(t, err)
	assert.Equal(t, "OnePlus 13 Pro", updated.Name)

	require.NoError(t, h.Catalog.ToggleStatus(context.Background(), created.ID))
	fetched, err := h.Catalog.GetProductByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, fetched.IsActive)

	require.NoError(t, h.Catalog.Delete(context.Background(), created.ID))
	_, err = h.Catalog.GetProductByID(context.Background(), created.ID)
	require.Error(t, err)
}

func TestAdminProductEndpointsRequireAdmin(t *testing.T) {
	h := testutil.NewHarness(t)
	h.SignIn(t, testutil.Account{Email: "fasil@example.com", Password: "secret1"})

	_, err := h.Catalog.Create(context.Background(), catalog.ProductInput{
		Name:    "OnePlus 13",
		BrandID: "b-oneplus",
		Price:   649,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}

func TestCreateValidatesInput(t *testing.T) {
	h := testutil.NewHarness(t)
	before := h.Backend.RequestCount("POST /products")

	_, err := h.Catalog.Create(context.Background(), catalog.ProductInput{Name: "No Brand"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Equal(t, before, h.Backend.RequestCount("POST /products"))
}
