package catalog

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fasilahammed/snapmob-client/internal/rest"
	pkgerrors "github.com/fasilahammed/snapmob-client/pkg/errors"
	"github.com/fasilahammed/snapmob-client/pkg/logger"
	"github.com/fasilahammed/snapmob-client/pkg/validate"
	"github.com/shopspring/decimal"
)

const (
	defaultPage     = 1
	defaultPageSize = 12
)

// Product is the catalog item shape shared by the storefront and admin
// views.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Brand       string          `json:"brandName"`
	BrandID     string          `json:"brandId"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Images      []string        `json:"imageUrls"`
	Stock       int             `json:"currentStock"`
	IsActive    bool            `json:"isActive"`
}

// Brand is one catalog brand.
type Brand struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Query is the transient UI filter state rendered into backend query
// parameters. Zero-valued fields are omitted entirely so the backend's
// default filtering applies.
type Query struct {
	Search   string
	BrandID  string
	MinPrice int
	MaxPrice int
	Page     int
	PageSize int
}

// Values renders the query string, defaulting page and page size.
func (q Query) Values() url.Values {
	params := url.Values{}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.BrandID != "" {
		params.Set("brandId", q.BrandID)
	}
	if q.MinPrice != 0 {
		params.Set("minPrice", strconv.Itoa(q.MinPrice))
	}
	if q.MaxPrice != 0 {
		params.Set("maxPrice", strconv.Itoa(q.MaxPrice))
	}
	page := q.Page
	if page <= 0 {
		page = defaultPage
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(pageSize))
	return params
}

// Page is one page of catalog results. TotalCount always comes from the
// backend, never from counting a local set.
type Page struct {
	Products   []Product `json:"products"`
	TotalCount int       `json:"totalCount"`
}

// PriceRange is one selectable price band.
type PriceRange struct {
	Min int
	Max int
}

// CollapseRanges folds a multi-select of price ranges into the single
// [lowest min, highest max] envelope the backend accepts. The union of
// disjoint ranges is therefore approximated by one enclosing range, which
// can over-include products priced between the selected bands.
func CollapseRanges(ranges []PriceRange) (minPrice, maxPrice int, ok bool) {
	if len(ranges) == 0 {
		return 0, 0, false
	}
	minPrice, maxPrice = ranges[0].Min, ranges[0].Max
	for _, r := range ranges[1:] {
		if r.Min < minPrice {
			minPrice = r.Min
		}
		if r.Max > maxPrice {
			maxPrice = r.Max
		}
	}
	return minPrice, maxPrice, true
}

// ProductInput is the admin create/update form payload.
type ProductInput struct {
	Name        string   `json:"name" validate:"required"`
	BrandID     string   `json:"brandId" validate:"required"`
	Price       int      `json:"price" validate:"required,min=1"`
	Description string   `json:"description"`
	Stock       int      `json:"currentStock" validate:"min=0"`
	Images      []string `json:"imageUrls"`
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	API    *rest.Client
	Logger *logger.Logger
}

// Service is the catalog query layer. Pure request/response translation:
// no caching, every filter or page change is a fresh round-trip.
type Service struct {
	api *rest.Client
	log *logger.Logger
}

// NewService builds the catalog service.
func NewService(params ServiceParams) (*Service, error) {
	if params.API == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "api client is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &Service{api: params.API, log: params.Logger}, nil
}

// GetProducts fetches one filtered, paginated catalog page.
func (s *Service) GetProducts(ctx context.Context, query Query) (Page, error) {
	var page Page
	err := s.api.Do(ctx, rest.Request{
		Method: http.MethodGet,
		Route:  "/products",
		Path:   "/products",
		Query:  query.Values(),
		Out:    &page,
	})
	if err != nil {
		return Page{}, err
	}
	if page.Products == nil {
		page.Products = []Product{}
	}
	return page, nil
}

// GetProductByID fetches a single product.
func (s *Service) GetProductByID(ctx context.Context, id string) (*Product, error) {
	var product Product
	err := s.api.Do(ctx, rest.Request{
		Method: http.MethodGet,
		Route:  "/products/{id}",
		Path:   "/products/" + id,
		Out:    &product,
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetAllBrands lists every catalog brand.
func (s *Service) GetAllBrands(ctx context.Context) ([]Brand, error) {
	var brands []Brand
	if err := s.api.Get(ctx, "/productbrand", nil, &brands); err != nil {
		return nil, err
	}
	return brands, nil
}

// Create adds a product (admin).
func (s *Service) Create(ctx context.Context, input ProductInput) (*Product, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	var product Product
	if err := s.api.Post(ctx, "/products", input, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Update rewrites a product (admin).
func (s *Service) Update(ctx context.Context, id string, input ProductInput) (*Product, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	var product Product
	err := s.api.Do(ctx, rest.Request{
		Method: http.MethodPut,
		Route:  "/products/{id}",
		Path:   "/products/" + id,
		Body:   input,
		Out:    &product,
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Delete removes a product (admin).
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.api.Do(ctx, rest.Request{
		Method: http.MethodDelete,
		Route:  "/products/{id}",
		Path:   "/products/" + id,
	})
}

// ToggleStatus flips a product's active flag (admin).
func (s *Service) ToggleStatus(ctx context.Context, id string) error {
	return s.api.Do(ctx, rest.Request{
		Method: http.MethodPatch,
		Route:  "/products/{id}/toggle-status",
		Path:   "/products/" + id + "/toggle-status",
	})
}
