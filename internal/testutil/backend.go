// Package testutil provides an in-memory stand-in for the storefront
// backend so package tests can drive the client against realistic
// envelope responses without a network.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

// Product seeds one catalog item.
type Product struct {
	ID          string
	Name        string
	BrandID     string
	BrandName   string
	Price       int
	Stock       int
	Active      bool
	Description string
	Images      []string
}

// Account seeds one user.
type Account struct {
	ID       string
	Name     string
	Email    string
	Password string
	Role     string
	Phone    string
	Blocked  bool
}

type cartLine struct {
	ID        string
	ProductID string
	Quantity  int
}

type orderItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Brand    string `json:"brandName"`
	ImageURL string `json:"imageUrl"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
}

type orderRec struct {
	ID            string      `json:"id"`
	CreatedOn     time.Time   `json:"createdOn"`
	Items         []orderItem `json:"items"`
	TotalAmount   int         `json:"totalAmount"`
	Status        string      `json:"orderStatus"`
	PaymentMethod string      `json:"paymentMethod"`
	BillingName   string      `json:"billingName"`
	BillingPhone  string      `json:"billingPhone"`
	BillingStreet string      `json:"billingStreet"`
	BillingCity   string      `json:"billingCity"`
	BillingState  string      `json:"billingState"`
	BillingZip    string      `json:"billingZip"`

	userID string
}

// Backend is the fake storefront API. All state lives behind one mutex;
// handlers mutate it the way the real backend would so client behavior
// (reload-after-mutation, stock caps, status transitions) can be observed.
type Backend struct {
	Secret string

	mu        sync.Mutex
	accounts  []*Account
	products  []*Product
	carts     map[string][]*cartLine
	wishlists map[string][]string
	orders    []*orderRec
	nextID    int
	requests  []string
}

// NewBackend returns an empty backend with a fixed signing secret.
func NewBackend() *Backend {
	return &Backend{
		Secret:    "test-secret",
		carts:     map[string][]*cartLine{},
		wishlists: map[string][]string{},
	}
}

// SeedAccount registers a user, assigning an ID when absent.
func (b *Backend) SeedAccount(account Account) *Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	if account.ID == "" {
		account.ID = b.newID("u")
	}
	if account.Role == "" {
		account.Role = "user"
	}
	seeded := account
	b.accounts = append(b.accounts, &seeded)
	return &seeded
}

// SeedProduct adds a catalog item, assigning an ID when absent.
func (b *Backend) SeedProduct(product Product) *Product {
	b.mu.Lock()
	defer b.mu.Unlock()
	if product.ID == "" {
		product.ID = b.newID("p")
	}
	seeded := product
	b.products = append(b.products, &seeded)
	return &seeded
}

// MintToken issues a bearer token carrying the backend's claim names.
func (b *Backend) MintToken(account *Account, expiry time.Time) string {
	claims := jwt.MapClaims{
		"nameid":      account.ID,
		"email":       account.Email,
		"role":        account.Role,
		"unique_name": account.Name,
		"exp":         expiry.Unix(),
	}
	if account.Blocked {
		claims["blocked"] = true
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(b.Secret))
	if err != nil {
		panic(fmt.Sprintf("mint token: %v", err))
	}
	return token
}

// RequestCount returns how many requests matched the "METHOD /path" prefix,
// or the total when prefix is empty.
func (b *Backend) RequestCount(prefix string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if prefix == "" {
		return len(b.requests)
	}
	count := 0
	for _, r := range b.requests {
		if strings.HasPrefix(r, prefix) {
			count++
		}
	}
	return count
}

// CartQuantity reports the seeded user's current quantity for a product.
func (b *Backend) CartQuantity(userID, productID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, line := range b.carts[userID] {
		if line.ProductID == productID {
			return line.Quantity
		}
	}
	return 0
}

// Server starts an httptest server for the backend.
func (b *Backend) Server() *httptest.Server {
	return httptest.NewServer(b.Handler())
}

// Handler builds the API router.
func (b *Backend) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record)

	r.Post("/auth/login", b.handleLogin)
	r.Post("/auth/register", b.handleRegister)

	r.Group(func(r chi.Router) {
		r.Use(b.authenticate)

		r.Get("/cart", b.handleGetCart)
		r.Post("/cart", b.handleAddToCart)
		r.Delete("/cart/clear", b.handleClearCart)
		r.Put("/cart/{lineID}", b.handleUpdateCartLine)
		r.Delete("/cart/{lineID}", b.handleRemoveCartLine)

		r.Get("/orders", b.handleListOrders)
		r.Post("/orders/checkout", b.handleCheckout)
		r.Get("/orders/admin/filter", b.handleAdminFilterOrders)
		r.Post("/orders/admin/update-status/{orderID}", b.handleAdminUpdateStatus)
		r.Post("/orders/cancel/{orderID}", b.handleCancelOrder)
		r.Get("/orders/{orderID}", b.handleGetOrder)
		r.Delete("/orders/{orderID}", b.handleDeleteOrder)

		r.Get("/wishlist", b.handleGetWishlist)
		r.Post("/wishlist/{productID}", b.handleToggleWishlist)

		r.Post("/products", b.handleCreateProduct)
		r.Put("/products/{productID}", b.handleUpdateProduct)
		r.Delete("/products/{productID}", b.handleDeleteProduct)
		r.Patch("/products/{productID}/toggle-status", b.handleToggleProductStatus)

		r.Get("/user", b.handleListUsers)
		r.Get("/user/{userID}", b.handleGetUser)
		r.Put("/user/{userID}", b.handleUpdateUser)
		r.Patch("/user/{userID}/change-password", b.handleChangePassword)
		r.Patch("/user/block-unblock/{userID}", b.handleBlockUnblock)
		r.Delete("/user/{userID}", b.handleDeleteUser)

		r.Post("/payments/razorpay/create", b.handleCreatePayment)
		r.Post("/payments/razorpay/verify", b.handleVerifyPayment)
	})

	// Products are browsable without a session.
	r.Get("/products", b.handleListProducts)
	r.Get("/products/{productID}", b.handleGetProduct)
	r.Get("/productbrand", b.handleListBrands)

	return r
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, r.Method+" "+r.URL.Path)
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

type accountKey struct{}

func (b *Backend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeEnvelope(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")
		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return []byte(b.Secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeEnvelope(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		userID, _ := claims["nameid"].(string)
		account := b.findAccountByID(userID)
		if account == nil || account.Blocked {
			writeEnvelope(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(withAccount(r.Context(), account)))
	})
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeEnvelope(w, http.StatusBadRequest, "invalid body", nil)
		return
	}

	account := b.findAccountByEmail(body.Email)
	if account == nil || account.Password != body.Password {
		writeEnvelope(w, http.StatusBadRequest, "invalid credentials", nil)
		return
	}

	// A blocked account still gets a decodable token carrying the blocked
	// claim; rejecting it is the client's cross-check.
	token := b.MintToken(account, time.Now().Add(time.Hour))
	writeJSON(w, http.StatusOK, map[string]any{
		"statusCode":  http.StatusOK,
		"message":     "login successful",
		"accessToken": token,
	})
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeEnvelope(w, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if b.findAccountByEmail(body.Email) != nil {
		writeEnvelope(w, http.StatusConflict, "email already registered", nil)
		return
	}
	account := b.SeedAccount(Account{Name: body.Name, Email: body.Email, Password: body.Password})
	token := b.MintToken(account, time.Now().Add(time.Hour))
	writeJSON(w, http.StatusCreated, map[string]any{
		"statusCode":  http.StatusCreated,
		"message":     "registered",
		"accessToken": token,
	})
}

func (b *Backend) handleGetCart(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	b.mu.Lock()
	items := make([]map[string]any, 0, len(b.carts[account.ID]))
	for _, line := range b.carts[account.ID] {
		product := b.findProductLocked(line.ProductID)
		if product == nil {
			continue
		}
		items = append(items, map[string]any{
			"id":           line.ID,
			"productId":    product.ID,
			"productName":  product.Name,
			"brandName":    product.BrandName,
			"price":        product.Price,
			"imageUrl":     firstImage(product),
			"quantity":     line.Quantity,
			"currentStock": product.Stock,
		})
	}
	b.mu.Unlock()
	writeEnvelope(w, http.StatusOK, "cart", map[string]any{"items": items})
}

func (b *Backend) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	var body struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Quantity < 1 {
		writeEnvelope(w, http.StatusBadRequest, "invalid body", nil)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	product := b.findProductLocked(body.ProductID)
	if product == nil {
		writeEnvelope(w, http.StatusNotFound, "product not found", nil)
		return
	}
	for _, line := range b.carts[account.ID] {
		if line.ProductID == product.ID {
			line.Quantity = capAt(line.Quantity+body.Quantity, product.Stock)
			writeEnvelope(w, http.StatusOK, "quantity updated", nil)
			return
		}
	}
	b.carts[account.ID] = append(b.carts[account.ID], &cartLine{
		ID:        b.newID("cl"),
		ProductID: product.ID,
		Quantity:  capAt(body.Quantity, product.Stock),
	})
	writeEnvelope(w, http.StatusOK, "added to cart", nil)
}

func (b *Backend) handleUpdateCartLine(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	lineID := chi.URLParam(r, "lineID")
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Quantity < 1 {
		writeEnvelope(w, http.StatusBadRequest, "quantity must be at least 1", nil)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, line := range b.carts[account.ID] {
		if line.ID == lineID {
			product := b.findProductLocked(line.ProductID)
			if product != nil {
				line.Quantity = capAt(body.Quantity, product.Stock)
			} else {
				line.Quantity = body.Quantity
			}
			writeEnvelope(w, http.StatusOK, "quantity updated", nil)
			return
		}
	}
	writeEnvelope(w, http.StatusNotFound, "cart line not found", nil)
}

func (b *Backend) handleRemoveCartLine(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	lineID := chi.URLParam(r, "lineID")

	b.mu.Lock()
	defer b.mu.Unlock()
	lines := b.carts[account.ID]
	for i, line := range lines {
		if line.ID == lineID {
			b.carts[account.ID] = append(lines[:i], lines[i+1:]...)
			writeEnvelope(w, http.StatusOK, "removed", nil)
			return
		}
	}
	writeEnvelope(w, http.StatusNotFound, "cart line not found", nil)
}

func (b *Backend) handleClearCart(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	b.mu.Lock()
	b.carts[account.ID] = nil
	b.mu.Unlock()
	writeEnvelope(w, http.StatusOK, "cart cleared", nil)
}

func (b *Backend) handleListOrders(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	b.mu.Lock()
	orders := make([]*orderRec, 0)
	for _, order := range b.orders {
		if order.userID == account.ID {
			orders = append(orders, order)
		}
	}
	b.mu.Unlock()
	writeEnvelope(w, http.StatusOK, "orders", orders)
}

func (b *Backend) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	orderID := chi.URLParam(r, "orderID")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, order := range b.orders {
		if order.ID == orderID && order.userID == account.ID {
			writeEnvelope(w, http.StatusOK, "order", order)
			return
		}
	}
	writeEnvelope(w, http.StatusNotFound, "order not found", nil)
}

func (b *Backend) handleCheckout(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	var body struct {
		FullName    string `json:"fullName"`
		PhoneNumber string `json:"phoneNumber"`
		Street      string `json:"street"`
		City        string `json:"city"`
		State       string `json:"state"`
		ZipCode     string `json:"zipCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeEnvelope(w, http.StatusBadRequest, "invalid body", nil)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	order, err := b.buildOrderLocked(account, "cod", body.FullName, body.PhoneNumber, body.Street, body.City, body.State, body.ZipCode)
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	writeEnvelope(w, http.StatusOK, "order placed", order)
}

func (b *Backend) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	orderID := chi.URLParam(r, "orderID")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, order := range b.orders {
		if order.ID != orderID || order.userID != account.ID {
			continue
		}
		if order.Status != "Processing" {
			writeEnvelope(w, http.StatusUnprocessableEntity, "order can no longer be cancelled", nil)
			return
		}
		order.Status = "Cancelled"
		writeEnvelope(w, http.StatusOK, "order cancelled", nil)
		return
	}
	writeEnvelope(w, http.StatusNotFound, "order not found", nil)
}

func (b *Backend) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	orderID := chi.URLParam(r, "orderID")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, order := range b.orders {
		if order.ID != orderID || order.userID != account.ID {
			continue
		}
		if order.Status != "Cancelled" {
			writeEnvelope(w, http.StatusUnprocessableEntity, "only cancelled orders can be deleted", nil)
			return
		}
		b.orders = append(b.orders[:i], b.orders[i+1:]...)
		writeEnvelope(w, http.StatusOK, "order deleted", nil)
		return
	}
	writeEnvelope(w, http.StatusNotFound, "order not found", nil)
}

func (b *Backend) handleAdminFilterOrders(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	status := r.URL.Query().Get("status")
	search := strings.ToLower(r.URL.Query().Get("search"))

	b.mu.Lock()
	orders := make([]*orderRec, 0)
	for _, order := range b.orders {
		if status != "" && status != "all" && order.Status != status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(order.ID), search) &&
			!strings.Contains(strings.ToLower(order.BillingName), search) {
			continue
		}
		orders = append(orders, order)
	}
	b.mu.Unlock()
	writeEnvelope(w, http.StatusOK, "orders", orders)
}

func (b *Backend) handleAdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	orderID := chi.URLParam(r, "orderID")
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		writeEnvelope(w, http.StatusBadRequest, "invalid body", nil)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, order := range b.orders {
		if order.ID == orderID {
			order.Status = body.Status
			writeEnvelope(w, http.StatusOK, "status updated", nil)
			return
		}
	}
	writeEnvelope(w, http.StatusNotFound, "order not found", nil)
}

func (b *Backend) handleGetWishlist(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	b.mu.Lock()
	entries := make([]map[string]any, 0)
	for _, productID := range b.wishlists[account.ID] {
		product := b.findProductLocked(productID)
		if product == nil {
			continue
		}
		entries = append(entries, map[string]any{
			"productId":    product.ID,
			"productName":  product.Name,
			"brandName":    product.BrandName,
			"price":        product.Price,
			"imageUrls":    product.Images,
			"currentStock": product.Stock,
		})
	}
	b.mu.Unlock()
	writeEnvelope(w, http.StatusOK, "wishlist", entries)
}

func (b *Backend) handleToggleWishlist(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	productID := chi.URLParam(r, "productID")

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.findProductLocked(productID) == nil {
		writeEnvelope(w, http.StatusNotFound, "product not found", nil)
		return
	}
	list := b.wishlists[account.ID]
	for i, id := range list {
		if id == productID {
			b.wishlists[account.ID] = append(list[:i], list[i+1:]...)
			writeEnvelope(w, http.StatusOK, "removed from wishlist", nil)
			return
		}
	}
	b.wishlists[account.ID] = append(list, productID)
	writeEnvelope(w, http.StatusOK, "added to wishlist", nil)
}

func (b *Backend) handleListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	search := strings.ToLower(query.Get("search"))
	brandID := query.Get("brandId")
	minPrice, hasMin := intParam(query.Get("minPrice"))
	maxPrice, hasMax := intParam(query.Get("maxPrice"))
	page, _ := intParam(query.Get("page"))
	pageSize, _ := intParam(query.Get("pageSize"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 12
	}

	b.mu.Lock()
	filtered := make([]*Product, 0, len(b.products))
	for _, p := range b.products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.BrandName), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		if brandID != "" && p.BrandID != brandID {
			continue
		}
		if hasMin && p.Price < minPrice {
			continue
		}
		if hasMax && p.Price > maxPrice {
			continue
		}
		filtered = append(filtered, p)
	}
	totalCount := len(filtered)

	start := (page - 1) * pageSize
	if start > totalCount {
		start = totalCount
	}
	end := start + pageSize
	if end > totalCount {
		end = totalCount
	}
	pageItems := make([]map[string]any, 0, end-start)
	for _, p := range filtered[start:end] {
		pageItems = append(pageItems, productJSON(p))
	}
	b.mu.Unlock()

	writeEnvelope(w, http.StatusOK, "products", map[string]any{
		"products":   pageItems,
		"totalCount": totalCount,
	})
}

func (b *Backend) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	b.mu.Lock()
	product := b.findProductLocked(productID)
	b.mu.Unlock()
	if product == nil {
		writeEnvelope(w, http.StatusNotFound, "product not found", nil)
		return
	}
	writeEnvelope(w, http.StatusOK, "product", productJSON(product))
}

func (b *Backend) handleListBrands(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	seen := map[string]bool{}
	brands := make([]map[string]any, 0)
	for _, p := range b.products {
		if seen[p.BrandID] {
			continue
		}
		seen[p.BrandID] = true
		brands = append(brands, map[string]any{"id": p.BrandID, "name": p.BrandName})
	}
	b.mu.Unlock()
	writeEnvelope(w, http.StatusOK, "brands", brands)
}

func (b *Backend) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	var body struct {
		Name        string   `json:"name"`
		BrandID     string   `json:"brandId"`
		Price       int      `json:"price"`
		Description string   `json:"description"`
		Stock       int      `json:"currentStock"`
		Images      []string `json:"imageUrls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeEnvelope(w, http.StatusBadRequest, "invalid body", nil)
		return
	}
	product := b.SeedProduct(Product{
		Name:        body.Name,
		BrandID:     body.BrandID,
		Price:       body.Price,
		Description: body.Description,
		Stock:       body.Stock,
		Images:      body.Images,
		Active:      true,
	})
	writeEnvelope(w, http.StatusOK, "product created", productJSON(product))
}

func (b *Backend) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	productID := chi.URLParam(r, "productID")
	var body struct {
		Name        string   `json:"name"`
		BrandID     string   `json:"brandId"`
		Price       int      `json:"price"`
		Description string   `json:"description"`
		Stock       int      `json:"currentStock"`
		Images      []string `json:"imageUrls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeEnvelope(w, http.StatusBadRequest, "invalid body", nil)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	product := b.findProductLocked(productID)
	if product == nil {
		writeEnvelope(w, http.StatusNotFound, "product not found", nil)
		return
	}
	product.Name = body.Name
	product.BrandID = body.BrandID
	product.Price = body.Price
	product.Description = body.Description
	product.Stock = body.Stock
	product.Images = body.Images
	writeEnvelope(w, http.StatusOK, "product updated", productJSON(product))
}

func (b *Backend) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	productID := chi.URLParam(r, "productID")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, p := range b.products {
		if p.ID == productID {
			b.products = append(b.products[:i], b.products[i+1:]...)
			writeEnvelope(w, http.StatusOK, "product deleted", nil)
			return
		}
	}
	writeEnvelope(w, http.StatusNotFound, "product not found", nil)
}

func (b *Backend) handleToggleProductStatus(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	productID := chi.URLParam(r, "productID")
	b.mu.Lock()
	defer b.mu.Unlock()
	product := b.findProductLocked(productID)
	if product == nil {
		writeEnvelope(w, http.StatusNotFound, "product not found", nil)
		return
	}
	product.Active = !product.Active
	writeEnvelope(w, http.StatusOK, "status toggled", nil)
}

func (b *Backend) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	b.mu.Lock()
	users := make([]map[string]any, 0, len(b.accounts))
	for _, account := range b.accounts {
		users = append(users, userJSON(account))
	}
	b.mu.Unlock()
	writeEnvelope(w, http.StatusOK, "users", users)
}

func (b *Backend) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	account := b.findAccountByID(userID)
	if account == nil {
		writeEnvelope(w, http.StatusNotFound, "user not found", nil)
		return
	}
	writeEnvelope(w, http.StatusOK, "user", userJSON(account))
}

func (b *Backend) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var body struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeEnvelope(w, http.StatusBadRequest, "invalid body", nil)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, account := range b.accounts {
		if account.ID == userID {
			account.Name = body.Name
			account.Phone = body.Phone
			writeEnvelope(w, http.StatusOK, "user updated", userJSON(account))
			return
		}
	}
	writeEnvelope(w, http.StatusNotFound, "user not found", nil)
}

func (b *Backend) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeEnvelope(w, http.StatusBadRequest, "invalid body", nil)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, account := range b.accounts {
		if account.ID != userID {
			continue
		}
		if account.Password != body.CurrentPassword {
			writeEnvelope(w, http.StatusBadRequest, "current password is incorrect", nil)
			return
		}
		account.Password = body.NewPassword
		writeEnvelope(w, http.StatusOK, "password changed", nil)
		return
	}
	writeEnvelope(w, http.StatusNotFound, "user not found", nil)
}

func (b *Backend) handleBlockUnblock(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	userID := chi.URLParam(r, "userID")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, account := range b.accounts {
		if account.ID == userID {
			account.Blocked = !account.Blocked
			writeEnvelope(w, http.StatusOK, "block status updated", nil)
			return
		}
	}
	writeEnvelope(w, http.StatusNotFound, "user not found", nil)
}

func (b *Backend) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	userID := chi.URLParam(r, "userID")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, account := range b.accounts {
		if account.ID == userID {
			b.accounts = append(b.accounts[:i], b.accounts[i+1:]...)
			writeEnvelope(w, http.StatusOK, "user deleted", nil)
			return
		}
	}
	writeEnvelope(w, http.StatusNotFound, "user not found", nil)
}

func (b *Backend) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, line := range b.carts[account.ID] {
		if product := b.findProductLocked(line.ProductID); product != nil {
			total += product.Price * line.Quantity
		}
	}
	if total == 0 {
		writeEnvelope(w, http.StatusBadRequest, "cart is empty", nil)
		return
	}
	gatewayOrderID := b.newID("rzp")
	writeEnvelope(w, http.StatusOK, "payment order created", map[string]any{
		"orderId":  gatewayOrderID,
		"key":      "key_test",
		"amount":   total * 100,
		"currency": "INR",
	})
}

func (b *Backend) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	var body struct {
		RazorpayOrderID   string `json:"razorpayOrderId"`
		RazorpayPaymentID string `json:"razorpayPaymentId"`
		RazorpaySignature string `json:"razorpaySignature"`
		FullName          string `json:"fullName"`
		PhoneNumber       string `json:"phoneNumber"`
		Street            string `json:"street"`
		City              string `json:"city"`
		State             string `json:"state"`
		ZipCode           string `json:"zipCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeEnvelope(w, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if body.RazorpaySignature != "sig_"+body.RazorpayOrderID {
		writeEnvelope(w, http.StatusBadRequest, "signature verification failed", nil)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	order, err := b.buildOrderLocked(account, "razorpay", body.FullName, body.PhoneNumber, body.Street, body.City, body.State, body.ZipCode)
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	writeEnvelope(w, http.StatusOK, "payment verified", order)
}

func (b *Backend) buildOrderLocked(account *Account, paymentMethod, name, phone, street, city, state, zip string) (*orderRec, error) {
	lines := b.carts[account.ID]
	if len(lines) == 0 {
		return nil, fmt.Errorf("cart is empty")
	}

	items := make([]orderItem, 0, len(lines))
	total := 0
	for _, line := range lines {
		product := b.findProductLocked(line.ProductID)
		if product == nil {
			continue
		}
		items = append(items, orderItem{
			ID:       b.newID("oi"),
			Name:     product.Name,
			Brand:    product.BrandName,
			ImageURL: firstImage(product),
			Price:    product.Price,
			Quantity: line.Quantity,
		})
		total += product.Price * line.Quantity
	}

	order := &orderRec{
		ID:            b.newID("ord"),
		CreatedOn:     time.Now().UTC(),
		Items:         items,
		TotalAmount:   total,
		Status:        "Processing",
		PaymentMethod: paymentMethod,
		BillingName:   name,
		BillingPhone:  phone,
		BillingStreet: street,
		BillingCity:   city,
		BillingState:  state,
		BillingZip:    zip,
		userID:        account.ID,
	}
	b.orders = append(b.orders, order)
	b.carts[account.ID] = nil
	return order, nil
}

func (b *Backend) findAccountByEmail(email string) *Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, account := range b.accounts {
		if strings.EqualFold(account.Email, email) {
			return account
		}
	}
	return nil
}

func (b *Backend) findAccountByID(id string) *Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, account := range b.accounts {
		if account.ID == id {
			return account
		}
	}
	return nil
}

func (b *Backend) findProductLocked(id string) *Product {
	for _, p := range b.products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (b *Backend) newID(prefix string) string {
	b.nextID++
	return fmt.Sprintf("%s-%d", prefix, b.nextID)
}

func productJSON(p *Product) map[string]any {
	return map[string]any{
		"id":           p.ID,
		"name":         p.Name,
		"brandId":      p.BrandID,
		"brandName":    p.BrandName,
		"price":        p.Price,
		"description":  p.Description,
		"imageUrls":    p.Images,
		"currentStock": p.Stock,
		"isActive":     p.Active,
	}
}

func userJSON(a *Account) map[string]any {
	return map[string]any{
		"id":        a.ID,
		"name":      a.Name,
		"email":     a.Email,
		"role":      a.Role,
		"phone":     a.Phone,
		"isBlocked": a.Blocked,
	}
}

func firstImage(p *Product) string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

func capAt(quantity, stock int) int {
	if stock > 0 && quantity > stock {
		return stock
	}
	return quantity
}

func intParam(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	account := accountFrom(r)
	if account == nil || account.Role != "admin" {
		writeEnvelope(w, http.StatusForbidden, "admin access required", nil)
		return false
	}
	return true
}

func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, map[string]any{
		"statusCode": status,
		"message":    message,
		"data":       data,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
