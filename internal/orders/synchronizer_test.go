package orders_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fasilahammed/snapmob-client/internal/orders"
	"github.com/fasilahammed/snapmob-client/internal/testutil"
	"github.com/fasilahammed/snapmob-client/pkg/enums"
	pkgerrors "github.com/fasilahammed/snapmob-client/pkg/errors"
)

var billing = orders.CheckoutInput{
	FullName:    "Fasil Ahammed",
	PhoneNumber: "+911234567890",
	Street:      "12 MG Road",
	City:        "Kochi",
	State:       "Kerala",
	ZipCode:     "682001",
}

func fillCart(t *testing.T, h *testutil.Harness) *testutil.Product {
	t.Helper()
	phone := h.Backend.SeedProduct(testutil.Product{
		Name:      "Pixel 9",
		BrandID:   "b-1",
		BrandName: "Google",
		Price:     699,
		Stock:     5,
		Active:    true,
	})
	h.Cart.Add(context.Background(), phone.ID)
	h.Cart.Add(context.Background(), phone.ID)
	require.Equal(t, 2, h.Cart.Count())
	return phone
}

func TestCheckoutValidatesBillingBeforeNetwork(t *testing.T) {
	h := testutil.NewHarness(t)
	h.SignIn(t, testutil.Account{Email: "fasil@example.com", Password: "secret1"})
	before := h.Backend.RequestCount("POST /orders/checkout")

	err := h.Orders.Checkout(context.Background(), orders.CheckoutInput{FullName: "Fasil"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Equal(t, before, h.Backend.RequestCount("POST /orders/checkout"))
}

func TestCheckoutPlacesOrderAndEmptiesCart(t *testing.T) {
	h := testutil.NewHarness(t)
	h.SignIn(t, testutil.Account{Email: "fasil@example.com", Password: "secret1"})
	fillCart(t, h)

	require.NoError(t, h.Orders.Checkout(context.Background(), billing))

	placed := h.Orders.Orders()
	require.Len(t, placed, 1)
	order := placed[0]
	assert.Equal(t, enums.OrderStatusProcessing, order.Status)
	assert.Equal(t, enums.PaymentMethodCOD, order.PaymentMethod)
	assert.True(t, decimal.NewFromInt(1398).Equal(order.TotalAmount), "got %s", order.TotalAmount)
	assert.Equal(t, "Fasil Ahammed", order.Name)
	assert.Equal(t, "682001", order.Zip)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, order.Cancellable())

	assert.Zero(t, h.Cart.Count(), "checkout empties the cart")
}

func TestCheckoutWithEmptyCartSurfacesBackendError(t *testing.T) {
	h := testutil.NewHarness(t)
	h.SignIn(t, testutil.Account{Email: "fasil@example.com", Password: "secret1"})

	err := h.Orders.Checkout(context.Background(), billing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cart is empty")
	assert.Empty(t, h.Orders.Orders())
}

func TestGetOrder(t *testing.T) {
	h := testutil.NewHarness(t)
	h.SignIn(t, testutil.Account{Email: "fasil@example.com", Password: "secret1"})
	fillCart(t, h)
	require.NoError(t, h.Orders.Checkout(context.Background(), billing))
	placed := h.Orders.Orders()[0]

	fetched, err := h.Orders.Get(context.Background(), placed.OrderID)
	require.NoError(t, err)
	assert.Equal(t, placed.OrderID, fetched.OrderID)

	_, err = h.Orders.Get(context.Background(), "no-such-order")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestCancelProcessingOrder(t *testing.T) {
	h := testutil.NewHarness(t)
	h.SignIn(t, testutil.Account{Email: "fasil@example.com", Password: "secret1"})
	fillCart(t, h)
	require.NoError(t, h.Orders.Checkout(context.Background(), billing))
	orderID := h.Orders.Orders()[0].OrderID

	h.Orders.Cancel(context.Background(), orderID)

	cancelled := h.Orders.Orders()[0]
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	assert.False(t, cancelled.Cancellable())
}

func TestCancelRefusedOnceShipped(t *testing.T) {
	h := testutil.NewHarness(t)
	admin := h.Backend.SeedAccount(testutil.Account{
		Email:    "admin@example.com",
		Password: "secret1",
		Role:     "admin",
	})
	h.SignIn(t, testutil.Account{Email: "fasil@example.com", Password: "secret1"})
	fillCart(t, h)
	require.NoError(t, h.Orders.Checkout(context.Background(), billing))
	orderID := h.Orders.Orders()[0].OrderID

	// Ship the order through the admin console, then try to cancel it as
	// the buyer. The status must come back unchanged from the reload.
	h.SignIn(t, testutil.Account{ID: admin.ID})
	require.NoError(t, h.Orders.AdminUpdateStatus(context.Background(), orderID, enums.OrderStatusShipped))

	h.SignIn(t, testutil.Account{Email: "fasil@example.com", Password: "secret1"})
	h.Orders.Cancel(context.Background(), orderID)

	assert.Equal(t, enums.OrderStatusShipped, h.Orders.Orders()[0].Status)
}

func TestDeleteRemovesCancelledOrder(t *testing.T) {
	h := testutil.NewHarness(t)
	h.SignIn(t, testutil.Account{Email: "fasil@example.com", Password: "secret1"})
	fillCart(t, h)
	require.NoError(t, h.Orders.Checkout(context.Background(), billing))
	orderID := h.Orders.Orders()[0].OrderID

	// Deleting a live order is refused.
	h.Orders.Delete(context.Background(), orderID)
	require.Len(t, h.Orders.Orders(), 1)

	h.Orders.Cancel(context.Background(), orderID)
	h.Orders.Delete(context.Background(), orderID)
	assert.Empty(t, h.Orders.Orders())
}

func TestAdminFilter(t *testing.T) {
	h := testutil.NewHarness(t)
	admin := h.Backend.SeedAccount(testutil.Account{
		Email:    "admin@example.com",
		Password: "secret1",
		Role:     "admin",
	})
	h.SignIn(t, testutil.Account{Email: "fasil@example.com", Password: "secret1"})
	fillCart(t, h)
	require.NoError(t, h.Orders.Checkout(context.Background(), billing))
	orderID := h.Orders.Orders()[0].OrderID

	h.SignIn(t, testutil.Account{ID: admin.ID})

	all, err := h.Orders.AdminFilter(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, orderID, all[0].OrderID)

	processing, err := h.Orders.AdminFilter(context.Background(), "Processing", "")
	require.NoError(t, err)
	assert.Len(t, processing, 1)

	shipped, err := h.Orders.AdminFilter(context.Background(), "Shipped", "")
	require.NoError(t, err)
	assert.Empty(t, shipped)

	byName, err := h.Orders.AdminFilter(context.Background(), "all", "ahammed")
	require.NoError(t, err)
	assert.Len(t, byName, 1)
}

func TestAdminFilterRequiresAdminRole(t *testing.T) {
	h := testutil.NewHarness(t)
	h.SignIn(t, testutil.Account{Email: "fasil@example.com", Password: "secret1"})

	_, err := h.Orders.AdminFilter(context.Background(), "all", "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}

func TestAdminUpdateStatusRejectsUnknownStatus(t *testing.T) {
	h := testutil.NewHarness(t)
	h.SignIn(t, testutil.Account{Email: "admin@example.com", Password: "secret1", Role: "admin"})
	before := h.Backend.RequestCount("POST /orders/admin/update-status/")

	err := h.Orders.AdminUpdateStatus(context.Background(), "ord-1", enums.OrderStatus("Refunded"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Equal(t, before, h.Backend.RequestCount("POST /orders/admin/update-status/"))
}

func TestSignOutResetsOrderMirror(t *testing.T) {
	h := testutil.NewHarness(t)
	h.SignIn(t, testutil.Account{Email: "fasil@example.com", Password: "secret1"})
	fillCart(t, h)
	require.NoError(t, h.Orders.Checkout(context.Background(), billing))
	require.Len(t, h.Orders.Orders(), 1)

	h.Session.Logout(context.Background())
	assert.Empty(t, h.Orders.Orders())
}
