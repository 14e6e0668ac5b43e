package orders

import (
	"time"

	"github.com/fasilahammed/snapmob-client/pkg/enums"
	"github.com/shopspring/decimal"
)

// LineItem is one purchased product inside an order.
type LineItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Brand    string          `json:"brandName"`
	ImageURL string          `json:"imageUrl"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// BillingAddress is the shipping/billing block captured at checkout.
type BillingAddress struct {
	Name   string `json:"billingName"`
	Phone  string `json:"billingPhone"`
	Street string `json:"billingStreet"`
	City   string `json:"billingCity"`
	State  string `json:"billingState"`
	Zip    string `json:"billingZip"`
}

// Order is immutable once fetched except its status, which only the backend
// transitions. The client reads orders and requests cancellations.
type Order struct {
	OrderID       string              `json:"id"`
	PlacedAt      time.Time           `json:"createdOn"`
	Items         []LineItem          `json:"items"`
	TotalAmount   decimal.Decimal     `json:"totalAmount"`
	Status        enums.OrderStatus   `json:"orderStatus"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	BillingAddress
}

// Cancellable reports whether the cancel affordance should be offered. The
// backend is still the authority; a stale true here just means the cancel
// request will be refused.
func (o Order) Cancellable() bool {
	return o.Status == enums.OrderStatusProcessing
}

// CheckoutInput is the billing form posted to the checkout endpoint.
type CheckoutInput struct {
	FullName    string `json:"fullName" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Street      string `json:"street" validate:"required"`
	City        string `json:"city" validate:"required"`
	State       string `json:"state" validate:"required"`
	ZipCode     string `json:"zipCode" validate:"required"`
}
