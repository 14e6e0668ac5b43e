package payments

import (
	"context"

	"github.com/fasilahammed/snapmob-client/internal/rest"
	pkgerrors "github.com/fasilahammed/snapmob-client/pkg/errors"
	"github.com/fasilahammed/snapmob-client/pkg/logger"
	"github.com/fasilahammed/snapmob-client/pkg/validate"
)

// GatewayOrder is what the backend returns when it opens a Razorpay order
// for the current cart. The checkout UI hands these to the gateway widget.
type GatewayOrder struct {
	OrderID  string `json:"orderId"`
	Key      string `json:"key"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// VerifyInput is the signature triple the gateway returns on success, plus
// the billing block the backend needs to finalize the order.
type VerifyInput struct {
	RazorpayOrderID   string `json:"razorpayOrderId" validate:"required"`
	RazorpayPaymentID string `json:"razorpayPaymentId" validate:"required"`
	RazorpaySignature string `json:"razorpaySignature" validate:"required"`
	FullName          string `json:"fullName" validate:"required"`
	PhoneNumber       string `json:"phoneNumber" validate:"required"`
	Street            string `json:"street" validate:"required"`
	City              string `json:"city" validate:"required"`
	State             string `json:"state" validate:"required"`
	ZipCode           string `json:"zipCode" validate:"required"`
}

// ServiceParams groups dependencies for the payment service.
type ServiceParams struct {
	API    *rest.Client
	Logger *logger.Logger
}

// Service wraps the backend's Razorpay endpoints. The gateway itself is
// operated entirely by the backend; the client only relays the widget's
// results for verification.
type Service struct {
	api *rest.Client
	log *logger.Logger
}

// NewService builds the payment service.
func NewService(params ServiceParams) (*Service, error) {
	if params.API == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "api client is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &Service{api: params.API, log: params.Logger}, nil
}

// CreateOrder asks the backend to open a gateway order for the current cart.
func (s *Service) CreateOrder(ctx context.Context) (*GatewayOrder, error) {
	var order GatewayOrder
	if err := s.api.Post(ctx, "/payments/razorpay/create", nil, &order); err != nil {
		return nil, err
	}
	if order.OrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway returned no order id")
	}
	return &order, nil
}

// Verify submits the gateway's signature triple for server-side validation
// and order finalization.
func (s *Service) Verify(ctx context.Context, input VerifyInput) error {
	if err := validate.Struct(input); err != nil {
		return err
	}
	return s.api.Post(ctx, "/payments/razorpay/verify", input, nil)
}
