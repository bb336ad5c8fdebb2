package service

import (
	"context"
	"errors"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/square"
)

var (
	// ErrInvalidInput marks client input errors. Use errors.As with
	// *ValidationError to get the message.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured is returned before any provider call when credentials
	// are missing.
	ErrNotConfigured = errors.New("square not configured")
)

// ValidationError is a client input error with a user-facing message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalidInput(msg string) error {
	return &ValidationError{Message: msg}
}

// Provider is the commerce provider API used by the services.
// *square.Client implements it.
type Provider interface {
	ListCatalog(ctx context.Context, cursor string, types []string) (*square.ListCatalogResponse, error)
	CreateOrder(ctx context.Context, req *square.CreateOrderRequest) (*square.CreateOrderResponse, error)
	CreatePaymentLink(ctx context.Context, req *square.CreatePaymentLinkRequest) (*square.CreatePaymentLinkResponse, error)
	CreatePayment(ctx context.Context, req *square.CreatePaymentRequest) (*square.CreatePaymentResponse, error)
}

// Cache stores JSON-encodable values. *redisclient.Client implements it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher emits storefront events. *broker.EventPublisher implements it.
type EventPublisher interface {
	PublishCheckoutCreated(ctx context.Context, event *models.CheckoutCreatedEvent) error
	PublishPaymentCompleted(ctx context.Context, event *models.PaymentCompletedEvent) error
}
