package models

import "time"

// Event types
const (
	EventTypeCheckoutCreated  = "CHECKOUT_CREATED"
	EventTypePaymentCompleted = "PAYMENT_COMPLETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckoutCreatedEvent published when a payment link has been issued
type CheckoutCreatedEvent struct {
	BaseEvent
	OrderID        string `json:"order_id"`
	PaymentOrderID string `json:"payment_order_id,omitempty"`
	PaymentLinkID  string `json:"payment_link_id"`
	CheckoutURL    string `json:"checkout_url"`
	Mode           string `json:"mode"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	ItemCount      int    `json:"item_count"`
	Fulfillment    string `json:"fulfillment,omitempty"`
}

// PaymentCompletedEvent published after a direct payment succeeds
type PaymentCompletedEvent struct {
	BaseEvent
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}
