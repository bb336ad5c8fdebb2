package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"storefront-service/internal/models"
	"storefront-service/internal/square"
)

type errorResponse struct {
	Success   bool        `json:"success"`
	Error     string      `json:"error"`
	Code      string      `json:"code,omitempty"`
	Details   interface{} `json:"details,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
}

type catalogResponse struct {
	Success    bool             `json:"success"`
	Products   []models.Product `json:"products"`
	TotalItems int              `json:"totalItems"`
	Debug      *catalogDebug    `json:"debug,omitempty"`
}

type catalogDebug struct {
	Environment   string           `json:"environment"`
	IsProduction  bool             `json:"isProduction"`
	LocationID    string           `json:"locationId"`
	TotalObjects  int              `json:"totalObjects"`
	RawItemsCount int              `json:"rawItemsCount"`
	RawItems      []models.RawItem `json:"rawItems"`
	FilteredOut   []filteredItem   `json:"filteredOut"`
	FromCache     bool             `json:"fromCache"`
}

type filteredItem struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type checkoutBody struct {
	Items           []models.CartItem `json:"items"`
	FulfillmentType string            `json:"fulfillmentType"`
	Email           string            `json:"email"`
	Note            string            `json:"note"`
}

type checkoutResponse struct {
	Success     bool         `json:"success"`
	CheckoutURL string       `json:"checkoutUrl"`
	OrderID     string       `json:"orderId"`
	Total       models.Money `json:"total"`
	Mode        string       `json:"mode"`
}

type paymentBody struct {
	SourceID string      `json:"sourceId"`
	Amount   minorAmount `json:"amount"`
	ItemName string      `json:"itemName"`
	Currency string      `json:"currency"`
}

type paymentResponse struct {
	Success bool           `json:"success"`
	Payment paymentPayload `json:"payment"`
}

type paymentPayload struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	ReceiptURL string `json:"receiptUrl"`
}

type providerErrors []square.Error

// minorAmount accepts an amount in minor units as either a JSON number or a
// numeric string, since browsers serialize large integers as strings.
type minorAmount int64

func (a *minorAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}

	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*a = 0
			return nil
		}
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("amount must be an integer number of minor units: %q", raw)
	}
	*a = minorAmount(n)
	return nil
}
