package square

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront-service/internal/util"

	sq "github.com/square/square-go-sdk"
	sqcheckout "github.com/square/square-go-sdk/checkout"
	sqclient "github.com/square/square-go-sdk/client"
	"github.com/square/square-go-sdk/option"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// ErrInvalidPaymentLink is returned, without calling the provider, for a
// payment link request that does not set exactly one of Order or QuickPay.
var ErrInvalidPaymentLink = errors.New("payment link needs exactly one of order or quick_pay")

// Client adapts the Square SDK to the storefront's catalog, order, payment
// link and payment calls. Every call is timed and provider failures are
// returned as *APIError.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sdk        *sqclient.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different host, e.g. an httptest server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the production or sandbox environment.
// Deadlines come from the caller's context; the HTTP client has none of its
// own.
func NewClient(accessToken string, production bool, opts ...Option) *Client {
	baseURL := sq.Environments.Sandbox
	if production {
		baseURL = sq.Environments.Production
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		logger:     util.GetLogger().Named("square"),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.sdk = sqclient.NewClient(
		option.WithToken(accessToken),
		option.WithBaseURL(c.baseURL),
		option.WithHTTPClient(c.httpClient),
		option.WithMaxAttempts(1),
	)
	return c
}

// ListCatalog fetches one page of catalog objects of the given types.
// An empty cursor requests the first page.
func (c *Client) ListCatalog(ctx context.Context, cursor string, types []string) (*ListCatalogResponse, error) {
	req := &sq.SearchCatalogObjectsRequest{Cursor: optional(cursor)}
	for _, t := range types {
		req.ObjectTypes = append(req.ObjectTypes, sq.CatalogObjectType(t))
	}

	var resp *sq.SearchCatalogObjectsResponse
	err := c.call(ctx, "list_catalog", func(ctx context.Context) (err error) {
		resp, err = c.sdk.Catalog.Search(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	// The SDK models catalog objects as a union; re-decoding its JSON yields
	// the tagged records used by the normalizer.
	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("square list_catalog: failed to encode response: %w", err)
	}
	var page ListCatalogResponse
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("square list_catalog: failed to decode response: %w", err)
	}
	return &page, nil
}

// CreateOrder creates an order at the request's location.
func (c *Client) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	sdkReq := &sq.CreateOrderRequest{
		IdempotencyKey: optional(req.IdempotencyKey),
		Order:          toSDKOrder(req.Order),
	}

	var resp *sq.CreateOrderResponse
	err := c.call(ctx, "create_order", func(ctx context.Context) (err error) {
		resp, err = c.sdk.Orders.Create(ctx, sdkReq)
		return err
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Order == nil {
		return nil, fmt.Errorf("square create_order: response has no order")
	}
	return &CreateOrderResponse{Order: fromSDKOrder(resp.Order)}, nil
}

// CreatePaymentLink creates a hosted checkout page for an order or a
// quick-pay amount.
func (c *Client) CreatePaymentLink(ctx context.Context, req *CreatePaymentLinkRequest) (*CreatePaymentLinkResponse, error) {
	if (req.Order == nil) == (req.QuickPay == nil) {
		return nil, ErrInvalidPaymentLink
	}

	sdkReq := &sqcheckout.CreatePaymentLinkRequest{
		IdempotencyKey: optional(req.IdempotencyKey),
		Description:    optional(req.Description),
		PaymentNote:    optional(req.PaymentNote),
	}
	if req.Order != nil {
		sdkReq.Order = toSDKOrder(*req.Order)
	}
	if qp := req.QuickPay; qp != nil {
		sdkReq.QuickPay = &sq.QuickPay{
			Name:       qp.Name,
			PriceMoney: toSDKMoney(qp.PriceMoney),
			LocationID: qp.LocationID,
		}
	}
	if co := req.CheckoutOptions; co != nil {
		sdkReq.CheckoutOptions = &sq.CheckoutOptions{
			RedirectURL:           optional(co.RedirectURL),
			MerchantSupportEmail:  optional(co.MerchantSupportEmail),
			AskForShippingAddress: ptr(co.AskForShippingAddress),
			AllowTipping:          ptr(co.AllowTipping),
		}
	}
	if pd := req.PrePopulatedData; pd != nil {
		sdkReq.PrePopulatedData = &sq.PrePopulatedData{BuyerEmail: optional(pd.BuyerEmail)}
	}

	var resp *sq.CreatePaymentLinkResponse
	err := c.call(ctx, "create_payment_link", func(ctx context.Context) (err error) {
		resp, err = c.sdk.Checkout.PaymentLinks.Create(ctx, sdkReq)
		return err
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.PaymentLink == nil {
		return nil, fmt.Errorf("square create_payment_link: response has no payment link")
	}

	link := resp.PaymentLink
	return &CreatePaymentLinkResponse{PaymentLink: &PaymentLink{
		ID:      deref(link.ID),
		OrderID: deref(link.OrderID),
		URL:     deref(link.URL),
	}}, nil
}

// CreatePayment charges a payment source.
func (c *Client) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentResponse, error) {
	sdkReq := &sq.CreatePaymentRequest{
		SourceID:       req.SourceID,
		IdempotencyKey: req.IdempotencyKey,
		AmountMoney:    toSDKMoney(req.AmountMoney),
		LocationID:     optional(req.LocationID),
		Note:           optional(req.Note),
		Autocomplete:   ptr(req.Autocomplete),
	}

	var resp *sq.CreatePaymentResponse
	err := c.call(ctx, "create_payment", func(ctx context.Context) (err error) {
		resp, err = c.sdk.Payments.Create(ctx, sdkReq)
		return err
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Payment == nil {
		return nil, fmt.Errorf("square create_payment: response has no payment")
	}

	p := resp.Payment
	return &CreatePaymentResponse{Payment: &Payment{
		ID:          deref(p.ID),
		Status:      deref(p.Status),
		AmountMoney: fromSDKMoney(p.AmountMoney),
		ReceiptURL:  deref(p.ReceiptURL),
	}}, nil
}

// call runs one SDK call, records its latency and converts its error.
func (c *Client) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)

	status := "ok"
	if err != nil {
		err = fromSDKError(operation, err)
		status = "error"
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			status = strconv.Itoa(apiErr.StatusCode)
			c.logger.Warn("Square API error",
				zap.String("operation", operation),
				zap.Int("status", apiErr.StatusCode),
				zap.Any("errors", apiErr.Errors))
		}
	}
	util.ProviderRequestDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())

	if err == nil {
		c.logger.Debug("Square API call succeeded",
			zap.String("operation", operation),
			zap.Duration("elapsed", time.Since(start)))
	}
	return err
}

func toSDKOrder(o Order) *sq.Order {
	out := &sq.Order{
		LocationID:  o.LocationID,
		ReferenceID: optional(o.ReferenceID),
	}
	for _, li := range o.LineItems {
		line := &sq.OrderLineItem{
			Quantity:        li.Quantity,
			CatalogObjectID: optional(li.CatalogObjectID),
			Note:            optional(li.Note),
		}
		if li.ItemType != "" {
			line.ItemType = ptr(sq.OrderLineItemItemType(li.ItemType))
		}
		for _, m := range li.Modifiers {
			line.Modifiers = append(line.Modifiers, &sq.OrderLineItemModifier{
				CatalogObjectID: optional(m.CatalogObjectID),
				Quantity:        optional(m.Quantity),
			})
		}
		out.LineItems = append(out.LineItems, line)
	}
	for _, f := range o.Fulfillments {
		out.Fulfillments = append(out.Fulfillments, toSDKFulfillment(f))
	}
	return out
}

func toSDKFulfillment(f Fulfillment) *sq.Fulfillment {
	out := &sq.Fulfillment{
		Type:  ptr(sq.FulfillmentType(f.Type)),
		State: ptr(sq.FulfillmentState(f.State)),
	}
	if pd := f.PickupDetails; pd != nil {
		out.PickupDetails = &sq.FulfillmentPickupDetails{
			Recipient:    toSDKRecipient(pd.Recipient),
			Note:         optional(pd.Note),
			ScheduleType: ptr(sq.FulfillmentPickupDetailsScheduleType(pd.ScheduleType)),
		}
	}
	if sd := f.ShipmentDetails; sd != nil {
		out.ShipmentDetails = &sq.FulfillmentShipmentDetails{
			Recipient:    toSDKRecipient(sd.Recipient),
			ShippingNote: optional(sd.ShippingNote),
		}
	}
	return out
}

func toSDKRecipient(r *Recipient) *sq.FulfillmentRecipient {
	if r == nil {
		return nil
	}
	return &sq.FulfillmentRecipient{EmailAddress: optional(r.EmailAddress)}
}

func fromSDKOrder(o *sq.Order) *Order {
	return &Order{
		ID:          deref(o.ID),
		LocationID:  o.LocationID,
		ReferenceID: deref(o.ReferenceID),
		TotalMoney:  fromSDKMoney(o.TotalMoney),
	}
}

func toSDKMoney(m Money) *sq.Money {
	return &sq.Money{
		Amount:   ptr(m.Amount),
		Currency: ptr(sq.Currency(m.Currency)),
	}
}

func fromSDKMoney(m *sq.Money) *Money {
	if m == nil {
		return nil
	}
	out := &Money{}
	if m.Amount != nil {
		out.Amount = *m.Amount
	}
	if m.Currency != nil {
		out.Currency = string(*m.Currency)
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ptr[T any](v T) *T {
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
