package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront-service/config"
	"storefront-service/internal/models"
	"storefront-service/internal/square"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	redirectPath = "/order-complete"

	// maxItemQuantity bounds a single cart line.
	maxItemQuantity = 999
)

// CheckoutService turns a cart into a provider order and a hosted payment link.
type CheckoutService struct {
	provider  Provider
	publisher EventPublisher
	cfg       *config.Config
	newKey    func() string
	logger    *zap.Logger
}

// NewCheckoutService creates a checkout service
func NewCheckoutService(provider Provider, publisher EventPublisher, cfg *config.Config) *CheckoutService {
	return &CheckoutService{
		provider:  provider,
		publisher: publisher,
		cfg:       cfg,
		newKey:    uuid.NewString,
		logger:    util.GetLogger(),
	}
}

// CheckoutRequest is a validated-on-entry cart submission.
type CheckoutRequest struct {
	Items           []models.CartItem `json:"items"`
	FulfillmentType string            `json:"fulfillmentType,omitempty"`
	Email           string            `json:"email,omitempty"`
	Note            string            `json:"note,omitempty"`
	// Origin is the storefront origin used to build the redirect URL.
	Origin string `json:"-"`
}

// CheckoutResult identifies the payment link issued for the cart.
// PaymentOrderID is the order the hosted page collects payment for; in order
// mode it references OrderID.
type CheckoutResult struct {
	CheckoutURL    string
	OrderID        string
	PaymentOrderID string
	PaymentLinkID  string
	Total          models.Money
	Mode           string
}

// CreateCheckout creates the order, then a payment link bound to it. With
// the quick-pay fallback enabled, a provider rejection of the order yields an
// aggregate-amount link instead.
func (s *CheckoutService) CreateCheckout(ctx context.Context, req *CheckoutRequest) (*CheckoutResult, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.CreateCheckout")
	defer span.End()

	fulfillment, err := validateCheckout(req)
	if err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	if err := s.cfg.Square.Validate(); err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("not_configured").Inc()
		return nil, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Square.Timeout)
	defer cancel()

	order := square.Order{
		LocationID: s.cfg.Square.LocationID,
		LineItems:  buildLineItems(req.Items),
	}
	if f := buildFulfillment(fulfillment, req.Email, req.Note); f != nil {
		order.Fulfillments = []square.Fulfillment{*f}
	}

	orderResp, err := s.provider.CreateOrder(ctx, &square.CreateOrderRequest{
		IdempotencyKey: s.newKey(),
		Order:          order,
	})
	if err != nil {
		var apiErr *square.APIError
		if s.cfg.Checkout.QuickPayFallback && errors.As(err, &apiErr) {
			s.logger.Warn("Order creation rejected, falling back to quick pay",
				zap.String("code", apiErr.First().Code),
				zap.String("detail", apiErr.Message()))
			return s.createQuickPay(ctx, req, fulfillment)
		}
		util.CheckoutsFailedTotal.WithLabelValues("create_order").Inc()
		return nil, fmt.Errorf("create order: %w", err)
	}

	created := orderResp.Order
	total := models.Money{Currency: s.cfg.Square.Currency}
	if created.TotalMoney != nil {
		total = models.Money{Amount: created.TotalMoney.Amount, Currency: created.TotalMoney.Currency}
	}

	s.logger.Info("Order created",
		zap.String("order_id", created.ID),
		zap.Int64("total", total.Amount),
		zap.String("currency", total.Currency))

	// A payment link cannot point at an existing order. It carries the same
	// order content and records the created order as its reference.
	linkReq := s.paymentLinkRequest(req, fulfillment)
	linkReq.Order = &square.Order{
		LocationID:   order.LocationID,
		ReferenceID:  created.ID,
		LineItems:    order.LineItems,
		Fulfillments: order.Fulfillments,
	}

	linkResp, err := s.provider.CreatePaymentLink(ctx, linkReq)
	if err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("create_payment_link").Inc()
		return nil, fmt.Errorf("create payment link: %w", err)
	}

	result := &CheckoutResult{
		CheckoutURL:    linkResp.PaymentLink.URL,
		OrderID:        created.ID,
		PaymentOrderID: linkResp.PaymentLink.OrderID,
		PaymentLinkID:  linkResp.PaymentLink.ID,
		Total:          total,
		Mode:           models.CheckoutModeOrder,
	}
	s.finish(ctx, req, fulfillment, result)
	return result, nil
}

// createQuickPay issues a single-amount link. Per-line-item detail is lost in
// the provider's records.
func (s *CheckoutService) createQuickPay(ctx context.Context, req *CheckoutRequest, fulfillment string) (*CheckoutResult, error) {
	total := models.Money{Amount: CartTotal(req.Items), Currency: s.cfg.Square.Currency}

	linkReq := s.paymentLinkRequest(req, fulfillment)
	linkReq.QuickPay = &square.QuickPay{
		Name:       quickPayName(s.cfg.Checkout.StoreName, req.Items),
		PriceMoney: square.Money{Amount: total.Amount, Currency: total.Currency},
		LocationID: s.cfg.Square.LocationID,
	}

	linkResp, err := s.provider.CreatePaymentLink(ctx, linkReq)
	if err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("quick_pay").Inc()
		return nil, fmt.Errorf("create quick pay link: %w", err)
	}

	result := &CheckoutResult{
		CheckoutURL:    linkResp.PaymentLink.URL,
		OrderID:        linkResp.PaymentLink.OrderID,
		PaymentOrderID: linkResp.PaymentLink.OrderID,
		PaymentLinkID:  linkResp.PaymentLink.ID,
		Total:          total,
		Mode:           models.CheckoutModeQuickPay,
	}
	s.finish(ctx, req, fulfillment, result)
	return result, nil
}

func (s *CheckoutService) paymentLinkRequest(req *CheckoutRequest, fulfillment string) *square.CreatePaymentLinkRequest {
	linkReq := &square.CreatePaymentLinkRequest{
		IdempotencyKey: s.newKey(),
		Description:    fmt.Sprintf("%s Order", s.cfg.Checkout.StoreName),
		CheckoutOptions: &square.CheckoutOptions{
			RedirectURL:           s.redirectURL(req.Origin),
			MerchantSupportEmail:  s.cfg.Checkout.SupportEmail,
			AskForShippingAddress: fulfillment == models.FulfillmentShipment,
			AllowTipping:          s.cfg.Checkout.AllowTipping,
		},
		PaymentNote: req.Note,
	}
	if req.Email != "" {
		linkReq.PrePopulatedData = &square.PrePopulatedData{BuyerEmail: req.Email}
	}
	return linkReq
}

// redirectURL uses the request origin when it is trusted and the configured
// base URL otherwise.
func (s *CheckoutService) redirectURL(origin string) string {
	base := s.cfg.Checkout.RedirectBaseURL
	if o := normalizeOrigin(origin); o != "" && s.originAllowed(o) {
		base = o
	}
	return base + redirectPath
}

func (s *CheckoutService) originAllowed(origin string) bool {
	if strings.EqualFold(origin, s.cfg.Checkout.RedirectBaseURL) {
		return true
	}
	for _, allowed := range s.cfg.Checkout.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(origin, strings.TrimSuffix(allowed, "/")) {
			return true
		}
	}
	return false
}

// normalizeOrigin returns origin without a trailing slash, or "" unless it is
// an absolute http(s) URL.
func normalizeOrigin(origin string) string {
	o := strings.TrimSuffix(strings.TrimSpace(origin), "/")
	u, err := url.Parse(o)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return o
}

func (s *CheckoutService) finish(ctx context.Context, req *CheckoutRequest, fulfillment string, result *CheckoutResult) {
	util.CheckoutsCreatedTotal.WithLabelValues(result.Mode).Inc()
	s.logger.Info("Checkout created",
		zap.String("order_id", result.OrderID),
		zap.String("payment_order_id", result.PaymentOrderID),
		zap.String("payment_link_id", result.PaymentLinkID),
		zap.String("mode", result.Mode))

	event := &models.CheckoutCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeCheckoutCreated,
			Timestamp: time.Now(),
		},
		OrderID:        result.OrderID,
		PaymentOrderID: result.PaymentOrderID,
		PaymentLinkID:  result.PaymentLinkID,
		CheckoutURL:    result.CheckoutURL,
		Mode:           result.Mode,
		Amount:         result.Total.Amount,
		Currency:       result.Total.Currency,
		ItemCount:      len(req.Items),
		Fulfillment:    fulfillment,
	}
	if err := s.publisher.PublishCheckoutCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish CheckoutCreated event", zap.Error(err))
	}
}

// validateCheckout checks presence only; prices and ids are not verified
// against the live catalog. It returns the normalized fulfillment kind.
func validateCheckout(req *CheckoutRequest) (string, error) {
	if req == nil || len(req.Items) == 0 {
		return "", invalidInput("No items in cart")
	}
	for i, item := range req.Items {
		if item.CatalogObjectID() == "" {
			return "", invalidInput(fmt.Sprintf("Item %d is missing an id", i+1))
		}
		if item.Quantity <= 0 || item.Quantity > maxItemQuantity {
			return "", invalidInput(fmt.Sprintf("Item %d has an invalid quantity", i+1))
		}
		if item.Price < 0 {
			return "", invalidInput(fmt.Sprintf("Item %d has an invalid price", i+1))
		}
		for _, m := range item.Modifiers {
			if m.Price < 0 {
				return "", invalidInput(fmt.Sprintf("Item %d has an invalid option price", i+1))
			}
		}
	}
	if _, ok := cartTotal(req.Items); !ok {
		return "", invalidInput("Cart total is too large")
	}

	fulfillment := strings.ToUpper(strings.TrimSpace(req.FulfillmentType))
	switch fulfillment {
	case "", models.FulfillmentPickup, models.FulfillmentShipment:
		return fulfillment, nil
	default:
		return "", invalidInput(fmt.Sprintf("Unsupported fulfillment type %q", req.FulfillmentType))
	}
}

func buildLineItems(items []models.CartItem) []square.LineItem {
	lines := make([]square.LineItem, 0, len(items))
	for _, item := range items {
		line := square.LineItem{
			Quantity:        strconv.Itoa(item.Quantity),
			CatalogObjectID: item.CatalogObjectID(),
			ItemType:        square.LineItemTypeItem,
			Note:            lineItemNote(item),
		}
		for _, m := range item.Modifiers {
			if m.ID == "" {
				continue
			}
			line.Modifiers = append(line.Modifiers, square.LineItemModifier{
				CatalogObjectID: m.ID,
				Quantity:        "1",
			})
		}
		lines = append(lines, line)
	}
	return lines
}

// lineItemNote describes the buyer's choices, e.g.
// "Variation: Large; Options: Extra Rum, Gift Box; Note: no nuts".
func lineItemNote(item models.CartItem) string {
	var parts []string
	if item.VariationName != "" {
		parts = append(parts, "Variation: "+item.VariationName)
	}
	if len(item.Modifiers) > 0 {
		names := make([]string, 0, len(item.Modifiers))
		for _, m := range item.Modifiers {
			if m.Name != "" {
				names = append(names, m.Name)
			}
		}
		if len(names) > 0 {
			parts = append(parts, "Options: "+strings.Join(names, ", "))
		}
	}
	if note := strings.TrimSpace(item.Note); note != "" {
		parts = append(parts, "Note: "+note)
	}
	return strings.Join(parts, "; ")
}

func buildFulfillment(kind, email, note string) *square.Fulfillment {
	var recipient *square.Recipient
	if email != "" {
		recipient = &square.Recipient{EmailAddress: email}
	}

	switch kind {
	case models.FulfillmentPickup:
		return &square.Fulfillment{
			Type:  square.FulfillmentTypePickup,
			State: square.FulfillmentStateProposed,
			PickupDetails: &square.PickupDetails{
				Recipient:    recipient,
				Note:         note,
				ScheduleType: square.PickupScheduleASAP,
			},
		}
	case models.FulfillmentShipment:
		return &square.Fulfillment{
			Type:  square.FulfillmentTypeShipment,
			State: square.FulfillmentStateProposed,
			ShipmentDetails: &square.ShipmentDetails{
				Recipient:    recipient,
				ShippingNote: note,
			},
		}
	default:
		return nil
	}
}

// CartTotal sums (price + modifier deltas) x quantity over a validated cart.
func CartTotal(items []models.CartItem) int64 {
	total, _ := cartTotal(items)
	return total
}

// cartTotal reports false when the sum of non-negative prices overflows.
func cartTotal(items []models.CartItem) (int64, bool) {
	var total int64
	for _, item := range items {
		unit := item.Price
		for _, m := range item.Modifiers {
			if m.Price > math.MaxInt64-unit {
				return 0, false
			}
			unit += m.Price
		}
		qty := int64(item.Quantity)
		if unit > 0 && qty > (math.MaxInt64-total)/unit {
			return 0, false
		}
		total += unit * qty
	}
	return total, true
}

func quickPayName(storeName string, items []models.CartItem) string {
	if len(items) == 1 {
		name := items[0].Name
		if name == "" {
			name = "Item"
		}
		return fmt.Sprintf("%s x%d", name, items[0].Quantity)
	}
	return fmt.Sprintf("%s Order (%d items)", storeName, len(items))
}
